package hook_test

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/rs/zerolog"

	"github.com/actingweb/actingweb-sub001/internal/coop"
	"github.com/actingweb/actingweb-sub001/internal/hook"
	"github.com/actingweb/actingweb-sub001/internal/permission"
	"github.com/actingweb/actingweb-sub001/pkg/types"
)

var _ = Describe("Dispatch", func() {
	var (
		table  *hook.Table
		sink   *hook.MemorySink
		engine *hook.Engine
		loop   *coop.Loop
		stop   func()
		ctx    context.Context
	)

	value := func(v any) hook.Func {
		return func(context.Context, *hook.Call) (any, error) { return v, nil }
	}
	delayed := func(d time.Duration, v any) hook.Func {
		return func(ctx context.Context, _ *hook.Call) (any, error) {
			select {
			case <-time.After(d):
				return v, nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	req := func(c types.Category, name string) hook.Request {
		return hook.Request{Category: c, Name: name, Actor: &types.Actor{ID: "actor"}}
	}

	BeforeEach(func() {
		ctx = context.Background()
		table = hook.NewTable(hook.WithTableLogger(zerolog.Nop()))
		sink = &hook.MemorySink{}
		loop = coop.New()
		stop = loop.Go(ctx)
	})

	AfterEach(func() {
		stop()
	})

	JustBeforeEach(func() {
		engine = hook.NewEngine(table, hook.WithSink(sink), hook.WithLogger(zerolog.Nop()))
	})

	for _, mode := range []hook.Mode{hook.ModeBlocking, hook.ModeCooperative} {
		mode := mode

		Context("on a "+mode.String()+" host", func() {
			exec := func() hook.ExecutionContext {
				if mode == hook.ModeCooperative {
					return hook.NewCooperativeContext(ctx, loop)
				}
				return hook.NewBlockingContext(ctx)
			}

			Describe("a blocking hook registered before a suspendable one", func() {
				var suspendableCalls atomic.Int32

				BeforeEach(func() {
					suspendableCalls.Store(0)
					table.Register(types.CategoryMethod, "foo", hook.Blocking(value(map[string]any{"r": "a"})))
					table.Register(types.CategoryMethod, "foo", hook.Suspendable(func(ctx context.Context, c *hook.Call) (any, error) {
						suspendableCalls.Add(1)
						return delayed(10*time.Millisecond, map[string]any{"r": "b"})(ctx, c)
					}))
				})

				It("returns the first hook's value", func() {
					res := engine.Dispatch(exec(), req(types.CategoryMethod, "foo"))
					Expect(res.Kind).To(Equal(hook.ResultHandled))
					Expect(res.Value).To(Equal(map[string]any{"r": "a"}))
				})

				It("never invokes the second hook", func() {
					engine.Dispatch(exec(), req(types.CategoryMethod, "foo"))
					Consistently(suspendableCalls.Load, 30*time.Millisecond).Should(BeZero())
				})
			})

			Describe("a failing wildcard hook", func() {
				BeforeEach(func() {
					table.RegisterWildcard(types.CategoryAction, hook.Blocking(func(context.Context, *hook.Call) (any, error) {
						return nil, errors.New("raised")
					}))
				})

				It("leaves the event unhandled and records one callable failure", func() {
					res := engine.Dispatch(exec(), req(types.CategoryAction, "anything"))
					Expect(res.Kind).To(Equal(hook.ResultUnhandled))
					Expect(sink.Failures()).To(HaveLen(1))
					Expect(sink.Failures()[0].Kind).To(Equal(hook.CallableFailure))
				})
			})

			Describe("a denied event", func() {
				var calls atomic.Int32

				BeforeEach(func() {
					calls.Store(0)
					table.Register(types.CategoryMethod, "secret", hook.Blocking(func(context.Context, *hook.Call) (any, error) {
						calls.Add(1)
						return "leak", nil
					}))
				})

				JustBeforeEach(func() {
					gate := permission.GateFunc(func(c types.Category, name string, _ *types.Actor, _ *types.Auth) bool {
						return name != "secret"
					})
					engine = hook.NewEngine(table, hook.WithSink(sink), hook.WithGate(gate), hook.WithLogger(zerolog.Nop()))
				})

				It("returns Denied without touching any hook or the sink", func() {
					res := engine.Dispatch(exec(), req(types.CategoryMethod, "secret"))
					Expect(res.Kind).To(Equal(hook.ResultDenied))
					Expect(calls.Load()).To(BeZero())
					Expect(sink.Len()).To(BeZero())
				})
			})

			Describe("a hook outliving the deadline", func() {
				BeforeEach(func() {
					table.Register(types.CategoryMethod, "slow", hook.Suspendable(delayed(time.Second, "late")))
				})

				It("is abandoned as a timeout failure", func() {
					ec, cancel := exec().WithTimeout(25 * time.Millisecond)
					defer cancel()

					start := time.Now()
					res := engine.Dispatch(ec, req(types.CategoryMethod, "slow"))
					Expect(time.Since(start)).To(BeNumerically("<", 500*time.Millisecond))
					Expect(res.Kind).To(Equal(hook.ResultUnhandled))
					Expect(sink.Failures()).To(ConsistOf(
						HaveField("Kind", hook.TimeoutFailure),
					))
				})
			})
		})
	}

	Describe("five concurrent cooperative dispatches", func() {
		names := []string{"one", "two", "three", "four", "five"}

		BeforeEach(func() {
			for _, n := range names {
				table.Register(types.CategoryMethod, n, hook.Suspendable(delayed(100*time.Millisecond, n)))
			}
		})

		It("finish in about one hook's delay", func() {
			start := time.Now()
			futures := make([]*hook.Future, 0, len(names))
			for _, n := range names {
				futures = append(futures, engine.Start(hook.NewCooperativeContext(ctx, loop), req(types.CategoryMethod, n)))
			}
			for i, f := range futures {
				Eventually(f.Done()).Should(BeClosed())
				Expect(f.Wait().Value).To(Equal(names[i]))
			}
			Expect(time.Since(start)).To(BeNumerically("<", 300*time.Millisecond))
		})
	})
})
