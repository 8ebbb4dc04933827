package hook

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/actingweb/actingweb-sub001/internal/event"
	"github.com/actingweb/actingweb-sub001/internal/logging"
	"github.com/actingweb/actingweb-sub001/internal/permission"
	"github.com/actingweb/actingweb-sub001/pkg/types"
)

// Request is one incoming event to dispatch.
type Request struct {
	Category types.Category
	Name     string
	Actor    *types.Actor
	Payload  any
	Auth     *types.Auth
}

// ResultKind is the terminal state of a dispatch.
type ResultKind int

const (
	ResultUnhandled ResultKind = iota
	ResultHandled
	ResultDenied
)

func (k ResultKind) String() string {
	switch k {
	case ResultHandled:
		return "handled"
	case ResultUnhandled:
		return "unhandled"
	case ResultDenied:
		return "denied"
	}
	return "unknown"
}

// Result is the outcome of one dispatch. Value and HookID are only set
// when Kind is ResultHandled.
type Result struct {
	Kind       ResultKind
	Value      any
	HookID     string
	DispatchID string
	Candidates int
	Invoked    int
	Failures   int
	Duration   time.Duration
}

// Handled reports whether a hook produced the value.
func (r Result) Handled() bool { return r.Kind == ResultHandled }

// Observer is told about every completed dispatch.
type Observer interface {
	ObserveDispatch(req Request, res Result)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(req Request, res Result)

func (f ObserverFunc) ObserveDispatch(req Request, res Result) { f(req, res) }

// Engine dispatches requests to the hooks of a Table.
type Engine struct {
	table    *Table
	gate     permission.Gate
	sink     Sink
	invoker  *Invoker
	bus      *event.Bus
	observer Observer
	timeout  time.Duration
	log      zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithGate sets the permission gate. The default allows everything.
func WithGate(g permission.Gate) Option {
	return func(e *Engine) { e.gate = g }
}

// WithSink sets the failure sink. The default logs failures.
func WithSink(s Sink) Option {
	return func(e *Engine) { e.sink = s }
}

// WithBus publishes dispatch.denied and dispatch.completed events on bus.
func WithBus(bus *event.Bus) Option {
	return func(e *Engine) { e.bus = bus }
}

// WithObserver sets the dispatch observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// WithDefaultTimeout bounds dispatches whose context has no deadline.
func WithDefaultTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// WithLogger sets the engine's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// NewEngine creates an engine over table.
func NewEngine(table *Table, opts ...Option) *Engine {
	e := &Engine{
		table: table,
		gate:  permission.AllowAll,
		log:   logging.Component("dispatch"),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.sink == nil {
		e.sink = LogSink{Logger: e.log}
	}
	e.invoker = NewInvoker(e.log)
	return e
}

// Table returns the engine's hook table.
func (e *Engine) Table() *Table { return e.table }

// Dispatch runs req to completion and returns its result. It never fails.
//
// Dispatch blocks the calling goroutine. With a cooperative context it must
// not be called from the scheduler's own goroutine; use Start there.
func (e *Engine) Dispatch(ec ExecutionContext, req Request) Result {
	return e.Start(ec, req).Wait()
}

// Start begins dispatching req and returns a Future for the result.
//
// With a blocking context the dispatch runs on the calling goroutine and
// the returned Future is already resolved. With a cooperative context the
// dispatch runs as a series of steps posted to the context's scheduler,
// suspending whenever a suspendable hook is pending.
func (e *Engine) Start(ec ExecutionContext, req Request) *Future {
	r := &run{
		e:      e,
		ec:     ec,
		req:    req,
		id:     ulid.Make().String(),
		start:  time.Now(),
		future: newFuture(),
	}
	if e.timeout > 0 {
		if _, ok := ec.Context().Deadline(); !ok {
			r.ec, r.cancel = ec.WithTimeout(e.timeout)
		}
	}

	if ec.Mode() == ModeCooperative {
		r.post(r.begin)
	} else {
		r.begin()
	}
	return r.future
}

func (e *Engine) allow(req Request) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			e.log.Error().
				Interface("panic", rec).
				Str("category", string(req.Category)).
				Str("name", req.Name).
				Msg("permission gate panicked, denying")
			ok = false
		}
	}()
	return e.gate.Allow(req.Category, req.Name, req.Actor, req.Auth)
}

func (e *Engine) record(f Failure) {
	defer func() {
		if rec := recover(); rec != nil {
			e.log.Error().Interface("panic", rec).Msg("failure sink panicked")
		}
	}()
	e.sink.Record(f)
}

func (e *Engine) observe(req Request, res Result) {
	if e.observer == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			e.log.Error().Interface("panic", rec).Msg("dispatch observer panicked")
		}
	}()
	e.observer.ObserveDispatch(req, res)
}

func (e *Engine) publish(ev event.Event) {
	defer func() {
		if rec := recover(); rec != nil {
			e.log.Error().Interface("panic", rec).Str("event", string(ev.Type)).Msg("event publish panicked")
		}
	}()
	e.bus.Publish(ev)
}

// run is the state of one dispatch: the candidate list and the position
// of the next candidate to try.
type run struct {
	e      *Engine
	ec     ExecutionContext
	cancel context.CancelFunc
	req    Request
	id     string
	start  time.Time
	future *Future

	cands    []*Registration
	i        int
	invoked  int
	failures int
}

func (r *run) post(fn func()) {
	if !r.ec.Scheduler().Post(fn) {
		fn()
	}
}

func (r *run) begin() {
	if !r.e.allow(r.req) {
		r.e.log.Info().
			Str("dispatch", r.id).
			Str("category", string(r.req.Category)).
			Str("name", r.req.Name).
			Str("actor", types.ActorID(r.req.Actor)).
			Str("auth", string(types.AuthTypeOf(r.req.Auth))).
			Msg("dispatch denied")
		if r.e.bus != nil {
			r.e.publish(event.Event{
				Type: event.DispatchDenied,
				Data: event.DispatchDeniedData{
					DispatchID: r.id,
					Category:   string(r.req.Category),
					Name:       r.req.Name,
					ActorID:    types.ActorID(r.req.Actor),
					AuthType:   string(types.AuthTypeOf(r.req.Auth)),
				},
			})
		}
		r.finish(Result{Kind: ResultDenied})
		return
	}

	r.cands = r.e.table.CandidatesFor(r.req.Category, r.req.Name)
	r.step()
}

// step tries candidates from r.i onwards until one yields a value, the
// list runs out, or a suspendable candidate is pending on a cooperative
// host, in which case the dispatch resumes from suspend.
func (r *run) step() {
	ctx := r.ec.Context()
	for r.i < len(r.cands) {
		reg := r.cands[r.i]
		r.i++
		r.invoked++

		o, p := r.e.invoker.Invoke(ctx, reg, r.call())
		if p != nil {
			if r.ec.Mode() == ModeCooperative {
				r.suspend(ctx, reg, p)
				return
			}
			o = p.Wait(ctx)
		}
		if r.settle(reg, o) {
			return
		}
	}
	r.finish(Result{Kind: ResultUnhandled})
}

// suspend resumes the dispatch on the scheduler once p finishes or ctx is
// done, whichever comes first.
func (r *run) suspend(ctx context.Context, reg *Registration, p *Pending) {
	started := time.Now()
	var once sync.Once
	resume := func(o Outcome) {
		once.Do(func() {
			r.post(func() {
				if !r.settle(reg, o) {
					r.step()
				}
			})
		})
	}

	stop := context.AfterFunc(ctx, func() {
		o := failedOutcome(abandonedError(ctx))
		o.Duration = time.Since(started)
		resume(o)
	})
	p.onDone(func(o Outcome) {
		stop()
		resume(o)
	})
}

// settle applies one outcome and reports whether the dispatch finished.
func (r *run) settle(reg *Registration, o Outcome) bool {
	switch o.State {
	case StateValue:
		r.finish(Result{Kind: ResultHandled, Value: o.Value, HookID: reg.ID})
		return true
	case StateFailed:
		r.failures++
		r.e.record(Failure{
			DispatchID: r.id,
			HookID:     reg.ID,
			Category:   r.req.Category,
			Name:       r.req.Name,
			Kind:       classify(o.Err),
			Cause:      o.Err,
			Duration:   o.Duration,
		})
	}
	return false
}

func (r *run) call() *Call {
	return &Call{
		DispatchID: r.id,
		Category:   r.req.Category,
		Name:       r.req.Name,
		Actor:      r.req.Actor,
		Payload:    r.req.Payload,
		Auth:       r.req.Auth,
	}
}

func (r *run) finish(res Result) {
	if r.cancel != nil {
		r.cancel()
	}
	res.DispatchID = r.id
	res.Candidates = len(r.cands)
	res.Invoked = r.invoked
	res.Failures = r.failures
	res.Duration = time.Since(r.start)

	r.e.log.Debug().
		Str("dispatch", r.id).
		Str("category", string(r.req.Category)).
		Str("name", r.req.Name).
		Str("result", res.Kind.String()).
		Int("candidates", res.Candidates).
		Int("invoked", res.Invoked).
		Int("failures", res.Failures).
		Dur("duration", res.Duration).
		Msg("dispatch completed")

	r.e.observe(r.req, res)
	if r.e.bus != nil {
		r.e.publish(event.Event{
			Type: event.DispatchCompleted,
			Data: event.DispatchCompletedData{
				DispatchID: r.id,
				Category:   string(r.req.Category),
				Name:       r.req.Name,
				Result:     res.Kind.String(),
				HookID:     res.HookID,
				Candidates: res.Candidates,
				DurationMS: res.Duration.Milliseconds(),
			},
		})
	}

	r.future.resolve(res)
}
