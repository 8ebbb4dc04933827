package hook

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/actingweb/actingweb-sub001/internal/coop"
)

// newTestEngine returns an engine with a quiet logger and a memory sink.
func newTestEngine(t *testing.T, table *Table, opts ...Option) (*Engine, *MemorySink) {
	t.Helper()
	sink := &MemorySink{}
	opts = append([]Option{WithSink(sink), WithLogger(zerolog.Nop())}, opts...)
	return NewEngine(table, opts...), sink
}

func nopLogger() zerolog.Logger { return zerolog.Nop() }

func newTestTable() *Table {
	return NewTable(WithTableLogger(zerolog.Nop()))
}

// startLoop runs a cooperative loop for the duration of the test.
func startLoop(t *testing.T) *coop.Loop {
	t.Helper()
	l := coop.New()
	stop := l.Go(context.Background())
	t.Cleanup(stop)
	return l
}

func returns(v any) Func {
	return func(context.Context, *Call) (any, error) { return v, nil }
}

func fails(msg string) Func {
	return func(context.Context, *Call) (any, error) { return nil, errors.New(msg) }
}

func sleeps(d time.Duration, v any) Func {
	return func(ctx context.Context, _ *Call) (any, error) {
		select {
		case <-time.After(d):
			return v, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// counted wraps fn and counts its invocations.
func counted(n *atomic.Int32, fn Func) Func {
	return func(ctx context.Context, call *Call) (any, error) {
		n.Add(1)
		return fn(ctx, call)
	}
}
