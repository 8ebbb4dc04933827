package hook

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type schedulerFunc func(func()) bool

func (f schedulerFunc) Post(fn func()) bool { return f(fn) }

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{
		"":            ModeBlocking,
		"blocking":    ModeBlocking,
		"Cooperative": ModeCooperative,
		"coop":        ModeCooperative,
	} {
		got, err := ParseMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseMode("threads")
	assert.Error(t, err)
}

func TestExecutionContext(t *testing.T) {
	ec := NewBlockingContext(nil) //nolint:staticcheck
	assert.Equal(t, ModeBlocking, ec.Mode())
	assert.Nil(t, ec.Scheduler())
	assert.NotNil(t, ec.Context())

	var zero ExecutionContext
	assert.NotNil(t, zero.Context())
	assert.Equal(t, ModeBlocking, zero.Mode())

	sched := schedulerFunc(func(fn func()) bool { fn(); return true })
	co := NewCooperativeContext(context.Background(), sched)
	assert.Equal(t, ModeCooperative, co.Mode())
	assert.NotNil(t, co.Scheduler())

	assert.Panics(t, func() { NewCooperativeContext(context.Background(), nil) })
}

func TestExecutionContext_WithTimeout(t *testing.T) {
	ec := NewBlockingContext(context.Background())

	same, cancel := ec.WithTimeout(0)
	cancel()
	_, ok := same.Context().Deadline()
	assert.False(t, ok)

	bounded, cancel := ec.WithTimeout(time.Minute)
	defer cancel()
	_, ok = bounded.Context().Deadline()
	assert.True(t, ok)
	assert.Equal(t, ModeBlocking, bounded.Mode())

	ctx, cancelCtx := context.WithCancel(context.Background())
	cancelCtx()
	assert.Error(t, ec.WithContext(ctx).Context().Err())
}

func TestEngine_InlineScheduler(t *testing.T) {
	// A scheduler that runs continuations immediately still yields
	// correct results.
	table := newTestTable()
	table.Register("method", "m", Suspendable(sleeps(time.Millisecond, "")))
	table.Register("method", "m", Suspendable(sleeps(time.Millisecond, "v")))
	e, _ := newTestEngine(t, table)

	sched := schedulerFunc(func(fn func()) bool { fn(); return true })
	res := e.Dispatch(NewCooperativeContext(context.Background(), sched), methodReq("m"))
	assert.Equal(t, "v", res.Value)
}
