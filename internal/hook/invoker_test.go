package hook

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/actingweb/actingweb-sub001/pkg/types"
)

func reg(c Callable) *Registration {
	return &Registration{ID: "r1", Category: types.CategoryMethod, Name: "m", Callable: c}
}

func TestInvoker_Blocking(t *testing.T) {
	iv := NewInvoker(zerolog.Nop())
	ctx := context.Background()

	o, p := iv.Invoke(ctx, reg(Blocking(returns("v"))), &Call{})
	assert.Nil(t, p)
	assert.Equal(t, StateValue, o.State)
	assert.Equal(t, "v", o.Value)

	o, _ = iv.Invoke(ctx, reg(Blocking(returns(nil))), &Call{})
	assert.Equal(t, StateEmpty, o.State)

	o, _ = iv.Invoke(ctx, reg(Blocking(fails("bad"))), &Call{})
	assert.Equal(t, StateFailed, o.State)
	assert.EqualError(t, o.Err, "bad")

	o, _ = iv.Invoke(ctx, reg(Blocking(func(context.Context, *Call) (any, error) {
		var m map[string]int
		m["x"] = 1
		return nil, nil
	})), &Call{})
	assert.Equal(t, StateFailed, o.State)
	assert.ErrorIs(t, o.Err, ErrPanic)
}

func TestInvoker_Suspendable(t *testing.T) {
	iv := NewInvoker(zerolog.Nop())
	ctx := context.Background()

	o, p := iv.Invoke(ctx, reg(Suspendable(sleeps(10*time.Millisecond, "v"))), &Call{})
	require.NotNil(t, p)
	assert.Equal(t, StatePending, o.State)
	assert.Equal(t, StatePending, p.Outcome().State)

	o = p.Wait(ctx)
	assert.Equal(t, StateValue, o.State)
	assert.Equal(t, "v", o.Value)
	assert.GreaterOrEqual(t, o.Duration, 10*time.Millisecond)
	assert.Equal(t, o, p.Outcome())
}

func TestInvoker_SuspendablePanics(t *testing.T) {
	iv := NewInvoker(zerolog.Nop())
	_, p := iv.Invoke(context.Background(), reg(Suspendable(func(context.Context, *Call) (any, error) {
		panic(errors.New("boom"))
	})), &Call{})
	require.NotNil(t, p)

	o := p.Wait(context.Background())
	assert.Equal(t, StateFailed, o.State)
	assert.ErrorIs(t, o.Err, ErrPanic)
}

func TestInvoker_SuspendableNotStartedAfterDeadline(t *testing.T) {
	iv := NewInvoker(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	started := false
	o, p := iv.Invoke(ctx, reg(Suspendable(func(context.Context, *Call) (any, error) {
		started = true
		return "v", nil
	})), &Call{})
	assert.Nil(t, p)
	assert.Equal(t, StateFailed, o.State)
	assert.ErrorIs(t, o.Err, ErrCancelled)
	assert.False(t, started)
}

func TestPending_WaitAbandons(t *testing.T) {
	p := newPending()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	o := p.Wait(ctx)
	assert.Equal(t, StateFailed, o.State)
	assert.ErrorIs(t, o.Err, ErrTimeout)
	assert.Equal(t, TimeoutFailure, classify(o.Err))

	// Late resolution is still observable.
	p.resolve(valueOutcome("late"))
	assert.Equal(t, "late", p.Outcome().Value)
}

func TestPending_OnDone(t *testing.T) {
	p := newPending()
	got := make(chan Outcome, 2)
	p.onDone(func(o Outcome) { got <- o })
	p.resolve(valueOutcome(1))
	p.onDone(func(o Outcome) { got <- o })

	assert.Equal(t, 1, (<-got).Value)
	assert.Equal(t, 1, (<-got).Value)
}

func TestIsEmpty(t *testing.T) {
	var nilMap map[string]any
	var nilPtr *struct{}
	var nilErr error
	tests := []struct {
		name string
		v    any
		want bool
	}{
		{"nil", nil, true},
		{"empty string", "", true},
		{"nil map", nilMap, true},
		{"empty map", map[string]any{}, true},
		{"empty slice", []string{}, true},
		{"nil pointer", nilPtr, true},
		{"nil error", nilErr, true},
		{"json null", json.RawMessage("null"), true},
		{"empty raw", json.RawMessage(nil), true},
		{"zero int", 0, false},
		{"false", false, false},
		{"string", "x", false},
		{"map", map[string]any{"a": 1}, false},
		{"struct", struct{}{}, false},
		{"raw object", json.RawMessage(`{}`), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsEmpty(tt.v))
		})
	}
}

func TestClassify(t *testing.T) {
	assert.Equal(t, CallableFailure, classify(errors.New("x")))
	assert.Equal(t, CallableFailure, classify(ErrPanic))
	assert.Equal(t, TimeoutFailure, classify(ErrTimeout))
	assert.Equal(t, TimeoutFailure, classify(ErrCancelled))
	assert.Equal(t, TimeoutFailure, classify(context.DeadlineExceeded))
}

func TestError(t *testing.T) {
	cause := errors.New("cause")
	f := Failure{Kind: CallableFailure, Category: types.CategoryAction, Name: "n", HookID: "h", Cause: cause}
	err := f.Err()

	assert.ErrorIs(t, err, cause)
	var he *Error
	require.ErrorAs(t, err, &he)
	assert.Equal(t, "callable_failure hook h (action/n): cause", err.Error())
}
