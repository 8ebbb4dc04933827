package hook

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
)

// Invoker runs one callable and normalizes whatever it does into an
// Outcome. Nothing a hook does, panics included, escapes Invoke.
type Invoker struct {
	log zerolog.Logger
}

// NewInvoker creates an invoker logging through l.
func NewInvoker(l zerolog.Logger) *Invoker {
	return &Invoker{log: l}
}

// Invoke runs reg's callable for call.
//
// Blocking callables run on the calling goroutine and their outcome is
// returned directly with a nil *Pending. Suspendable callables are started
// on their own goroutine and the returned *Pending resolves when they
// finish; the caller decides whether to wait on it or to resume later.
// A suspendable callable is not started at all when ctx is already done.
func (iv *Invoker) Invoke(ctx context.Context, reg *Registration, call *Call) (Outcome, *Pending) {
	if reg.Callable.kind != KindSuspendable {
		return iv.call(ctx, reg, call), nil
	}

	if ctx.Err() != nil {
		return failedOutcome(abandonedError(ctx)), nil
	}

	p := newPending()
	go func() {
		p.resolve(iv.call(ctx, reg, call))
	}()
	return Outcome{State: StatePending}, p
}

func (iv *Invoker) call(ctx context.Context, reg *Registration, call *Call) (o Outcome) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			iv.log.Debug().
				Str("hook", reg.ID).
				Str("category", string(reg.Category)).
				Str("name", reg.Name).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("hook panicked")
			o = failedOutcome(fmt.Errorf("%w: %v", ErrPanic, r))
		}
		o.Duration = time.Since(start)
	}()

	v, err := reg.Callable.fn(ctx, call)
	if err != nil {
		return failedOutcome(err)
	}
	return valueOutcome(v)
}
