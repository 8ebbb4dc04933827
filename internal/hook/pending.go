package hook

import (
	"context"
	"sync"
)

// Pending is a suspendable invocation in flight. It resolves exactly once.
type Pending struct {
	done    chan struct{}
	mu      sync.Mutex
	outcome Outcome
	waiters []func(Outcome)
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

func (p *Pending) resolve(o Outcome) {
	p.mu.Lock()
	p.outcome = o
	waiters := p.waiters
	p.waiters = nil
	close(p.done)
	p.mu.Unlock()

	for _, fn := range waiters {
		fn(o)
	}
}

// Done is closed once the invocation finished.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Outcome returns the outcome, or a pending outcome while still running.
func (p *Pending) Outcome() Outcome {
	select {
	case <-p.done:
		return p.outcome
	default:
		return Outcome{State: StatePending}
	}
}

// onDone calls fn with the outcome once the invocation finished, on the
// goroutine that finished it, or right away if it already has.
func (p *Pending) onDone(fn func(Outcome)) {
	p.mu.Lock()
	select {
	case <-p.done:
		o := p.outcome
		p.mu.Unlock()
		fn(o)
		return
	default:
	}
	p.waiters = append(p.waiters, fn)
	p.mu.Unlock()
}

// Wait blocks until the invocation finished or ctx is done. An abandoned
// wait yields a failed outcome tagged as a timeout or cancellation; the
// invocation itself keeps running in the background.
func (p *Pending) Wait(ctx context.Context) Outcome {
	select {
	case <-p.done:
		return p.outcome
	case <-ctx.Done():
		// Prefer a result that raced the deadline.
		select {
		case <-p.done:
			return p.outcome
		default:
		}
		return failedOutcome(abandonedError(ctx))
	}
}
