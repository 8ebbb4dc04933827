package hook

import (
	"context"

	"github.com/actingweb/actingweb-sub001/pkg/types"
)

// Kind is the execution discipline of a callable, fixed at construction.
type Kind int

const (
	// KindBlocking callables run to completion on the dispatching goroutine.
	KindBlocking Kind = iota
	// KindSuspendable callables may wait on I/O; the engine runs them off
	// the dispatching goroutine and either waits (blocking hosts) or
	// resumes the dispatch when they complete (cooperative hosts).
	KindSuspendable
)

func (k Kind) String() string {
	switch k {
	case KindBlocking:
		return "blocking"
	case KindSuspendable:
		return "suspendable"
	}
	return "unknown"
}

// Func is the body of a hook. Returning a nil or empty value means "not
// handled"; returning an error marks the hook as failed. Both let the
// dispatch move on to the next candidate.
type Func func(ctx context.Context, call *Call) (any, error)

// Callable is a hook body tagged with its execution discipline.
type Callable struct {
	kind Kind
	fn   Func
}

// Blocking wraps fn as a blocking callable.
func Blocking(fn Func) Callable {
	return Callable{kind: KindBlocking, fn: fn}
}

// Suspendable wraps fn as a suspendable callable.
func Suspendable(fn Func) Callable {
	return Callable{kind: KindSuspendable, fn: fn}
}

// Kind returns the execution discipline.
func (c Callable) Kind() Kind { return c.kind }

// Call carries the arguments of one hook invocation.
type Call struct {
	DispatchID string
	Category   types.Category
	// Name is the requested event name, also when the hook was registered
	// under the wildcard.
	Name    string
	Actor   *types.Actor
	Payload any
	Auth    *types.Auth
}
