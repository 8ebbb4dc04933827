package hook

import (
	"context"
	"errors"
	"fmt"

	"github.com/actingweb/actingweb-sub001/pkg/types"
)

// Hook errors. They only ever reach the failure sink, never the caller of
// Dispatch.
var (
	// ErrTimeout indicates a suspendable hook outlived the dispatch deadline.
	ErrTimeout = errors.New("hook: timed out")

	// ErrCancelled indicates the dispatch context was cancelled while a
	// suspendable hook was pending.
	ErrCancelled = errors.New("hook: dispatch cancelled")

	// ErrPanic indicates the hook panicked.
	ErrPanic = errors.New("hook: panicked")
)

// FailureKind tags a swallowed failure in the observability sink.
type FailureKind string

const (
	CallableFailure FailureKind = "callable_failure"
	TimeoutFailure  FailureKind = "timeout_failure"
)

// classify returns TimeoutFailure for abandoned waits and for hooks that
// returned their context's error.
func classify(err error) FailureKind {
	switch {
	case errors.Is(err, ErrTimeout), errors.Is(err, ErrCancelled),
		errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return TimeoutFailure
	}
	return CallableFailure
}

// abandonedError converts a done context into the error recorded for a
// pending hook that was given up on.
func abandonedError(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
	}
	return fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())
}

// Error describes one failed hook invocation.
type Error struct {
	Kind     FailureKind
	Category types.Category
	Name     string
	HookID   string
	Cause    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s hook %s (%s/%s): %v", e.Kind, e.HookID, e.Category, e.Name, e.Cause)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}
