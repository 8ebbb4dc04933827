package hook

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Mode is the concurrency discipline of the host driving a dispatch.
type Mode int

const (
	// ModeBlocking hosts dedicate a goroutine to each dispatch; pending
	// suspendable hooks are waited on in place.
	ModeBlocking Mode = iota
	// ModeCooperative hosts run dispatches on a Scheduler; pending
	// suspendable hooks never hold it, the dispatch resumes on the
	// scheduler when they finish.
	ModeCooperative
)

func (m Mode) String() string {
	switch m {
	case ModeBlocking:
		return "blocking"
	case ModeCooperative:
		return "cooperative"
	}
	return "unknown"
}

// ParseMode parses "blocking" or "cooperative". An empty string is blocking.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "blocking", "sync":
		return ModeBlocking, nil
	case "cooperative", "coop", "async":
		return ModeCooperative, nil
	}
	return ModeBlocking, fmt.Errorf("unknown dispatch mode %q", s)
}

// Scheduler runs continuations on a cooperative host. Post returns false
// when the scheduler no longer accepts work.
type Scheduler interface {
	Post(fn func()) bool
}

// ExecutionContext carries the host's mode and the dispatch's
// cancellation signal. The mode is set where the host calls into the
// engine and never inferred below it.
type ExecutionContext struct {
	mode  Mode
	sched Scheduler
	ctx   context.Context
}

// NewBlockingContext returns a context for a thread-blocking host.
func NewBlockingContext(ctx context.Context) ExecutionContext {
	if ctx == nil {
		ctx = context.Background()
	}
	return ExecutionContext{mode: ModeBlocking, ctx: ctx}
}

// NewCooperativeContext returns a context for a host running dispatches on
// sched. It panics if sched is nil.
func NewCooperativeContext(ctx context.Context, sched Scheduler) ExecutionContext {
	if sched == nil {
		panic("hook: cooperative execution context without scheduler")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return ExecutionContext{mode: ModeCooperative, sched: sched, ctx: ctx}
}

// Mode returns the host's mode.
func (ec ExecutionContext) Mode() Mode { return ec.mode }

// Scheduler returns the cooperative scheduler, nil for blocking hosts.
func (ec ExecutionContext) Scheduler() Scheduler { return ec.sched }

// Context returns the cancellation context, never nil.
func (ec ExecutionContext) Context() context.Context {
	if ec.ctx == nil {
		return context.Background()
	}
	return ec.ctx
}

// WithContext returns a copy of ec using ctx.
func (ec ExecutionContext) WithContext(ctx context.Context) ExecutionContext {
	ec.ctx = ctx
	return ec
}

// WithTimeout returns a copy of ec whose context expires after d, and the
// cancel function releasing it. A non-positive d leaves the context as is.
func (ec ExecutionContext) WithTimeout(d time.Duration) (ExecutionContext, context.CancelFunc) {
	if d <= 0 {
		return ec, func() {}
	}
	ctx, cancel := context.WithTimeout(ec.Context(), d)
	ec.ctx = ctx
	return ec, cancel
}
