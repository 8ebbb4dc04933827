// Package coop provides a single-goroutine cooperative scheduler.
//
// A Loop runs posted tasks one at a time, in posting order, on the
// goroutine that called Run. Tasks must not block; work that waits on I/O
// is started elsewhere and posts its continuation back to the loop.
package coop

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/actingweb/actingweb-sub001/internal/logging"
)

// Loop is a cooperative scheduler. The zero value is not usable; call New.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	wake   chan struct{}
	closed bool
	done   chan struct{}

	running atomic.Bool
	ran     atomic.Uint64

	log zerolog.Logger
}

// New creates a loop. Call Run to start it.
func New() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
		log:  logging.Component("coop"),
	}
}

// Post queues fn to run on the loop. It never blocks. Post returns false
// once the loop is closed, in which case fn is dropped.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Run executes tasks until ctx is done or Close is called. Tasks still
// queued at that point run before Run returns; Post is already rejecting
// new ones by then. A panicking task is logged and does not stop the loop.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return errors.New("coop: loop already running")
	}
	defer l.shutdown()

	for {
		l.mu.Lock()
		if l.closed {
			l.mu.Unlock()
			return nil
		}
		batch := l.queue
		l.queue = nil
		l.mu.Unlock()

		for _, fn := range batch {
			l.exec(fn)
		}
		if len(batch) > 0 {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("task panicked")
		}
	}()
	fn()
	l.ran.Add(1)
}

func (l *Loop) shutdown() {
	l.mu.Lock()
	l.closed = true
	batch := l.queue
	l.queue = nil
	l.mu.Unlock()
	if len(batch) > 0 {
		l.log.Debug().Int("queued", len(batch)).Msg("draining queued tasks")
	}
	for _, fn := range batch {
		l.exec(fn)
	}
	close(l.done)
}

// Close stops accepting tasks and makes Run return once the tasks already
// queued have run.
func (l *Loop) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Done is closed when Run has returned.
func (l *Loop) Done() <-chan struct{} { return l.done }

// Pending returns the number of queued tasks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Executed returns the number of tasks that ran to completion.
func (l *Loop) Executed() uint64 { return l.ran.Load() }

// Go runs l on a new goroutine and returns a function that closes the
// loop and waits for it to stop.
func (l *Loop) Go(ctx context.Context) (stop func()) {
	go func() {
		if err := l.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			l.log.Debug().Err(err).Msg("loop stopped")
		}
	}()
	return func() {
		l.Close()
		<-l.done
	}
}
