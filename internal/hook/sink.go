package hook

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/actingweb/actingweb-sub001/internal/event"
	"github.com/actingweb/actingweb-sub001/internal/logging"
	"github.com/actingweb/actingweb-sub001/pkg/types"
)

// Failure is one swallowed hook failure.
type Failure struct {
	DispatchID string
	HookID     string
	Category   types.Category
	Name       string
	Kind       FailureKind
	Cause      error
	Duration   time.Duration
}

// Err returns the failure as an *Error.
func (f Failure) Err() error {
	return &Error{Kind: f.Kind, Category: f.Category, Name: f.Name, HookID: f.HookID, Cause: f.Cause}
}

// Sink receives every failure the engine swallows. Record must not block
// for long; it is called on the dispatching goroutine.
type Sink interface {
	Record(f Failure)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Failure)

func (fn SinkFunc) Record(f Failure) { fn(f) }

// LogSink writes failures as warnings.
type LogSink struct {
	Logger zerolog.Logger
}

func (s LogSink) Record(f Failure) {
	s.Logger.Warn().
		Err(f.Cause).
		Str("failure", string(f.Kind)).
		Str("dispatch", f.DispatchID).
		Str("hook", f.HookID).
		Str("category", string(f.Category)).
		Str("name", f.Name).
		Dur("duration", f.Duration).
		Msg("hook failed")
}

// BusSink publishes failures as hook.failed events.
type BusSink struct {
	Bus *event.Bus
}

func (s BusSink) Record(f Failure) {
	cause := ""
	if f.Cause != nil {
		cause = f.Cause.Error()
	}
	s.Bus.Publish(event.Event{
		Type: event.HookFailed,
		Data: event.HookFailedData{
			DispatchID: f.DispatchID,
			HookID:     f.HookID,
			Category:   string(f.Category),
			Name:       f.Name,
			Kind:       string(f.Kind),
			Cause:      cause,
			DurationMS: f.Duration.Milliseconds(),
		},
	})
}

// MultiSink fans a failure out to every sink in order. A panicking sink
// does not stop the ones after it.
type MultiSink []Sink

func (m MultiSink) Record(f Failure) {
	for _, s := range m {
		if s != nil {
			recordSafely(s, f)
		}
	}
}

func recordSafely(s Sink, f Failure) {
	defer func() {
		if rec := recover(); rec != nil {
			logging.Component("hook").Error().
				Interface("panic", rec).
				Str("hook", f.HookID).
				Msg("failure sink panicked")
		}
	}()
	s.Record(f)
}

// MemorySink keeps failures in memory.
type MemorySink struct {
	mu       sync.Mutex
	failures []Failure
}

func (s *MemorySink) Record(f Failure) {
	s.mu.Lock()
	s.failures = append(s.failures, f)
	s.mu.Unlock()
}

// Failures returns a copy of the recorded failures.
func (s *MemorySink) Failures() []Failure {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Failure(nil), s.failures...)
}

// Len returns the number of recorded failures.
func (s *MemorySink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.failures)
}

// Reset drops all recorded failures.
func (s *MemorySink) Reset() {
	s.mu.Lock()
	s.failures = nil
	s.mu.Unlock()
}
