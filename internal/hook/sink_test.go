package hook

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/actingweb/actingweb-sub001/internal/event"
	"github.com/actingweb/actingweb-sub001/pkg/types"
)

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	s := LogSink{Logger: zerolog.New(&buf)}
	s.Record(Failure{
		DispatchID: "d1",
		HookID:     "h1",
		Category:   types.CategoryMethod,
		Name:       "m",
		Kind:       TimeoutFailure,
		Cause:      ErrTimeout,
	})

	out := buf.String()
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"failure":"timeout_failure"`)
	assert.Contains(t, out, `"dispatch":"d1"`)
	assert.Contains(t, out, `"category":"method"`)
}

func TestMultiSink(t *testing.T) {
	a, b := &MemorySink{}, &MemorySink{}
	MultiSink{a, nil, b}.Record(Failure{Name: "x"})
	assert.Equal(t, 1, a.Len())
	assert.Equal(t, 1, b.Len())

	a.Reset()
	assert.Equal(t, 0, a.Len())
}

func TestMultiSink_PanicDoesNotStopLaterSinks(t *testing.T) {
	first, last := &MemorySink{}, &MemorySink{}
	m := MultiSink{first, SinkFunc(func(Failure) { panic("sink") }), last}

	assert.NotPanics(t, func() { m.Record(Failure{HookID: "h1"}) })
	assert.Equal(t, 1, first.Len())
	assert.Equal(t, 1, last.Len())
}

func TestBusSink(t *testing.T) {
	bus := event.NewBus()
	defer bus.Close()

	got := make(chan event.HookFailedData, 1)
	bus.Subscribe(event.HookFailed, func(ev event.Event) {
		got <- ev.Data.(event.HookFailedData)
	})

	BusSink{Bus: bus}.Record(Failure{
		DispatchID: "d",
		HookID:     "h",
		Category:   types.CategoryCallback,
		Name:       "cb",
		Kind:       CallableFailure,
		Cause:      errors.New("nope"),
		Duration:   1500 * time.Millisecond,
	})

	select {
	case d := <-got:
		assert.Equal(t, "callable_failure", d.Kind)
		assert.Equal(t, "nope", d.Cause)
		assert.Equal(t, "callback", d.Category)
		assert.Equal(t, int64(1500), d.DurationMS)
	case <-time.After(time.Second):
		require.Fail(t, "no event")
	}
}
