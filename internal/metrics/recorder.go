// Package metrics aggregates dispatch latencies and outcomes.
package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/actingweb/actingweb-sub001/internal/hook"
	"github.com/actingweb/actingweb-sub001/pkg/types"
)

// Latencies are tracked in microseconds between 1µs and one hour.
const (
	minLatency = 1
	maxLatency = int64(time.Hour / time.Microsecond)
	sigFigures = 3
)

// DurationMetrics summarizes a latency distribution.
type DurationMetrics struct {
	Min time.Duration `json:"min"`
	Max time.Duration `json:"max"`
	Avg time.Duration `json:"avg"`
	P50 time.Duration `json:"p50"`
	P90 time.Duration `json:"p90"`
	P95 time.Duration `json:"p95"`
	P99 time.Duration `json:"p99"`
}

// CategoryMetrics holds the counters of one category.
type CategoryMetrics struct {
	Category  string          `json:"category"`
	Count     int64           `json:"count"`
	Handled   int64           `json:"handled"`
	Unhandled int64           `json:"unhandled"`
	Denied    int64           `json:"denied"`
	Failures  int64           `json:"failures"`
	Timeouts  int64           `json:"timeouts"`
	Duration  DurationMetrics `json:"duration"`
}

// Snapshot is a point-in-time copy of all metrics.
type Snapshot struct {
	Timestamp  time.Time          `json:"timestamp"`
	Uptime     time.Duration      `json:"uptime"`
	Categories []*CategoryMetrics `json:"categories"`
}

type categoryData struct {
	count     int64
	handled   int64
	unhandled int64
	denied    int64
	failures  int64
	timeouts  int64
	latency   *hdrhistogram.Histogram
}

// Recorder observes dispatches and hook failures. It implements
// hook.Observer and hook.Sink.
type Recorder struct {
	mu        sync.Mutex
	data      map[types.Category]*categoryData
	startTime time.Time
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		data:      make(map[types.Category]*categoryData),
		startTime: time.Now(),
	}
}

func (r *Recorder) category(c types.Category) *categoryData {
	d, ok := r.data[c]
	if !ok {
		d = &categoryData{latency: hdrhistogram.New(minLatency, maxLatency, sigFigures)}
		r.data[c] = d
	}
	return d
}

// ObserveDispatch records the outcome and latency of one dispatch.
func (r *Recorder) ObserveDispatch(req hook.Request, res hook.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d := r.category(req.Category)
	d.count++
	switch res.Kind {
	case hook.ResultHandled:
		d.handled++
	case hook.ResultUnhandled:
		d.unhandled++
	case hook.ResultDenied:
		d.denied++
	}
	// Values above the range are clamped rather than dropped.
	us := res.Duration.Microseconds()
	if us < minLatency {
		us = minLatency
	}
	if us > maxLatency {
		us = maxLatency
	}
	_ = d.latency.RecordValue(us)
}

// Record counts a swallowed hook failure.
func (r *Recorder) Record(f hook.Failure) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d := r.category(f.Category)
	if f.Kind == hook.TimeoutFailure {
		d.timeouts++
	} else {
		d.failures++
	}
}

// Snapshot returns the current metrics, sorted by category.
func (r *Recorder) Snapshot() *Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := &Snapshot{
		Timestamp:  time.Now(),
		Uptime:     time.Since(r.startTime),
		Categories: make([]*CategoryMetrics, 0, len(r.data)),
	}
	for c, d := range r.data {
		snap.Categories = append(snap.Categories, &CategoryMetrics{
			Category:  string(c),
			Count:     d.count,
			Handled:   d.handled,
			Unhandled: d.unhandled,
			Denied:    d.denied,
			Failures:  d.failures,
			Timeouts:  d.timeouts,
			Duration:  durationMetrics(d.latency),
		})
	}
	sort.Slice(snap.Categories, func(i, j int) bool {
		return snap.Categories[i].Category < snap.Categories[j].Category
	})
	return snap
}

// Reset clears all counters and histograms.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.data = make(map[types.Category]*categoryData)
	r.startTime = time.Now()
	r.mu.Unlock()
}

func durationMetrics(h *hdrhistogram.Histogram) DurationMetrics {
	if h.TotalCount() == 0 {
		return DurationMetrics{}
	}
	us := func(v int64) time.Duration { return time.Duration(v) * time.Microsecond }
	return DurationMetrics{
		Min: us(h.Min()),
		Max: us(h.Max()),
		Avg: time.Duration(h.Mean() * float64(time.Microsecond)),
		P50: us(h.ValueAtQuantile(50)),
		P90: us(h.ValueAtQuantile(90)),
		P95: us(h.ValueAtQuantile(95)),
		P99: us(h.ValueAtQuantile(99)),
	}
}
