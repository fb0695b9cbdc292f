// Package events implements the engine's fire-and-forget event and metrics
// emission points (spec.md §4.I) and the host-facing EventHandler/Tracer
// contracts (spec.md §6). Grounded on the teacher's internal/metrics
// collector (mutex-guarded metric store) and internal/streaming's
// disabled-is-a-no-op, never-block-the-caller design.
package events

import (
	"sync"
	"time"
)

// Type enumerates the mandatory emission points from spec.md §4.I.
type Type string

const (
	ThoughtAdded    Type = "THOUGHT_ADDED"
	ThoughtExpanded Type = "THOUGHT_EXPANDED"
	ThoughtFailed   Type = "THOUGHT_FAILED"
	SearchStarted   Type = "SEARCH_STARTED"
	SearchCompleted Type = "SEARCH_COMPLETED"
	GoalReached     Type = "GOAL_REACHED"
)

// Event is the payload delivered to every registered Handler.
type Event struct {
	Type      Type
	Payload   map[string]any
	Timestamp time.Time
}

// Handler receives events. Per spec.md §6 it must not raise; the Emitter
// recovers from a panicking handler so one bad listener cannot affect
// search semantics.
type Handler interface {
	Handle(e Event)
}

// HandlerFunc adapts a plain function to a Handler.
type HandlerFunc func(e Event)

func (f HandlerFunc) Handle(e Event) { f(e) }

// Span is a scoped tracing handle; releasing it (End) marks the span's end.
type Span interface {
	End()
}

// Tracer starts scoped spans. A no-op implementation is acceptable per
// spec.md §6 and is the Emitter's default when tracing is disabled.
type Tracer interface {
	StartSpan(name string, attributes map[string]any) Span
}

type noopSpan struct{}

func (noopSpan) End() {}

// NoopTracer never records anything; attaching it is equivalent to tracing
// being absent.
type NoopTracer struct{}

// StartSpan returns a span whose End is a no-op.
func (NoopTracer) StartSpan(string, map[string]any) Span { return noopSpan{} }

// Emitter fans events out to registered handlers and accumulates the
// counters/gauges/histograms named in spec.md §4.I. It never blocks the
// caller on a slow listener beyond the synchronous call itself — per
// spec.md's design notes, a production host may wrap Handler with its own
// queue; the core only guarantees listener failure cannot alter semantics.
type Emitter struct {
	mu       sync.Mutex
	handlers []Handler
	tracer   Tracer

	counters   map[string]int64
	gauges     map[string]float64
	histograms map[string][]float64
}

// NewEmitter constructs an Emitter with no handlers and a NoopTracer.
func NewEmitter() *Emitter {
	return &Emitter{
		tracer:     NoopTracer{},
		counters:   make(map[string]int64),
		gauges:     make(map[string]float64),
		histograms: make(map[string][]float64),
	}
}

// AddHandler registers a listener. Safe to call concurrently with Emit.
func (e *Emitter) AddHandler(h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, h)
}

// SetTracer installs the Tracer used by StartSpan.
func (e *Emitter) SetTracer(t Tracer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tracer = t
}

// StartSpan delegates to the installed Tracer (NoopTracer by default).
func (e *Emitter) StartSpan(name string, attributes map[string]any) Span {
	e.mu.Lock()
	t := e.tracer
	e.mu.Unlock()
	return t.StartSpan(name, attributes)
}

// Emit delivers ev to every registered handler, recovering from panics so
// the absence or misbehavior of listeners never alters search semantics.
func (e *Emitter) Emit(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	e.mu.Lock()
	handlers := make([]Handler, len(e.handlers))
	copy(handlers, e.handlers)
	e.mu.Unlock()

	for _, h := range handlers {
		safeHandle(h, ev)
	}
}

func safeHandle(h Handler, ev Event) {
	defer func() { _ = recover() }()
	h.Handle(ev)
}

// Inc adds delta to the named counter (thoughts.added, edges.added, ...).
func (e *Emitter) Inc(name string, delta int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.counters[name] += delta
}

// SetGauge sets the named gauge (thoughts.total, ...) to value.
func (e *Emitter) SetGauge(name string, value float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gauges[name] = value
}

// Observe records value into the named histogram (thought.generation_ms, ...).
func (e *Emitter) Observe(name string, value float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.histograms[name] = append(e.histograms[name], value)
}

// Counter returns the current value of the named counter.
func (e *Emitter) Counter(name string) int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.counters[name]
}

// Gauge returns the current value of the named gauge.
func (e *Emitter) Gauge(name string) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gauges[name]
}

// Histogram returns a copy of the observations recorded for name.
func (e *Emitter) Histogram(name string) []float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]float64, len(e.histograms[name]))
	copy(out, e.histograms[name])
	return out
}
