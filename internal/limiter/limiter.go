// Package limiter tracks the resource counters the engine and strategies
// consult to decide whether to keep expanding. Grounded on the teacher's
// inline limit checks in internal/modes/graph.go and graph_operations.go
// (e.g. `len(state.Vertices) >= state.Config.MaxVertices`), generalized into
// a standalone tracker with checkable predicates, per spec.md §4.F.
package limiter

import (
	"sync"
	"time"

	"graphreason/internal/config"
)

// Limiter tracks total thoughts, cumulative tokens, start wall time, and
// expansion count against a ResourceLimits. It exposes predicates only and
// raises no error itself; the graph package's AddThought and MergeThoughts
// consult CanAddThought and return ResourceExhausted when it is false.
type Limiter struct {
	mu         sync.Mutex
	limits     config.ResourceLimits
	thoughts   int
	tokens     int
	expansions int
	startedAt  time.Time
}

// New constructs a Limiter bound to limits, with its wall clock starting now.
func New(limits config.ResourceLimits) *Limiter {
	return &Limiter{limits: limits, startedAt: time.Now()}
}

// CanAddThought reports whether one more thought may be added without
// crossing max_thoughts.
func (l *Limiter) CanAddThought() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.thoughts < l.limits.MaxThoughts
}

// RecordThoughtAdded increments the thought counter. Call only after the
// thought has actually been committed to the graph.
func (l *Limiter) RecordThoughtAdded() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.thoughts++
}

// RecordThoughtRemoved decrements the thought counter.
func (l *Limiter) RecordThoughtRemoved() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.thoughts > 0 {
		l.thoughts--
	}
}

// RecordTokens adds n to the cumulative token count.
func (l *Limiter) RecordTokens(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tokens += n
}

// RecordExpansion increments the expansion counter.
func (l *Limiter) RecordExpansion() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.expansions++
}

// ThoughtCount returns the current tracked thought count.
func (l *Limiter) ThoughtCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.thoughts
}

// TotalTokens returns the cumulative token count.
func (l *Limiter) TotalTokens() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tokens
}

// Expansions returns the cumulative expansion count.
func (l *Limiter) Expansions() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.expansions
}

// ExpansionsExhausted reports whether max_expansions (maxExpansions, the
// strategy's own SearchConfig override) has been reached.
func (l *Limiter) ExpansionsExhausted(maxExpansions int) bool {
	return l.Expansions() >= maxExpansions
}

// BudgetExhausted reports whether max_tokens is set and has been reached.
func (l *Limiter) BudgetExhausted(maxTokens *int) bool {
	if maxTokens == nil {
		return false
	}
	return l.TotalTokens() >= *maxTokens
}

// TimedOut reports whether timeoutSeconds is set and has elapsed since the
// limiter started.
func (l *Limiter) TimedOut(timeoutSeconds *int) bool {
	if timeoutSeconds == nil {
		return false
	}
	return time.Since(l.startedAt) >= time.Duration(*timeoutSeconds)*time.Second
}

// Elapsed returns the wall-clock duration since the limiter started.
func (l *Limiter) Elapsed() time.Duration {
	return time.Since(l.startedAt)
}
