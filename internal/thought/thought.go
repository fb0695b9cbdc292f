// Package thought defines the Thought and Edge records that make up the
// reasoning graph's node and relation model.
package thought

import (
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a Thought.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
	StatusPruned    Status = "PRUNED"
	StatusMerged    Status = "MERGED"
	StatusFailed    Status = "FAILED"
)

// Terminal reports whether a status admits no further expansion.
func (s Status) Terminal() bool {
	return s == StatusPruned || s == StatusMerged
}

// CanTransitionTo enforces the monotonic FSM from spec §3:
// PENDING→ACTIVE, ACTIVE→COMPLETED, ACTIVE→FAILED, PENDING→PRUNED,
// and *→MERGED from any non-terminal state. PRUNED/MERGED are sticky.
func (s Status) CanTransitionTo(next Status) bool {
	if s.Terminal() {
		return false
	}
	switch next {
	case StatusActive:
		return s == StatusPending
	case StatusCompleted, StatusFailed:
		return s == StatusActive
	case StatusPruned:
		return s == StatusPending
	case StatusMerged:
		return true
	default:
		return false
	}
}

// Relation labels an Edge. The core carries these verbatim and never
// reasons about their meaning.
type Relation string

const (
	RelationLeadsTo   Relation = "leads_to"
	RelationMergesInto Relation = "merges_into"
	RelationDependsOn Relation = "depends_on"
	RelationAffects   Relation = "affects"
)

// Thought is a node in the reasoning graph. Content is an opaque payload
// of caller-chosen type T; the engine never interprets it.
type Thought[T any] struct {
	ID               string
	Content          T
	Score            float64
	Depth            int
	Status           Status
	TokensUsed       int
	GenerationTimeMs int64
	EvaluationTimeMs int64
	Metadata         map[string]any
	CreatedAt        time.Time
}

// NewID returns a 128-bit random identifier rendered as hex, per spec.md §3
// ("128-bit random, rendered hex") — the raw uuid.New() bytes, not the
// dashed string form.
func NewID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

// New constructs a PENDING thought with a fresh ID and the given content.
func New[T any](content T) *Thought[T] {
	return &Thought[T]{
		ID:        NewID(),
		Content:   content,
		Score:     0,
		Depth:     0,
		Status:    StatusPending,
		Metadata:  make(map[string]any),
		CreatedAt: time.Now(),
	}
}

// Less orders thoughts with higher score first, so a slice of *Thought[T]
// sorted with this comparator (or pushed through container/heap) yields a
// max-heap by score, as spec.md §4.A requires.
func Less[T any](a, b *Thought[T]) bool {
	return a.Score > b.Score
}

// Edge is a directed, labeled relation between two thoughts.
type Edge struct {
	SourceID string
	TargetID string
	Relation Relation
	Weight   float64
	Metadata map[string]any
}

// NewEdge constructs an edge with the default "leads_to" relation and
// weight 1.0 unless overridden by the caller afterward.
func NewEdge(source, target string) *Edge {
	return &Edge{
		SourceID: source,
		TargetID: target,
		Relation: RelationLeadsTo,
		Weight:   1.0,
		Metadata: make(map[string]any),
	}
}
