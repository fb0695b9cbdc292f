package thought

import (
	"fmt"
	"time"

	"graphreason/internal/coreerrors"
)

// Record is the portable, reference-free representation of a Thought.
// Content is serialized as `any` so a caller's encoder (JSON, YAML, ...)
// can marshal whatever concrete type T resolves to; status is stored as
// its symbolic name per spec.md §4.A.
type Record struct {
	ID               string         `json:"id" yaml:"id"`
	Content          any            `json:"content" yaml:"content"`
	Score            float64        `json:"score" yaml:"score"`
	Depth            int            `json:"depth" yaml:"depth"`
	Status           string         `json:"status" yaml:"status"`
	TokensUsed       int            `json:"tokens_used" yaml:"tokens_used"`
	GenerationTimeMs int64          `json:"generation_time_ms" yaml:"generation_time_ms"`
	EvaluationTimeMs int64          `json:"evaluation_time_ms" yaml:"evaluation_time_ms"`
	Metadata         map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	CreatedAtUnixMs  int64          `json:"created_at_ms" yaml:"created_at_ms"`
}

// EdgeRecord is the portable representation of an Edge.
type EdgeRecord struct {
	SourceID string         `json:"source_id" yaml:"source_id"`
	TargetID string         `json:"target_id" yaml:"target_id"`
	Relation string         `json:"relation" yaml:"relation"`
	Weight   float64        `json:"weight" yaml:"weight"`
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// ToRecord converts a Thought into its reference-free Record. Content must
// already be a value safe to hand to an external encoder (the caller's
// generator/evaluator never receives this record back).
func (t *Thought[T]) ToRecord() Record {
	return Record{
		ID:               t.ID,
		Content:          t.Content,
		Score:            t.Score,
		Depth:            t.Depth,
		Status:           string(t.Status),
		TokensUsed:       t.TokensUsed,
		GenerationTimeMs: t.GenerationTimeMs,
		EvaluationTimeMs: t.EvaluationTimeMs,
		Metadata:         t.Metadata,
		CreatedAtUnixMs:  t.CreatedAt.UnixMilli(),
	}
}

// ToRecord converts an Edge into its reference-free EdgeRecord.
func (e *Edge) ToRecord() EdgeRecord {
	return EdgeRecord{
		SourceID: e.SourceID,
		TargetID: e.TargetID,
		Relation: string(e.Relation),
		Weight:   e.Weight,
		Metadata: e.Metadata,
	}
}

var validStatuses = map[string]Status{
	string(StatusPending):   StatusPending,
	string(StatusActive):    StatusActive,
	string(StatusCompleted): StatusCompleted,
	string(StatusPruned):    StatusPruned,
	string(StatusMerged):    StatusMerged,
	string(StatusFailed):    StatusFailed,
}

// FromRecord rebuilds a Thought[T] from its portable Record. Content must
// be assertable to T (it round-trips through `any` from a caller-controlled
// decoder, e.g. encoding/json into a concrete T). An unrecognized status
// name fails with ConfigurationError, per spec.md §6 ("unknown enum names
// fail with ConfigurationError on load").
func FromRecord[T any](r Record) (*Thought[T], error) {
	status, ok := validStatuses[r.Status]
	if !ok {
		return nil, coreerrors.ConfigurationError([]string{fmt.Sprintf("unknown thought status %q", r.Status)})
	}
	content, ok := r.Content.(T)
	if !ok {
		return nil, coreerrors.GraphError(fmt.Sprintf("thought %s: content does not match expected type", r.ID))
	}
	return &Thought[T]{
		ID:               r.ID,
		Content:          content,
		Score:            r.Score,
		Depth:            r.Depth,
		Status:           status,
		TokensUsed:       r.TokensUsed,
		GenerationTimeMs: r.GenerationTimeMs,
		EvaluationTimeMs: r.EvaluationTimeMs,
		Metadata:         r.Metadata,
		CreatedAt:        time.UnixMilli(r.CreatedAtUnixMs),
	}, nil
}

// FromEdgeRecord rebuilds an Edge from its portable record.
func FromEdgeRecord(r EdgeRecord) *Edge {
	return &Edge{
		SourceID: r.SourceID,
		TargetID: r.TargetID,
		Relation: Relation(r.Relation),
		Weight:   r.Weight,
		Metadata: r.Metadata,
	}
}
