// Package contracts defines the Generator/Evaluator/Verifier capability
// interfaces and the SearchContext passed to them (spec.md §4.C). Grounded
// on the teacher's internal/modes/llm_client.go LLMClient interface
// (Generate/Score/Refine), decomposed into the three single-purpose
// capability interfaces the spec names.
package contracts

import (
	"context"

	"graphreason/internal/thought"
)

// SearchContext is the immutable snapshot passed into every generator,
// evaluator, and verifier call. Strategies recompute it at each expansion
// site; it is never mutated once built.
type SearchContext[T any] struct {
	Thought           *thought.Thought[T]
	PathToRoot        []*thought.Thought[T]
	Depth             int
	RemainingTokens   *int // nil means unbounded
	RemainingSeconds  *float64 // nil means unbounded
	Metadata          map[string]any
}

// Generated is one generator output: the opaque child content plus the
// token cost of producing it. spec.md §3 records tokens_used as an engine-
// populated accounting field and §8 scenario 3 drives termination off a
// per-child token cost ("each with tokens_used = 100") that the engine has
// no way to derive from an opaque T on its own — so the generator reports
// it alongside content rather than the engine inspecting content.
type Generated[T any] struct {
	Content    T
	TokensUsed int
}

// Generator produces child content values for a parent. The order of the
// returned slice is preserved and is the order children are inserted into
// the graph.
type Generator[T any] interface {
	Generate(ctx context.Context, parentContent T, sc SearchContext[T]) ([]Generated[T], error)
}

// Evaluator scores a content value. A failing call is caught by the
// expansion engine, which substitutes a score of 0.0 and continues.
type Evaluator[T any] interface {
	Evaluate(ctx context.Context, content T, sc SearchContext[T]) (float64, error)
}

// VerifyResult is the outcome of a Verifier call.
type VerifyResult struct {
	IsValid    bool
	Confidence float64
	Issues     []string
}

// Verifier is optional: when absent, the expansion engine unconditionally
// accepts generated children.
type Verifier[T any] interface {
	Verify(ctx context.Context, content T, sc SearchContext[T]) (VerifyResult, error)
}

// GoalFunc is the caller-supplied predicate a search strategy consults to
// decide whether a thought satisfies the search's goal.
type GoalFunc[T any] func(content T) bool
