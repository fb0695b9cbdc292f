// Package engine implements the expansion engine (spec.md §4.D): given a
// thought id, it invokes the generator, scores each child via the
// evaluator, commits children to the graph, and emits events/metrics.
// Grounded on the teacher's internal/modes/graph_operations.go Generate
// method (status transitions, per-child evaluator call, edge creation) and
// the generate→score→prune→refine shape of its Explore orchestration.
package engine

import (
	"context"
	"time"

	"graphreason/internal/contracts"
	"graphreason/internal/coreerrors"
	"graphreason/internal/events"
	"graphreason/internal/graph"
	"graphreason/internal/thought"
)

// Engine expands thoughts by calling the Generator and Evaluator contracts
// and committing results to a Graph. It holds no state of its own beyond
// its collaborators; all mutable state lives in the Graph.
type Engine[T any] struct {
	Graph     *graph.Graph[T]
	Generator contracts.Generator[T]
	Evaluator contracts.Evaluator[T]
	Verifier  contracts.Verifier[T] // optional; nil means unconditional accept
}

// New constructs an Engine over g with the given collaborators. verifier
// may be nil.
func New[T any](g *graph.Graph[T], generator contracts.Generator[T], evaluator contracts.Evaluator[T], verifier contracts.Verifier[T]) *Engine[T] {
	return &Engine[T]{Graph: g, Generator: generator, Evaluator: evaluator, Verifier: verifier}
}

func buildSearchContext[T any](g *graph.Graph[T], th *thought.Thought[T], remainingTokens *int, remainingSeconds *float64) (contracts.SearchContext[T], error) {
	path, err := g.GetPathToRoot(th.ID)
	if err != nil {
		return contracts.SearchContext[T]{}, err
	}
	return contracts.SearchContext[T]{
		Thought:          th,
		PathToRoot:       path,
		Depth:            th.Depth,
		RemainingTokens:  remainingTokens,
		RemainingSeconds: remainingSeconds,
		Metadata:         make(map[string]any),
	}, nil
}

// Expand implements spec.md §4.D's six-step semantics. remainingTokens and
// remainingSeconds (both optional) are folded into the SearchContext seen
// by the generator/evaluator/verifier; they do not themselves enforce any
// limit here — that is the strategy's and limiter's job.
func (e *Engine[T]) Expand(ctx context.Context, thoughtID string, remainingTokens *int, remainingSeconds *float64) ([]*thought.Thought[T], error) {
	th, err := e.Graph.GetThought(thoughtID)
	if err != nil {
		return nil, err
	}

	if th.Depth >= e.Graph.Config().Limits.MaxDepth {
		return nil, nil
	}
	if th.Status == thought.StatusPruned || th.Status == thought.StatusCompleted {
		return nil, nil
	}

	th.Status = thought.StatusActive

	sc, err := buildSearchContext(e.Graph, th, remainingTokens, remainingSeconds)
	if err != nil {
		return nil, err
	}

	genStart := time.Now()
	contents, genErr := e.Generator.Generate(ctx, th.Content, sc)
	genElapsed := time.Since(genStart).Milliseconds()
	th.GenerationTimeMs = genElapsed
	e.Graph.Emitter().Observe("thought.generation_ms", float64(genElapsed))

	if genErr != nil {
		th.Status = thought.StatusFailed
		e.Graph.Emitter().Emit(events.Event{
			Type:    events.ThoughtFailed,
			Payload: map[string]any{"thought": th, "error": genErr.Error()},
		})
		return nil, nil
	}

	children := make([]*thought.Thought[T], 0, len(contents))
	for _, gen := range contents {
		evalStart := time.Now()
		score, evalErr := e.Evaluator.Evaluate(ctx, gen.Content, sc)
		evalElapsed := time.Since(evalStart).Milliseconds()
		e.Graph.Emitter().Observe("thought.evaluation_ms", float64(evalElapsed))

		if evalErr != nil {
			score = 0.0
			e.Graph.Emitter().Inc("evaluation.error", 1)
		}

		if e.Verifier != nil {
			result, verifyErr := e.Verifier.Verify(ctx, gen.Content, sc)
			if verifyErr == nil && !result.IsValid {
				continue
			}
		}

		parentID := th.ID
		child, addErr := e.Graph.AddThought(gen.Content, graph.ThoughtParams{
			ParentID:         &parentID,
			Score:            &score,
			GenerationTimeMs: evalElapsed,
			TokensUsed:       gen.TokensUsed,
		})
		if addErr != nil {
			if ce, ok := addErr.(*coreerrors.CoreError); ok && ce.Code == coreerrors.CodeResourceExhausted {
				break
			}
			return nil, addErr
		}
		children = append(children, child)
	}

	th.Status = thought.StatusCompleted
	e.Graph.Emitter().Inc("thoughts.expanded", 1)
	e.Graph.Emitter().Observe("expansion.children_count", float64(len(children)))
	e.Graph.Emitter().Emit(events.Event{
		Type:    events.ThoughtExpanded,
		Payload: map[string]any{"thought": th, "child_count": len(children)},
	})

	return children, nil
}
