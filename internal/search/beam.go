package search

import (
	"context"

	"graphreason/internal/contracts"
	"graphreason/internal/engine"
	"graphreason/internal/graph"
	"graphreason/internal/thought"
)

// Beam implements beam search, per spec.md §4.E.1. The beam is a sequence
// of at most cfg.BeamWidth thoughts chosen by descending score.
type Beam[T any] struct{}

func (Beam[T]) Name() string { return "beam" }

func (b Beam[T]) Search(ctx context.Context, e *engine.Engine[T], start []string, cfg Config, goal contracts.GoalFunc[T]) (Result[T], error) {
	emitSearchStarted(e, b.Name())
	s := newSession(e, cfg, goal)

	beam := resolveStart(e, start)
	if len(beam) == 0 {
		return s.finish(NoRoots), nil
	}
	for _, th := range beam {
		s.markExplored(th)
	}

	for {
		if s.timedOut() {
			return s.finish(Timeout), nil
		}

		for _, th := range beam {
			if goal != nil && goal(th.Content) {
				s.updateBest(th)
				s.best = th
				return s.finish(GoalReached), nil
			}
		}

		if s.expansionsExhausted() {
			return s.finish(MaxExpansions), nil
		}

		var union []*thought.Thought[T]
		for _, th := range beam {
			if s.expandedSet[th.ID] || th.Status == thought.StatusPruned || th.Depth >= cfg.MaxDepth {
				continue
			}
			children, err := s.expand(ctx, th.ID)
			if err != nil {
				return Result[T]{}, err
			}
			union = append(union, children...)

			if s.expansionsExhausted() {
				return s.finish(MaxExpansions), nil
			}
			if s.budgetExhausted() {
				return s.finish(BudgetExhausted), nil
			}
		}

		if len(union) == 0 {
			return s.finish(Completed), nil
		}

		sorted := graph.SortByScoreDescending(union)
		if len(sorted) > cfg.BeamWidth {
			sorted = sorted[:cfg.BeamWidth]
		}
		beam = sorted
	}
}
