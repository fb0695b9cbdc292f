package search

import (
	"context"

	"graphreason/internal/contracts"
	"graphreason/internal/engine"
	"graphreason/internal/thought"
)

// IterativeDeepening implements the depth-limited-DFS-per-depth-level
// strategy of spec.md §4.E.4. Already-COMPLETED thoughts are treated as a
// cache and are not re-expanded between depth limits.
type IterativeDeepening[T any] struct{}

func (IterativeDeepening[T]) Name() string { return "iterative_deepening" }

func (id IterativeDeepening[T]) Search(ctx context.Context, e *engine.Engine[T], start []string, cfg Config, goal contracts.GoalFunc[T]) (Result[T], error) {
	emitSearchStarted(e, id.Name())
	s := newSession(e, cfg, goal)

	seed := resolveStart(e, start)
	if len(seed) == 0 {
		return s.finish(NoRoots), nil
	}

	for depthLimit := 1; depthLimit <= cfg.MaxDepth; depthLimit++ {
		reason, done, err := id.runDepthLimitedDFS(ctx, s, e, seed, depthLimit, goal)
		if err != nil {
			return Result[T]{}, err
		}
		if done {
			return s.finish(reason), nil
		}
	}
	return s.finish(Completed), nil
}

func (IterativeDeepening[T]) runDepthLimitedDFS(ctx context.Context, s *session[T], e *engine.Engine[T], seed []*thought.Thought[T], depthLimit int, goal contracts.GoalFunc[T]) (TerminationReason, bool, error) {
	visited := make(map[string]bool)
	var innerErr error

	var dfs func(th *thought.Thought[T]) (TerminationReason, bool)
	dfs = func(th *thought.Thought[T]) (TerminationReason, bool) {
		if visited[th.ID] {
			return "", false
		}
		visited[th.ID] = true
		s.markExplored(th)

		if s.timedOut() {
			return Timeout, true
		}
		if goal != nil && goal(th.Content) {
			s.best = th
			return GoalReached, true
		}
		if s.expansionsExhausted() {
			return MaxExpansions, true
		}
		if s.budgetExhausted() {
			return BudgetExhausted, true
		}

		if th.Depth < depthLimit && th.Status != thought.StatusPruned {
			if th.Status != thought.StatusCompleted {
				if _, err := s.expand(ctx, th.ID); err != nil {
					innerErr = err
					return "", true
				}
			}
			children, err := e.Graph.GetChildren(th.ID)
			if err != nil {
				innerErr = err
				return "", true
			}
			for _, child := range children {
				if reason, done := dfs(child); done {
					return reason, done
				}
			}
		}
		return "", false
	}

	for _, th := range seed {
		reason, done := dfs(th)
		if innerErr != nil {
			return "", false, innerErr
		}
		if done {
			return reason, true, nil
		}
	}
	return "", false, nil
}
