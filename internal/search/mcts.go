package search

import (
	"context"
	"math"

	"graphreason/internal/contracts"
	"graphreason/internal/engine"
	"graphreason/internal/thought"
)

// mctsNode mirrors one node of the graph's tree of visited nodes, per
// spec.md §4.E.3: thought_id, visits, total_score, is_expanded, parent,
// children.
type mctsNode[T any] struct {
	thoughtID  string
	visits     int
	totalScore float64
	isExpanded bool
	parent     *mctsNode[T]
	children   []*mctsNode[T]
}

func (n *mctsNode[T]) averageScore() float64 {
	if n.visits == 0 {
		return 0
	}
	return n.totalScore / float64(n.visits)
}

// ucb1 implements UCB1(c) = avg(c) + C*sqrt(ln(parentVisits)/c.visits), with
// zero-visit nodes treated as infinite (unconditionally preferred), per
// spec.md §4.E.3.
func ucb1[T any](n *mctsNode[T], parentVisits int, exploration float64) float64 {
	if n.visits == 0 {
		return math.Inf(1)
	}
	return n.averageScore() + exploration*math.Sqrt(math.Log(float64(parentVisits))/float64(n.visits))
}

// DefaultExplorationConstant is C = sqrt(2), the default per spec.md §4.E.3.
var DefaultExplorationConstant = math.Sqrt2

// MCTS implements Monte Carlo Tree Search with UCB1 selection, per
// spec.md §4.E.3. Simulation uses the trivial rollout resolved by
// spec.md §9's open question: the node's own evaluator score, no random
// playout.
type MCTS[T any] struct {
	// ExplorationConstant is C in the UCB1 formula; zero means
	// DefaultExplorationConstant.
	ExplorationConstant float64
	// Iterations, when > 0, caps the search to exactly this many
	// select/expand/simulate/backpropagate iterations (spec.md §8
	// scenario 6 drives MCTS for a fixed iteration count). Zero means
	// rely solely on the shared timeout/expansion/budget termination
	// checks.
	Iterations int
}

func (MCTS[T]) Name() string { return "mcts" }

func (m MCTS[T]) Search(ctx context.Context, e *engine.Engine[T], start []string, cfg Config, goal contracts.GoalFunc[T]) (Result[T], error) {
	emitSearchStarted(e, m.Name())
	s := newSession(e, cfg, goal)

	c := m.ExplorationConstant
	if c == 0 {
		c = DefaultExplorationConstant
	}

	seed := resolveStart(e, start)
	if len(seed) == 0 {
		return s.finish(NoRoots), nil
	}

	roots := make([]*mctsNode[T], 0, len(seed))
	for _, th := range seed {
		roots = append(roots, &mctsNode[T]{thoughtID: th.ID})
		s.markExplored(th)
	}

	// finishWithTree attaches the root node tree to Metadata under
	// "mcts_roots" so a caller in this package (tests in particular) can
	// inspect visits/total_score/children without the tree ever being part
	// of the public Result contract for other strategies.
	finishWithTree := func(reason TerminationReason) Result[T] {
		r := s.finish(reason)
		r.Metadata["mcts_roots"] = roots
		return r
	}

	iteration := 0
	for {
		if m.Iterations > 0 && iteration >= m.Iterations {
			return finishWithTree(Completed), nil
		}
		if s.timedOut() {
			return finishWithTree(Timeout), nil
		}
		if s.expansionsExhausted() {
			return finishWithTree(MaxExpansions), nil
		}
		if s.budgetExhausted() {
			return finishWithTree(BudgetExhausted), nil
		}

		total := iteration
		if total == 0 {
			total = 1
		}
		selectedRoot := roots[0]
		bestUCB := ucb1(selectedRoot, total, c)
		for _, r := range roots[1:] {
			u := ucb1(r, total, c)
			if u > bestUCB {
				bestUCB = u
				selectedRoot = r
			}
		}

		cur := selectedRoot
		for cur.isExpanded && len(cur.children) > 0 {
			parentVisits := cur.visits
			best := cur.children[0]
			bestChildUCB := ucb1(best, parentVisits, c)
			for _, ch := range cur.children[1:] {
				u := ucb1(ch, parentVisits, c)
				if u > bestChildUCB {
					bestChildUCB = u
					best = ch
				}
			}
			cur = best
		}
		selected := cur

		th, err := e.Graph.GetThought(selected.thoughtID)
		if err != nil {
			return Result[T]{}, err
		}
		s.markExplored(th)

		if goal != nil && goal(th.Content) {
			s.best = th
			return finishWithTree(GoalReached), nil
		}

		if !selected.isExpanded && th.Depth < cfg.MaxDepth && th.Status != thought.StatusPruned {
			children, err := s.expand(ctx, selected.thoughtID)
			if err != nil {
				return Result[T]{}, err
			}
			selected.isExpanded = true
			for _, child := range children {
				selected.children = append(selected.children, &mctsNode[T]{thoughtID: child.ID, parent: selected})
			}
		} else {
			selected.isExpanded = true
		}

		payoff := th.Score
		for n := selected; n != nil; n = n.parent {
			n.totalScore += payoff
			n.visits++
		}
		iteration++

		if s.expansionsExhausted() {
			return finishWithTree(MaxExpansions), nil
		}
		if s.budgetExhausted() {
			return finishWithTree(BudgetExhausted), nil
		}
	}
}
