package search

import (
	"container/heap"
	"context"

	"graphreason/internal/contracts"
	"graphreason/internal/engine"
	"graphreason/internal/thought"
)

// pqItem wraps a thought with a monotonic sequence number so the priority
// queue breaks score ties by insertion order, per spec.md §9's "stable
// tie-break by insertion counter" requirement.
type pqItem[T any] struct {
	th  *thought.Thought[T]
	seq int
}

// priorityQueue is a max-heap by score (ties broken by seq ascending),
// implementing container/heap.Interface.
type priorityQueue[T any] []*pqItem[T]

func (q priorityQueue[T]) Len() int { return len(q) }

func (q priorityQueue[T]) Less(i, j int) bool {
	if q[i].th.Score != q[j].th.Score {
		return q[i].th.Score > q[j].th.Score
	}
	return q[i].seq < q[j].seq
}

func (q priorityQueue[T]) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *priorityQueue[T]) Push(x any) {
	*q = append(*q, x.(*pqItem[T]))
}

func (q *priorityQueue[T]) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// BestFirst implements best-first search over a priority queue ordered by
// descending score, per spec.md §4.E.2.
type BestFirst[T any] struct{}

func (BestFirst[T]) Name() string { return "best_first" }

func (bf BestFirst[T]) Search(ctx context.Context, e *engine.Engine[T], start []string, cfg Config, goal contracts.GoalFunc[T]) (Result[T], error) {
	emitSearchStarted(e, bf.Name())
	s := newSession(e, cfg, goal)

	seed := resolveStart(e, start)
	if len(seed) == 0 {
		return s.finish(NoRoots), nil
	}

	seq := 0
	pq := &priorityQueue[T]{}
	heap.Init(pq)
	for _, th := range seed {
		heap.Push(pq, &pqItem[T]{th: th, seq: seq})
		seq++
		s.markExplored(th)
	}

	for {
		if s.timedOut() {
			return s.finish(Timeout), nil
		}
		if s.expansionsExhausted() {
			return s.finish(MaxExpansions), nil
		}
		if s.budgetExhausted() {
			return s.finish(BudgetExhausted), nil
		}
		if pq.Len() == 0 {
			return s.finish(Completed), nil
		}

		item := heap.Pop(pq).(*pqItem[T])
		th := item.th
		if s.expandedSet[th.ID] {
			continue
		}

		s.updateBest(th)
		if goal != nil && goal(th.Content) {
			s.best = th
			return s.finish(GoalReached), nil
		}

		children, err := s.expand(ctx, th.ID)
		if err != nil {
			return Result[T]{}, err
		}
		for _, c := range children {
			if !s.expandedSet[c.ID] {
				heap.Push(pq, &pqItem[T]{th: c, seq: seq})
				seq++
			}
		}

		if s.expansionsExhausted() {
			return s.finish(MaxExpansions), nil
		}
		if s.budgetExhausted() {
			return s.finish(BudgetExhausted), nil
		}
	}
}
