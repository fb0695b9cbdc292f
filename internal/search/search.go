// Package search implements the four search strategies (spec.md §4.E) that
// drive the expansion engine: beam, best-first, MCTS (UCB1), and iterative
// deepening. Grounded on the teacher's internal/modes/graph_operations.go
// Explore orchestration (generate/score/prune staging, step bookkeeping)
// and internal/modes/registry.go's Registry (adapted from thinking-mode
// lookup to strategy lookup).
package search

import (
	"context"

	"graphreason/internal/config"
	"graphreason/internal/contracts"
	"graphreason/internal/engine"
	"graphreason/internal/events"
	"graphreason/internal/limiter"
	"graphreason/internal/thought"
)

// TerminationReason is one of the seven exhaustive, mutually exclusive
// reasons a strategy stops, per spec.md §4.E.
type TerminationReason string

const (
	NoRoots         TerminationReason = "no_roots"
	GoalReached     TerminationReason = "goal_reached"
	MaxDepth        TerminationReason = "max_depth"
	MaxExpansions   TerminationReason = "max_expansions"
	BudgetExhausted TerminationReason = "budget_exhausted"
	Timeout         TerminationReason = "timeout"
	Completed       TerminationReason = "completed"
)

// Config is the SearchConfig shared by all strategies. FromGraphDefaults
// builds one from the Graph's own configuration; strategies use every field
// exactly as given and do not replace zero-valued fields with defaults.
type Config struct {
	MaxDepth       int
	BeamWidth      int
	MaxExpansions  int
	MaxTokens      *int
	TimeoutSeconds *int
	ScoreThreshold float64
}

// FromGraphDefaults builds a Config from a GraphConfig's search defaults
// and resource limits, per spec.md §4.E ("defaults inherited from the
// Graph's config").
func FromGraphDefaults(gc *config.GraphConfig) Config {
	return Config{
		MaxDepth:       gc.Limits.MaxDepth,
		BeamWidth:      gc.Search.BeamWidth,
		MaxExpansions:  gc.Search.MaxExpansions,
		MaxTokens:      gc.Limits.MaxTokens,
		TimeoutSeconds: gc.Limits.TimeoutSeconds,
		ScoreThreshold: gc.Search.ScoreThreshold,
	}
}

// Result is the SearchResult every strategy returns, per spec.md §4.E.
type Result[T any] struct {
	BestPath          []*thought.Thought[T]
	BestScore         float64
	ThoughtsExplored  int
	ThoughtsExpanded  int
	TotalTokensUsed   int
	WallTimeSeconds   float64
	TerminationReason TerminationReason
	Metadata          map[string]any
}

// Strategy drives an Engine from a start set of thought ids to a Result.
type Strategy[T any] interface {
	Name() string
	Search(ctx context.Context, e *engine.Engine[T], start []string, cfg Config, goal contracts.GoalFunc[T]) (Result[T], error)
}

// session holds the bookkeeping shared by every strategy implementation:
// the explored set (dedup/stats, local to this search) and the running
// best thought, plus a *limiter.Limiter (spec.md §4.F) consulted for every
// budget/timeout/expansion-count predicate instead of reimplementing them.
// A session gets its own Limiter instance rather than the Graph's shared
// one: SearchConfig's max_expansions/max_tokens/timeout_seconds are
// per-search overrides and spec.md §8's scenarios (and §3's
// thoughts_expanded ≤ max_expansions invariant) are scoped to a single
// Result, not the Graph's lifetime consumption (which Graph.add_thought
// tracks separately via g.Limiter() for max_thoughts). Kept unexported
// since it is an implementation seam, not part of the public Result
// contract.
type session[T any] struct {
	e           *engine.Engine[T]
	cfg         Config
	goal        contracts.GoalFunc[T]
	limiter     *limiter.Limiter
	explored    map[string]bool
	expandedSet map[string]bool
	best        *thought.Thought[T]
}

func newSession[T any](e *engine.Engine[T], cfg Config, goal contracts.GoalFunc[T]) *session[T] {
	return &session[T]{
		e:           e,
		cfg:         cfg,
		goal:        goal,
		limiter:     limiter.New(config.ResourceLimits{}),
		explored:    make(map[string]bool),
		expandedSet: make(map[string]bool),
	}
}

func (s *session[T]) markExplored(th *thought.Thought[T]) {
	s.explored[th.ID] = true
	s.updateBest(th)
}

func (s *session[T]) updateBest(th *thought.Thought[T]) {
	if s.best == nil || th.Score > s.best.Score {
		s.best = th
	}
}

func (s *session[T]) timedOut() bool {
	return s.limiter.TimedOut(s.cfg.TimeoutSeconds)
}

func (s *session[T]) expansionsExhausted() bool {
	return s.limiter.ExpansionsExhausted(s.cfg.MaxExpansions)
}

func (s *session[T]) budgetExhausted() bool {
	return s.limiter.BudgetExhausted(s.cfg.MaxTokens)
}

func (s *session[T]) expand(ctx context.Context, id string) ([]*thought.Thought[T], error) {
	children, err := s.e.Expand(ctx, id, nil, nil)
	if err != nil {
		return nil, err
	}
	s.limiter.RecordExpansion()
	s.expandedSet[id] = true
	for _, c := range children {
		s.limiter.RecordTokens(c.TokensUsed)
		s.markExplored(c)
	}
	return children, nil
}

func (s *session[T]) finish(reason TerminationReason) Result[T] {
	var bestPath []*thought.Thought[T]
	bestScore := 0.0
	if s.best != nil {
		bestPath, _ = s.e.Graph.GetPathToRoot(s.best.ID)
		bestScore = s.best.Score
	}
	result := Result[T]{
		BestPath:          bestPath,
		BestScore:         bestScore,
		ThoughtsExplored:  len(s.explored),
		ThoughtsExpanded:  len(s.expandedSet),
		TotalTokensUsed:   s.limiter.TotalTokens(),
		WallTimeSeconds:   s.limiter.Elapsed().Seconds(),
		TerminationReason: reason,
		Metadata:          make(map[string]any),
	}
	s.e.Graph.Emitter().Emit(events.Event{
		Type:    events.SearchCompleted,
		Payload: map[string]any{"termination_reason": string(reason)},
	})
	if reason == GoalReached && s.best != nil {
		s.e.Graph.Emitter().Emit(events.Event{Type: events.GoalReached, Payload: map[string]any{"thought": s.best}})
	}
	return result
}

// resolveStart resolves a possibly-empty start id list to the graph's
// current roots, per spec.md's "start defaults to all roots" convention.
// It filters out any id no longer present in the graph (a strategy holds
// only ids across iterations, per spec.md §3's ownership rule).
func resolveStart[T any](e *engine.Engine[T], start []string) []*thought.Thought[T] {
	ids := start
	if len(ids) == 0 {
		ids = e.Graph.Roots()
	}
	var out []*thought.Thought[T]
	for _, id := range ids {
		if th, err := e.Graph.GetThought(id); err == nil {
			out = append(out, th)
		}
	}
	return out
}

func emitSearchStarted[T any](e *engine.Engine[T], name string) {
	e.Graph.Emitter().Emit(events.Event{Type: events.SearchStarted, Payload: map[string]any{"strategy": name}})
}
