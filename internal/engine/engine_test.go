package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graphreason/internal/config"
	"graphreason/internal/contracts"
	"graphreason/internal/events"
	"graphreason/internal/graph"
	"graphreason/internal/thought"
)

type fixedGenerator struct {
	children []string
	err      error
}

func (g fixedGenerator) Generate(_ context.Context, _ string, _ contracts.SearchContext[string]) ([]contracts.Generated[string], error) {
	if g.err != nil {
		return nil, g.err
	}
	out := make([]contracts.Generated[string], len(g.children))
	for i, c := range g.children {
		out[i] = contracts.Generated[string]{Content: c}
	}
	return out, nil
}

type lengthEvaluator struct {
	err error
}

func (e lengthEvaluator) Evaluate(_ context.Context, content string, _ contracts.SearchContext[string]) (float64, error) {
	if e.err != nil {
		return 0, e.err
	}
	return float64(len(content)) / 100.0, nil
}

func newTestEngine(t *testing.T, gen contracts.Generator[string], eval contracts.Evaluator[string]) (*Engine[string], *graph.Graph[string]) {
	t.Helper()
	cfg := config.Default()
	g := graph.New[string](cfg, events.NewEmitter())
	e := New[string](g, gen, eval, nil)
	return e, g
}

func TestExpandCreatesChildrenInOrder(t *testing.T) {
	e, g := newTestEngine(t, fixedGenerator{children: []string{"x→a", "x→b"}}, lengthEvaluator{})
	root, err := g.AddThought("x", graph.ThoughtParams{})
	require.NoError(t, err)

	children, err := e.Expand(context.Background(), root.ID, nil, nil)
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "x→a", children[0].Content)
	assert.Equal(t, "x→b", children[1].Content)
	assert.Equal(t, thought.StatusCompleted, root.Status)
	assert.Equal(t, 1, children[0].Depth)
}

func TestExpandAtMaxDepthReturnsEmptyNoError(t *testing.T) {
	cfg := config.Default()
	cfg.Limits.MaxDepth = 0
	g := graph.New[string](cfg, events.NewEmitter())
	e := New[string](g, fixedGenerator{children: []string{"x→a"}}, lengthEvaluator{}, nil)

	root, err := g.AddThought("x", graph.ThoughtParams{})
	require.NoError(t, err)

	children, err := e.Expand(context.Background(), root.ID, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, children)
	assert.Equal(t, thought.StatusPending, root.Status, "status must not change when expansion refuses to proceed")
}

func TestExpandGeneratorErrorMarksFailed(t *testing.T) {
	e, g := newTestEngine(t, fixedGenerator{err: errors.New("boom")}, lengthEvaluator{})
	root, err := g.AddThought("x", graph.ThoughtParams{})
	require.NoError(t, err)

	children, err := e.Expand(context.Background(), root.ID, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, children)
	assert.Equal(t, thought.StatusFailed, root.Status)
}

func TestExpandEvaluatorErrorSubstitutesZeroScore(t *testing.T) {
	e, g := newTestEngine(t, fixedGenerator{children: []string{"child"}}, lengthEvaluator{err: errors.New("eval down")})
	root, err := g.AddThought("x", graph.ThoughtParams{})
	require.NoError(t, err)

	children, err := e.Expand(context.Background(), root.ID, nil, nil)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, 0.0, children[0].Score)
}

func TestExpandOnPrunedThoughtReturnsEmpty(t *testing.T) {
	e, g := newTestEngine(t, fixedGenerator{children: []string{"child"}}, lengthEvaluator{})
	root, err := g.AddThought("x", graph.ThoughtParams{})
	require.NoError(t, err)
	root.Status = thought.StatusPruned

	children, err := e.Expand(context.Background(), root.ID, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, children)
}
