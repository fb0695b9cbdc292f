package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graphreason/internal/config"
	"graphreason/internal/coreerrors"
	"graphreason/internal/events"
	"graphreason/internal/thought"
)

func newTestGraph(t *testing.T) *Graph[string] {
	t.Helper()
	cfg := config.Default()
	return New[string](cfg, events.NewEmitter())
}

func TestAddThoughtRoot(t *testing.T) {
	g := newTestGraph(t)
	th, err := g.AddThought("root", ThoughtParams{})
	require.NoError(t, err)
	assert.Equal(t, 0, th.Depth)
	assert.Equal(t, thought.StatusPending, th.Status)
	assert.Equal(t, []string{th.ID}, g.Roots())
}

func TestAddThoughtChildDepth(t *testing.T) {
	g := newTestGraph(t)
	root, err := g.AddThought("root", ThoughtParams{})
	require.NoError(t, err)

	child, err := g.AddThought("child", ThoughtParams{ParentID: &root.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, child.Depth)

	children, err := g.GetChildren(root.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, child.ID, children[0].ID)
}

func TestAddThoughtParentNotFound(t *testing.T) {
	g := newTestGraph(t)
	missing := "does-not-exist"
	_, err := g.AddThought("x", ThoughtParams{ParentID: &missing})
	var coreErr *coreerrors.CoreError
	require.ErrorAs(t, err, &coreErr)
	assert.Equal(t, coreerrors.CodeNodeNotFound, coreErr.Code)
}

func TestAddThoughtResourceExhausted(t *testing.T) {
	cfg := config.Default()
	cfg.Limits.MaxThoughts = 1
	g := New[string](cfg, events.NewEmitter())

	_, err := g.AddThought("a", ThoughtParams{})
	require.NoError(t, err)

	_, err = g.AddThought("b", ThoughtParams{})
	var coreErr *coreerrors.CoreError
	require.ErrorAs(t, err, &coreErr)
	assert.Equal(t, coreerrors.CodeResourceExhausted, coreErr.Code)
}

func TestAddThoughtDuplicateID(t *testing.T) {
	g := newTestGraph(t)
	id := "fixed-id"
	_, err := g.AddThought("a", ThoughtParams{ID: &id})
	require.NoError(t, err)

	_, err = g.AddThought("b", ThoughtParams{ID: &id})
	var coreErr *coreerrors.CoreError
	require.ErrorAs(t, err, &coreErr)
	assert.Equal(t, coreerrors.CodeGraphError, coreErr.Code)
}

func TestCycleRejectionScenario4(t *testing.T) {
	cfg := config.Default()
	cfg.AllowCycles = false
	g := New[string](cfg, events.NewEmitter())

	a, err := g.AddThought("A", ThoughtParams{})
	require.NoError(t, err)
	b, err := g.AddThought("B", ThoughtParams{})
	require.NoError(t, err)

	_, err = g.AddEdge(a.ID, b.ID, EdgeParams{})
	require.NoError(t, err)

	_, err = g.AddEdge(b.ID, a.ID, EdgeParams{})
	var coreErr *coreerrors.CoreError
	require.ErrorAs(t, err, &coreErr)
	assert.Equal(t, coreerrors.CodeCycleDetected, coreErr.Code)

	cfg2 := config.Default()
	cfg2.AllowCycles = true
	g2 := New[string](cfg2, events.NewEmitter())
	a2, _ := g2.AddThought("A", ThoughtParams{})
	b2, _ := g2.AddThought("B", ThoughtParams{})
	_, err = g2.AddEdge(a2.ID, b2.ID, EdgeParams{})
	require.NoError(t, err)
	_, err = g2.AddEdge(b2.ID, a2.ID, EdgeParams{})
	require.NoError(t, err)
}

func TestRemoveThoughtInvariant4(t *testing.T) {
	g := newTestGraph(t)
	root, _ := g.AddThought("root", ThoughtParams{})
	child, _ := g.AddThought("child", ThoughtParams{ParentID: &root.ID})

	removed, err := g.RemoveThought(child.ID)
	require.NoError(t, err)
	assert.Equal(t, child.ID, removed.ID)

	_, err = g.GetThought(child.ID)
	require.Error(t, err)

	children, err := g.GetChildren(root.ID)
	require.NoError(t, err)
	assert.Empty(t, children)

	_, err = g.GetEdge(root.ID, child.ID)
	require.Error(t, err)
}

func TestPruneOnlyAffectsPendingBelowThreshold(t *testing.T) {
	g := newTestGraph(t)
	low, _ := g.AddThought("low", ThoughtParams{})
	low.Score = 0.1
	high, _ := g.AddThought("high", ThoughtParams{})
	high.Score = 0.9

	n := g.Prune(0.5)
	assert.Equal(t, 1, n)
	assert.Equal(t, thought.StatusPruned, low.Status)
	assert.Equal(t, thought.StatusPending, high.Status)
}

func TestGetPathToRootFirstParentByInsertionOrder(t *testing.T) {
	g := newTestGraph(t)
	root, _ := g.AddThought("root", ThoughtParams{})
	mid, _ := g.AddThought("mid", ThoughtParams{ParentID: &root.ID})
	leaf, _ := g.AddThought("leaf", ThoughtParams{ParentID: &mid.ID})

	path, err := g.GetPathToRoot(leaf.ID)
	require.NoError(t, err)
	require.Len(t, path, 3)
	assert.Equal(t, root.ID, path[0].ID)
	assert.Equal(t, mid.ID, path[1].ID)
	assert.Equal(t, leaf.ID, path[2].ID)
}

func TestMergeThoughts(t *testing.T) {
	g := newTestGraph(t)
	a, _ := g.AddThought("a", ThoughtParams{})
	a.Depth = 2
	b, _ := g.AddThought("b", ThoughtParams{})
	b.Depth = 3

	merged, err := g.MergeThoughts([]string{a.ID, b.ID}, "merged", MergeParams{})
	require.NoError(t, err)
	assert.Equal(t, 4, merged.Depth)
	assert.Equal(t, thought.StatusMerged, a.Status)
	assert.Equal(t, thought.StatusMerged, b.Status)

	edge, err := g.GetEdge(a.ID, merged.ID)
	require.NoError(t, err)
	assert.Equal(t, thought.RelationMergesInto, edge.Relation)
}

func TestBFSVisitsEachThoughtOnceInInsertionOrder(t *testing.T) {
	g := newTestGraph(t)
	root, _ := g.AddThought("root", ThoughtParams{})
	c1, _ := g.AddThought("c1", ThoughtParams{ParentID: &root.ID})
	c2, _ := g.AddThought("c2", ThoughtParams{ParentID: &root.ID})

	visited := g.BFS(nil, false)
	require.Len(t, visited, 3)
	assert.Equal(t, root.ID, visited[0].ID)
	assert.Equal(t, []string{c1.ID, c2.ID}, []string{visited[1].ID, visited[2].ID})
}

func TestGetLeavesExcludesPrunedByDefault(t *testing.T) {
	g := newTestGraph(t)
	root, _ := g.AddThought("root", ThoughtParams{})
	leaf, _ := g.AddThought("leaf", ThoughtParams{ParentID: &root.ID})
	leaf.Status = thought.StatusPruned

	leaves := g.GetLeaves(false)
	assert.Empty(t, leaves)

	leavesIncl := g.GetLeaves(true)
	require.Len(t, leavesIncl, 1)
	assert.Equal(t, leaf.ID, leavesIncl[0].ID)
}

func TestStatsCounts(t *testing.T) {
	g := newTestGraph(t)
	root, _ := g.AddThought("root", ThoughtParams{})
	root.Score = 1.0
	_, _ = g.AddThought("child", ThoughtParams{ParentID: &root.ID})

	stats := g.Stats()
	assert.Equal(t, 2, stats.TotalThoughts)
	assert.Equal(t, 1, stats.TotalEdges)
	assert.Equal(t, 0.5, stats.AverageScore)
}
