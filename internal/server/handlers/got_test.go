package handlers

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graphreason/internal/persistence/sqlite"
)

func TestHandleInitializeRequiresFields(t *testing.T) {
	h := NewGoTHandler(nil)
	_, _, err := h.HandleInitialize(context.Background(), nil, InitializeRequest{})
	assert.Error(t, err)
	_, _, err = h.HandleInitialize(context.Background(), nil, InitializeRequest{GraphID: "g1"})
	assert.Error(t, err)
}

func TestHandleInitializeCreatesGraph(t *testing.T) {
	h := NewGoTHandler(nil)
	_, resp, err := h.HandleInitialize(context.Background(), nil, InitializeRequest{
		GraphID:        "g1",
		InitialThought: "root thought",
	})
	require.NoError(t, err)
	assert.Equal(t, "g1", resp.GraphID)
	assert.NotEmpty(t, resp.RootID)
	assert.Equal(t, "initialized", resp.Status)
}

func TestHandleExpandUnknownGraph(t *testing.T) {
	h := NewGoTHandler(nil)
	_, _, err := h.HandleExpand(context.Background(), nil, ExpandRequest{
		GraphID:   "does-not-exist",
		ThoughtID: "x",
		Children:  []ChildInput{{Content: "a", Score: 0.5}},
	})
	assert.Error(t, err)
}

func TestHandleExpandCommitsChildren(t *testing.T) {
	h := NewGoTHandler(nil)
	_, initResp, err := h.HandleInitialize(context.Background(), nil, InitializeRequest{
		GraphID:        "g1",
		InitialThought: "root",
	})
	require.NoError(t, err)

	_, resp, err := h.HandleExpand(context.Background(), nil, ExpandRequest{
		GraphID:   "g1",
		ThoughtID: initResp.RootID,
		Children: []ChildInput{
			{Content: "child a", Score: 0.7, TokensUsed: 10},
			{Content: "child b", Score: 0.3, TokensUsed: 5},
		},
	})
	require.NoError(t, err)
	require.Len(t, resp.Children, 2)
	assert.Equal(t, "child a", resp.Children[0].Content)
	assert.Equal(t, 0.7, resp.Children[0].Score)
	assert.Equal(t, 10, resp.Children[0].TokensUsed)

	_, stateResp, err := h.HandleGetState(context.Background(), nil, GetStateRequest{GraphID: "g1"})
	require.NoError(t, err)
	assert.Equal(t, 3, stateResp.TotalThoughts)
	assert.Equal(t, 2, stateResp.TotalEdges)
}

func TestHandleSearchRunsBeamToCompletion(t *testing.T) {
	h := NewGoTHandler(nil)
	_, initResp, err := h.HandleInitialize(context.Background(), nil, InitializeRequest{
		GraphID:        "g1",
		InitialThought: "root",
	})
	require.NoError(t, err)

	_, resp, err := h.HandleSearch(context.Background(), nil, SearchRequest{
		GraphID:       "g1",
		Strategy:      "beam",
		MaxDepth:      2,
		BeamWidth:     2,
		MaxExpansions: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, "completed", resp.TerminationReason)
	assert.NotEmpty(t, resp.BestPath)
	assert.Equal(t, initResp.RootID, resp.BestPath[0].ID)
}

func TestHandleSearchUnknownStrategy(t *testing.T) {
	h := NewGoTHandler(nil)
	_, _, err := h.HandleInitialize(context.Background(), nil, InitializeRequest{GraphID: "g1", InitialThought: "root"})
	require.NoError(t, err)
	_, _, err = h.HandleSearch(context.Background(), nil, SearchRequest{GraphID: "g1", Strategy: "does-not-exist"})
	assert.Error(t, err)
}

func TestHandlePrune(t *testing.T) {
	h := NewGoTHandler(nil)
	_, initResp, err := h.HandleInitialize(context.Background(), nil, InitializeRequest{GraphID: "g1", InitialThought: "root"})
	require.NoError(t, err)
	_, _, err = h.HandleExpand(context.Background(), nil, ExpandRequest{
		GraphID:   "g1",
		ThoughtID: initResp.RootID,
		Children: []ChildInput{
			{Content: "low", Score: 0.1},
			{Content: "high", Score: 0.9},
		},
	})
	require.NoError(t, err)

	_, resp, err := h.HandlePrune(context.Background(), nil, PruneRequest{GraphID: "g1", Threshold: 0.5})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.RemovedCount)
}

func TestCheckpointToolsRequireStore(t *testing.T) {
	h := NewGoTHandler(nil)
	_, _, err := h.HandleCheckpointSave(context.Background(), nil, CheckpointSaveRequest{GraphID: "g1"})
	assert.Error(t, err)
	_, _, err = h.HandleCheckpointLoad(context.Background(), nil, CheckpointLoadRequest{GraphID: "g1"})
	assert.Error(t, err)
}

func TestCheckpointSaveAndLoadRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := sqlite.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	h := NewGoTHandler(store)
	_, initResp, err := h.HandleInitialize(context.Background(), nil, InitializeRequest{GraphID: "g1", InitialThought: "root"})
	require.NoError(t, err)
	_, _, err = h.HandleExpand(context.Background(), nil, ExpandRequest{
		GraphID:   "g1",
		ThoughtID: initResp.RootID,
		Children:  []ChildInput{{Content: "child", Score: 0.5}},
	})
	require.NoError(t, err)

	_, saveResp, err := h.HandleCheckpointSave(context.Background(), nil, CheckpointSaveRequest{GraphID: "g1", CheckpointID: "cp1"})
	require.NoError(t, err)
	assert.True(t, saveResp.Saved)

	h2 := NewGoTHandler(store)
	_, loadResp, err := h2.HandleCheckpointLoad(context.Background(), nil, CheckpointLoadRequest{GraphID: "g1"})
	require.NoError(t, err)
	assert.True(t, loadResp.Found)
	assert.Equal(t, 2, loadResp.TotalThoughts)

	_, loadCPResp, err := h2.HandleCheckpointLoad(context.Background(), nil, CheckpointLoadRequest{GraphID: "g1", CheckpointID: "cp1"})
	require.NoError(t, err)
	assert.True(t, loadCPResp.Found)

	_, loadMissing, err := h2.HandleCheckpointLoad(context.Background(), nil, CheckpointLoadRequest{GraphID: "g1", CheckpointID: "does-not-exist"})
	require.NoError(t, err)
	assert.False(t, loadMissing.Found)
}
