// Package handlers implements the Graph-of-Thoughts MCP tool handlers, one
// handler function per tool, registered against an *mcp.Server by
// RegisterGoTTools. Grounded on the teacher's own
// internal/server/handlers/got.go: same GoTHandler-owns-a-controller shape,
// same RequestDTO/ResponseDTO-per-tool convention, same
// (*mcp.CallToolResult, *ResponseDTO, error) handler signature.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"graphreason/internal/checkpoint"
	"graphreason/internal/config"
	"graphreason/internal/contracts"
	"graphreason/internal/engine"
	"graphreason/internal/events"
	"graphreason/internal/graph"
	"graphreason/internal/persistence"
	"graphreason/internal/search"
	"graphreason/internal/thought"
)

func toJSONContent(data any) []mcp.Content {
	jsonData, err := json.Marshal(data)
	if err != nil {
		jsonData, _ = json.Marshal(map[string]string{"error": err.Error()})
	}
	return []mcp.Content{&mcp.TextContent{Text: string(jsonData)}}
}

// GoTHandler owns every live graph by caller-chosen id, generalizing the
// teacher's modes.GraphController (internal/modes/graph.go's
// states map[string]*GraphState) from one LLM-thought graph type to this
// module's generic Graph[string] (MCP content is always transported as
// JSON/text, so every graph hosted here is instantiated over string
// content).
type GoTHandler struct {
	mu     sync.Mutex
	graphs map[string]*graph.Graph[string]
	store  persistence.IncrementalPersistence // optional; nil disables checkpoint tools
}

// NewGoTHandler constructs a handler with no live graphs. store may be nil,
// in which case got-checkpoint-save/got-checkpoint-load return an error.
func NewGoTHandler(store persistence.IncrementalPersistence) *GoTHandler {
	return &GoTHandler{
		graphs: make(map[string]*graph.Graph[string]),
		store:  store,
	}
}

func (h *GoTHandler) getGraph(graphID string) (*graph.Graph[string], error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	g, ok := h.graphs[graphID]
	if !ok {
		return nil, fmt.Errorf("unknown graph_id %q", graphID)
	}
	return g, nil
}

// InitializeRequest is the request DTO for got-init.
type InitializeRequest struct {
	GraphID        string              `json:"graph_id"`
	InitialThought string              `json:"initial_thought"`
	Config         *config.GraphConfig `json:"config,omitempty"`
}

// InitializeResponse is the response DTO for got-init.
type InitializeResponse struct {
	GraphID string              `json:"graph_id"`
	RootID  string              `json:"root_id"`
	Status  string              `json:"status"`
	Config  *config.GraphConfig `json:"config"`
}

// HandleInitialize creates a new graph rooted at the given thought.
func (h *GoTHandler) HandleInitialize(ctx context.Context, req *mcp.CallToolRequest, request InitializeRequest) (*mcp.CallToolResult, *InitializeResponse, error) {
	if request.GraphID == "" {
		return nil, nil, fmt.Errorf("graph_id is required")
	}
	if request.InitialThought == "" {
		return nil, nil, fmt.Errorf("initial_thought is required")
	}

	cfg := request.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	g := graph.New[string](cfg, events.NewEmitter())
	root, err := g.AddThought(request.InitialThought, graph.ThoughtParams{})
	if err != nil {
		return nil, nil, fmt.Errorf("initialization failed: %w", err)
	}

	h.mu.Lock()
	h.graphs[request.GraphID] = g
	h.mu.Unlock()

	response := &InitializeResponse{
		GraphID: request.GraphID,
		RootID:  root.ID,
		Status:  "initialized",
		Config:  cfg,
	}
	return &mcp.CallToolResult{Content: toJSONContent(response)}, response, nil
}

// ThoughtInfo is the wire shape of a single thought in every response that
// surfaces thought data.
type ThoughtInfo struct {
	ID         string  `json:"id"`
	Content    string  `json:"content"`
	Depth      int     `json:"depth"`
	Score      float64 `json:"score"`
	Status     string  `json:"status"`
	TokensUsed int     `json:"tokens_used"`
}

func toThoughtInfo(th *thought.Thought[string]) ThoughtInfo {
	return ThoughtInfo{
		ID:         th.ID,
		Content:    th.Content,
		Depth:      th.Depth,
		Score:      th.Score,
		Status:     string(th.Status),
		TokensUsed: th.TokensUsed,
	}
}

// ChildInput is a single caller-supplied child for got-expand: the caller
// (an upstream LLM-driving client, out of scope for this module) already
// generated content and scored it, so got-expand commits it directly
// rather than invoking a Generator/Evaluator of its own.
type ChildInput struct {
	Content    string  `json:"content"`
	Score      float64 `json:"score"`
	TokensUsed int     `json:"tokens_used,omitempty"`
}

// ExpandRequest is the request DTO for got-expand.
type ExpandRequest struct {
	GraphID   string       `json:"graph_id"`
	ThoughtID string       `json:"thought_id"`
	Children  []ChildInput `json:"children"`
}

// ExpandResponse is the response DTO for got-expand.
type ExpandResponse struct {
	GraphID  string        `json:"graph_id"`
	Children []ThoughtInfo `json:"children"`
	Count    int           `json:"count"`
}

// requestGenerator replays the caller-supplied children verbatim; it never
// computes anything, it only adapts ExpandRequest.Children into the shape
// Engine.Expand expects.
type requestGenerator struct {
	children []contracts.Generated[string]
}

func (r requestGenerator) Generate(context.Context, string, contracts.SearchContext[string]) ([]contracts.Generated[string], error) {
	return r.children, nil
}

// requestEvaluator looks a child's score up by content, since Evaluate is
// called once per content value in the same order requestGenerator
// produced them.
type requestEvaluator struct {
	scores map[string]float64
}

func (r requestEvaluator) Evaluate(_ context.Context, content string, _ contracts.SearchContext[string]) (float64, error) {
	return r.scores[content], nil
}

// HandleExpand commits caller-supplied children under an existing thought,
// through the same Engine.Expand path got-search drives internally.
func (h *GoTHandler) HandleExpand(ctx context.Context, req *mcp.CallToolRequest, request ExpandRequest) (*mcp.CallToolResult, *ExpandResponse, error) {
	if request.GraphID == "" {
		return nil, nil, fmt.Errorf("graph_id is required")
	}
	if request.ThoughtID == "" {
		return nil, nil, fmt.Errorf("thought_id is required")
	}
	if len(request.Children) == 0 {
		return nil, nil, fmt.Errorf("children cannot be empty")
	}

	g, err := h.getGraph(request.GraphID)
	if err != nil {
		return nil, nil, err
	}

	gen := requestGenerator{children: make([]contracts.Generated[string], len(request.Children))}
	eval := requestEvaluator{scores: make(map[string]float64, len(request.Children))}
	for i, c := range request.Children {
		gen.children[i] = contracts.Generated[string]{Content: c.Content, TokensUsed: c.TokensUsed}
		eval.scores[c.Content] = c.Score
	}

	e := engine.New[string](g, gen, eval, nil)
	children, err := e.Expand(ctx, request.ThoughtID, nil, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("expansion failed: %w", err)
	}

	infos := make([]ThoughtInfo, len(children))
	for i, c := range children {
		infos[i] = toThoughtInfo(c)
	}

	response := &ExpandResponse{GraphID: request.GraphID, Children: infos, Count: len(infos)}
	return &mcp.CallToolResult{Content: toJSONContent(response)}, response, nil
}

// SearchRequest is the request DTO for got-search.
type SearchRequest struct {
	GraphID        string   `json:"graph_id"`
	Strategy       string   `json:"strategy"`
	StartIDs       []string `json:"start_ids,omitempty"`
	MaxDepth       int      `json:"max_depth,omitempty"`
	BeamWidth      int      `json:"beam_width,omitempty"`
	MaxExpansions  int      `json:"max_expansions,omitempty"`
	MaxTokens      *int     `json:"max_tokens,omitempty"`
	TimeoutSeconds *int     `json:"timeout_seconds,omitempty"`
	ScoreThreshold float64  `json:"score_threshold,omitempty"`
	GoalSubstring  string   `json:"goal_substring,omitempty"`
}

// SearchResponse is the response DTO for got-search.
type SearchResponse struct {
	GraphID           string        `json:"graph_id"`
	BestPath          []ThoughtInfo `json:"best_path"`
	BestScore         float64       `json:"best_score"`
	ThoughtsExplored  int           `json:"thoughts_explored"`
	ThoughtsExpanded  int           `json:"thoughts_expanded"`
	TotalTokensUsed   int           `json:"total_tokens_used"`
	WallTimeSeconds   float64       `json:"wall_time_seconds"`
	TerminationReason string        `json:"termination_reason"`
}

// HandleSearch runs one of the four registered strategies over the graph's
// built-in demo Generator/Evaluator, since no real reasoning backend is
// wired into this module.
func (h *GoTHandler) HandleSearch(ctx context.Context, req *mcp.CallToolRequest, request SearchRequest) (*mcp.CallToolResult, *SearchResponse, error) {
	if request.GraphID == "" {
		return nil, nil, fmt.Errorf("graph_id is required")
	}
	if request.Strategy == "" {
		return nil, nil, fmt.Errorf("strategy is required")
	}

	g, err := h.getGraph(request.GraphID)
	if err != nil {
		return nil, nil, err
	}

	strategy, err := search.NewDefaultRegistry[string]().Get(request.Strategy)
	if err != nil {
		return nil, nil, err
	}

	cfg := search.FromGraphDefaults(g.Config())
	if request.MaxDepth > 0 {
		cfg.MaxDepth = request.MaxDepth
	}
	if request.BeamWidth > 0 {
		cfg.BeamWidth = request.BeamWidth
	}
	if request.MaxExpansions > 0 {
		cfg.MaxExpansions = request.MaxExpansions
	}
	if request.MaxTokens != nil {
		cfg.MaxTokens = request.MaxTokens
	}
	if request.TimeoutSeconds != nil {
		cfg.TimeoutSeconds = request.TimeoutSeconds
	}
	if request.ScoreThreshold != 0 {
		cfg.ScoreThreshold = request.ScoreThreshold
	}

	var goal contracts.GoalFunc[string]
	if request.GoalSubstring != "" {
		needle := request.GoalSubstring
		goal = func(content string) bool {
			return strings.Contains(content, needle)
		}
	}

	e := engine.New[string](g, demoGenerator{branching: cfg.BeamWidth}, demoEvaluator{}, nil)
	result, err := strategy.Search(ctx, e, request.StartIDs, cfg, goal)
	if err != nil {
		return nil, nil, fmt.Errorf("search failed: %w", err)
	}

	path := make([]ThoughtInfo, len(result.BestPath))
	for i, th := range result.BestPath {
		path[i] = toThoughtInfo(th)
	}

	response := &SearchResponse{
		GraphID:           request.GraphID,
		BestPath:          path,
		BestScore:         result.BestScore,
		ThoughtsExplored:  result.ThoughtsExplored,
		ThoughtsExpanded:  result.ThoughtsExpanded,
		TotalTokensUsed:   result.TotalTokensUsed,
		WallTimeSeconds:   result.WallTimeSeconds,
		TerminationReason: string(result.TerminationReason),
	}
	return &mcp.CallToolResult{Content: toJSONContent(response)}, response, nil
}

// GetStateRequest is the request DTO for got-get-state.
type GetStateRequest struct {
	GraphID string `json:"graph_id"`
}

// GetStateResponse is the response DTO for got-get-state.
type GetStateResponse struct {
	GraphID       string            `json:"graph_id"`
	TotalThoughts int               `json:"total_thoughts"`
	TotalEdges    int               `json:"total_edges"`
	AverageScore  float64           `json:"average_score"`
	ByStatus      map[string]int    `json:"by_status"`
	RootIDs       []string          `json:"root_ids"`
	Thoughts      []ThoughtInfo     `json:"thoughts"`
}

// HandleGetState retrieves current graph state.
func (h *GoTHandler) HandleGetState(ctx context.Context, req *mcp.CallToolRequest, request GetStateRequest) (*mcp.CallToolResult, *GetStateResponse, error) {
	if request.GraphID == "" {
		return nil, nil, fmt.Errorf("graph_id is required")
	}
	g, err := h.getGraph(request.GraphID)
	if err != nil {
		return nil, nil, err
	}

	stats := g.Stats()
	thoughts := g.Thoughts()
	infos := make([]ThoughtInfo, len(thoughts))
	for i, th := range thoughts {
		infos[i] = toThoughtInfo(th)
	}

	response := &GetStateResponse{
		GraphID:       request.GraphID,
		TotalThoughts: stats.TotalThoughts,
		TotalEdges:    stats.TotalEdges,
		AverageScore:  stats.AverageScore,
		ByStatus:      stats.ByStatus,
		RootIDs:       g.Roots(),
		Thoughts:      infos,
	}
	return &mcp.CallToolResult{Content: toJSONContent(response)}, response, nil
}

// PruneRequest is the request DTO for got-prune.
type PruneRequest struct {
	GraphID   string  `json:"graph_id"`
	Threshold float64 `json:"threshold"`
}

// PruneResponse is the response DTO for got-prune.
type PruneResponse struct {
	GraphID       string `json:"graph_id"`
	RemovedCount  int    `json:"removed_count"`
	RemainingCount int   `json:"remaining_count"`
}

// HandlePrune marks every PENDING thought scoring below threshold as
// pruned, roots included; nothing is removed from the graph.
func (h *GoTHandler) HandlePrune(ctx context.Context, req *mcp.CallToolRequest, request PruneRequest) (*mcp.CallToolResult, *PruneResponse, error) {
	if request.GraphID == "" {
		return nil, nil, fmt.Errorf("graph_id is required")
	}
	g, err := h.getGraph(request.GraphID)
	if err != nil {
		return nil, nil, err
	}

	removed := g.Prune(request.Threshold)
	response := &PruneResponse{
		GraphID:        request.GraphID,
		RemovedCount:   removed,
		RemainingCount: g.Stats().TotalThoughts,
	}
	return &mcp.CallToolResult{Content: toJSONContent(response)}, response, nil
}

// CheckpointSaveRequest is the request DTO for got-checkpoint-save.
type CheckpointSaveRequest struct {
	GraphID      string `json:"graph_id"`
	CheckpointID string `json:"checkpoint_id,omitempty"`
}

// CheckpointSaveResponse is the response DTO for got-checkpoint-save.
type CheckpointSaveResponse struct {
	GraphID      string `json:"graph_id"`
	CheckpointID string `json:"checkpoint_id,omitempty"`
	Saved        bool   `json:"saved"`
}

// HandleCheckpointSave persists the graph's full Record, and optionally a
// named checkpoint alongside it, via the configured persistence backend.
func (h *GoTHandler) HandleCheckpointSave(ctx context.Context, req *mcp.CallToolRequest, request CheckpointSaveRequest) (*mcp.CallToolResult, *CheckpointSaveResponse, error) {
	if h.store == nil {
		return nil, nil, fmt.Errorf("no persistence backend configured")
	}
	if request.GraphID == "" {
		return nil, nil, fmt.Errorf("graph_id is required")
	}
	g, err := h.getGraph(request.GraphID)
	if err != nil {
		return nil, nil, err
	}

	rec := checkpoint.ToRecord[string](g)
	if err := h.store.SaveGraph(request.GraphID, rec); err != nil {
		return nil, nil, fmt.Errorf("save graph failed: %w", err)
	}
	if request.CheckpointID != "" {
		if err := h.store.SaveCheckpoint(request.GraphID, request.CheckpointID, rec); err != nil {
			return nil, nil, fmt.Errorf("save checkpoint failed: %w", err)
		}
	}

	response := &CheckpointSaveResponse{GraphID: request.GraphID, CheckpointID: request.CheckpointID, Saved: true}
	return &mcp.CallToolResult{Content: toJSONContent(response)}, response, nil
}

// CheckpointLoadRequest is the request DTO for got-checkpoint-load.
type CheckpointLoadRequest struct {
	GraphID      string `json:"graph_id"`
	CheckpointID string `json:"checkpoint_id,omitempty"`
}

// CheckpointLoadResponse is the response DTO for got-checkpoint-load.
type CheckpointLoadResponse struct {
	GraphID       string `json:"graph_id"`
	Found         bool   `json:"found"`
	TotalThoughts int    `json:"total_thoughts"`
}

// HandleCheckpointLoad restores a graph (or a named checkpoint within one)
// from the configured persistence backend and installs it as the live
// graph under graph_id.
func (h *GoTHandler) HandleCheckpointLoad(ctx context.Context, req *mcp.CallToolRequest, request CheckpointLoadRequest) (*mcp.CallToolResult, *CheckpointLoadResponse, error) {
	if h.store == nil {
		return nil, nil, fmt.Errorf("no persistence backend configured")
	}
	if request.GraphID == "" {
		return nil, nil, fmt.Errorf("graph_id is required")
	}

	var rec *checkpoint.Record
	var ok bool
	var err error
	if request.CheckpointID != "" {
		rec, ok, err = h.store.LoadCheckpoint(request.GraphID, request.CheckpointID)
	} else {
		rec, ok, err = h.store.LoadGraph(request.GraphID)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load failed: %w", err)
	}
	if !ok {
		return &mcp.CallToolResult{Content: toJSONContent(&CheckpointLoadResponse{GraphID: request.GraphID, Found: false})},
			&CheckpointLoadResponse{GraphID: request.GraphID, Found: false}, nil
	}

	restored, err := checkpoint.FromRecord[string](*rec)
	if err != nil {
		return nil, nil, fmt.Errorf("restore failed: %w", err)
	}

	h.mu.Lock()
	h.graphs[request.GraphID] = restored
	h.mu.Unlock()

	response := &CheckpointLoadResponse{
		GraphID:       request.GraphID,
		Found:         true,
		TotalThoughts: restored.Stats().TotalThoughts,
	}
	return &mcp.CallToolResult{Content: toJSONContent(response)}, response, nil
}

// RegisterGoTTools registers every Graph-of-Thoughts tool against mcpServer.
func RegisterGoTTools(mcpServer *mcp.Server, handler *GoTHandler) {
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "got-init",
		Description: `Initialize a new Graph-of-Thoughts graph with an initial thought.

**Parameters:**
- graph_id (required): Unique identifier for this graph
- initial_thought (required): Starting thought content
- config (optional): GraphConfig overriding the engine's defaults

**Returns:** graph_id, root_id, status, config`,
	}, handler.HandleInitialize)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "got-expand",
		Description: `Commit caller-supplied children under an existing thought.

**Parameters:**
- graph_id (required): Graph identifier
- thought_id (required): Thought to expand
- children (required): Array of {content, score, tokens_used}

**Returns:** children array, count`,
	}, handler.HandleExpand)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "got-search",
		Description: `Run a registered search strategy (beam, best_first, mcts, iterative_deepening)
over the graph's built-in demo reasoning backend.

**Parameters:**
- graph_id (required): Graph identifier
- strategy (required): One of beam, best_first, mcts, iterative_deepening
- start_ids (optional): Start thought ids (default: graph roots)
- max_depth, beam_width, max_expansions, max_tokens, timeout_seconds,
  score_threshold (optional): Override the graph's search defaults
- goal_substring (optional): Stop early when a thought's content contains this substring

**Returns:** best_path, best_score, thoughts_explored, thoughts_expanded,
total_tokens_used, wall_time_seconds, termination_reason`,
	}, handler.HandleSearch)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "got-get-state",
		Description: `Get current graph state: thought/edge counts, per-status breakdown, and every thought.`,
	}, handler.HandleGetState)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "got-prune",
		Description: `Mark every pending thought scoring below threshold (roots included) as pruned.`,
	}, handler.HandlePrune)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "got-checkpoint-save",
		Description: `Persist the graph's full Record, and optionally a named checkpoint, via the configured persistence backend.`,
	}, handler.HandleCheckpointSave)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "got-checkpoint-load",
		Description: `Restore a graph (or a named checkpoint within one) and install it as the live graph under graph_id.`,
	}, handler.HandleCheckpointLoad)
}
