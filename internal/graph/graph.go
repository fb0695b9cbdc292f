// Package graph implements the Graph store (spec.md §4.B): the sole owner
// of all Thought and Edge records, maintaining forward/reverse adjacency,
// roots, and the structural invariants of §3. Grounded on the teacher's
// internal/modes/graph.go (GraphController: Initialize/AddVertex/AddEdge/
// RemoveVertex/GetChildVertices) and internal/modes/graph_operations.go
// (Prune, the Aggregate merge shape). The teacher's own rationale — "we'll
// store weight in our edge struct" rather than the backing library's
// integer edge weight — is followed verbatim: this package keeps its own
// float64-weighted Edge alongside a dominikbraun/graph-backed adjacency
// used only for vertex/edge bookkeeping and cycle detection.
package graph

import (
	"sort"
	"sync"

	extgraph "github.com/dominikbraun/graph"

	"graphreason/internal/config"
	"graphreason/internal/coreerrors"
	"graphreason/internal/events"
	"graphreason/internal/limiter"
	"graphreason/internal/thought"
)

func idHash(id string) string { return id }

// Graph is the aggregate owning every Thought and Edge for one reasoning
// session. Callers never mutate Thought/Edge values directly; all mutation
// routes through Graph methods, per spec.md §3 ("Ownership").
type Graph[T any] struct {
	mu sync.Mutex

	cfg     *config.GraphConfig
	limiter *limiter.Limiter
	emitter *events.Emitter

	thoughts map[string]*thought.Thought[T]
	order    []string // insertion order, preserved for deterministic replay

	// forward[source][target] = edge; childOrder[source] records target
	// ids in the order their edges were added, so bfs/dfs/get_children
	// observe insertion order as spec.md §5 requires.
	forward    map[string]map[string]*thought.Edge
	childOrder map[string][]string

	// reverseParents[target] records source ids in edge-insertion order;
	// get_path_to_root always follows index 0, per the "first parent by
	// insertion order" resolution of spec.md §9's open question.
	reverseParents map[string][]string

	roots []string

	backing extgraph.Graph[string, string]
}

// New constructs an empty Graph bound to cfg, a resource Limiter derived
// from cfg.Limits, and emitter (never nil — pass events.NewEmitter() when
// the caller has no listeners).
func New[T any](cfg *config.GraphConfig, emitter *events.Emitter) *Graph[T] {
	return &Graph[T]{
		cfg:            cfg,
		limiter:        limiter.New(cfg.Limits),
		emitter:        emitter,
		thoughts:       make(map[string]*thought.Thought[T]),
		forward:        make(map[string]map[string]*thought.Edge),
		childOrder:     make(map[string][]string),
		reverseParents: make(map[string][]string),
		backing:        extgraph.New(idHash, extgraph.Directed()),
	}
}

// Config returns the graph's configuration.
func (g *Graph[T]) Config() *config.GraphConfig {
	return g.cfg
}

// Limiter returns the resource limiter tracking this graph's consumption.
func (g *Graph[T]) Limiter() *limiter.Limiter {
	return g.limiter
}

// Emitter returns the event/metrics emitter for this graph.
func (g *Graph[T]) Emitter() *events.Emitter {
	return g.emitter
}

// ThoughtParams carries add_thought's optional fields (spec.md §4.B).
type ThoughtParams struct {
	ParentID         *string
	Relation         thought.Relation
	Weight           *float64
	Score            *float64
	ID               *string
	TokensUsed       int
	GenerationTimeMs int64
	Metadata         map[string]any
}

// AddThought installs a new thought, optionally as a child of ParentID.
// See spec.md §4.B for the full failure/commit contract.
func (g *Graph[T]) AddThought(content T, params ThoughtParams) (*thought.Thought[T], error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.limiter.CanAddThought() {
		return nil, coreerrors.ResourceExhausted("thoughts", g.cfg.Limits.MaxThoughts)
	}

	var parent *thought.Thought[T]
	if params.ParentID != nil {
		p, ok := g.thoughts[*params.ParentID]
		if !ok {
			return nil, coreerrors.NodeNotFound(*params.ParentID)
		}
		parent = p
	}

	id := thought.NewID()
	if params.ID != nil {
		id = *params.ID
	}
	if _, exists := g.thoughts[id]; exists {
		return nil, coreerrors.GraphError("duplicate id: " + id)
	}

	th := thought.New(content)
	th.ID = id
	if params.Score != nil {
		th.Score = *params.Score
	}
	th.TokensUsed = params.TokensUsed
	th.GenerationTimeMs = params.GenerationTimeMs
	if params.Metadata != nil {
		th.Metadata = params.Metadata
	}

	if parent == nil {
		th.Depth = 0
	} else {
		th.Depth = parent.Depth + 1
	}

	if err := g.backing.AddVertex(id); err != nil {
		return nil, coreerrors.GraphError("add vertex: " + err.Error())
	}

	if parent != nil {
		relation := params.Relation
		if relation == "" {
			relation = thought.RelationLeadsTo
		}
		weight := 1.0
		if params.Weight != nil {
			weight = *params.Weight
		}
		if _, err := g.addEdgeLocked(parent.ID, id, relation, weight, nil); err != nil {
			_ = g.backing.RemoveVertex(id)
			return nil, err
		}
	} else {
		g.roots = append(g.roots, id)
	}

	g.thoughts[id] = th
	g.order = append(g.order, id)
	g.limiter.RecordThoughtAdded()

	g.emitter.Inc("thoughts.added", 1)
	g.emitter.SetGauge("thoughts.total", float64(len(g.thoughts)))
	g.emitter.Emit(events.Event{Type: events.ThoughtAdded, Payload: map[string]any{"thought": th}})

	return th, nil
}

// EdgeParams carries add_edge's optional fields.
type EdgeParams struct {
	Relation thought.Relation
	Weight   *float64
	Metadata map[string]any
}

// AddEdge installs a directed edge between two existing thoughts, subject
// to the cycle-detection invariant when allow_cycles is false.
func (g *Graph[T]) AddEdge(source, target string, params EdgeParams) (*thought.Edge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.thoughts[source]; !ok {
		return nil, coreerrors.NodeNotFound(source)
	}
	if _, ok := g.thoughts[target]; !ok {
		return nil, coreerrors.NodeNotFound(target)
	}

	relation := params.Relation
	if relation == "" {
		relation = thought.RelationLeadsTo
	}
	weight := 1.0
	if params.Weight != nil {
		weight = *params.Weight
	}
	return g.addEdgeLocked(source, target, relation, weight, params.Metadata)
}

// addEdgeLocked performs the cycle check and commit. Caller holds g.mu.
func (g *Graph[T]) addEdgeLocked(source, target string, relation thought.Relation, weight float64, metadata map[string]any) (*thought.Edge, error) {
	if !g.cfg.AllowCycles {
		creates, err := extgraph.CreatesCycle[string, string](g.backing, source, target)
		if err != nil {
			return nil, coreerrors.GraphError("cycle check: " + err.Error())
		}
		if creates {
			return nil, coreerrors.CycleDetected(source, target)
		}
	}

	edge := thought.NewEdge(source, target)
	edge.Relation = relation
	edge.Weight = weight
	if metadata != nil {
		edge.Metadata = metadata
	}

	if _, existed := g.forward[source][target]; !existed {
		if err := g.backing.AddEdge(source, target); err != nil {
			return nil, coreerrors.GraphError("add edge: " + err.Error())
		}
		g.childOrder[source] = append(g.childOrder[source], target)
		g.reverseParents[target] = append(g.reverseParents[target], source)
	}

	if g.forward[source] == nil {
		g.forward[source] = make(map[string]*thought.Edge)
	}
	g.forward[source][target] = edge

	g.emitter.Inc("edges.added", 1)
	return edge, nil
}

// RemoveThought removes a thought and every edge incident to it in either
// direction, per invariant 6.
func (g *Graph[T]) RemoveThought(id string) (*thought.Thought[T], error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	th, ok := g.thoughts[id]
	if !ok {
		return nil, coreerrors.NodeNotFound(id)
	}

	for _, childID := range append([]string(nil), g.childOrder[id]...) {
		delete(g.forward[id], childID)
		g.reverseParents[childID] = removeString(g.reverseParents[childID], id)
		_ = g.backing.RemoveEdge(id, childID)
	}
	delete(g.forward, id)
	delete(g.childOrder, id)

	for _, parentID := range append([]string(nil), g.reverseParents[id]...) {
		delete(g.forward[parentID], id)
		g.childOrder[parentID] = removeString(g.childOrder[parentID], id)
		_ = g.backing.RemoveEdge(parentID, id)
	}
	delete(g.reverseParents, id)

	_ = g.backing.RemoveVertex(id)

	g.roots = removeString(g.roots, id)
	delete(g.thoughts, id)
	g.order = removeString(g.order, id)

	g.limiter.RecordThoughtRemoved()
	g.emitter.Inc("thoughts.removed", 1)
	g.emitter.SetGauge("thoughts.total", float64(len(g.thoughts)))

	return th, nil
}

func removeString(s []string, v string) []string {
	out := s[:0:0]
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

// GetThought returns the thought with id, or NodeNotFound.
func (g *Graph[T]) GetThought(id string) (*thought.Thought[T], error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	th, ok := g.thoughts[id]
	if !ok {
		return nil, coreerrors.NodeNotFound(id)
	}
	return th, nil
}

// GetChildren returns id's children in edge-insertion order.
func (g *Graph[T]) GetChildren(id string) ([]*thought.Thought[T], error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.thoughts[id]; !ok {
		return nil, coreerrors.NodeNotFound(id)
	}
	children := make([]*thought.Thought[T], 0, len(g.childOrder[id]))
	for _, cid := range g.childOrder[id] {
		children = append(children, g.thoughts[cid])
	}
	return children, nil
}

// GetParents returns id's parents in edge-insertion order.
func (g *Graph[T]) GetParents(id string) ([]*thought.Thought[T], error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.thoughts[id]; !ok {
		return nil, coreerrors.NodeNotFound(id)
	}
	parents := make([]*thought.Thought[T], 0, len(g.reverseParents[id]))
	for _, pid := range g.reverseParents[id] {
		parents = append(parents, g.thoughts[pid])
	}
	return parents, nil
}

// GetEdge returns the edge source->target, or NodeNotFound if absent.
func (g *Graph[T]) GetEdge(source, target string) (*thought.Edge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	edge, ok := g.forward[source][target]
	if !ok {
		return nil, coreerrors.NodeNotFound(source + "->" + target)
	}
	return edge, nil
}

// GetPathToRoot walks reverse adjacency following the insertion-ordered
// first parent at each step, per spec.md §9's resolved open question. It
// halts on a revisited id (cycle), returning the partial path collected.
func (g *Graph[T]) GetPathToRoot(id string) ([]*thought.Thought[T], error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.thoughts[id]; !ok {
		return nil, coreerrors.NodeNotFound(id)
	}

	visited := make(map[string]bool)
	var chainRev []string // id, parent, grandparent, ...
	cur := id
	for {
		if visited[cur] {
			break
		}
		visited[cur] = true
		chainRev = append(chainRev, cur)
		parents := g.reverseParents[cur]
		if len(parents) == 0 {
			break
		}
		cur = parents[0]
	}

	path := make([]*thought.Thought[T], len(chainRev))
	for i, tid := range chainRev {
		path[len(chainRev)-1-i] = g.thoughts[tid]
	}
	return path, nil
}

// GetLeaves returns thoughts with no outgoing edges, in insertion order.
// Pruned thoughts are excluded unless includePruned is true.
func (g *Graph[T]) GetLeaves(includePruned bool) []*thought.Thought[T] {
	g.mu.Lock()
	defer g.mu.Unlock()

	var leaves []*thought.Thought[T]
	for _, id := range g.order {
		th := g.thoughts[id]
		if !includePruned && th.Status == thought.StatusPruned {
			continue
		}
		if len(g.childOrder[id]) == 0 {
			leaves = append(leaves, th)
		}
	}
	return leaves
}

// Roots returns the root-insertion-ordered list of root thought ids.
func (g *Graph[T]) Roots() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.roots))
	copy(out, g.roots)
	return out
}

// Thoughts returns every thought in insertion order.
func (g *Graph[T]) Thoughts() []*thought.Thought[T] {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*thought.Thought[T], 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.thoughts[id])
	}
	return out
}

// Edges returns every edge, ordered by source insertion order and then by
// per-source edge-insertion order.
func (g *Graph[T]) Edges() []*thought.Edge {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []*thought.Edge
	for _, sourceID := range g.order {
		for _, targetID := range g.childOrder[sourceID] {
			out = append(out, g.forward[sourceID][targetID])
		}
	}
	return out
}

// MergeParams carries merge_thoughts' optional fields.
type MergeParams struct {
	Relation thought.Relation
	Weight   *float64
	Score    *float64
	ID       *string
}

// MergeThoughts creates a new thought whose depth is one more than the
// deepest source, links every source to it with "merges_into", and marks
// every source MERGED.
func (g *Graph[T]) MergeThoughts(ids []string, mergedContent T, params MergeParams) (*thought.Thought[T], error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.limiter.CanAddThought() {
		return nil, coreerrors.ResourceExhausted("thoughts", g.cfg.Limits.MaxThoughts)
	}
	if len(ids) == 0 {
		return nil, coreerrors.GraphError("merge_thoughts requires at least one source id")
	}

	sources := make([]*thought.Thought[T], 0, len(ids))
	maxDepth := -1
	for _, id := range ids {
		th, ok := g.thoughts[id]
		if !ok {
			return nil, coreerrors.NodeNotFound(id)
		}
		sources = append(sources, th)
		if th.Depth > maxDepth {
			maxDepth = th.Depth
		}
	}

	id := thought.NewID()
	if params.ID != nil {
		id = *params.ID
	}
	if _, exists := g.thoughts[id]; exists {
		return nil, coreerrors.GraphError("duplicate id: " + id)
	}

	merged := thought.New(mergedContent)
	merged.ID = id
	merged.Depth = maxDepth + 1
	if params.Score != nil {
		merged.Score = *params.Score
	}

	if err := g.backing.AddVertex(id); err != nil {
		return nil, coreerrors.GraphError("add vertex: " + err.Error())
	}

	relation := params.Relation
	if relation == "" {
		relation = thought.RelationMergesInto
	}
	weight := 1.0
	if params.Weight != nil {
		weight = *params.Weight
	}

	for _, src := range sources {
		if _, err := g.addEdgeLocked(src.ID, id, relation, weight, nil); err != nil {
			_ = g.backing.RemoveVertex(id)
			return nil, err
		}
	}

	g.thoughts[id] = merged
	g.order = append(g.order, id)
	g.limiter.RecordThoughtAdded()

	for _, src := range sources {
		src.Status = thought.StatusMerged
	}

	g.emitter.Inc("thoughts.added", 1)
	g.emitter.Inc("thoughts.merged", int64(len(sources)))
	g.emitter.SetGauge("thoughts.total", float64(len(g.thoughts)))
	g.emitter.Emit(events.Event{Type: events.ThoughtAdded, Payload: map[string]any{"thought": merged}})

	return merged, nil
}

// Prune sets status PRUNED on every PENDING thought with score < threshold.
// It returns the count of newly pruned thoughts.
func (g *Graph[T]) Prune(threshold float64) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	count := 0
	for _, id := range g.order {
		th := g.thoughts[id]
		if th.Status == thought.StatusPending && th.Score < threshold {
			th.Status = thought.StatusPruned
			count++
		}
	}
	if count > 0 {
		g.emitter.Inc("thoughts.pruned", int64(count))
	}
	return count
}

// PruneAndRemove prunes per threshold and then removes every newly-pruned
// thought, returning the count removed.
func (g *Graph[T]) PruneAndRemove(threshold float64) (int, error) {
	g.mu.Lock()
	var candidates []string
	for _, id := range g.order {
		th := g.thoughts[id]
		if th.Status == thought.StatusPending && th.Score < threshold {
			candidates = append(candidates, id)
		}
	}
	g.mu.Unlock()

	for _, id := range candidates {
		g.mu.Lock()
		th := g.thoughts[id]
		if th != nil && th.Status == thought.StatusPending {
			th.Status = thought.StatusPruned
		}
		g.mu.Unlock()
		if _, err := g.RemoveThought(id); err != nil {
			return 0, err
		}
	}
	if len(candidates) > 0 {
		g.emitter.Inc("thoughts.pruned", int64(len(candidates)))
	}
	return len(candidates), nil
}

// BFS performs a breadth-first traversal starting from start (or every root
// in root_ids order when start is empty), visiting each thought at most
// once and skipping PRUNED thoughts unless includePruned is true.
func (g *Graph[T]) BFS(start []string, includePruned bool) []*thought.Thought[T] {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(start) == 0 {
		start = g.roots
	}

	visited := make(map[string]bool)
	queue := append([]string(nil), start...)
	var out []*thought.Thought[T]

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true
		th, ok := g.thoughts[id]
		if !ok {
			continue
		}
		if !includePruned && th.Status == thought.StatusPruned {
			continue
		}
		out = append(out, th)
		queue = append(queue, g.childOrder[id]...)
	}
	return out
}

// DFS performs a depth-first (preorder) traversal with the same start and
// pruning semantics as BFS.
func (g *Graph[T]) DFS(start []string, includePruned bool) []*thought.Thought[T] {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(start) == 0 {
		start = g.roots
	}

	visited := make(map[string]bool)
	var out []*thought.Thought[T]

	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		th, ok := g.thoughts[id]
		if !ok {
			return
		}
		if includePruned || th.Status != thought.StatusPruned {
			out = append(out, th)
		} else {
			return
		}
		for _, childID := range g.childOrder[id] {
			visit(childID)
		}
	}
	for _, id := range start {
		visit(id)
	}
	return out
}

// Stats is the read-only graph summary supplemented from
// original_source/graph_of_thought/graph.py's get_statistics().
type Stats struct {
	TotalThoughts int
	TotalEdges    int
	ByStatus      map[string]int
	ByDepth       map[int]int
	AverageScore  float64
}

// Stats computes a cheap read-only summary of the current graph state.
func (g *Graph[T]) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := Stats{
		ByStatus: make(map[string]int),
		ByDepth:  make(map[int]int),
	}
	var scoreSum float64
	for _, id := range g.order {
		th := g.thoughts[id]
		s.TotalThoughts++
		s.ByStatus[string(th.Status)]++
		s.ByDepth[th.Depth]++
		scoreSum += th.Score
		s.TotalEdges += len(g.childOrder[id])
	}
	if s.TotalThoughts > 0 {
		s.AverageScore = scoreSum / float64(s.TotalThoughts)
	}
	return s
}

// SortByScoreDescending returns a new slice of ts sorted by descending
// score, ties broken by stable input order (used by beam/best-first).
func SortByScoreDescending[T any](ts []*thought.Thought[T]) []*thought.Thought[T] {
	out := append([]*thought.Thought[T](nil), ts...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// InstallThought inserts th verbatim (preserving id, status, score, and
// every other field) without running add_thought's normal validation or
// edge wiring. It is a restore-path primitive for internal/checkpoint and
// returns GraphError on a duplicate id.
func (g *Graph[T]) InstallThought(th *thought.Thought[T]) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.thoughts[th.ID]; exists {
		return coreerrors.GraphError("duplicate id: " + th.ID)
	}
	if err := g.backing.AddVertex(th.ID); err != nil {
		return coreerrors.GraphError("add vertex: " + err.Error())
	}
	g.thoughts[th.ID] = th
	g.order = append(g.order, th.ID)
	g.limiter.RecordThoughtAdded()
	return nil
}

// InstallEdge inserts e verbatim between two already-installed thoughts.
// It reports whether the edge was installed; false means source or target
// is unknown and the edge was dropped, per the restore algorithm's
// "unknown endpoints dropped silently" rule. Cycle checking is bypassed
// entirely — the caller is responsible for restoring a structurally valid
// graph (e.g. by temporarily setting AllowCycles during a restore).
func (g *Graph[T]) InstallEdge(e *thought.Edge) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.thoughts[e.SourceID]; !ok {
		return false
	}
	if _, ok := g.thoughts[e.TargetID]; !ok {
		return false
	}

	if _, existed := g.forward[e.SourceID][e.TargetID]; !existed {
		if err := g.backing.AddEdge(e.SourceID, e.TargetID); err != nil {
			return false
		}
		g.childOrder[e.SourceID] = append(g.childOrder[e.SourceID], e.TargetID)
		g.reverseParents[e.TargetID] = append(g.reverseParents[e.TargetID], e.SourceID)
	}
	if g.forward[e.SourceID] == nil {
		g.forward[e.SourceID] = make(map[string]*thought.Edge)
	}
	g.forward[e.SourceID][e.TargetID] = e
	g.emitter.Inc("edges.added", 1)
	return true
}

// SetRoots replaces the root list verbatim, preserving the given order.
// Used only by checkpoint restore; ids not present in the graph are
// dropped silently.
func (g *Graph[T]) SetRoots(ids []string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	roots := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := g.thoughts[id]; ok {
			roots = append(roots, id)
		}
	}
	g.roots = roots
}

// SetAllowCycles overrides the graph's cycle-checking policy in place.
// Used by checkpoint restore to disable cycle checks while replaying a
// serialized edge set, then restore the original policy.
func (g *Graph[T]) SetAllowCycles(allow bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cfg.AllowCycles = allow
}
