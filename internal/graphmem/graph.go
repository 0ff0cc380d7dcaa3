// Package graphmem implements the mutable in-memory graph: the source of
// truth while an engine is open for writing. It is a contiguous node
// table keyed by id, two adjacency lists per node (outgoing/incoming),
// a flat edge slice, and a session registry, guarded by a single mutex
// per the single-writer discipline (§4.2, §5).
package graphmem

import (
	"strconv"
	"sync"

	"github.com/orneryd/amem/internal/model"
)

// sessionRange tracks the contiguous [first, last] node id range for one
// session, valid because sessions are assigned in node-creation order.
type sessionRange struct {
	first, last model.NodeID
}

// Graph is the mutable in-memory cognitive graph. All exported methods
// are safe for concurrent use; callers must still serialize logically
// dependent operations themselves (the engine holds one Graph per file
// and callers do not share a Graph across writer goroutines
// concurrently, per the single-writer model).
type Graph struct {
	mu sync.RWMutex

	dimension int

	nodes  []model.Node
	edges  []model.Edge
	outAdj [][]model.AdjEntry
	inAdj  [][]model.AdjEntry

	sessions   map[uint32]*sessionRange
	sessionIDs []uint32 // first-seen order, for deterministic SessionCount

	// dirty is set whenever a mutation invalidates indexes built by the
	// codec; the codec clears it after decoding a file into the graph.
	dirty bool
}

// New creates an empty graph with the given feature vector dimension (0
// disables vectors for this file).
func New(dimension int) *Graph {
	return &Graph{
		dimension: dimension,
		sessions:  make(map[uint32]*sessionRange),
	}
}

// Dimension implements model.View.
func (g *Graph) Dimension() int { return g.dimension }

// NodeCount implements model.View.
func (g *Graph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// EdgeCount implements model.View.
func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.edges)
}

// Node implements model.View.
func (g *Graph) Node(id model.NodeID) (model.Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if int(id) >= len(g.nodes) {
		return model.Node{}, false
	}
	n := g.nodes[id]
	// Return a defensive copy of the mutable metadata map so callers
	// cannot corrupt graph state through the returned value.
	if n.Metadata != nil {
		cp := make(map[string]string, len(n.Metadata))
		for k, v := range n.Metadata {
			cp[k] = v
		}
		n.Metadata = cp
	}
	return n, true
}

// OutEdges implements model.View.
func (g *Graph) OutEdges(id model.NodeID) []model.Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if int(id) >= len(g.outAdj) {
		return nil
	}
	out := make([]model.Edge, 0, len(g.outAdj[id]))
	for _, a := range g.outAdj[id] {
		out = append(out, g.edges[a.Edge])
	}
	return out
}

// InEdges implements model.View.
func (g *Graph) InEdges(id model.NodeID) []model.Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if int(id) >= len(g.inAdj) {
		return nil
	}
	in := make([]model.Edge, 0, len(g.inAdj[id]))
	for _, a := range g.inAdj[id] {
		in = append(in, g.edges[a.Edge])
	}
	return in
}

// SessionCount returns the number of distinct sessions observed so far.
func (g *Graph) SessionCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.sessions)
}

// SessionRange returns the [first, last] node id range for a session.
func (g *Graph) SessionRange(session uint32) (first, last model.NodeID, ok bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, found := g.sessions[session]
	if !found {
		return 0, 0, false
	}
	return r.first, r.last, true
}

// Sessions returns session ids in first-seen order.
func (g *Graph) Sessions() []uint32 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]uint32, len(g.sessionIDs))
	copy(out, g.sessionIDs)
	return out
}

// Dirty reports whether mutations have happened since the last ClearDirty.
func (g *Graph) Dirty() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.dirty
}

// ClearDirty resets the dirty flag; called by the codec once a decoded
// file has been loaded into the graph.
func (g *Graph) ClearDirty() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.dirty = false
}

// AddNode appends a new node and returns its dense, monotonic id.
// Confidence outside [0, 1] and vectors of the wrong dimension are
// rejected without mutating the graph.
func (g *Graph) AddNode(kind model.EventKind, session uint32, confidence float32, timestamp int64, content string, metadata map[string]string, vector []float32) (model.NodeID, error) {
	if confidence < 0 || confidence > 1 {
		return 0, model.New(model.KindRangeViolation, "confidence out of [0,1]")
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if vector != nil {
		if g.dimension == 0 {
			return 0, model.New(model.KindDimensionMismatch, "file has no vector dimension configured")
		}
		if len(vector) != g.dimension {
			return 0, model.New(model.KindDimensionMismatch, "vector length does not match file dimension")
		}
	}

	id := model.NodeID(len(g.nodes))
	var vecCopy []float32
	if vector != nil {
		vecCopy = make([]float32, len(vector))
		copy(vecCopy, vector)
	}
	var metaCopy map[string]string
	if len(metadata) > 0 {
		metaCopy = make(map[string]string, len(metadata))
		for k, v := range metadata {
			metaCopy[k] = v
		}
	}

	g.nodes = append(g.nodes, model.Node{
		ID:         id,
		Kind:       kind,
		Session:    session,
		Confidence: confidence,
		Timestamp:  timestamp,
		Content:    content,
		Metadata:   metaCopy,
		Vector:     vecCopy,
	})
	g.outAdj = append(g.outAdj, nil)
	g.inAdj = append(g.inAdj, nil)

	if r, ok := g.sessions[session]; ok {
		r.last = id
	} else {
		g.sessions[session] = &sessionRange{first: id, last: id}
		g.sessionIDs = append(g.sessionIDs, session)
	}

	g.dirty = true
	return id, nil
}

// AddEdge appends a new edge after validating endpoints, weight range,
// and (for supersedes edges) acyclicity. Supersedes edges point from the
// superseded (older) node to its successor (newer) node — see
// DESIGN.md for why this direction, not the reverse, is the one that
// makes Resolve terminate correctly.
func (g *Graph) AddEdge(source, target model.NodeID, kind model.EdgeKind, weight float32) (int, error) {
	if weight < 0 || weight > 1 {
		return 0, model.New(model.KindRangeViolation, "weight out of [0,1]")
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if int(source) >= len(g.nodes) {
		return 0, model.New(model.KindEdgeEndpointInvalid, "source node does not exist")
	}
	if int(target) >= len(g.nodes) {
		return 0, model.New(model.KindEdgeEndpointInvalid, "target node does not exist")
	}

	if kind == model.EdgeSupersedes && g.reachableViaSupersedes(target, source) {
		return 0, model.New(model.KindCycle, "supersedes edge would create a cycle")
	}

	idx := len(g.edges)
	g.edges = append(g.edges, model.Edge{Source: source, Target: target, Kind: kind, Weight: weight})
	g.outAdj[source] = append(g.outAdj[source], model.AdjEntry{Other: target, Edge: idx})
	g.inAdj[target] = append(g.inAdj[target], model.AdjEntry{Other: source, Edge: idx})

	g.dirty = true
	return idx, nil
}

// reachableViaSupersedes reports whether target is reachable from start
// by following outgoing supersedes edges. Called with the mutex already
// held.
func (g *Graph) reachableViaSupersedes(start, target model.NodeID) bool {
	if start == target {
		return true
	}
	visited := make(map[model.NodeID]bool)
	queue := []model.NodeID{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		for _, a := range g.outAdj[cur] {
			if g.edges[a.Edge].Kind != model.EdgeSupersedes {
				continue
			}
			if a.Other == target {
				return true
			}
			if !visited[a.Other] {
				queue = append(queue, a.Other)
			}
		}
	}
	return false
}

// UpdateMetadata sets metadata[key] = value on an existing node.
func (g *Graph) UpdateMetadata(id model.NodeID, key, value string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if int(id) >= len(g.nodes) {
		return model.New(model.KindNodeNotFound, "node does not exist")
	}
	n := &g.nodes[id]
	if n.Metadata == nil {
		n.Metadata = make(map[string]string, 1)
	}
	n.Metadata[key] = value
	g.dirty = true
	return nil
}

// Touch records an access against a node's decay bookkeeping by
// incrementing its "_access_count" metadata value in place. The count is
// written to disk with the rest of the metadata on the next flush. No
// last-access time is recorded, and the dirty flag is left unchanged.
func (g *Graph) Touch(id model.NodeID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if int(id) >= len(g.nodes) {
		return
	}
	n := &g.nodes[id]
	if n.Metadata == nil {
		n.Metadata = make(map[string]string, 2)
	}
	// Stored as strings because metadata is a string->string map; parsed
	// back out by internal/decay callers.
	count, _ := strconv.ParseInt(n.Metadata["_access_count"], 10, 64)
	n.Metadata["_access_count"] = strconv.FormatInt(count+1, 10)
}

// Edges returns every edge in insertion order. The in-memory mutator
// never needs a canonical order of its own; internal/codec sorts this
// slice by (source, target, kind) before writing it to disk, which is
// what actually makes the encoding byte-exact regardless of the order
// edges were added in.
func (g *Graph) Edges() []model.Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]model.Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

var _ model.View = (*Graph)(nil)
