package query

import "github.com/orneryd/amem/internal/model"

// TraverseOptions bounds a graph traversal.
type TraverseOptions struct {
	Direction model.Direction
	Kinds     []model.EdgeKind // nil/empty means every edge kind
	MaxDepth  int              // 0 means unbounded except by graph size
}

// TraverseResult is the full outcome of a breadth-first walk: every node
// reached, the edges actually followed to reach them, and the deepest
// level the walk got to.
type TraverseResult struct {
	// Visited holds every reached node in the order first discovered,
	// starting with the traversal's own start node at depth 0.
	Visited []model.NodeID
	// Edges holds each edge actually followed, in discovery order.
	Edges []model.Edge
	// MaxDepth is the deepest level the walk reached; 0 if start had no
	// matching neighbors.
	MaxDepth int
}

// Traverse performs a breadth-first walk from start, following edges in
// the requested direction and restricted to the requested edge kinds.
// start is always included in Visited at depth 0, even when it has no
// matching edges at all — a traversal from an isolated node still
// reaches that node, it just stops there.
func (s *Source) Traverse(start model.NodeID, opts TraverseOptions) TraverseResult {
	allowed := func(kind model.EdgeKind) bool {
		if len(opts.Kinds) == 0 {
			return true
		}
		for _, k := range opts.Kinds {
			if k == kind {
				return true
			}
		}
		return false
	}

	visited := map[model.NodeID]bool{start: true}
	type frontierEntry struct {
		id    model.NodeID
		depth int
	}
	queue := []frontierEntry{{start, 0}}
	order := []model.NodeID{start}
	var edges []model.Edge
	maxDepth := 0

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if opts.MaxDepth > 0 && cur.depth >= opts.MaxDepth {
			continue
		}

		var neighbors []model.Edge
		if opts.Direction == model.Forward || opts.Direction == model.Both {
			neighbors = append(neighbors, s.View.OutEdges(cur.id)...)
		}
		var inbound []model.Edge
		if opts.Direction == model.Backward || opts.Direction == model.Both {
			inbound = s.View.InEdges(cur.id)
		}

		for _, e := range neighbors {
			if !allowed(e.Kind) || visited[e.Target] {
				continue
			}
			visited[e.Target] = true
			order = append(order, e.Target)
			edges = append(edges, e)
			depth := cur.depth + 1
			if depth > maxDepth {
				maxDepth = depth
			}
			queue = append(queue, frontierEntry{e.Target, depth})
		}
		for _, e := range inbound {
			if !allowed(e.Kind) || visited[e.Source] {
				continue
			}
			visited[e.Source] = true
			order = append(order, e.Source)
			edges = append(edges, e)
			depth := cur.depth + 1
			if depth > maxDepth {
				maxDepth = depth
			}
			queue = append(queue, frontierEntry{e.Source, depth})
		}
	}
	return TraverseResult{Visited: order, Edges: edges, MaxDepth: maxDepth}
}

// Context returns the local neighborhood of id: every node within two
// hops in either direction, regardless of edge kind. This is the default
// "give me what's around this memory" view used by cognitive queries.
func (s *Source) Context(id model.NodeID) TraverseResult {
	return s.Traverse(id, TraverseOptions{Direction: model.Both, MaxDepth: 2})
}
