package algo

import (
	"container/heap"

	"github.com/orneryd/amem/internal/model"
)

// ShortestPath finds the fewest-hops path from start to end by expanding
// a BFS frontier from both ends simultaneously and stopping the moment
// the frontiers meet, which visits far fewer nodes than a single BFS on
// graphs with high branching factor. Returns the path (inclusive of
// start and end) and true, or nil and false if no path exists. Edges
// are followed in their forward direction only.
func ShortestPath(view model.View, start, end model.NodeID) ([]model.NodeID, bool) {
	if start == end {
		return []model.NodeID{start}, true
	}

	forwardParent := map[model.NodeID]model.NodeID{start: start}
	backwardParent := map[model.NodeID]model.NodeID{end: end}
	forwardFrontier := []model.NodeID{start}
	backwardFrontier := []model.NodeID{end}

	for len(forwardFrontier) > 0 && len(backwardFrontier) > 0 {
		if meet, ok := expandFrontier(view, &forwardFrontier, forwardParent, backwardParent, false); ok {
			return joinPaths(meet, forwardParent, backwardParent), true
		}
		if meet, ok := expandFrontier(view, &backwardFrontier, backwardParent, forwardParent, true); ok {
			return joinPaths(meet, forwardParent, backwardParent), true
		}
	}
	return nil, false
}

// expandFrontier advances one BFS layer of either the forward or
// backward search, recording parents in own and checking each newly
// discovered node against other for a meeting point.
func expandFrontier(view model.View, frontier *[]model.NodeID, own, other map[model.NodeID]model.NodeID, reverse bool) (model.NodeID, bool) {
	next := make([]model.NodeID, 0, len(*frontier))
	for _, id := range *frontier {
		var edges []model.Edge
		if reverse {
			edges = view.InEdges(id)
		} else {
			edges = view.OutEdges(id)
		}
		for _, e := range edges {
			neighbor := e.Target
			if reverse {
				neighbor = e.Source
			}
			if _, seen := own[neighbor]; seen {
				continue
			}
			own[neighbor] = id
			if _, met := other[neighbor]; met {
				return neighbor, true
			}
			next = append(next, neighbor)
		}
	}
	*frontier = next
	return 0, false
}

// joinPaths reconstructs the full start-to-end path once the forward and
// backward searches have met at meet.
func joinPaths(meet model.NodeID, forwardParent, backwardParent map[model.NodeID]model.NodeID) []model.NodeID {
	var front []model.NodeID
	for cur := meet; ; {
		front = append(front, cur)
		parent := forwardParent[cur]
		if parent == cur {
			break
		}
		cur = parent
	}
	for i, j := 0, len(front)-1; i < j; i, j = i+1, j-1 {
		front[i], front[j] = front[j], front[i]
	}

	var back []model.NodeID
	for cur := backwardParent[meet]; ; {
		if cur == meet && backwardParent[cur] == cur {
			break
		}
		back = append(back, cur)
		parent := backwardParent[cur]
		if parent == cur {
			break
		}
		cur = parent
	}
	return append(front, back...)
}

// heapItem is one entry of the Dijkstra priority queue: a node and its
// tentative distance from the search origin.
type heapItem struct {
	node model.NodeID
	dist float64
}

// nodeHeap is a min-heap of heapItem ordered by dist, the same
// container/heap.Interface pattern the wider codebase's shortest-path
// searches use.
type nodeHeap []heapItem

func (h nodeHeap) Len() int            { return len(h) }
func (h nodeHeap) Less(i, j int) bool  { return h[i].dist < h[j].dist }
func (h nodeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x interface{}) { *h = append(*h, x.(heapItem)) }
func (h *nodeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Dijkstra finds the minimum-cost path from start to end, where an
// edge's cost is 1-Weight: a stronger relation (higher weight) is
// cheaper to traverse, so the search prefers well-supported connections
// over weak ones. Returns model.KindRangeViolation if any reachable
// edge has a weight above 1, since that would make its cost negative
// and invalidate Dijkstra's greedy assumption.
func Dijkstra(view model.View, start, end model.NodeID) ([]model.NodeID, float64, error) {
	dist := map[model.NodeID]float64{start: 0}
	prev := map[model.NodeID]model.NodeID{}
	visited := map[model.NodeID]bool{}

	pq := &nodeHeap{{node: start, dist: 0}}
	heap.Init(pq)

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(heapItem)
		if visited[cur.node] {
			continue
		}
		visited[cur.node] = true

		if cur.node == end {
			return reconstructPath(prev, start, end), dist[end], nil
		}

		for _, e := range view.OutEdges(cur.node) {
			cost := 1 - float64(e.Weight)
			if cost < 0 {
				return nil, 0, model.New(model.KindRangeViolation, "edge weight above 1 yields negative traversal cost")
			}
			if visited[e.Target] {
				continue
			}
			alt := dist[cur.node] + cost
			if best, ok := dist[e.Target]; !ok || alt < best {
				dist[e.Target] = alt
				prev[e.Target] = cur.node
				heap.Push(pq, heapItem{node: e.Target, dist: alt})
			}
		}
	}

	return nil, 0, model.New(model.KindNodeNotFound, "no path between the given nodes")
}

func reconstructPath(prev map[model.NodeID]model.NodeID, start, end model.NodeID) []model.NodeID {
	path := []model.NodeID{end}
	cur := end
	for cur != start {
		p, ok := prev[cur]
		if !ok {
			break
		}
		path = append(path, p)
		cur = p
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
