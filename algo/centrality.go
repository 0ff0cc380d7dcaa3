package algo

import "github.com/orneryd/amem/internal/model"

// DegreeCentrality scores every node by its total degree (in plus out),
// normalized by n-1 so a node connected to every other node scores 1.
// A graph of a single node returns all zeros rather than dividing by
// zero.
func DegreeCentrality(view model.View) map[model.NodeID]float64 {
	n := view.NodeCount()
	out := make(map[model.NodeID]float64, n)
	if n <= 1 {
		for i := 0; i < n; i++ {
			out[model.NodeID(i)] = 0
		}
		return out
	}
	norm := float64(n - 1)
	for i := 0; i < n; i++ {
		id := model.NodeID(i)
		degree := len(view.OutEdges(id)) + len(view.InEdges(id))
		out[id] = float64(degree) / norm
	}
	return out
}

// BetweennessCentrality scores every node by the fraction of all-pairs
// shortest paths that pass through it, using Brandes' algorithm (2001)
// run once per source over the undirected view of the graph (a path
// "passes through" a node regardless of edge direction). Normalized by
// (n-1)(n-2), the number of ordered pairs excluding the node itself.
func BetweennessCentrality(view model.View) map[model.NodeID]float64 {
	n := view.NodeCount()
	betweenness := make(map[model.NodeID]float64, n)
	for i := 0; i < n; i++ {
		betweenness[model.NodeID(i)] = 0
	}
	if n < 3 {
		return betweenness
	}

	neighbors := undirectedAdjacency(view)

	for s := 0; s < n; s++ {
		source := model.NodeID(s)
		stack := make([]model.NodeID, 0, n)
		pred := make(map[model.NodeID][]model.NodeID, n)
		sigma := make([]float64, n)
		dist := make([]int, n)
		for i := range dist {
			dist[i] = -1
		}
		sigma[s] = 1
		dist[s] = 0

		queue := []model.NodeID{source}
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			stack = append(stack, v)
			for _, w := range neighbors[v] {
				if dist[w] < 0 {
					dist[w] = dist[v] + 1
					queue = append(queue, w)
				}
				if dist[w] == dist[v]+1 {
					sigma[w] += sigma[v]
					pred[w] = append(pred[w], v)
				}
			}
		}

		delta := make([]float64, n)
		for i := len(stack) - 1; i >= 0; i-- {
			w := stack[i]
			for _, v := range pred[w] {
				if sigma[w] == 0 {
					continue
				}
				delta[v] += (sigma[v] / sigma[w]) * (1 + delta[w])
			}
			if w != source {
				betweenness[w] += delta[w]
			}
		}
	}

	norm := float64(n-1) * float64(n-2)
	for id := range betweenness {
		betweenness[id] /= norm
	}
	return betweenness
}

// BetweennessApprox estimates betweenness centrality by running Brandes'
// algorithm from a sample of source nodes rather than every node,
// scaling the result by n/sampleSize to keep the same rough magnitude as
// the exact score. Intended for graphs too large to run the full O(n*e)
// computation; sampleSize is clamped to n.
func BetweennessApprox(view model.View, sampleSize int) map[model.NodeID]float64 {
	n := view.NodeCount()
	betweenness := make(map[model.NodeID]float64, n)
	for i := 0; i < n; i++ {
		betweenness[model.NodeID(i)] = 0
	}
	if n < 3 {
		return betweenness
	}
	if sampleSize <= 0 {
		return betweenness
	}
	if sampleSize > n {
		sampleSize = n
	}

	neighbors := undirectedAdjacency(view)
	sources := sampleNodeIDs(n, sampleSize)

	for _, source := range sources {
		s := int(source)
		stack := make([]model.NodeID, 0, n)
		pred := make(map[model.NodeID][]model.NodeID, n)
		sigma := make([]float64, n)
		dist := make([]int, n)
		for i := range dist {
			dist[i] = -1
		}
		sigma[s] = 1
		dist[s] = 0

		queue := []model.NodeID{source}
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			stack = append(stack, v)
			for _, w := range neighbors[v] {
				if dist[w] < 0 {
					dist[w] = dist[v] + 1
					queue = append(queue, w)
				}
				if dist[w] == dist[v]+1 {
					sigma[w] += sigma[v]
					pred[w] = append(pred[w], v)
				}
			}
		}

		delta := make([]float64, n)
		for i := len(stack) - 1; i >= 0; i-- {
			w := stack[i]
			for _, v := range pred[w] {
				if sigma[w] == 0 {
					continue
				}
				delta[v] += (sigma[v] / sigma[w]) * (1 + delta[w])
			}
			if w != source {
				betweenness[w] += delta[w]
			}
		}
	}

	scale := float64(n) / float64(sampleSize)
	norm := float64(n-1) * float64(n-2)
	for id := range betweenness {
		betweenness[id] = betweenness[id] * scale / norm
	}
	return betweenness
}

// sampleNodeIDs picks size evenly-spaced node ids out of n, giving a
// deterministic spread across the id space without pulling in a random
// source (Date/rand are unavailable and would break resumability
// anyway).
func sampleNodeIDs(n, size int) []model.NodeID {
	out := make([]model.NodeID, 0, size)
	stride := float64(n) / float64(size)
	for i := 0; i < size; i++ {
		out = append(out, model.NodeID(float64(i)*stride))
	}
	return out
}

// undirectedAdjacency builds a symmetric neighbor list from a directed
// view, deduplicating parallel edges between the same pair of nodes.
func undirectedAdjacency(view model.View) [][]model.NodeID {
	n := view.NodeCount()
	seen := make([]map[model.NodeID]bool, n)
	for i := range seen {
		seen[i] = make(map[model.NodeID]bool)
	}
	for i := 0; i < n; i++ {
		id := model.NodeID(i)
		for _, e := range view.OutEdges(id) {
			if e.Target == id || seen[id][e.Target] {
				continue
			}
			seen[id][e.Target] = true
			seen[e.Target][id] = true
		}
	}
	out := make([][]model.NodeID, n)
	for i := 0; i < n; i++ {
		neighbors := make([]model.NodeID, 0, len(seen[i]))
		for other := range seen[i] {
			neighbors = append(neighbors, other)
		}
		out[i] = neighbors
	}
	return out
}
