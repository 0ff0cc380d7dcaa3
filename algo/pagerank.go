// Package algo implements graph algorithms over model.View: PageRank,
// centrality measures, and shortest-path search. Every function takes a
// View rather than a concrete graph so the same code runs against the
// mutable in-memory graph or the memory-mapped reader.
package algo

import "github.com/orneryd/amem/internal/model"

// PageRankDamping is the damping factor fixed by the format (§4.7).
const PageRankDamping = 0.85

// pageRankTolerance and pageRankMaxIterations bound convergence: the
// power iteration stops once the L1 change between successive score
// vectors drops below the tolerance, or after the iteration cap,
// whichever comes first.
const (
	pageRankTolerance    = 1e-6
	pageRankMaxIterations = 100
)

// PageRank scores every node by the stationary distribution of a random
// walk that at each step follows an outgoing edge with probability
// PageRankDamping and jumps to a uniformly random node otherwise. Nodes
// with no outgoing edges ("dangling") redistribute their entire mass
// uniformly rather than leaking it, so scores always sum to 1.
func PageRank(view model.View) map[model.NodeID]float64 {
	n := view.NodeCount()
	if n == 0 {
		return nil
	}

	scores := make([]float64, n)
	init := 1.0 / float64(n)
	for i := range scores {
		scores[i] = init
	}

	outDegree := make([]int, n)
	for i := 0; i < n; i++ {
		outDegree[i] = len(view.OutEdges(model.NodeID(i)))
	}

	for iter := 0; iter < pageRankMaxIterations; iter++ {
		next := make([]float64, n)

		danglingMass := 0.0
		for i := 0; i < n; i++ {
			if outDegree[i] == 0 {
				danglingMass += scores[i]
			}
		}
		base := (1-PageRankDamping)/float64(n) + PageRankDamping*danglingMass/float64(n)
		for i := range next {
			next[i] = base
		}

		for i := 0; i < n; i++ {
			if outDegree[i] == 0 {
				continue
			}
			share := PageRankDamping * scores[i] / float64(outDegree[i])
			for _, e := range view.OutEdges(model.NodeID(i)) {
				next[e.Target] += share
			}
		}

		delta := l1Distance(scores, next)
		scores = next
		if delta < pageRankTolerance {
			break
		}
	}

	out := make(map[model.NodeID]float64, n)
	for i, s := range scores {
		out[model.NodeID(i)] = s
	}
	return out
}

func l1Distance(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		if d < 0 {
			d = -d
		}
		sum += d
	}
	return sum
}
