package index

import (
	"math"

	"github.com/orneryd/amem/internal/model"
	"github.com/orneryd/amem/internal/vecmath"
)

// ClusterMap is a k-means partition of the file's feature vectors, used
// to prune brute-force similarity search: a query probes only the
// members of the nearest √k centroids instead of every vector (§4.6
// "similar").
type ClusterMap struct {
	K          int
	Dimension  int
	Centroids  [][]float32
	Assignment []int32 // cluster index per node id, -1 if the node has no vector
	Members    map[int][]model.NodeID
}

const (
	kmeansMaxIterations = 25
	kmeansSeed          = 1469598103934665603 // FNV offset basis, arbitrary fixed seed for determinism
)

// buildClusterMap runs k-means over every node with a vector. Determinism
// matters (§4.6 "deterministic given identical inputs"): centroid
// initialization is seeded from node ids rather than time or crypto
// randomness, so encoding the same graph twice yields the same cluster
// map.
func buildClusterMap(view model.View, n, k int) *ClusterMap {
	dim := view.Dimension()
	var vectors []model.Node
	for id := 0; id < n; id++ {
		node, ok := view.Node(model.NodeID(id))
		if !ok || node.Vector == nil {
			continue
		}
		vectors = append(vectors, node)
	}
	if len(vectors) == 0 {
		return &ClusterMap{K: 0, Dimension: dim, Members: map[int][]model.NodeID{}}
	}
	if k > len(vectors) {
		k = len(vectors)
	}
	if k < 1 {
		k = 1
	}

	centroids := seedCentroids(vectors, k, dim)
	assign := make([]int, len(vectors))

	for iter := 0; iter < kmeansMaxIterations; iter++ {
		changed := false
		for i, v := range vectors {
			best, bestSim := 0, -2.0
			for c, centroid := range centroids {
				sim := vecmath.CosineSimilarity(v.Vector, centroid)
				if sim > bestSim {
					bestSim, best = sim, c
				}
			}
			if assign[i] != best {
				assign[i] = best
				changed = true
			}
		}
		recomputeCentroids(vectors, assign, centroids, dim)
		if !changed {
			break
		}
	}

	cm := &ClusterMap{
		K:          k,
		Dimension:  dim,
		Centroids:  centroids,
		Assignment: make([]int32, n),
		Members:    make(map[int][]model.NodeID, k),
	}
	for i := range cm.Assignment {
		cm.Assignment[i] = -1
	}
	for i, v := range vectors {
		c := assign[i]
		cm.Assignment[v.ID] = int32(c)
		cm.Members[c] = append(cm.Members[c], v.ID)
	}
	return cm
}

// seedCentroids picks k initial centroids by deterministically striding
// through the (already node-id-ordered) vector list.
func seedCentroids(vectors []model.Node, k, dim int) [][]float32 {
	centroids := make([][]float32, k)
	stride := len(vectors) / k
	if stride < 1 {
		stride = 1
	}
	for c := 0; c < k; c++ {
		idx := (c * stride) % len(vectors)
		src := vectors[idx].Vector
		cp := make([]float32, dim)
		copy(cp, src)
		centroids[c] = cp
	}
	return centroids
}

func recomputeCentroids(vectors []model.Node, assign []int, centroids [][]float32, dim int) {
	sums := make([][]float64, len(centroids))
	counts := make([]int, len(centroids))
	for c := range sums {
		sums[c] = make([]float64, dim)
	}
	for i, v := range vectors {
		c := assign[i]
		counts[c]++
		for j := 0; j < dim && j < len(v.Vector); j++ {
			sums[c][j] += float64(v.Vector[j])
		}
	}
	for c := range centroids {
		if counts[c] == 0 {
			continue
		}
		for j := 0; j < dim; j++ {
			centroids[c][j] = float32(sums[c][j] / float64(counts[c]))
		}
	}
}

// ProbeClusters returns the indices of the ceil(sqrt(K)) centroids
// nearest the query vector (§4.6 "select the √num_clusters nearest
// centroids").
func (cm *ClusterMap) ProbeClusters(query []float32) []int {
	if cm == nil || cm.K == 0 {
		return nil
	}
	probes := int(math.Ceil(math.Sqrt(float64(cm.K))))
	if probes < 1 {
		probes = 1
	}
	type scored struct {
		idx int
		sim float64
	}
	scores := make([]scored, cm.K)
	for i, c := range cm.Centroids {
		scores[i] = scored{idx: i, sim: vecmath.CosineSimilarity(query, c)}
	}
	// simple partial selection sort; K is small (default 64)
	for i := 0; i < probes && i < len(scores); i++ {
		best := i
		for j := i + 1; j < len(scores); j++ {
			if scores[j].sim > scores[best].sim {
				best = j
			}
		}
		scores[i], scores[best] = scores[best], scores[i]
	}
	if probes > len(scores) {
		probes = len(scores)
	}
	out := make([]int, probes)
	for i := 0; i < probes; i++ {
		out[i] = scores[i].idx
	}
	return out
}
