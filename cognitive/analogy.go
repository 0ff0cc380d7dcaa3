package cognitive

import (
	"math"

	"github.com/orneryd/amem/internal/model"
	"github.com/orneryd/amem/internal/vecmath"
)

// AnalogyAlpha is the default weight given to structural similarity in
// the convex combination with content similarity (§4.8, "Analogical
// match", default α=0.5).
const AnalogyAlpha = 0.5

// Fingerprint is a probe node's structural signature: in-degree,
// out-degree, a histogram of incident edge kinds, and the local
// clustering coefficient of its neighborhood.
type Fingerprint struct {
	InDegree          float64
	OutDegree         float64
	EdgeKindHistogram [7]float64 // indexed by model.EdgeKind
	ClusteringCoeff   float64
}

// BuildFingerprint computes the structural fingerprint of id.
func BuildFingerprint(view model.View, id model.NodeID) Fingerprint {
	out := view.OutEdges(id)
	in := view.InEdges(id)

	fp := Fingerprint{
		InDegree:  float64(len(in)),
		OutDegree: float64(len(out)),
	}
	for _, e := range out {
		if int(e.Kind) < len(fp.EdgeKindHistogram) {
			fp.EdgeKindHistogram[e.Kind]++
		}
	}
	for _, e := range in {
		if int(e.Kind) < len(fp.EdgeKindHistogram) {
			fp.EdgeKindHistogram[e.Kind]++
		}
	}
	fp.ClusteringCoeff = localClusteringCoefficient(view, id)
	return fp
}

// localClusteringCoefficient computes the fraction of pairs among id's
// neighbors that are themselves connected, over the undirected view of
// the neighborhood: 2*links / (k*(k-1)) for k neighbors.
func localClusteringCoefficient(view model.View, id model.NodeID) float64 {
	neighbors := neighborSet(view, id)
	k := len(neighbors)
	if k < 2 {
		return 0
	}

	ids := make([]model.NodeID, 0, k)
	for n := range neighbors {
		ids = append(ids, n)
	}

	links := 0
	for i := 0; i < len(ids); i++ {
		iNeighbors := neighborSet(view, ids[i])
		for j := i + 1; j < len(ids); j++ {
			if iNeighbors[ids[j]] {
				links++
			}
		}
	}
	possible := float64(k*(k-1)) / 2
	return float64(links) / possible
}

// neighborSet returns id's undirected neighbor set: every node reachable
// by one outgoing or incoming edge.
func neighborSet(view model.View, id model.NodeID) map[model.NodeID]bool {
	set := make(map[model.NodeID]bool)
	for _, e := range view.OutEdges(id) {
		set[e.Target] = true
	}
	for _, e := range view.InEdges(id) {
		set[e.Source] = true
	}
	delete(set, id)
	return set
}

// fingerprintVector standardizes a fingerprint into a plain feature
// vector for L2 comparison. Degrees and histogram counts are left
// unnormalized here; standardization (zero mean, unit variance) happens
// across the whole candidate pool in AnalogicalMatch, since a single
// fingerprint carries no distribution to standardize against.
func fingerprintVector(fp Fingerprint) []float64 {
	v := make([]float64, 0, 2+len(fp.EdgeKindHistogram)+1)
	v = append(v, fp.InDegree, fp.OutDegree)
	v = append(v, fp.EdgeKindHistogram[:]...)
	v = append(v, fp.ClusteringCoeff)
	return v
}

// standardize applies z-score normalization column-wise across a matrix
// of feature vectors, in place semantics via a fresh copy: (x - mean) /
// stddev, with stddev-zero columns left untouched (they carry no
// discriminating information anyway).
func standardize(vectors [][]float64) [][]float64 {
	if len(vectors) == 0 {
		return vectors
	}
	dims := len(vectors[0])
	means := make([]float64, dims)
	for _, v := range vectors {
		for d := 0; d < dims; d++ {
			means[d] += v[d]
		}
	}
	n := float64(len(vectors))
	for d := range means {
		means[d] /= n
	}

	stddevs := make([]float64, dims)
	for _, v := range vectors {
		for d := 0; d < dims; d++ {
			diff := v[d] - means[d]
			stddevs[d] += diff * diff
		}
	}
	for d := range stddevs {
		stddevs[d] = math.Sqrt(stddevs[d] / n)
	}

	out := make([][]float64, len(vectors))
	for i, v := range vectors {
		row := make([]float64, dims)
		for d := 0; d < dims; d++ {
			if stddevs[d] == 0 {
				row[d] = 0
				continue
			}
			row[d] = (v[d] - means[d]) / stddevs[d]
		}
		out[i] = row
	}
	return out
}

func l2Distance(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// AnalogyMatch is one ranked result from AnalogicalMatch.
type AnalogyMatch struct {
	Node                 model.NodeID
	StructuralSimilarity float64              // 1 / (1 + L2 distance) over standardized fingerprints
	ContentSimilarity    float64              // cosine similarity over stored vectors, 0 if either is missing
	LinkPrediction       LinkPredictionScores // topology scores, an additional signal
	Score                float64              // alpha*structural + (1-alpha)*content
}

// AnalogicalMatch ranks every other node in the view by structural and
// content similarity to probe (§4.8, "Analogical match"). Structural
// similarity is 1/(1+L2 distance) between standardized fingerprint
// vectors; content similarity is cosine similarity between stored
// vectors. The two are combined with weight alpha on the structural
// term. Topological link-prediction scores over the same undirected
// neighborhood are reported alongside as a secondary signal, since a
// node with no vector and a sparse fingerprint can still be a strong
// candidate if it shares many well-connected neighbors with probe.
func (s *Source) AnalogicalMatch(probe model.NodeID, k int, alpha float64) []AnalogyMatch {
	if alpha == 0 {
		alpha = AnalogyAlpha
	}

	probeNode, ok := s.View.Node(probe)
	if !ok {
		return nil
	}

	var candidates []model.NodeID
	forEachNode(s.View, func(id model.NodeID, _ model.Node) {
		if id != probe {
			candidates = append(candidates, id)
		}
	})
	if len(candidates) == 0 {
		return nil
	}

	all := append([]model.NodeID{probe}, candidates...)
	rawVectors := make([][]float64, len(all))
	for i, id := range all {
		rawVectors[i] = fingerprintVector(BuildFingerprint(s.View, id))
	}
	standardized := standardize(rawVectors)
	probeFP := standardized[0]

	linkScores := linkPredictionScores(s.View, probe, candidates)

	matches := make([]AnalogyMatch, 0, len(candidates))
	for i, id := range candidates {
		dist := l2Distance(probeFP, standardized[i+1])
		structural := 1 / (1 + dist)

		content := 0.0
		if candidate, ok := s.View.Node(id); ok && probeNode.Vector != nil && candidate.Vector != nil {
			content = vecmath.CosineSimilarity(probeNode.Vector, candidate.Vector)
		}

		matches = append(matches, AnalogyMatch{
			Node:                 id,
			StructuralSimilarity: structural,
			ContentSimilarity:    content,
			LinkPrediction:       linkScores[id],
			Score:                alpha*structural + (1-alpha)*content,
		})
	}

	sortMatchesByScore(matches)
	if k > 0 && k < len(matches) {
		matches = matches[:k]
	}
	return matches
}

func sortMatchesByScore(matches []AnalogyMatch) {
	for i := 1; i < len(matches); i++ {
		for j := i; j > 0 && matches[j].Score > matches[j-1].Score; j-- {
			matches[j], matches[j-1] = matches[j-1], matches[j]
		}
	}
}
