package query

import (
	"github.com/orneryd/amem/internal/index"
	"github.com/orneryd/amem/internal/model"
)

// RRFK is the Reciprocal Rank Fusion smoothing constant fixed by the
// format (§4.6): RRF_score(node) = Σ 1/(RRFK + rank), summed over every
// ranked list the node appears in.
const RRFK = 60.0

// Hybrid fuses TextSearch and Similar results with Reciprocal Rank
// Fusion: nodes are ranked by how well they place across both lists
// rather than by combining their (incomparable) raw scores directly, so a
// node ranked highly by both keyword and vector similarity outranks one
// that dominates only a single method (Cormack, Clarke & Buettcher 2009).
func (s *Source) Hybrid(query string, vector []float32, k int) []index.Scored {
	candidateLimit := k * 2
	if candidateLimit < k {
		candidateLimit = k // guard against overflow for very large k
	}

	textResults := s.TextSearch(query, candidateLimit)
	var vectorResults []index.Scored
	if vector != nil {
		vectorResults = s.Similar(vector, candidateLimit)
	}

	scores := make(map[model.NodeID]float64)
	for i, r := range textResults {
		scores[r.Node] += 1.0 / (RRFK + float64(i+1))
	}
	for i, r := range vectorResults {
		scores[r.Node] += 1.0 / (RRFK + float64(i+1))
	}

	out := make([]index.Scored, 0, len(scores))
	for id, sc := range scores {
		out = append(out, index.Scored{Node: id, Score: sc})
	}
	sortScoredDesc(out)
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out
}
