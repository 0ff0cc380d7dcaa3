package cognitive

import (
	"math"

	"github.com/orneryd/amem/internal/model"
)

// LinkPredictionScores bundles the four topological link-prediction
// heuristics folded into the analogical-match ranker as a secondary
// signal alongside structural fingerprint and content similarity
// (SPEC_FULL's Supplemented Features). Each is computed over the
// undirected neighborhood derived from the view's OutEdges/InEdges,
// grounded on the teacher's Jaccard/AdamicAdar/CommonNeighbors/
// PreferentialAttachment formulas.
type LinkPredictionScores struct {
	CommonNeighbors        float64
	Jaccard                float64
	AdamicAdar             float64
	PreferentialAttachment float64
}

// linkPredictionScores computes all four scores from source to every
// node sharing structure with it. CommonNeighbors, Jaccard, and
// Adamic-Adar are populated only for nodes that share at least one
// neighbor with source (the standard candidate set for those three);
// PreferentialAttachment, which needs no shared neighbor, is populated
// for every other node in the view.
func linkPredictionScores(view model.View, source model.NodeID, allNodes []model.NodeID) map[model.NodeID]LinkPredictionScores {
	sourceNeighbors := neighborSet(view, source)
	sourceDegree := float64(len(sourceNeighbors))

	out := make(map[model.NodeID]LinkPredictionScores, len(allNodes))
	for _, id := range allNodes {
		if id == source {
			continue
		}
		candidateNeighbors := neighborSet(view, id)
		out[id] = LinkPredictionScores{
			PreferentialAttachment: sourceDegree * float64(len(candidateNeighbors)),
		}
	}

	for z := range sourceNeighbors {
		zNeighbors := neighborSet(view, z)
		zDegree := len(zNeighbors)
		if zDegree == 0 {
			continue
		}
		adamicWeight := 0.0
		if zDegree > 1 {
			adamicWeight = 1 / math.Log(float64(zDegree))
		}
		for candidate := range zNeighbors {
			if candidate == source || sourceNeighbors[candidate] {
				continue
			}
			entry := out[candidate]
			entry.CommonNeighbors++
			entry.AdamicAdar += adamicWeight
			out[candidate] = entry
		}
	}

	for id, entry := range out {
		if entry.CommonNeighbors == 0 {
			continue
		}
		candidateNeighbors := neighborSet(view, id)
		union := len(sourceNeighbors) + len(candidateNeighbors) - int(entry.CommonNeighbors)
		if union > 0 {
			entry.Jaccard = entry.CommonNeighbors / float64(union)
		}
		out[id] = entry
	}
	return out
}
