package query

import (
	"github.com/orneryd/amem/internal/index"
	"github.com/orneryd/amem/internal/model"
	"github.com/orneryd/amem/internal/vecmath"
)

// Similar returns the k nodes whose vectors are most cosine-similar to
// query, descending by score, ties broken by ascending node id. When a
// cluster map is present, only the members of the nearest √k clusters are
// scanned (§4.6); otherwise every node with a vector is scanned.
func (s *Source) Similar(query []float32, k int) []index.Scored {
	if s.Index != nil && s.Index.Cluster != nil && s.Index.Cluster.K > 0 {
		return s.similarViaClusters(query, k)
	}
	return s.similarBruteForce(query, k)
}

func (s *Source) similarBruteForce(query []float32, k int) []index.Scored {
	n := s.View.NodeCount()
	scores := make(map[model.NodeID]float64)
	for i := 0; i < n; i++ {
		node, ok := s.View.Node(model.NodeID(i))
		if !ok || node.Vector == nil {
			continue
		}
		scores[node.ID] = vecmath.CosineSimilarity(query, node.Vector)
	}
	return topKScored(scores, k)
}

func (s *Source) similarViaClusters(query []float32, k int) []index.Scored {
	cm := s.Index.Cluster
	probes := cm.ProbeClusters(query)
	scores := make(map[model.NodeID]float64)
	for _, p := range probes {
		for _, id := range cm.Members[p] {
			node, ok := s.View.Node(id)
			if !ok || node.Vector == nil {
				continue
			}
			scores[id] = vecmath.CosineSimilarity(query, node.Vector)
		}
	}
	return topKScored(scores, k)
}

func topKScored(scores map[model.NodeID]float64, k int) []index.Scored {
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

func sortScoredDesc(s []index.Scored) {
	for i := 1; i < len(s); i++ {
		j := i
		for j > 0 && lessScored(s[j], s[j-1]) {
			s[j], s[j-1] = s[j-1], s[j]
			j--
		}
	}
}

func lessScored(a, b index.Scored) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Node < b.Node
}
