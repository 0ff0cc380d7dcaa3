package cognitive

import (
	"gopkg.in/yaml.v3"

	"github.com/orneryd/amem/internal/model"
)

// ChainDrift is the drift analysis of one maximal supersedes chain.
type ChainDrift struct {
	Chain                []model.NodeID `yaml:"chain"`       // oldest to newest
	Confidences          []float64      `yaml:"confidences"` // parallel to Chain
	MeanRevisionInterval float64        `yaml:"mean_revision_interval"`
	StabilityScore       float64        `yaml:"stability_score"` // 1 / (1 + revision_count)
}

// DriftReport aggregates drift analysis over every maximal supersedes
// chain in the graph.
type DriftReport struct {
	Chains                []ChainDrift `yaml:"chains"`
	MeanStabilityScore    float64      `yaml:"mean_stability_score"`
	MeanRevisionsPerChain float64      `yaml:"mean_revisions_per_chain"`
}

// ToYAML renders the report for an operator reviewing knowledge-stability
// trends, using the struct's yaml.v3 field tags.
func (r DriftReport) ToYAML() ([]byte, error) {
	return yaml.Marshal(r)
}

// Drift finds every maximal supersedes chain and reports its confidence
// sequence, revision cadence, and stability (§4.8, "Drift"). A chain is
// maximal when its first node has no incoming supersedes edge (it
// supersedes nothing itself, so it is the oldest version) and it is
// walked to its terminal node.
func (s *Source) Drift() DriftReport {
	roots := s.chainRoots()

	var chains []ChainDrift
	for _, root := range roots {
		chains = append(chains, s.analyzeChain(root))
	}

	report := DriftReport{Chains: chains}
	if len(chains) == 0 {
		return report
	}
	var stabilitySum, revisionSum float64
	for _, c := range chains {
		stabilitySum += c.StabilityScore
		revisionSum += float64(len(c.Chain) - 1)
	}
	report.MeanStabilityScore = stabilitySum / float64(len(chains))
	report.MeanRevisionsPerChain = revisionSum / float64(len(chains))
	return report
}

// chainRoots returns every node that starts a supersedes chain: nodes
// with an outgoing supersedes edge but no incoming one.
func (s *Source) chainRoots() []model.NodeID {
	var roots []model.NodeID
	forEachNode(s.View, func(id model.NodeID, _ model.Node) {
		hasOutgoing := false
		for _, e := range s.View.OutEdges(id) {
			if e.Kind == model.EdgeSupersedes {
				hasOutgoing = true
				break
			}
		}
		if !hasOutgoing {
			return
		}
		hasIncoming := false
		for _, e := range s.View.InEdges(id) {
			if e.Kind == model.EdgeSupersedes {
				hasIncoming = true
				break
			}
		}
		if !hasIncoming {
			roots = append(roots, id)
		}
	})
	return roots
}

func (s *Source) analyzeChain(root model.NodeID) ChainDrift {
	chain := []model.NodeID{root}
	cur := root
	for {
		next, ok := supersedingNode(s.View, cur)
		if !ok {
			break
		}
		chain = append(chain, next)
		cur = next
	}

	confidences := make([]float64, len(chain))
	timestamps := make([]int64, len(chain))
	for i, id := range chain {
		if node, ok := s.View.Node(id); ok {
			confidences[i] = float64(node.Confidence)
			timestamps[i] = node.Timestamp
		}
	}

	var meanInterval float64
	if len(chain) > 1 {
		var sum int64
		for i := 1; i < len(timestamps); i++ {
			sum += timestamps[i] - timestamps[i-1]
		}
		meanInterval = float64(sum) / float64(len(timestamps)-1)
	}

	revisionCount := len(chain) - 1
	return ChainDrift{
		Chain:                chain,
		Confidences:          confidences,
		MeanRevisionInterval: meanInterval,
		StabilityScore:       1 / (1 + float64(revisionCount)),
	}
}

// supersedingNode mirrors the unexported helper query.Resolve walks with;
// duplicated rather than exported from query since it is four lines of
// pure model.View mechanics, not query-specific behavior.
func supersedingNode(view model.View, id model.NodeID) (model.NodeID, bool) {
	for _, e := range view.OutEdges(id) {
		if e.Kind == model.EdgeSupersedes {
			return e.Target, true
		}
	}
	return 0, false
}
