package cognitive

import (
	"strconv"

	"github.com/orneryd/amem/algo"
	"github.com/orneryd/amem/internal/decay"
	"github.com/orneryd/amem/internal/model"
	"github.com/orneryd/amem/query"
)

// GapCategory names one of the five reasoning-gap categories from §4.8.
type GapCategory string

const (
	GapUnjustifiedDecision     GapCategory = "unjustified-decision"
	GapSingleSourceInference   GapCategory = "single-source-inference"
	GapLowConfidenceFoundation GapCategory = "low-confidence-foundation"
	GapUnstableKnowledge       GapCategory = "unstable-knowledge"
	GapStaleEvidence           GapCategory = "stale-evidence"
)

// LowConfidenceThreshold is the confidence below which a fact is flagged
// as a low-confidence foundation.
const LowConfidenceThreshold = 0.5

// StaleEvidenceThreshold is the decay score below which a fact supporting
// an active decision is flagged as stale.
const StaleEvidenceThreshold = 0.3

// Gap is one detected reasoning gap.
type Gap struct {
	Category GapCategory
	Node     model.NodeID
	Severity float64
}

// GapOptions parameterizes gap detection with the inputs Score needs for
// the stale-evidence category, since decay is computed from access
// bookkeeping the caller tracks (idle hours, access count), not fields
// stored on the node itself.
type GapOptions struct {
	// IdleHours and AccessCount, keyed by node, feed internal/decay.Score
	// for the stale-evidence category. A node absent from IdleHours is
	// scored with zero idle hours; a node absent from AccessCount (or
	// mapped to zero) falls back to the "_access_count" metadata value
	// graphmem.Graph.Touch keeps.
	IdleHours   map[model.NodeID]float64
	AccessCount map[model.NodeID]int64
}

// accessCountFromMetadata reads back the "_access_count" bookkeeping
// graphmem.Graph.Touch stores, for callers that did not pass an explicit
// AccessCount map.
func accessCountFromMetadata(node model.Node) int64 {
	count, _ := strconv.ParseInt(node.Metadata["_access_count"], 10, 64)
	return count
}

// Gaps runs all five reasoning-gap detectors over the view and returns
// every finding, scored by severity (§4.8, "Reasoning gaps").
func (s *Source) Gaps(opts GapOptions) []Gap {
	var out []Gap
	out = append(out, s.unjustifiedDecisions()...)
	out = append(out, s.singleSourceInferences()...)
	out = append(out, s.lowConfidenceFoundations()...)
	out = append(out, s.unstableKnowledge()...)
	out = append(out, s.staleEvidence(opts)...)
	return out
}

func (s *Source) severity(node model.Node, id model.NodeID, centrality map[model.NodeID]float64) float64 {
	outdeg := float64(outDegree(s.View, id))
	dependentCentrality := 0.0
	for _, e := range s.View.InEdges(id) {
		dependentCentrality += centrality[e.Source]
	}
	// A node with low confidence, many outgoing dependents, and
	// high-centrality dependents is the riskiest kind of gap: its error
	// would propagate widely and to influential parts of the graph.
	return (1 - float64(node.Confidence)) * (1 + outdeg) * (1 + dependentCentrality)
}

func (s *Source) unjustifiedDecisions() []Gap {
	var out []Gap
	centrality := algo.DegreeCentrality(s.View)
	forEachNode(s.View, func(id model.NodeID, node model.Node) {
		if node.Kind != model.KindDecision {
			return
		}
		justified := false
		for _, e := range s.View.InEdges(id) {
			if e.Kind == model.EdgeSupports || e.Kind == model.EdgeCausedBy {
				justified = true
				break
			}
		}
		if !justified {
			out = append(out, Gap{
				Category: GapUnjustifiedDecision,
				Node:     id,
				Severity: s.severity(node, id, centrality),
			})
		}
	})
	return out
}

func (s *Source) singleSourceInferences() []Gap {
	var out []Gap
	centrality := algo.DegreeCentrality(s.View)
	forEachNode(s.View, func(id model.NodeID, node model.Node) {
		if node.Kind != model.KindInference {
			return
		}
		supports := 0
		for _, e := range s.View.OutEdges(id) {
			if e.Kind == model.EdgeSupports {
				supports++
			}
		}
		if supports == 1 {
			out = append(out, Gap{
				Category: GapSingleSourceInference,
				Node:     id,
				Severity: s.severity(node, id, centrality),
			})
		}
	})
	return out
}

func (s *Source) lowConfidenceFoundations() []Gap {
	var out []Gap
	centrality := algo.DegreeCentrality(s.View)
	forEachNode(s.View, func(id model.NodeID, node model.Node) {
		if node.Kind != model.KindFact || float64(node.Confidence) >= LowConfidenceThreshold {
			return
		}
		hasSupports := false
		for _, e := range s.View.OutEdges(id) {
			if e.Kind == model.EdgeSupports {
				hasSupports = true
				break
			}
		}
		if hasSupports {
			out = append(out, Gap{
				Category: GapLowConfidenceFoundation,
				Node:     id,
				Severity: s.severity(node, id, centrality),
			})
		}
	})
	return out
}

// unstableKnowledge flags contradicts pairs where neither side's
// supersedes chain has since resolved to a correction node — the pair is
// still an open, unreconciled contradiction.
func (s *Source) unstableKnowledge() []Gap {
	var out []Gap
	centrality := algo.DegreeCentrality(s.View)
	seen := make(map[[2]model.NodeID]bool)
	forEachNode(s.View, func(id model.NodeID, node model.Node) {
		for _, e := range s.View.OutEdges(id) {
			if e.Kind != model.EdgeContradicts {
				continue
			}
			key := [2]model.NodeID{id, e.Target}
			if id > e.Target {
				key = [2]model.NodeID{e.Target, id}
			}
			if seen[key] {
				continue
			}
			seen[key] = true

			if s.resolvedByCorrection(id) || s.resolvedByCorrection(e.Target) {
				continue
			}
			out = append(out, Gap{
				Category: GapUnstableKnowledge,
				Node:     id,
				Severity: s.severity(node, id, centrality),
			})
		}
	})
	return out
}

// resolvedByCorrection follows id's outgoing supersedes chain and reports
// whether the terminal node is a correction.
func (s *Source) resolvedByCorrection(id model.NodeID) bool {
	resolved, err := s.Q.Resolve(id)
	if err != nil {
		return false
	}
	node, ok := s.View.Node(resolved)
	return ok && node.Kind == model.KindCorrection
}

// staleEvidence flags facts whose decay score has fallen below the
// threshold while they still support a decision that has not itself been
// superseded (an "active" decision).
func (s *Source) staleEvidence(opts GapOptions) []Gap {
	var out []Gap
	centrality := algo.DegreeCentrality(s.View)
	forEachNode(s.View, func(id model.NodeID, node model.Node) {
		if node.Kind != model.KindFact {
			return
		}
		if !s.supportsActiveDecision(id) {
			return
		}

		idle := opts.IdleHours[id]
		access := opts.AccessCount[id]
		if access == 0 {
			access = accessCountFromMetadata(node)
		}
		score := decay.Score(decay.Input{
			Tier:        decay.TierForKind(uint8(node.Kind)),
			IdleHours:   idle,
			AccessCount: access,
			Confidence:  node.Confidence,
		}, decay.DefaultWeights())

		if score < StaleEvidenceThreshold {
			out = append(out, Gap{
				Category: GapStaleEvidence,
				Node:     id,
				Severity: s.severity(node, id, centrality),
			})
		}
	})
	return out
}

// supportsActiveDecision reports whether id transitively supports a
// decision node whose own supersedes chain has not moved past it, i.e. an
// undisplaced, currently-relied-upon decision.
func (s *Source) supportsActiveDecision(id model.NodeID) bool {
	opts := query.TraverseOptions{Direction: model.Backward}
	for _, reached := range s.Q.Traverse(id, opts).Visited {
		if reached == id {
			continue
		}
		node, ok := s.View.Node(reached)
		if !ok || node.Kind != model.KindDecision {
			continue
		}
		resolved, err := s.Q.Resolve(reached)
		if err == nil && resolved == reached {
			return true
		}
	}
	return false
}
