package cognitive

import (
	"gopkg.in/yaml.v3"

	"github.com/orneryd/amem/internal/model"
	"github.com/orneryd/amem/internal/vecmath"
)

// Consolidation thresholds from §4.8, "Consolidation".
const (
	DuplicateCosineThreshold           = 0.95
	UnlinkedContradictionSimilarity    = 0.85
	UnlinkedContradictionConfidenceGap = 0.3
	PromotableMinIncomingSupports      = 3
	PromotableMinConfidence            = 0.85
)

// DuplicatePair is a node pair whose vectors nearly coincide and which
// share an event kind, making one of them a likely redundant write.
type DuplicatePair struct {
	A          model.NodeID `yaml:"a"`
	B          model.NodeID `yaml:"b"`
	Similarity float64      `yaml:"similarity"`
}

// UnlinkedContradiction is a same-session pair whose content is close but
// whose confidence has diverged, without a contradicts edge recording the
// disagreement.
type UnlinkedContradiction struct {
	A             model.NodeID `yaml:"a"`
	B             model.NodeID `yaml:"b"`
	Similarity    float64      `yaml:"similarity"`
	ConfidenceGap float64      `yaml:"confidence_gap"`
}

// PromotableInference is an inference well-enough supported to be
// promoted to a fact.
type PromotableInference struct {
	Node             model.NodeID `yaml:"node"`
	IncomingSupports int          `yaml:"incoming_supports"`
	Confidence       float64      `yaml:"confidence"`
}

// Orphan is a node with no edges at all, past the age threshold.
type Orphan struct {
	Node model.NodeID `yaml:"node"`
	Age  int64        `yaml:"age"` // timestamp units, caller-defined
}

// ConsolidationReport is the dry-run output of Consolidate. Nothing in
// the report is applied to the graph; a separate rewrite step (outside
// this package, since it requires codec write access) would act on it.
type ConsolidationReport struct {
	Duplicates             []DuplicatePair         `yaml:"duplicates"`
	UnlinkedContradictions []UnlinkedContradiction `yaml:"unlinked_contradictions"`
	Promotable             []PromotableInference   `yaml:"promotable"`
	Orphans                []Orphan                `yaml:"orphans"`
}

// ToYAML renders the report the way an operator would review it from a
// maintenance CLI or cron job, using the struct's yaml.v3 field tags.
func (r ConsolidationReport) ToYAML() ([]byte, error) {
	return yaml.Marshal(r)
}

// ConsolidateOptions parameterizes Consolidate. Now and OrphanAge let the
// caller define "current time" and the orphan age cutoff without this
// package depending on wall-clock time.
type ConsolidateOptions struct {
	Now       int64
	OrphanAge int64
}

// Consolidate scans the whole graph and produces a dry-run report of
// duplicate, contradictory, promotable, and orphaned nodes (§4.8,
// "Consolidation"). It performs no writes.
func (s *Source) Consolidate(opts ConsolidateOptions) ConsolidationReport {
	nodes := s.allNodes()

	report := ConsolidationReport{}
	report.Duplicates = s.findDuplicates(nodes)
	report.UnlinkedContradictions = s.findUnlinkedContradictions(nodes)
	report.Promotable = s.findPromotable(nodes)
	report.Orphans = s.findOrphans(nodes, opts)
	return report
}

type numberedNode struct {
	id   model.NodeID
	node model.Node
}

func (s *Source) allNodes() []numberedNode {
	var nodes []numberedNode
	forEachNode(s.View, func(id model.NodeID, node model.Node) {
		nodes = append(nodes, numberedNode{id, node})
	})
	return nodes
}

func (s *Source) findDuplicates(nodes []numberedNode) []DuplicatePair {
	var out []DuplicatePair
	for i := 0; i < len(nodes); i++ {
		if nodes[i].node.Vector == nil {
			continue
		}
		for j := i + 1; j < len(nodes); j++ {
			if nodes[j].node.Vector == nil || nodes[i].node.Kind != nodes[j].node.Kind {
				continue
			}
			sim := vecmath.CosineSimilarity(nodes[i].node.Vector, nodes[j].node.Vector)
			if sim > DuplicateCosineThreshold {
				out = append(out, DuplicatePair{A: nodes[i].id, B: nodes[j].id, Similarity: sim})
			}
		}
	}
	return out
}

func (s *Source) findUnlinkedContradictions(nodes []numberedNode) []UnlinkedContradiction {
	contradicted := make(map[[2]model.NodeID]bool)
	for _, n := range nodes {
		for _, e := range s.View.OutEdges(n.id) {
			if e.Kind != model.EdgeContradicts {
				continue
			}
			key := [2]model.NodeID{n.id, e.Target}
			if n.id > e.Target {
				key = [2]model.NodeID{e.Target, n.id}
			}
			contradicted[key] = true
		}
	}

	var out []UnlinkedContradiction
	for i := 0; i < len(nodes); i++ {
		if nodes[i].node.Vector == nil {
			continue
		}
		for j := i + 1; j < len(nodes); j++ {
			if nodes[j].node.Vector == nil || nodes[i].node.Session != nodes[j].node.Session {
				continue
			}
			key := [2]model.NodeID{nodes[i].id, nodes[j].id}
			if contradicted[key] {
				continue
			}
			sim := vecmath.CosineSimilarity(nodes[i].node.Vector, nodes[j].node.Vector)
			if sim <= UnlinkedContradictionSimilarity {
				continue
			}
			gap := float64(nodes[i].node.Confidence) - float64(nodes[j].node.Confidence)
			if gap < 0 {
				gap = -gap
			}
			if gap > UnlinkedContradictionConfidenceGap {
				out = append(out, UnlinkedContradiction{
					A: nodes[i].id, B: nodes[j].id,
					Similarity: sim, ConfidenceGap: gap,
				})
			}
		}
	}
	return out
}

func (s *Source) findPromotable(nodes []numberedNode) []PromotableInference {
	var out []PromotableInference
	for _, n := range nodes {
		if n.node.Kind != model.KindInference || float64(n.node.Confidence) < PromotableMinConfidence {
			continue
		}
		supports := 0
		for _, e := range s.View.InEdges(n.id) {
			if e.Kind == model.EdgeSupports {
				supports++
			}
		}
		if supports >= PromotableMinIncomingSupports {
			out = append(out, PromotableInference{
				Node:             n.id,
				IncomingSupports: supports,
				Confidence:       float64(n.node.Confidence),
			})
		}
	}
	return out
}

func (s *Source) findOrphans(nodes []numberedNode, opts ConsolidateOptions) []Orphan {
	var out []Orphan
	for _, n := range nodes {
		if len(s.View.OutEdges(n.id)) > 0 || len(s.View.InEdges(n.id)) > 0 {
			continue
		}
		age := opts.Now - n.node.Timestamp
		if age > opts.OrphanAge {
			out = append(out, Orphan{Node: n.id, Age: age})
		}
	}
	return out
}
