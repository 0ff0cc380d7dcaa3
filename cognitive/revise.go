package cognitive

import "github.com/orneryd/amem/internal/model"

// RevisionDefaultDepth bounds how many hops a revision propagates before
// stopping, per §4.8's "recurse with depth bound (default 4)".
const RevisionDefaultDepth = 4

// RevisionDefaultThreshold is the post-revision confidence below which a
// node is reported unsupported.
const RevisionDefaultThreshold = 0.5

// RevisionOptions parameterizes Revise. Zero values fall back to the
// package defaults.
type RevisionOptions struct {
	MaxDepth  int
	Threshold float64
}

func (o RevisionOptions) withDefaults() RevisionOptions {
	if o.MaxDepth <= 0 {
		o.MaxDepth = RevisionDefaultDepth
	}
	if o.Threshold <= 0 {
		o.Threshold = RevisionDefaultThreshold
	}
	return o
}

// RevisedNode is one node reached by a counterfactual revision, carrying
// its projected post-revision confidence.
type RevisedNode struct {
	ID          model.NodeID
	Confidence  float64 // projected confidence after retracting the target
	Unsupported bool    // Confidence fell below the threshold
}

// Revise computes the set of nodes whose confidence would drop if target
// were retracted (§4.8, "Counterfactual revision"). It walks outgoing
// supports/caused-by edges from target — the nodes target justifies, not
// the nodes that justify target, which is the opposite direction from
// Impact — subtracting weight * confidence(target) from each dependent's
// own confidence, bounded at zero, and recursing up to MaxDepth hops.
//
// The subtraction always uses the original target confidence, not a
// decayed value carried from the previous hop: "subtract weight ×
// confidence(target)" names a single fixed quantity, so a node two hops
// away is discounted by the same target confidence as a node one hop
// away, scaled only by its own edge's weight.
//
// Revise never writes to the graph; it is a read-only projection over
// the current state (Testable Property 10).
func (s *Source) Revise(target model.NodeID, opts RevisionOptions) []RevisedNode {
	opts = opts.withDefaults()

	targetNode, ok := s.View.Node(target)
	if !ok {
		return nil
	}
	targetConfidence := float64(targetNode.Confidence)

	type frontierEntry struct {
		id    model.NodeID
		depth int
	}
	visited := map[model.NodeID]bool{target: true}
	queue := []frontierEntry{{target, 0}}
	var out []RevisedNode

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= opts.MaxDepth {
			continue
		}

		for _, e := range s.View.OutEdges(cur.id) {
			if e.Kind != model.EdgeSupports && e.Kind != model.EdgeCausedBy {
				continue
			}
			if visited[e.Target] {
				continue
			}
			visited[e.Target] = true

			node, ok := s.View.Node(e.Target)
			if !ok {
				continue
			}
			revised := float64(node.Confidence) - float64(e.Weight)*targetConfidence
			if revised < 0 {
				revised = 0
			}
			out = append(out, RevisedNode{
				ID:          e.Target,
				Confidence:  revised,
				Unsupported: revised < opts.Threshold,
			})
			queue = append(queue, frontierEntry{e.Target, cur.depth + 1})
		}
	}
	return out
}
