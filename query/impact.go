package query

import "github.com/orneryd/amem/internal/model"

// Impact returns every node that transitively depends on id: a reverse
// traversal that walks incoming edges of any kind, since a node
// referencing id (via supports, caused-by, or any other relation) is
// itself something that would be affected by revising or retracting id.
// Results are split out by event kind, so a caller can tell at a glance
// how many decisions, inferences, and skills would be affected.
func (s *Source) Impact(id model.NodeID) map[model.EventKind][]model.NodeID {
	result := s.Traverse(id, TraverseOptions{Direction: model.Backward})
	byKind := make(map[model.EventKind][]model.NodeID)
	for _, nodeID := range result.Visited {
		if nodeID == id {
			continue
		}
		node, ok := s.View.Node(nodeID)
		if !ok {
			continue
		}
		byKind[node.Kind] = append(byKind[node.Kind], nodeID)
	}
	return byKind
}
