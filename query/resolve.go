package query

import "github.com/orneryd/amem/internal/model"

// Resolve follows outgoing supersedes edges from id to the terminal node
// of its chain — the current, un-superseded version of that memory.
// Supersedes edges point from the superseded (older) node to its
// successor (newer) node, so "terminal" means a node with no outgoing
// supersedes edge (§8, "resolve terminality").
//
// A well-formed graph cannot contain a supersedes cycle (AddEdge rejects
// one at write time), so the bound on chain length is defensive: it stops
// after visiting every node once rather than trusting that invariant to
// hold forever.
func (s *Source) Resolve(id model.NodeID) (model.NodeID, error) {
	visited := make(map[model.NodeID]bool)
	cur := id
	for {
		if visited[cur] {
			return 0, model.New(model.KindCycle, "supersedes chain does not terminate")
		}
		visited[cur] = true

		next, ok := supersedingNode(s.View, cur)
		if !ok {
			return cur, nil
		}
		cur = next
	}
}

// supersedingNode returns the node that id's outgoing supersedes edge (if
// any) points to.
func supersedingNode(view model.View, id model.NodeID) (model.NodeID, bool) {
	for _, e := range view.OutEdges(id) {
		if e.Kind == model.EdgeSupersedes {
			return e.Target, true
		}
	}
	return 0, false
}
