// Package cognitive implements the higher-order reasoning queries that sit
// on top of the graph and search primitives in query and algo:
// counterfactual revision, reasoning-gap detection, analogical structural
// matching, consolidation reporting, and supersedes-chain drift analysis
// (§4.8). Every operation takes a model.View plus a query.Source built
// over the same view, and none of them mutate the graph: consolidation
// produces a report, it does not apply one.
package cognitive

import (
	"github.com/orneryd/amem/internal/model"
	"github.com/orneryd/amem/query"
)

// Source bundles the read view and query layer that every cognitive
// operation needs. It is deliberately thin: cognitive operations are
// built out of query.Source primitives (Traverse, Resolve, Similar,
// TextSearch) rather than re-implementing graph walks.
type Source struct {
	View model.View
	Q    *query.Source
}

// New wraps a view and its query source.
func New(view model.View, q *query.Source) *Source {
	return &Source{View: view, Q: q}
}

// outDegree recomputes a node's out-degree from OutEdges rather than
// caching it, since the view may be backed by a live in-memory graph
// still being mutated between calls.
func outDegree(view model.View, id model.NodeID) int {
	return len(view.OutEdges(id))
}

// forEachNode calls fn for every node currently in view, in ID order,
// mirroring the iteration style algo uses over view.NodeCount().
func forEachNode(view model.View, fn func(id model.NodeID, node model.Node)) {
	n := view.NodeCount()
	for i := 0; i < n; i++ {
		id := model.NodeID(i)
		node, ok := view.Node(id)
		if !ok {
			continue
		}
		fn(id, node)
	}
}
