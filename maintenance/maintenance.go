// Package maintenance implements the engine's background upkeep
// operations (§4.9): storage-budget projection with scheduled rollup of
// completed sessions, and redacted auto-capture of external prompt or
// feedback text. Unlike query/algo/cognitive, these operations mutate
// the graph, so they take a concrete *graphmem.Graph rather than the
// read-only model.View those packages use — the same distinction
// internal/codec draws between its read path (model.View) and its write
// path (*graphmem.Graph).
package maintenance

import "github.com/orneryd/amem/internal/graphmem"

// Source bundles the mutable graph maintenance operations act on.
type Source struct {
	Graph *graphmem.Graph
}

// New wraps a graph for maintenance operations.
func New(g *graphmem.Graph) *Source {
	return &Source{Graph: g}
}
