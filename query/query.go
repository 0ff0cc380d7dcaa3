// Package query implements the engine's read operations: structural
// filters (by type, by session, by time range), graph traversal, vector
// similarity, BM25 text search, RRF hybrid search, supersedes-chain
// resolution, and impact analysis (§4.6). Every operation runs against a
// model.View, so the same code serves the mutable in-memory graph and the
// memory-mapped reader without modification.
package query

import (
	"sort"

	"github.com/orneryd/amem/internal/index"
	"github.com/orneryd/amem/internal/model"
)

// Source bundles a read view with its optional auxiliary indexes. Index
// may be nil, or any of its fields may be nil, in which case the affected
// operation falls back to a linear scan over View instead of failing
// (§4.6, §7 "index-missing is a fallback, not an error").
type Source struct {
	View  model.View
	Index *index.Set
}

// New wraps a view with no indexes; every query then runs the linear-scan
// fallback path. Attach an *index.Set built by index.Build to use the
// fast paths.
func New(view model.View) *Source {
	return &Source{View: view}
}

// WithIndex attaches a built index set.
func (s *Source) WithIndex(set *index.Set) *Source {
	s.Index = set
	return s
}

func sortNodeIDs(ids []model.NodeID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
