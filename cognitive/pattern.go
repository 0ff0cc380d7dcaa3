package cognitive

import (
	"sort"

	"github.com/orneryd/amem/internal/decay"
	"github.com/orneryd/amem/internal/model"
)

// PatternSort selects how Pattern orders its surviving candidates.
type PatternSort string

const (
	SortMostRecent        PatternSort = "most_recent"
	SortHighestConfidence PatternSort = "highest_confidence"
	SortMostAccessed      PatternSort = "most_accessed"
	SortMostImportant     PatternSort = "most_important"
)

// PatternParams filters nodes across every axis the node schema exposes
// (type, session, confidence, creation time, decay score) and orders the
// survivors by one criterion. It is the multi-filter counterpart to
// query.Source's single-axis ByType/BySession/InTimeRange: those answer
// "give me everything of kind X", Pattern answers "give me the top N
// nodes matching this whole combination of conditions".
type PatternParams struct {
	// EventTypes restricts to these kinds. Empty means every kind.
	EventTypes []model.EventKind
	// MinConfidence and MaxConfidence bound node.Confidence, inclusive.
	MinConfidence *float32
	MaxConfidence *float32
	// SessionIDs restricts to these sessions. Empty means every session.
	SessionIDs []uint32
	// CreatedAfter and CreatedBefore bound node.Timestamp, inclusive.
	CreatedAfter  *int64
	CreatedBefore *int64
	// MinDecayScore drops nodes whose decay.Score falls below it.
	MinDecayScore *float64
	// MaxResults caps the returned count; zero means unlimited.
	MaxResults int
	// SortBy chooses the ordering; the zero value behaves as
	// SortMostRecent.
	SortBy PatternSort

	// IdleHours and AccessCount feed internal/decay.Score for
	// MinDecayScore and SortMostImportant, the same access bookkeeping
	// GapOptions needs for the stale-evidence category (§4.8). A node
	// absent from either map falls back to the "_access_count" metadata
	// graphmem.Graph.Touch maintains, and to zero idle hours.
	IdleHours   map[model.NodeID]float64
	AccessCount map[model.NodeID]int64
}

// Pattern finds every node matching every supplied filter and returns
// their ids ordered by SortBy, capped at MaxResults.
func (s *Source) Pattern(params PatternParams) []model.NodeID {
	typeSet := make(map[model.EventKind]bool, len(params.EventTypes))
	for _, t := range params.EventTypes {
		typeSet[t] = true
	}
	sessionSet := make(map[uint32]bool, len(params.SessionIDs))
	for _, sid := range params.SessionIDs {
		sessionSet[sid] = true
	}

	var candidates []model.Node
	forEachNode(s.View, func(id model.NodeID, node model.Node) {
		if len(typeSet) > 0 && !typeSet[node.Kind] {
			return
		}
		if len(sessionSet) > 0 && !sessionSet[node.Session] {
			return
		}
		if params.MinConfidence != nil && node.Confidence < *params.MinConfidence {
			return
		}
		if params.MaxConfidence != nil && node.Confidence > *params.MaxConfidence {
			return
		}
		if params.CreatedAfter != nil && node.Timestamp < *params.CreatedAfter {
			return
		}
		if params.CreatedBefore != nil && node.Timestamp > *params.CreatedBefore {
			return
		}
		if params.MinDecayScore != nil && patternDecayScore(node, params) < *params.MinDecayScore {
			return
		}
		candidates = append(candidates, node)
	})

	switch params.SortBy {
	case SortHighestConfidence:
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].Confidence > candidates[j].Confidence
		})
	case SortMostAccessed:
		sort.SliceStable(candidates, func(i, j int) bool {
			return accessCountFromMetadata(candidates[i]) > accessCountFromMetadata(candidates[j])
		})
	case SortMostImportant:
		sort.SliceStable(candidates, func(i, j int) bool {
			return patternDecayScore(candidates[i], params) > patternDecayScore(candidates[j], params)
		})
	default:
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].Timestamp > candidates[j].Timestamp
		})
	}

	if params.MaxResults > 0 && len(candidates) > params.MaxResults {
		candidates = candidates[:params.MaxResults]
	}

	ids := make([]model.NodeID, len(candidates))
	for i, n := range candidates {
		ids[i] = n.ID
	}
	return ids
}

// patternDecayScore computes a node's decay score from whichever access
// bookkeeping params supplies, falling back to the node's own metadata
// counter when the caller didn't pass one in explicitly.
func patternDecayScore(node model.Node, params PatternParams) float64 {
	count, ok := params.AccessCount[node.ID]
	if !ok {
		count = accessCountFromMetadata(node)
	}
	return decay.Score(decay.Input{
		Tier:        decay.TierForKind(uint8(node.Kind)),
		IdleHours:   params.IdleHours[node.ID],
		AccessCount: count,
		Confidence:  node.Confidence,
	}, decay.DefaultWeights())
}
