package cognitive

import (
	"sort"

	"github.com/orneryd/amem/internal/decay"
	"github.com/orneryd/amem/internal/model"
)

// TimeRange names the three ways a graph slice can be selected for
// Temporal: a raw timestamp window, one session, or a set of sessions.
type TimeRange struct {
	// Start and End bound a TimeWindow. Both zero means this range is
	// not a TimeWindow; set Session or Sessions instead.
	Start, End int64
	// Session selects one session's node range. Zero means unset; use
	// Sessions for multiple, or a nonzero session id here for one.
	Session uint32
	// Sessions selects several sessions' node ranges, unioned.
	Sessions []uint32
}

// nodesInRange resolves a TimeRange to the node ids it covers, reusing the same
// index-backed lookups query.Source exposes for a single axis.
func (s *Source) nodesInRange(r TimeRange) map[model.NodeID]bool {
	set := make(map[model.NodeID]bool)
	switch {
	case len(r.Sessions) > 0:
		for _, sid := range r.Sessions {
			for _, id := range s.Q.BySession(sid) {
				set[id] = true
			}
		}
	case r.Session != 0:
		for _, id := range s.Q.BySession(r.Session) {
			set[id] = true
		}
	default:
		for _, id := range s.Q.InTimeRange(r.Start, r.End) {
			set[id] = true
		}
	}
	return set
}

// TemporalParams selects two graph slices to diff.
type TemporalParams struct {
	RangeA, RangeB TimeRange

	// IdleHours and AccessCount feed internal/decay.Score for splitting
	// Unchanged from PotentiallyStale, same convention as GapOptions and
	// PatternParams.
	IdleHours   map[model.NodeID]float64
	AccessCount map[model.NodeID]int64
}

// TemporalResult is the state diff Temporal computes between RangeA and
// RangeB: what showed up only in B, what B corrected out of A via a
// supersedes edge, and how the rest of A is holding up.
type TemporalResult struct {
	// Added holds nodes present in RangeB but not RangeA.
	Added []model.NodeID
	// Corrected holds (old, new) pairs where old is in RangeA, new is in
	// RangeB, and new supersedes old.
	Corrected [][2]model.NodeID
	// Unchanged holds RangeA nodes that were not corrected and whose
	// decay score is still above cognitive.StaleEvidenceThreshold.
	Unchanged []model.NodeID
	// PotentiallyStale holds RangeA nodes that were not corrected but
	// whose decay score has dropped below the threshold.
	PotentiallyStale []model.NodeID
}

// Temporal diffs two time slices of the graph the way a reviewer asks "what
// changed between then and now": new nodes, nodes an intervening
// supersedes edge corrected, and how much confidence the rest have lost to
// decay since.
func (s *Source) Temporal(params TemporalParams) TemporalResult {
	nodesA := s.nodesInRange(params.RangeA)
	nodesB := s.nodesInRange(params.RangeB)

	corrected := make(map[model.NodeID]bool)
	var result TemporalResult

	for idA := range nodesA {
		for _, e := range s.View.OutEdges(idA) {
			if e.Kind == model.EdgeSupersedes && nodesB[e.Target] {
				result.Corrected = append(result.Corrected, [2]model.NodeID{idA, e.Target})
				corrected[idA] = true
			}
		}
	}

	for idB := range nodesB {
		if !nodesA[idB] {
			result.Added = append(result.Added, idB)
		}
	}

	for idA := range nodesA {
		if corrected[idA] {
			continue
		}
		node, ok := s.View.Node(idA)
		if !ok {
			continue
		}
		count, has := params.AccessCount[idA]
		if !has {
			count = accessCountFromMetadata(node)
		}
		score := decay.Score(decay.Input{
			Tier:        decay.TierForKind(uint8(node.Kind)),
			IdleHours:   params.IdleHours[idA],
			AccessCount: count,
			Confidence:  node.Confidence,
		}, decay.DefaultWeights())

		if score < StaleEvidenceThreshold {
			result.PotentiallyStale = append(result.PotentiallyStale, idA)
		} else {
			result.Unchanged = append(result.Unchanged, idA)
		}
	}

	sort.Slice(result.Corrected, func(i, j int) bool {
		if result.Corrected[i][0] != result.Corrected[j][0] {
			return result.Corrected[i][0] < result.Corrected[j][0]
		}
		return result.Corrected[i][1] < result.Corrected[j][1]
	})
	sortNodeIDsAsc(result.Added)
	sortNodeIDsAsc(result.Unchanged)
	sortNodeIDsAsc(result.PotentiallyStale)
	return result
}

// sortNodeIDsAsc orders ids ascending; map iteration order is otherwise
// randomized, and callers expect deterministic results.
func sortNodeIDsAsc(ids []model.NodeID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
