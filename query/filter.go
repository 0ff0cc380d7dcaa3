package query

import (
	"sort"

	"github.com/orneryd/amem/internal/index"
	"github.com/orneryd/amem/internal/model"
)

// ByType returns every node of the given kind, ascending by id. It uses
// the type bitmap index when present; otherwise it scans every node.
func (s *Source) ByType(kind model.EventKind) []model.NodeID {
	if s.Index != nil && s.Index.TypeBitmap != nil {
		bits, ok := s.Index.TypeBitmap[kind]
		if !ok {
			return nil
		}
		var ids []model.NodeID
		for word, v := range bits {
			for bit := 0; bit < 64 && v != 0; bit++ {
				if v&1 != 0 {
					ids = append(ids, model.NodeID(word*64+bit))
				}
				v >>= 1
			}
		}
		return ids
	}

	var ids []model.NodeID
	n := s.View.NodeCount()
	for i := 0; i < n; i++ {
		node, ok := s.View.Node(model.NodeID(i))
		if ok && node.Kind == kind {
			ids = append(ids, node.ID)
		}
	}
	return ids
}

// BySession returns every node created under the given session, ascending
// by id. Sessions are contiguous ranges (§4.4), so the index path is a
// direct span lookup rather than a per-node scan.
func (s *Source) BySession(session uint32) []model.NodeID {
	if s.Index != nil && s.Index.Sessions != nil {
		for _, span := range s.Index.Sessions {
			if span.Session != session {
				continue
			}
			ids := make([]model.NodeID, 0, int(span.Last-span.First)+1)
			for id := span.First; id <= span.Last; id++ {
				ids = append(ids, id)
			}
			return ids
		}
		return nil
	}

	var ids []model.NodeID
	n := s.View.NodeCount()
	for i := 0; i < n; i++ {
		node, ok := s.View.Node(model.NodeID(i))
		if ok && node.Session == session {
			ids = append(ids, node.ID)
		}
	}
	return ids
}

// InTimeRange returns every node with timestamp in [start, end], ascending
// by timestamp then id. The index path binary-searches the sorted time
// index instead of scanning every node.
func (s *Source) InTimeRange(start, end int64) []model.NodeID {
	if s.Index != nil && s.Index.Time != nil {
		entries := s.Index.Time
		lo := sortSearchTime(entries, start)
		var ids []model.NodeID
		for i := lo; i < len(entries) && entries[i].Timestamp <= end; i++ {
			ids = append(ids, entries[i].Node)
		}
		return ids
	}

	var matched []index.TimeEntry
	n := s.View.NodeCount()
	for i := 0; i < n; i++ {
		node, ok := s.View.Node(model.NodeID(i))
		if ok && node.Timestamp >= start && node.Timestamp <= end {
			matched = append(matched, index.TimeEntry{Timestamp: node.Timestamp, Node: node.ID})
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Timestamp != matched[j].Timestamp {
			return matched[i].Timestamp < matched[j].Timestamp
		}
		return matched[i].Node < matched[j].Node
	})
	var ids []model.NodeID
	for _, e := range matched {
		ids = append(ids, e.Node)
	}
	return ids
}

// sortSearchTime returns the index of the first entry with Timestamp >=
// start, or len(entries) if none.
func sortSearchTime(entries []index.TimeEntry, start int64) int {
	lo, hi := 0, len(entries)
	for lo < hi {
		mid := (lo + hi) / 2
		if entries[mid].Timestamp < start {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}
