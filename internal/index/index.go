// Package index builds and serializes the six auxiliary index structures
// described in §4.4: a type bitmap, session ranges, a time index, a
// k-means cluster map for pruned similarity search, a BM25 term index,
// and a document-length vector. Each is optional per BuildConfig; when
// absent, query code falls back to a linear scan (§4.6; "index-missing"
// in §7 is a fallback, not an error).
package index

import (
	"log/slog"
	"sort"

	"github.com/orneryd/amem/internal/model"
	"github.com/orneryd/amem/internal/tokenize"
)

// Tag identifies one region of the on-disk index block (§4.4).
type Tag uint32

const (
	TagTypeBitmap   Tag = 0x01
	TagSessionRange Tag = 0x02
	TagTimeIndex    Tag = 0x03
	TagClusterMap   Tag = 0x04
	TagTermIndex    Tag = 0x05
	TagDocLengths   Tag = 0x06
)

// DefaultClusterCount is the default k for the cluster map.
const DefaultClusterCount = 64

// BuildConfig selects which indexes to build and their parameters.
type BuildConfig struct {
	Type         bool
	Session      bool
	Time         bool
	Cluster      bool
	Term         bool
	DocLengths   bool
	ClusterCount int // default DefaultClusterCount
}

// DefaultBuildConfig enables every index with default parameters.
func DefaultBuildConfig() BuildConfig {
	return BuildConfig{
		Type: true, Session: true, Time: true, Cluster: true, Term: true, DocLengths: true,
		ClusterCount: DefaultClusterCount,
	}
}

// SessionSpan is one session's contiguous node-id range.
type SessionSpan struct {
	Session     uint32
	First, Last model.NodeID
}

// TimeEntry is one (timestamp, node) pair, sorted ascending by timestamp.
type TimeEntry struct {
	Timestamp int64
	Node      model.NodeID
}

// Posting is one entry of a term's posting list.
type Posting struct {
	Node model.NodeID
	Freq int
}

// TermIndex is the BM25 term index: postings plus document frequency.
type TermIndex struct {
	Postings map[string][]Posting
	DocFreq  map[string]int
}

// Set holds whichever indexes were built for a graph. Nil fields mean
// that index was not built.
type Set struct {
	NodeCount int

	TypeBitmap map[model.EventKind][]uint64 // bit i of word i/64 set if node i has that kind
	Sessions   []SessionSpan
	Time       []TimeEntry
	Cluster    *ClusterMap
	Term       *TermIndex
	DocLens    []int32
}

// Build scans view once per requested index and returns the resulting
// Set. view must expose every node in [0, view.NodeCount()).
func Build(view model.View, cfg BuildConfig) *Set {
	n := view.NodeCount()
	s := &Set{NodeCount: n}

	if cfg.Type {
		s.TypeBitmap = buildTypeBitmap(view, n)
	}
	if cfg.Session {
		s.Sessions = buildSessionSpans(view, n)
	}
	if cfg.Time {
		s.Time = buildTimeIndex(view, n)
	}
	if cfg.Term || cfg.DocLengths {
		term, docLens := buildTermIndex(view, n)
		if cfg.Term {
			s.Term = term
		}
		if cfg.DocLengths {
			s.DocLens = docLens
		}
	}
	if cfg.Cluster && view.Dimension() > 0 {
		k := cfg.ClusterCount
		if k <= 0 {
			k = DefaultClusterCount
		}
		s.Cluster = buildClusterMap(view, n, k)
	}
	slog.Debug("index built", "nodes", n, "type", cfg.Type, "session", cfg.Session,
		"time", cfg.Time, "term", cfg.Term, "cluster", cfg.Cluster)
	return s
}

func buildTypeBitmap(view model.View, n int) map[model.EventKind][]uint64 {
	words := (n + 63) / 64
	bm := make(map[model.EventKind][]uint64)
	for id := 0; id < n; id++ {
		node, ok := view.Node(model.NodeID(id))
		if !ok || !model.KnownEventKind(node.Kind) {
			continue
		}
		bits, ok := bm[node.Kind]
		if !ok {
			bits = make([]uint64, words)
			bm[node.Kind] = bits
		}
		bits[id/64] |= 1 << uint(id%64)
	}
	return bm
}

func buildSessionSpans(view model.View, n int) []SessionSpan {
	var spans []SessionSpan
	var cur *SessionSpan
	for id := 0; id < n; id++ {
		node, ok := view.Node(model.NodeID(id))
		if !ok {
			continue
		}
		if cur != nil && cur.Session == node.Session {
			cur.Last = node.ID
			continue
		}
		spans = append(spans, SessionSpan{Session: node.Session, First: node.ID, Last: node.ID})
		cur = &spans[len(spans)-1]
	}
	return spans
}

func buildTimeIndex(view model.View, n int) []TimeEntry {
	entries := make([]TimeEntry, 0, n)
	for id := 0; id < n; id++ {
		node, ok := view.Node(model.NodeID(id))
		if !ok {
			continue
		}
		entries = append(entries, TimeEntry{Timestamp: node.Timestamp, Node: node.ID})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Timestamp != entries[j].Timestamp {
			return entries[i].Timestamp < entries[j].Timestamp
		}
		return entries[i].Node < entries[j].Node
	})
	return entries
}

func buildTermIndex(view model.View, n int) (*TermIndex, []int32) {
	postings := make(map[string][]Posting)
	docFreq := make(map[string]int)
	docLens := make([]int32, n)

	for id := 0; id < n; id++ {
		node, ok := view.Node(model.NodeID(id))
		if !ok {
			continue
		}
		toks := tokenize.Tokens(node.Content)
		docLens[id] = int32(len(toks))
		freq := make(map[string]int, len(toks))
		for _, t := range toks {
			freq[t]++
		}
		for term, f := range freq {
			postings[term] = append(postings[term], Posting{Node: node.ID, Freq: f})
			docFreq[term]++
		}
	}
	for _, list := range postings {
		sort.Slice(list, func(i, j int) bool { return list[i].Node < list[j].Node })
	}
	return &TermIndex{Postings: postings, DocFreq: docFreq}, docLens
}

// AvgDocLength returns the mean token count across docLens, or 0 if empty.
func AvgDocLength(docLens []int32) float64 {
	if len(docLens) == 0 {
		return 0
	}
	var sum int64
	for _, l := range docLens {
		sum += int64(l)
	}
	return float64(sum) / float64(len(docLens))
}
