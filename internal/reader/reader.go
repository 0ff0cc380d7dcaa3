// Package reader implements a memory-mapped, read-only model.View over
// an on-disk container file. Node and edge records are interpreted
// directly out of the mapping (no upfront parse pass); the content
// block is decompressed once, lazily, on first access that needs it;
// decoded nodes are kept in a bounded cache so repeated reads of hot
// nodes skip the JSON metadata decode and string allocation.
package reader

import (
	"log/slog"
	"os"
	"sort"
	"sync"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/edsrzf/mmap-go"

	"github.com/orneryd/amem/internal/codec"
	"github.com/orneryd/amem/internal/index"
	"github.com/orneryd/amem/internal/model"
)

// DefaultCacheBudget bounds the decoded-node cache's total cost (§4.7
// default 64 MiB), measured per cached node as its content length plus 4
// bytes per vector component.
const DefaultCacheBudget = 64 << 20

// Reader is a memory-mapped, read-only view of one container file. The
// zero value is not usable; construct with Open.
type Reader struct {
	file   *os.File
	data   mmap.MMap
	header codec.Header
	index  *index.Set

	contentOnce sync.Once
	content     []byte
	contentErr  error

	cache *ristretto.Cache[uint32, model.Node]

	// byTarget maps edge-table index by target id, ascending, built once
	// at Open. The on-disk table itself is only sorted by (source,
	// target, kind), which gives OutEdges a binary-searchable range for
	// free; InEdges needs its own ordering to get the same O(log n)
	// lookup instead of a full scan of the edge table.
	byTarget []targetEntry
}

// targetEntry is one entry in Reader.byTarget: the target endpoint of an
// edge and that edge's index in the on-disk edge table.
type targetEntry struct {
	target model.NodeID
	edge   int32
}

// Open memory-maps path and validates its header. The mapping stays
// live until Close is called; concurrent reads through the returned
// Reader are safe.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		slog.Error("reader open failed", "path", path, "error", err)
		return nil, model.Wrap(model.KindIO, "open container file", err)
	}
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, model.Wrap(model.KindIO, "mmap container file", err)
	}
	h, err := codec.DecodeHeader(m)
	if err != nil {
		m.Unmap()
		f.Close()
		return nil, err
	}

	var set *index.Set
	if h.HasIndexes() {
		if h.IndexOffset > uint64(len(m)) {
			m.Unmap()
			f.Close()
			return nil, model.New(model.KindTruncated, "index block overruns file")
		}
		set, err = index.Decode(m[h.IndexOffset:], int(h.NodeCount))
		if err != nil {
			m.Unmap()
			f.Close()
			return nil, err
		}
	}

	cache, err := ristretto.NewCache(&ristretto.Config[uint32, model.Node]{
		NumCounters: 10 * int64(h.NodeCount+1),
		MaxCost:     DefaultCacheBudget,
		BufferItems: 64,
	})
	if err != nil {
		m.Unmap()
		f.Close()
		return nil, model.Wrap(model.KindIO, "build node cache", err)
	}

	r := &Reader{file: f, data: m, header: h, index: set, cache: cache}
	r.buildTargetIndex()

	slog.Debug("reader opened", "path", path, "nodes", h.NodeCount, "has_index", h.HasIndexes())
	return r, nil
}

// buildTargetIndex reads every edge record once and sorts a
// (target, edge index) table by target ascending, so InEdges can binary
// search it instead of scanning the whole edge table on every call. This
// is a one-time O(E log E) cost paid at Open, not per lookup.
func (r *Reader) buildTargetIndex() {
	n := int(r.header.EdgeCount)
	entries := make([]targetEntry, 0, n)
	for i := 0; i < n; i++ {
		e, ok := r.edgeAt(i)
		if !ok {
			continue
		}
		entries = append(entries, targetEntry{target: e.Target, edge: int32(i)})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].target != entries[j].target {
			return entries[i].target < entries[j].target
		}
		return entries[i].edge < entries[j].edge
	})
	r.byTarget = entries
}

// Close unmaps the file and releases its handle. The Reader must not be
// used afterward.
func (r *Reader) Close() error {
	r.cache.Close()
	if err := r.data.Unmap(); err != nil {
		r.file.Close()
		return model.Wrap(model.KindIO, "unmap container file", err)
	}
	if err := r.file.Close(); err != nil {
		return model.Wrap(model.KindIO, "close container file", err)
	}
	return nil
}

// Index returns the embedded index set, or nil if the file was written
// without one.
func (r *Reader) Index() *index.Set { return r.index }

// decompressedContent lazily decompresses the content block exactly
// once, on whichever goroutine first needs it.
func (r *Reader) decompressedContent() ([]byte, error) {
	r.contentOnce.Do(func() {
		r.content, r.contentErr = codec.DecodeContentBlock(r.data, r.header)
	})
	return r.content, r.contentErr
}

// NodeCount implements model.View.
func (r *Reader) NodeCount() int { return int(r.header.NodeCount) }

// Dimension implements model.View.
func (r *Reader) Dimension() int { return int(r.header.Dimension) }

// EdgeCount implements model.View.
func (r *Reader) EdgeCount() int { return int(r.header.EdgeCount) }

// Node implements model.View, decoding directly out of the mapping (or
// the decoded-node cache on a hit).
func (r *Reader) Node(id model.NodeID) (model.Node, bool) {
	if cached, ok := r.cache.Get(id); ok {
		return cached, true
	}
	if uint32(id) >= r.header.NodeCount {
		return model.Node{}, false
	}
	rec, err := codec.ReadNodeRecord(r.data, r.header, id)
	if err != nil {
		return model.Node{}, false
	}
	content, err := r.decompressedContent()
	if err != nil {
		return model.Node{}, false
	}
	text, metadata, err := codec.NodeStrings(content, rec)
	if err != nil {
		return model.Node{}, false
	}
	var vector []float32
	if r.header.HasVectors() {
		vecStart, vecEnd := codec.VectorBlockBounds(r.header)
		if vecEnd <= uint64(len(r.data)) {
			vector = codec.ReadVector(r.data[vecStart:vecEnd], rec.VectorOffset, int(r.header.Dimension))
		}
	}
	node := model.Node{
		ID:         id,
		Kind:       model.EventKind(rec.EventKind),
		Session:    rec.Session,
		Confidence: rec.Confidence,
		Timestamp:  rec.Timestamp,
		Content:    text,
		Metadata:   metadata,
		Vector:     vector,
	}
	r.cache.Set(id, node, int64(len(text)+len(vector)*4))
	return node, true
}

// edgeAt decodes the edge record at flat edge-table index idx into a
// model.Edge.
func (r *Reader) edgeAt(idx int) (model.Edge, bool) {
	rec, err := codec.ReadEdgeRecord(r.data, r.header, idx)
	if err != nil {
		return model.Edge{}, false
	}
	return model.Edge{Source: rec.Source, Target: rec.Target, Kind: rec.Kind, Weight: rec.Weight}, true
}

// OutEdges implements model.View by binary-searching the on-disk edge
// table. The table is written sorted by (source, target, kind) (§4.1),
// so every edge for id occupies one contiguous range; sort.Search finds
// its lower bound in O(log n) and the matching run is read off
// sequentially from there.
func (r *Reader) OutEdges(id model.NodeID) []model.Edge {
	n := int(r.header.EdgeCount)
	start := sort.Search(n, func(i int) bool {
		e, ok := r.edgeAt(i)
		return ok && e.Source >= id
	})

	var out []model.Edge
	for i := start; i < n; i++ {
		e, ok := r.edgeAt(i)
		if !ok || e.Source != id {
			break
		}
		out = append(out, e)
	}
	return out
}

// InEdges implements model.View by binary-searching the byTarget index
// built at Open, giving the same O(log n) lookup OutEdges gets from the
// table's own on-disk order.
func (r *Reader) InEdges(id model.NodeID) []model.Edge {
	entries := r.byTarget
	start := sort.Search(len(entries), func(i int) bool {
		return entries[i].target >= id
	})

	var out []model.Edge
	for i := start; i < len(entries); i++ {
		if entries[i].target != id {
			break
		}
		if e, ok := r.edgeAt(int(entries[i].edge)); ok {
			out = append(out, e)
		}
	}
	return out
}

var _ model.View = (*Reader)(nil)
