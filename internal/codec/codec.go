package codec

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/orneryd/amem/internal/graphmem"
	"github.com/orneryd/amem/internal/index"
	"github.com/orneryd/amem/internal/model"
)

// EncodeConfig controls the optional parts of an encoding: whether to
// build and embed the index block, and when to compress the content
// block.
type EncodeConfig struct {
	BuildIndexes         bool
	IndexConfig          index.BuildConfig
	CompressionThreshold int  // DefaultCompressionThreshold if zero
	ForceCompress        bool // for tests that want to exercise the compressed path on small graphs
}

// DefaultEncodeConfig builds every index and compresses content blocks
// larger than DefaultCompressionThreshold bytes.
func DefaultEncodeConfig() EncodeConfig {
	return EncodeConfig{
		BuildIndexes:         true,
		IndexConfig:          index.DefaultBuildConfig(),
		CompressionThreshold: DefaultCompressionThreshold,
	}
}

// sortEdgesCanonical orders edges by (Source, Target, Kind) ascending, the
// canonical on-disk order the format mandates. Sorting on source first
// makes the written edge table contiguous by source id, so a reader can
// binary-search for a node's outgoing range instead of scanning every
// edge record. The in-memory mutator is free to keep edges in insertion
// order; only the flushed file has to be canonical, so two graphs built
// by adding the same edges in a different sequence still encode to the
// same bytes.
func sortEdgesCanonical(edges []model.Edge) {
	sort.Slice(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if a.Target != b.Target {
			return a.Target < b.Target
		}
		return a.Kind < b.Kind
	})
}

// Encode serializes g into the on-disk container format (§4.1, §6.1). It
// builds every block in memory first (node records, edge records,
// content block, vector block, index block), fills in the header's
// offsets from their sizes, and returns the header followed by the
// blocks in that order. Encode writes nothing to disk; the atomic
// temp-file-then-rename step is WriteFile's (§4.1 atomicity).
func Encode(g *graphmem.Graph, cfg EncodeConfig) ([]byte, error) {
	n := g.NodeCount()
	nodes := make([]model.Node, n)
	for i := 0; i < n; i++ {
		node, ok := g.Node(model.NodeID(i))
		if !ok {
			return nil, model.New(model.KindNodeNotFound, "node missing during encode")
		}
		nodes[i] = node
	}
	edges := g.Edges()
	sortEdgesCanonical(edges)
	dimension := g.Dimension()

	threshold := cfg.CompressionThreshold
	if threshold <= 0 {
		threshold = DefaultCompressionThreshold
	}

	rawContent, contentSpans, metaSpans, err := buildContentBlock(nodes)
	if err != nil {
		return nil, err
	}
	contentBlock, compressed, err := compressContent(rawContent, threshold, cfg.ForceCompress)
	if err != nil {
		return nil, err
	}

	var vectorBlock []byte
	var vectorOffsets []uint64
	hasVectors := dimension > 0
	if hasVectors {
		vectorBlock, vectorOffsets = buildVectorBlock(nodes, dimension)
	} else {
		vectorOffsets = make([]uint64, n)
		for i := range vectorOffsets {
			vectorOffsets[i] = model.NoVector
		}
	}

	nodeBlock := make([]byte, n*NodeRecordSize)
	for i, node := range nodes {
		rec := nodeRecord{
			EventKind:      uint8(node.Kind),
			Session:        node.Session,
			Confidence:     node.Confidence,
			Timestamp:      node.Timestamp,
			ContentOffset:  contentSpans[i].offset,
			ContentLength:  contentSpans[i].length,
			VectorOffset:   vectorOffsets[i],
			MetadataOffset: metaSpans[i].offset,
			MetadataLength: metaSpans[i].length,
		}
		copy(nodeBlock[i*NodeRecordSize:(i+1)*NodeRecordSize], marshalNodeRecord(rec))
	}

	edgeBlock := make([]byte, len(edges)*EdgeRecordSize)
	for i, e := range edges {
		rec := edgeRecord{Source: e.Source, Target: e.Target, Kind: e.Kind, Weight: e.Weight}
		copy(edgeBlock[i*EdgeRecordSize:(i+1)*EdgeRecordSize], marshalEdgeRecord(rec))
	}

	var indexBlock []byte
	hasIndexes := cfg.BuildIndexes
	if hasIndexes {
		set := index.Build(g, cfg.IndexConfig)
		indexBlock = set.Encode()
	}

	h := Header{
		Version:             CurrentVersion,
		NodeCount:           uint32(n),
		EdgeCount:           uint32(len(edges)),
		Dimension:           uint16(dimension),
		SessionCount:        uint16(g.SessionCount()),
		ContentUncompressed: uint32(len(rawContent)),
	}
	if hasVectors {
		h.Flags |= FlagHasVectors
	}
	if hasIndexes {
		h.Flags |= FlagHasIndexes
	}
	if compressed {
		h.Flags |= FlagCompressed
	}

	offset := uint64(HeaderSize + len(nodeBlock) + len(edgeBlock))
	h.ContentOffset = offset
	h.ContentLength = uint64(len(contentBlock))
	offset += h.ContentLength
	h.VectorOffset = offset
	offset += uint64(len(vectorBlock))
	h.IndexOffset = offset

	out := make([]byte, 0, offset+uint64(len(indexBlock)))
	out = append(out, marshalHeader(h)...)
	out = append(out, nodeBlock...)
	out = append(out, edgeBlock...)
	out = append(out, contentBlock...)
	out = append(out, vectorBlock...)
	out = append(out, indexBlock...)
	return out, nil
}

// WriteFile encodes g and writes it atomically: to a sibling temporary
// file, fsynced, then renamed over path (§4.1). A reader can never
// observe a partially-written file at path.
func WriteFile(path string, g *graphmem.Graph, cfg EncodeConfig) error {
	data, err := Encode(g, cfg)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".amem-tmp-*")
	if err != nil {
		return model.Wrap(model.KindIO, "create temp file", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return model.Wrap(model.KindIO, "write temp file", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return model.Wrap(model.KindIO, "fsync temp file", err)
	}
	if err := tmp.Close(); err != nil {
		return model.Wrap(model.KindIO, "close temp file", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return model.Wrap(model.KindIO, "rename temp file over target", err)
	}
	slog.Debug("container written", "path", path, "bytes", len(data))
	return nil
}

// Decode parses a full container file into a mutable graph plus whichever
// indexes were embedded (nil if the file has none, §4.6 falls back to a
// linear scan in that case). Every offset in the header is bounds-checked
// against len(data) before use, so a truncated or corrupt file fails with
// a typed error rather than a panic (§7).
func Decode(data []byte) (*graphmem.Graph, *index.Set, error) {
	h, err := unmarshalHeader(data)
	if err != nil {
		return nil, nil, err
	}

	nodeBlockStart := int64(HeaderSize)
	nodeBlockLen := int64(h.NodeCount) * NodeRecordSize
	edgeBlockStart := nodeBlockStart + nodeBlockLen
	edgeBlockLen := int64(h.EdgeCount) * EdgeRecordSize
	need := edgeBlockStart + edgeBlockLen
	if need > int64(len(data)) || int64(h.ContentOffset) > int64(len(data)) {
		return nil, nil, model.New(model.KindTruncated, "file shorter than header declares")
	}

	nodeRecs := make([]nodeRecord, h.NodeCount)
	for i := uint32(0); i < h.NodeCount; i++ {
		off := nodeBlockStart + int64(i)*NodeRecordSize
		nodeRecs[i] = unmarshalNodeRecord(data[off : off+NodeRecordSize])
	}

	edgeRecs := make([]edgeRecord, h.EdgeCount)
	for i := uint32(0); i < h.EdgeCount; i++ {
		off := edgeBlockStart + int64(i)*EdgeRecordSize
		edgeRecs[i] = unmarshalEdgeRecord(data[off : off+EdgeRecordSize])
	}

	contentEnd := h.ContentOffset + h.ContentLength
	if contentEnd > uint64(len(data)) {
		return nil, nil, model.New(model.KindTruncated, "content block overruns file")
	}
	content, err := decompressContent(data[h.ContentOffset:contentEnd], h)
	if err != nil {
		return nil, nil, err
	}

	var vectorBlock []byte
	if h.HasVectors() {
		vectorEnd := h.IndexOffset
		if h.VectorOffset > vectorEnd || vectorEnd > uint64(len(data)) {
			return nil, nil, model.New(model.KindTruncated, "vector block overruns file")
		}
		vectorBlock = data[h.VectorOffset:vectorEnd]
	}

	g := graphmem.New(int(h.Dimension))
	for i, rec := range nodeRecs {
		content, metadata, err := decodeNodeStrings(content, rec)
		if err != nil {
			return nil, nil, err
		}
		var vector []float32
		if h.HasVectors() {
			vector = readVector(vectorBlock, rec.VectorOffset, int(h.Dimension))
		}
		id, err := g.AddNode(model.EventKind(rec.EventKind), rec.Session, rec.Confidence, rec.Timestamp, content, metadata, vector)
		if err != nil {
			return nil, nil, err
		}
		if int(id) != i {
			return nil, nil, model.New(model.KindFormatInvalid, "node ids not dense and ordered")
		}
	}
	for _, rec := range edgeRecs {
		if _, err := g.AddEdge(rec.Source, rec.Target, rec.Kind, rec.Weight); err != nil {
			return nil, nil, err
		}
	}
	g.ClearDirty()

	var set *index.Set
	if h.HasIndexes() {
		if h.IndexOffset > uint64(len(data)) {
			return nil, nil, model.New(model.KindTruncated, "index block overruns file")
		}
		set, err = index.Decode(data[h.IndexOffset:], int(h.NodeCount))
		if err != nil {
			return nil, nil, err
		}
	}
	return g, set, nil
}

// decodeNodeStrings extracts one node's content string and metadata map
// out of the decompressed content block using the spans stored in its
// node record.
func decodeNodeStrings(content []byte, rec nodeRecord) (string, map[string]string, error) {
	if uint64(rec.ContentOffset)+uint64(rec.ContentLength) > uint64(len(content)) {
		return "", nil, model.New(model.KindTruncated, "node content span overruns content block")
	}
	text := string(content[rec.ContentOffset : rec.ContentOffset+uint64(rec.ContentLength)])
	if rec.MetadataOffset == model.NoMetadata {
		return text, nil, nil
	}
	if rec.MetadataOffset+uint64(rec.MetadataLength) > uint64(len(content)) {
		return "", nil, model.New(model.KindTruncated, "node metadata span overruns content block")
	}
	raw := content[rec.MetadataOffset : rec.MetadataOffset+uint64(rec.MetadataLength)]
	var metadata map[string]string
	if err := json.Unmarshal(raw, &metadata); err != nil {
		return "", nil, model.Wrap(model.KindFormatInvalid, "decode node metadata", err)
	}
	return text, metadata, nil
}

// OpenFile reads and decodes a container file from disk.
func OpenFile(path string) (*graphmem.Graph, *index.Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Error("container read failed", "path", path, "error", err)
		return nil, nil, model.Wrap(model.KindIO, "read file", err)
	}
	g, idx, err := Decode(data)
	if err != nil {
		slog.Error("container decode failed", "path", path, "error", err)
		return nil, nil, err
	}
	return g, idx, nil
}
