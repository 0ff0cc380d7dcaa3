package codec

import "github.com/orneryd/amem/internal/model"

// This file exposes the pieces of the format that internal/reader needs
// to interpret a memory-mapped file directly, without going through the
// full materializing Decode: header parsing, single-record lookups, and
// the content/vector block codecs. Encode/Decode above stay the
// byte-exact, whole-file path; these are the same format knowledge, bare
// enough for random access.

// NodeRecord is the decoded shape of one on-disk node record.
type NodeRecord = nodeRecord

// EdgeRecord is the decoded shape of one on-disk edge record.
type EdgeRecord = edgeRecord

// DecodeHeader parses and validates the file header at the start of
// data.
func DecodeHeader(data []byte) (Header, error) {
	return unmarshalHeader(data)
}

// ReadNodeRecord decodes the node record for id directly out of a
// mapped file, bounds-checking the record's extent first.
func ReadNodeRecord(data []byte, h Header, id model.NodeID) (NodeRecord, error) {
	if uint32(id) >= h.NodeCount {
		return NodeRecord{}, model.New(model.KindNodeNotFound, "node id out of range")
	}
	off := nodeOffset(id)
	end := off + NodeRecordSize
	if end > int64(len(data)) {
		return NodeRecord{}, model.New(model.KindTruncated, "node record overruns file")
	}
	return unmarshalNodeRecord(data[off:end]), nil
}

// EdgeBlockBounds returns the byte range of the edge block, given the
// header's node and edge counts.
func EdgeBlockBounds(h Header) (start, end int64) {
	start = edgeBlockOffset(h.NodeCount)
	end = start + int64(h.EdgeCount)*EdgeRecordSize
	return start, end
}

// ReadEdgeRecord decodes the edge record at index idx directly out of a
// mapped file's edge block.
func ReadEdgeRecord(data []byte, h Header, idx int) (EdgeRecord, error) {
	if idx < 0 || idx >= int(h.EdgeCount) {
		return EdgeRecord{}, model.New(model.KindNodeNotFound, "edge index out of range")
	}
	start, _ := EdgeBlockBounds(h)
	off := start + int64(idx)*EdgeRecordSize
	end := off + EdgeRecordSize
	if end > int64(len(data)) {
		return EdgeRecord{}, model.New(model.KindTruncated, "edge record overruns file")
	}
	return unmarshalEdgeRecord(data[off:end]), nil
}

// DecodeContentBlock reverses compression on the content block bytes
// found at h.ContentOffset..+h.ContentLength within data.
func DecodeContentBlock(data []byte, h Header) ([]byte, error) {
	end := h.ContentOffset + h.ContentLength
	if end > uint64(len(data)) {
		return nil, model.New(model.KindTruncated, "content block overruns file")
	}
	return decompressContent(data[h.ContentOffset:end], h)
}

// NodeStrings decodes one node's content and metadata out of an already
// decompressed content block.
func NodeStrings(content []byte, rec NodeRecord) (string, map[string]string, error) {
	return decodeNodeStrings(content, rec)
}

// VectorBlockBounds returns the byte range of the vector block.
func VectorBlockBounds(h Header) (start, end uint64) {
	return h.VectorOffset, h.IndexOffset
}

// ReadVector extracts the dimension-length feature vector at element
// offset out of a mapped vector block.
func ReadVector(block []byte, offset uint64, dimension int) []float32 {
	return readVector(block, offset, dimension)
}
