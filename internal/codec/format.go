// Package codec implements the on-disk container format: header, node
// records, edge records, LZ4-compressed content block, feature vector
// block, and tagged index block (§4.1, §6.1). Encode always produces a
// byte-exact file for a given graph; Decode validates the header before
// trusting any offset, distinguishing format-invalid from
// version-unsupported from truncated per §7.
package codec

import "github.com/orneryd/amem/internal/model"

// Magic identifies an amem container file.
var Magic = [4]byte{'A', 'M', 'E', 'M'}

// CurrentVersion is the highest format version this codec writes and
// reads. Files declaring a higher version are version-unsupported.
const CurrentVersion uint16 = 1

// Header bit flags.
const (
	FlagHasVectors uint16 = 1 << 0
	FlagHasIndexes uint16 = 1 << 1
	FlagCompressed uint16 = 1 << 2
)

// HeaderSize is the fixed size, in bytes, of the file header.
const HeaderSize = 64

// NodeRecordSize is the fixed size, in bytes, of one on-disk node record.
const NodeRecordSize = 64

// EdgeRecordSize is the fixed size, in bytes, of one on-disk edge record.
const EdgeRecordSize = 13

// DefaultCompressionThreshold is the raw content-block size, in bytes,
// above which the content block is LZ4-frame compressed.
const DefaultCompressionThreshold = 4096

// DefaultDimension is the feature vector width used when a caller does
// not specify one.
const DefaultDimension = 128

// DefaultClusterCount is the default k for the k-means cluster map.
const DefaultClusterCount = 64

// Header mirrors the 64-byte on-disk header exactly (§6.1).
type Header struct {
	Version              uint16
	Flags                uint16
	NodeCount            uint32
	EdgeCount            uint32
	Dimension            uint16
	SessionCount         uint16
	ContentOffset        uint64
	ContentLength        uint64
	VectorOffset         uint64
	IndexOffset          uint64
	ContentUncompressed  uint32
}

// HasVectors reports whether the file carries a feature vector block.
func (h Header) HasVectors() bool { return h.Flags&FlagHasVectors != 0 }

// HasIndexes reports whether the file carries an index block.
func (h Header) HasIndexes() bool { return h.Flags&FlagHasIndexes != 0 }

// Compressed reports whether the content block is LZ4-frame compressed.
func (h Header) Compressed() bool { return h.Flags&FlagCompressed != 0 }

// nodeOffset returns the byte offset of node record id within the file.
func nodeOffset(id model.NodeID) int64 {
	return HeaderSize + int64(id)*NodeRecordSize
}

// edgeBlockOffset returns the byte offset of the edge block, given the
// node count.
func edgeBlockOffset(nodeCount uint32) int64 {
	return HeaderSize + int64(nodeCount)*NodeRecordSize
}
