package codec

import (
	"encoding/binary"
	"math"

	"github.com/orneryd/amem/internal/model"
)

// nodeRecord is the fixed 64-byte on-disk shape of one node. Content and
// metadata are stored as (offset, length) pairs into the decompressed
// content block; VectorOffset indexes into the vector block in units of
// the file dimension, or model.NoVector if the node has no vector.
type nodeRecord struct {
	EventKind       uint8
	Session         uint32
	Confidence      float32
	Timestamp       int64
	ContentOffset   uint64
	ContentLength   uint32
	VectorOffset    uint64
	MetadataOffset  uint64
	MetadataLength  uint32
}

func marshalNodeRecord(r nodeRecord) []byte {
	buf := make([]byte, NodeRecordSize)
	buf[0] = r.EventKind
	// buf[1:4] padding, left zero.
	binary.LittleEndian.PutUint32(buf[4:8], r.Session)
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(r.Confidence))
	binary.LittleEndian.PutUint64(buf[12:20], uint64(r.Timestamp))
	binary.LittleEndian.PutUint64(buf[20:28], r.ContentOffset)
	binary.LittleEndian.PutUint32(buf[28:32], r.ContentLength)
	binary.LittleEndian.PutUint64(buf[32:40], r.VectorOffset)
	binary.LittleEndian.PutUint64(buf[40:48], r.MetadataOffset)
	binary.LittleEndian.PutUint32(buf[48:52], r.MetadataLength)
	// buf[52:64] reserved, left zero.
	return buf
}

func unmarshalNodeRecord(buf []byte) nodeRecord {
	return nodeRecord{
		EventKind:      buf[0],
		Session:        binary.LittleEndian.Uint32(buf[4:8]),
		Confidence:     math.Float32frombits(binary.LittleEndian.Uint32(buf[8:12])),
		Timestamp:      int64(binary.LittleEndian.Uint64(buf[12:20])),
		ContentOffset:  binary.LittleEndian.Uint64(buf[20:28]),
		ContentLength:  binary.LittleEndian.Uint32(buf[28:32]),
		VectorOffset:   binary.LittleEndian.Uint64(buf[32:40]),
		MetadataOffset: binary.LittleEndian.Uint64(buf[40:48]),
		MetadataLength: binary.LittleEndian.Uint32(buf[48:52]),
	}
}

// edgeRecord is the fixed 13-byte on-disk shape of one edge.
type edgeRecord struct {
	Source model.NodeID
	Target model.NodeID
	Kind   model.EdgeKind
	Weight float32
}

func marshalEdgeRecord(r edgeRecord) []byte {
	buf := make([]byte, EdgeRecordSize)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(r.Source))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(r.Target))
	buf[8] = uint8(r.Kind)
	binary.LittleEndian.PutUint32(buf[9:13], math.Float32bits(r.Weight))
	return buf
}

func unmarshalEdgeRecord(buf []byte) edgeRecord {
	return edgeRecord{
		Source: model.NodeID(binary.LittleEndian.Uint32(buf[0:4])),
		Target: model.NodeID(binary.LittleEndian.Uint32(buf[4:8])),
		Kind:   model.EdgeKind(buf[8]),
		Weight: math.Float32frombits(binary.LittleEndian.Uint32(buf[9:13])),
	}
}
