package codec

import (
	"encoding/binary"

	"github.com/orneryd/amem/internal/model"
)

// marshalHeader writes h into a HeaderSize-byte buffer in the exact
// on-disk layout.
func marshalHeader(h Header) []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[0:4], Magic[:])
	binary.LittleEndian.PutUint16(buf[4:6], h.Version)
	binary.LittleEndian.PutUint16(buf[6:8], h.Flags)
	binary.LittleEndian.PutUint32(buf[8:12], h.NodeCount)
	binary.LittleEndian.PutUint32(buf[12:16], h.EdgeCount)
	binary.LittleEndian.PutUint16(buf[16:18], h.Dimension)
	binary.LittleEndian.PutUint16(buf[18:20], h.SessionCount)
	binary.LittleEndian.PutUint64(buf[20:28], h.ContentOffset)
	binary.LittleEndian.PutUint64(buf[28:36], h.ContentLength)
	binary.LittleEndian.PutUint64(buf[36:44], h.VectorOffset)
	binary.LittleEndian.PutUint64(buf[44:52], h.IndexOffset)
	binary.LittleEndian.PutUint32(buf[52:56], h.ContentUncompressed)
	// buf[56:64] is reserved and left zero.
	return buf
}

// unmarshalHeader validates the magic bytes, version, and reserved
// region, then decodes the first HeaderSize bytes of buf (which must be
// at least that long; any bytes after them are ignored) into a Header.
func unmarshalHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, model.New(model.KindTruncated, "file shorter than header")
	}
	if string(buf[0:4]) != string(Magic[:]) {
		return Header{}, model.New(model.KindFormatInvalid, "bad magic bytes")
	}
	for _, b := range buf[56:64] {
		if b != 0 {
			return Header{}, model.New(model.KindFormatInvalid, "reserved header bytes non-zero")
		}
	}
	h := Header{
		Version:             binary.LittleEndian.Uint16(buf[4:6]),
		Flags:               binary.LittleEndian.Uint16(buf[6:8]),
		NodeCount:           binary.LittleEndian.Uint32(buf[8:12]),
		EdgeCount:           binary.LittleEndian.Uint32(buf[12:16]),
		Dimension:           binary.LittleEndian.Uint16(buf[16:18]),
		SessionCount:        binary.LittleEndian.Uint16(buf[18:20]),
		ContentOffset:       binary.LittleEndian.Uint64(buf[20:28]),
		ContentLength:       binary.LittleEndian.Uint64(buf[28:36]),
		VectorOffset:        binary.LittleEndian.Uint64(buf[36:44]),
		IndexOffset:         binary.LittleEndian.Uint64(buf[44:52]),
		ContentUncompressed: binary.LittleEndian.Uint32(buf[52:56]),
	}
	if h.Version > CurrentVersion {
		return Header{}, model.New(model.KindVersionUnsupported, "file version newer than supported")
	}
	// Unknown flag bits above the ones this codec knows about are
	// tolerated (forward compatibility, §4.1 "Unknown flag bits above
	// the supported set -> warning"); callers that care can log it.
	return h, nil
}

// knownFlagMask covers every flag bit this codec understands.
const knownFlagMask = FlagHasVectors | FlagHasIndexes | FlagCompressed

// UnknownFlags returns the bits of h.Flags this codec does not recognize.
func UnknownFlags(h Header) uint16 { return h.Flags &^ knownFlagMask }
