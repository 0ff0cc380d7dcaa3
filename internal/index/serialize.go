package index

import (
	"bytes"
	"encoding/binary"
	"math"
	"sort"

	"github.com/orneryd/amem/internal/model"
)

// chunk is one {tag, length, payload} region of the index block (§6.1).
type chunk struct {
	tag     Tag
	payload []byte
}

// Encode serializes every non-nil index in s as a sequence of tagged
// chunks. Readers iterate tags and skip ones they don't recognize
// (§4.4), so new tags can be appended in future versions without
// breaking old readers.
func (s *Set) Encode() []byte {
	var chunks []chunk
	if s.TypeBitmap != nil {
		chunks = append(chunks, chunk{TagTypeBitmap, encodeTypeBitmap(s.TypeBitmap, s.NodeCount)})
	}
	if s.Sessions != nil {
		chunks = append(chunks, chunk{TagSessionRange, encodeSessions(s.Sessions)})
	}
	if s.Time != nil {
		chunks = append(chunks, chunk{TagTimeIndex, encodeTime(s.Time)})
	}
	if s.Cluster != nil {
		chunks = append(chunks, chunk{TagClusterMap, encodeCluster(s.Cluster)})
	}
	if s.Term != nil {
		chunks = append(chunks, chunk{TagTermIndex, encodeTerm(s.Term)})
	}
	if s.DocLens != nil {
		chunks = append(chunks, chunk{TagDocLengths, encodeDocLens(s.DocLens)})
	}

	var buf bytes.Buffer
	for _, c := range chunks {
		var hdr [8]byte
		binary.LittleEndian.PutUint32(hdr[0:4], uint32(c.tag))
		binary.LittleEndian.PutUint32(hdr[4:8], uint32(len(c.payload)))
		buf.Write(hdr[:])
		buf.Write(c.payload)
	}
	return buf.Bytes()
}

// Decode parses the index block, skipping unknown tags by their declared
// length (§4.4 forward compatibility).
func Decode(data []byte, nodeCount int) (*Set, error) {
	s := &Set{NodeCount: nodeCount}
	off := 0
	for off+8 <= len(data) {
		tag := Tag(binary.LittleEndian.Uint32(data[off : off+4]))
		length := binary.LittleEndian.Uint32(data[off+4 : off+8])
		off += 8
		if off+int(length) > len(data) {
			return nil, model.New(model.KindTruncated, "index chunk overruns block")
		}
		payload := data[off : off+int(length)]
		off += int(length)

		switch tag {
		case TagTypeBitmap:
			s.TypeBitmap = decodeTypeBitmap(payload)
		case TagSessionRange:
			s.Sessions = decodeSessions(payload)
		case TagTimeIndex:
			s.Time = decodeTime(payload)
		case TagClusterMap:
			s.Cluster = decodeCluster(payload)
		case TagTermIndex:
			s.Term = decodeTerm(payload)
		case TagDocLengths:
			s.DocLens = decodeDocLens(payload)
		default:
			// unknown tag: already skipped via length
		}
	}
	return s, nil
}

func encodeTypeBitmap(bm map[model.EventKind][]uint64, n int) []byte {
	words := uint32((n + 63) / 64)
	var buf bytes.Buffer
	var hdr [4]byte
	binary.LittleEndian.PutUint32(hdr[:], words)
	buf.Write(hdr[:])
	for kind := model.EventKind(0); kind < 6; kind++ {
		bits := bm[kind]
		for i := uint32(0); i < words; i++ {
			var v uint64
			if int(i) < len(bits) {
				v = bits[i]
			}
			var w [8]byte
			binary.LittleEndian.PutUint64(w[:], v)
			buf.Write(w[:])
		}
	}
	return buf.Bytes()
}

func decodeTypeBitmap(payload []byte) map[model.EventKind][]uint64 {
	if len(payload) < 4 {
		return nil
	}
	words := binary.LittleEndian.Uint32(payload[0:4])
	off := 4
	bm := make(map[model.EventKind][]uint64, 6)
	for kind := model.EventKind(0); kind < 6; kind++ {
		bits := make([]uint64, words)
		for i := uint32(0); i < words; i++ {
			if off+8 > len(payload) {
				break
			}
			bits[i] = binary.LittleEndian.Uint64(payload[off : off+8])
			off += 8
		}
		// Kinds with no set bit are left out, as buildTypeBitmap does.
		for _, w := range bits {
			if w != 0 {
				bm[kind] = bits
				break
			}
		}
	}
	return bm
}

func encodeSessions(spans []SessionSpan) []byte {
	buf := make([]byte, 4+len(spans)*12)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(spans)))
	off := 4
	for _, sp := range spans {
		binary.LittleEndian.PutUint32(buf[off:off+4], sp.Session)
		binary.LittleEndian.PutUint32(buf[off+4:off+8], uint32(sp.First))
		binary.LittleEndian.PutUint32(buf[off+8:off+12], uint32(sp.Last))
		off += 12
	}
	return buf
}

func decodeSessions(payload []byte) []SessionSpan {
	if len(payload) < 4 {
		return nil
	}
	count := binary.LittleEndian.Uint32(payload[0:4])
	spans := make([]SessionSpan, 0, count)
	off := 4
	for i := uint32(0); i < count && off+12 <= len(payload); i++ {
		spans = append(spans, SessionSpan{
			Session: binary.LittleEndian.Uint32(payload[off : off+4]),
			First:   model.NodeID(binary.LittleEndian.Uint32(payload[off+4 : off+8])),
			Last:    model.NodeID(binary.LittleEndian.Uint32(payload[off+8 : off+12])),
		})
		off += 12
	}
	return spans
}

func encodeTime(entries []TimeEntry) []byte {
	buf := make([]byte, 4+len(entries)*12)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(entries)))
	off := 4
	for _, e := range entries {
		binary.LittleEndian.PutUint64(buf[off:off+8], uint64(e.Timestamp))
		binary.LittleEndian.PutUint32(buf[off+8:off+12], uint32(e.Node))
		off += 12
	}
	return buf
}

func decodeTime(payload []byte) []TimeEntry {
	if len(payload) < 4 {
		return nil
	}
	count := binary.LittleEndian.Uint32(payload[0:4])
	entries := make([]TimeEntry, 0, count)
	off := 4
	for i := uint32(0); i < count && off+12 <= len(payload); i++ {
		entries = append(entries, TimeEntry{
			Timestamp: int64(binary.LittleEndian.Uint64(payload[off : off+8])),
			Node:      model.NodeID(binary.LittleEndian.Uint32(payload[off+8 : off+12])),
		})
		off += 12
	}
	return entries
}

func encodeCluster(cm *ClusterMap) []byte {
	var buf bytes.Buffer
	var hdr [12]byte
	binary.LittleEndian.PutUint32(hdr[0:4], uint32(cm.K))
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(cm.Dimension))
	binary.LittleEndian.PutUint32(hdr[8:12], uint32(len(cm.Assignment)))
	buf.Write(hdr[:])
	for _, c := range cm.Centroids {
		for _, v := range c {
			var b [4]byte
			binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
			buf.Write(b[:])
		}
	}
	for _, a := range cm.Assignment {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(a))
		buf.Write(b[:])
	}
	return buf.Bytes()
}

func decodeCluster(payload []byte) *ClusterMap {
	if len(payload) < 12 {
		return nil
	}
	k := int(binary.LittleEndian.Uint32(payload[0:4]))
	dim := int(binary.LittleEndian.Uint32(payload[4:8]))
	nodeCount := int(binary.LittleEndian.Uint32(payload[8:12]))
	off := 12
	centroids := make([][]float32, k)
	for c := 0; c < k; c++ {
		row := make([]float32, dim)
		for j := 0; j < dim && off+4 <= len(payload); j++ {
			row[j] = math.Float32frombits(binary.LittleEndian.Uint32(payload[off : off+4]))
			off += 4
		}
		centroids[c] = row
	}
	assignment := make([]int32, nodeCount)
	members := make(map[int][]model.NodeID, k)
	for i := 0; i < nodeCount && off+4 <= len(payload); i++ {
		a := int32(binary.LittleEndian.Uint32(payload[off : off+4]))
		off += 4
		assignment[i] = a
		if a >= 0 {
			members[int(a)] = append(members[int(a)], model.NodeID(i))
		}
	}
	return &ClusterMap{K: k, Dimension: dim, Centroids: centroids, Assignment: assignment, Members: members}
}

func encodeTerm(t *TermIndex) []byte {
	terms := make([]string, 0, len(t.Postings))
	for term := range t.Postings {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	var buf bytes.Buffer
	var count [4]byte
	binary.LittleEndian.PutUint32(count[:], uint32(len(terms)))
	buf.Write(count[:])
	for _, term := range terms {
		postings := t.Postings[term]
		var termHdr [10]byte
		binary.LittleEndian.PutUint16(termHdr[0:2], uint16(len(term)))
		binary.LittleEndian.PutUint32(termHdr[2:6], uint32(t.DocFreq[term]))
		binary.LittleEndian.PutUint32(termHdr[6:10], uint32(len(postings)))
		buf.Write(termHdr[:])
		buf.WriteString(term)
		for _, p := range postings {
			var pbuf [8]byte
			binary.LittleEndian.PutUint32(pbuf[0:4], uint32(p.Node))
			binary.LittleEndian.PutUint32(pbuf[4:8], uint32(p.Freq))
			buf.Write(pbuf[:])
		}
	}
	return buf.Bytes()
}

func decodeTerm(payload []byte) *TermIndex {
	if len(payload) < 4 {
		return nil
	}
	count := binary.LittleEndian.Uint32(payload[0:4])
	off := 4
	postings := make(map[string][]Posting, count)
	docFreq := make(map[string]int, count)
	for i := uint32(0); i < count && off+10 <= len(payload); i++ {
		termLen := int(binary.LittleEndian.Uint16(payload[off : off+2]))
		df := int(binary.LittleEndian.Uint32(payload[off+2 : off+6]))
		postingCount := int(binary.LittleEndian.Uint32(payload[off+6 : off+10]))
		off += 10
		if off+termLen > len(payload) {
			break
		}
		term := string(payload[off : off+termLen])
		off += termLen
		docFreq[term] = df
		list := make([]Posting, 0, postingCount)
		for j := 0; j < postingCount && off+8 <= len(payload); j++ {
			list = append(list, Posting{
				Node: model.NodeID(binary.LittleEndian.Uint32(payload[off : off+4])),
				Freq: int(binary.LittleEndian.Uint32(payload[off+4 : off+8])),
			})
			off += 8
		}
		postings[term] = list
	}
	return &TermIndex{Postings: postings, DocFreq: docFreq}
}

func encodeDocLens(lens []int32) []byte {
	buf := make([]byte, 4+len(lens)*4)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(lens)))
	off := 4
	for _, l := range lens {
		binary.LittleEndian.PutUint32(buf[off:off+4], uint32(l))
		off += 4
	}
	return buf
}

func decodeDocLens(payload []byte) []int32 {
	if len(payload) < 4 {
		return nil
	}
	count := binary.LittleEndian.Uint32(payload[0:4])
	lens := make([]int32, 0, count)
	off := 4
	for i := uint32(0); i < count && off+4 <= len(payload); i++ {
		lens = append(lens, int32(binary.LittleEndian.Uint32(payload[off:off+4])))
		off += 4
	}
	return lens
}
