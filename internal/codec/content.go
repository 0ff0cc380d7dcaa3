package codec

import (
	"bytes"
	"encoding/json"
	"io"

	lz4 "github.com/pierrec/lz4/v4"

	"github.com/orneryd/amem/internal/model"
)

// contentSpan records where one node's content or metadata JSON landed in
// the decompressed content block.
type contentSpan struct {
	offset uint64
	length uint32
}

// buildContentBlock concatenates every node's content, followed by every
// node's metadata JSON (in the same node-id order), and returns the raw
// (uncompressed) bytes plus the per-node spans needed to fill in node
// records. Nodes with empty metadata get no metadata span
// (model.NoMetadata sentinel).
func buildContentBlock(nodes []model.Node) (raw []byte, contentSpans, metaSpans []contentSpan, err error) {
	var buf bytes.Buffer
	contentSpans = make([]contentSpan, len(nodes))
	for i, n := range nodes {
		contentSpans[i] = contentSpan{offset: uint64(buf.Len()), length: uint32(len(n.Content))}
		buf.WriteString(n.Content)
	}
	metaSpans = make([]contentSpan, len(nodes))
	for i, n := range nodes {
		if len(n.Metadata) == 0 {
			metaSpans[i] = contentSpan{offset: model.NoMetadata, length: 0}
			continue
		}
		encoded, encErr := json.Marshal(n.Metadata)
		if encErr != nil {
			return nil, nil, nil, model.Wrap(model.KindIO, "encode node metadata", encErr)
		}
		metaSpans[i] = contentSpan{offset: uint64(buf.Len()), length: uint32(len(encoded))}
		buf.Write(encoded)
	}
	return buf.Bytes(), contentSpans, metaSpans, nil
}

// compressContent LZ4-frame compresses raw if it exceeds threshold bytes
// or force is set; otherwise it is returned unchanged with compressed=false.
func compressContent(raw []byte, threshold int, force bool) (out []byte, compressed bool, err error) {
	if len(raw) <= threshold && !force {
		return raw, false, nil
	}
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return nil, false, model.Wrap(model.KindIO, "lz4 compress content block", err)
	}
	if err := zw.Close(); err != nil {
		return nil, false, model.Wrap(model.KindIO, "lz4 flush content block", err)
	}
	return buf.Bytes(), true, nil
}

// decompressContent reverses compressContent given the header's flags and
// declared uncompressed size.
func decompressContent(stored []byte, h Header) ([]byte, error) {
	if !h.Compressed() {
		return stored, nil
	}
	zr := lz4.NewReader(bytes.NewReader(stored))
	out := make([]byte, 0, h.ContentUncompressed)
	buf := bytes.NewBuffer(out)
	if _, err := io.Copy(buf, zr); err != nil {
		return nil, model.Wrap(model.KindIO, "lz4 decompress content block", err)
	}
	return buf.Bytes(), nil
}
