package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/amem/internal/graphmem"
	"github.com/orneryd/amem/internal/model"
)

func buildSampleGraph(t *testing.T, dimension int) *graphmem.Graph {
	t.Helper()
	g := graphmem.New(dimension)
	var vec []float32
	if dimension > 0 {
		vec = make([]float32, dimension)
		vec[0] = 1
	}
	a, err := g.AddNode(model.KindFact, 1, 0.9, 1000, "the sky is blue", map[string]string{"source": "observation"}, vec)
	require.NoError(t, err)
	b, err := g.AddNode(model.KindInference, 1, 0.7, 1001, "the sky reflects the ocean", nil, vec)
	require.NoError(t, err)
	_, err = g.AddEdge(a, b, model.EdgeSupports, 0.5)
	require.NoError(t, err)
	return g
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, dim := range []int{0, 4} {
		g := buildSampleGraph(t, dim)
		data, err := Encode(g, DefaultEncodeConfig())
		require.NoError(t, err)

		decoded, set, err := Decode(data)
		require.NoError(t, err)
		assert.Equal(t, g.NodeCount(), decoded.NodeCount())
		assert.Equal(t, g.EdgeCount(), decoded.EdgeCount())

		for i := 0; i < g.NodeCount(); i++ {
			want, _ := g.Node(model.NodeID(i))
			got, ok := decoded.Node(model.NodeID(i))
			require.True(t, ok)
			assert.Equal(t, want.Kind, got.Kind)
			assert.Equal(t, want.Content, got.Content)
			assert.Equal(t, want.Confidence, got.Confidence)
			assert.Equal(t, want.Metadata, got.Metadata)
			assert.Equal(t, want.Vector, got.Vector)
		}
		if dim > 0 {
			require.NotNil(t, set)
		}
	}
}

func TestEncodeSortsEdgesBySourceTargetKind(t *testing.T) {
	g := graphmem.New(0)
	a, err := g.AddNode(model.KindFact, 1, 0.9, 100, "a", nil, nil)
	require.NoError(t, err)
	b, err := g.AddNode(model.KindFact, 1, 0.9, 101, "b", nil, nil)
	require.NoError(t, err)
	c, err := g.AddNode(model.KindFact, 1, 0.9, 102, "c", nil, nil)
	require.NoError(t, err)

	// Added out of canonical order: (b,c) then (a,b) then (a,c).
	_, err = g.AddEdge(b, c, model.EdgeSupports, 0.5)
	require.NoError(t, err)
	_, err = g.AddEdge(a, b, model.EdgeSupports, 0.5)
	require.NoError(t, err)
	_, err = g.AddEdge(a, c, model.EdgeRelatedTo, 0.5)
	require.NoError(t, err)

	data, err := Encode(g, DefaultEncodeConfig())
	require.NoError(t, err)

	decoded, _, err := Decode(data)
	require.NoError(t, err)

	var onDisk []model.Edge
	for i := 0; i < decoded.EdgeCount(); i++ {
		rec, err := ReadEdgeRecord(data, headerFrom(t, data), i)
		require.NoError(t, err)
		onDisk = append(onDisk, model.Edge{Source: rec.Source, Target: rec.Target, Kind: rec.Kind, Weight: rec.Weight})
	}

	require.Len(t, onDisk, 3)
	assert.Equal(t, a, onDisk[0].Source)
	assert.Equal(t, b, onDisk[0].Target)
	assert.Equal(t, a, onDisk[1].Source)
	assert.Equal(t, c, onDisk[1].Target)
	assert.Equal(t, b, onDisk[2].Source)
	assert.Equal(t, c, onDisk[2].Target)
}

func TestEncodeIsByteExactRegardlessOfInsertionOrder(t *testing.T) {
	build := func(first, second func(g *graphmem.Graph, a, b, c model.NodeID)) []byte {
		g := graphmem.New(0)
		a, _ := g.AddNode(model.KindFact, 1, 0.9, 100, "a", nil, nil)
		b, _ := g.AddNode(model.KindFact, 1, 0.9, 101, "b", nil, nil)
		c, _ := g.AddNode(model.KindFact, 1, 0.9, 102, "c", nil, nil)
		first(g, a, b, c)
		second(g, a, b, c)
		data, err := Encode(g, DefaultEncodeConfig())
		require.NoError(t, err)
		return data
	}

	forward := build(
		func(g *graphmem.Graph, a, b, c model.NodeID) { g.AddEdge(a, b, model.EdgeSupports, 0.5) },
		func(g *graphmem.Graph, a, b, c model.NodeID) { g.AddEdge(b, c, model.EdgeSupports, 0.5) },
	)
	reversed := build(
		func(g *graphmem.Graph, a, b, c model.NodeID) { g.AddEdge(b, c, model.EdgeSupports, 0.5) },
		func(g *graphmem.Graph, a, b, c model.NodeID) { g.AddEdge(a, b, model.EdgeSupports, 0.5) },
	)

	assert.Equal(t, forward, reversed, "edge insertion order must not affect the encoded bytes")
}

func headerFrom(t *testing.T, data []byte) Header {
	t.Helper()
	h, err := DecodeHeader(data)
	require.NoError(t, err)
	return h
}

func TestEncodeCompressesLargeContent(t *testing.T) {
	g := graphmem.New(0)
	big := make([]byte, DefaultCompressionThreshold+1)
	for i := range big {
		big[i] = 'a'
	}
	_, err := g.AddNode(model.KindFact, 1, 1, 1, string(big), nil, nil)
	require.NoError(t, err)

	data, err := Encode(g, DefaultEncodeConfig())
	require.NoError(t, err)
	h, err := unmarshalHeader(data[:HeaderSize])
	require.NoError(t, err)
	assert.True(t, h.Compressed())

	decoded, _, err := Decode(data)
	require.NoError(t, err)
	got, ok := decoded.Node(0)
	require.True(t, ok)
	assert.Equal(t, string(big), got.Content)
}

func TestDecodeRejectsTruncatedFile(t *testing.T) {
	g := buildSampleGraph(t, 0)
	data, err := Encode(g, DefaultEncodeConfig())
	require.NoError(t, err)

	_, _, err = Decode(data[:HeaderSize+4])
	require.Error(t, err)
	var amErr *model.Error
	require.ErrorAs(t, err, &amErr)
	assert.Equal(t, model.KindTruncated, amErr.Kind)
}

func TestDecodeRejectsFutureVersion(t *testing.T) {
	g := buildSampleGraph(t, 0)
	data, err := Encode(g, DefaultEncodeConfig())
	require.NoError(t, err)

	h, err := unmarshalHeader(data[:HeaderSize])
	require.NoError(t, err)
	h.Version = CurrentVersion + 1
	copy(data[:HeaderSize], marshalHeader(h))

	_, _, err = Decode(data)
	require.Error(t, err)
	var amErr *model.Error
	require.ErrorAs(t, err, &amErr)
	assert.Equal(t, model.KindVersionUnsupported, amErr.Kind)
}

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{
		Version: CurrentVersion, Flags: FlagHasVectors | FlagCompressed,
		NodeCount: 3, EdgeCount: 2, Dimension: 128, SessionCount: 1,
		ContentOffset: 500, ContentLength: 200, VectorOffset: 700, IndexOffset: 900,
		ContentUncompressed: 4096,
	}
	buf := marshalHeader(h)
	assert.Len(t, buf, HeaderSize)
	got, err := unmarshalHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, h, got)
}

func TestUnmarshalHeaderRejectsBadMagic(t *testing.T) {
	buf := make([]byte, HeaderSize)
	_, err := unmarshalHeader(buf)
	require.Error(t, err)
	var amErr *model.Error
	require.ErrorAs(t, err, &amErr)
	assert.Equal(t, model.KindFormatInvalid, amErr.Kind)
}
