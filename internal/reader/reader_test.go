package reader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/amem/internal/codec"
	"github.com/orneryd/amem/internal/graphmem"
	"github.com/orneryd/amem/internal/model"
)

func buildSampleFile(t *testing.T) string {
	t.Helper()
	g := graphmem.New(3)
	_, err := g.AddNode(model.KindFact, 1, 0.9, 100, "the sky is blue", map[string]string{"source": "obs"}, []float32{1, 0, 0})
	require.NoError(t, err)
	_, err = g.AddNode(model.KindInference, 1, 0.7, 101, "so glass looks blue too", nil, []float32{0.9, 0.1, 0})
	require.NoError(t, err)
	_, err = g.AddEdge(0, 1, model.EdgeSupports, 0.8)
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "sample.amem")
	require.NoError(t, codec.WriteFile(path, g, codec.DefaultEncodeConfig()))
	return path
}

func TestOpenAndReadNode(t *testing.T) {
	path := buildSampleFile(t)
	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, 2, r.NodeCount())
	assert.Equal(t, 3, r.Dimension())
	assert.Equal(t, 1, r.EdgeCount())

	n0, ok := r.Node(0)
	require.True(t, ok)
	assert.Equal(t, "the sky is blue", n0.Content)
	assert.Equal(t, "obs", n0.Metadata["source"])
	assert.Equal(t, []float32{1, 0, 0}, n0.Vector)

	n1, ok := r.Node(1)
	require.True(t, ok)
	assert.Equal(t, model.KindInference, n1.Kind)
	assert.Nil(t, n1.Metadata)
}

func TestNodeOutOfRange(t *testing.T) {
	path := buildSampleFile(t)
	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	_, ok := r.Node(99)
	assert.False(t, ok)
}

func TestNodeCacheHitReturnsSameContent(t *testing.T) {
	path := buildSampleFile(t)
	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	first, _ := r.Node(0)
	second, _ := r.Node(0)
	assert.Equal(t, first.Content, second.Content)
}

func TestOutEdgesAndInEdges(t *testing.T) {
	path := buildSampleFile(t)
	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	out := r.OutEdges(0)
	require.Len(t, out, 1)
	assert.Equal(t, model.NodeID(1), out[0].Target)

	in := r.InEdges(1)
	require.Len(t, in, 1)
	assert.Equal(t, model.NodeID(0), in[0].Source)
}

func TestOutEdgesAndInEdgesWithManyNodes(t *testing.T) {
	g := graphmem.New(0)
	ids := make([]model.NodeID, 6)
	for i := range ids {
		id, err := g.AddNode(model.KindFact, 1, 0.9, int64(100+i), "n", nil, nil)
		require.NoError(t, err)
		ids[i] = id
	}
	// Hub node 3 has both incoming and outgoing edges to several others,
	// added out of any sorted order.
	_, err := g.AddEdge(ids[5], ids[3], model.EdgeSupports, 0.5)
	require.NoError(t, err)
	_, err = g.AddEdge(ids[3], ids[0], model.EdgeSupports, 0.5)
	require.NoError(t, err)
	_, err = g.AddEdge(ids[1], ids[3], model.EdgeRelatedTo, 0.5)
	require.NoError(t, err)
	_, err = g.AddEdge(ids[3], ids[4], model.EdgeCausedBy, 0.5)
	require.NoError(t, err)
	_, err = g.AddEdge(ids[2], ids[0], model.EdgeSupports, 0.5)
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "hub.amem")
	require.NoError(t, codec.WriteFile(path, g, codec.DefaultEncodeConfig()))

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	out := r.OutEdges(ids[3])
	require.Len(t, out, 2)
	targets := map[model.NodeID]bool{out[0].Target: true, out[1].Target: true}
	assert.True(t, targets[ids[0]])
	assert.True(t, targets[ids[4]])

	in := r.InEdges(ids[3])
	require.Len(t, in, 2)
	sources := map[model.NodeID]bool{in[0].Source: true, in[1].Source: true}
	assert.True(t, sources[ids[5]])
	assert.True(t, sources[ids[1]])

	assert.Empty(t, r.OutEdges(ids[0]))
	assert.Len(t, r.InEdges(ids[0]), 2)
}

func TestIndexPresent(t *testing.T) {
	path := buildSampleFile(t)
	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	require.NotNil(t, r.Index())
}

func TestOpenRejectsMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "does-not-exist.amem"))
	require.Error(t, err)
}

func TestOpenRejectsTruncatedFile(t *testing.T) {
	path := buildSampleFile(t)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	truncated := filepath.Join(t.TempDir(), "truncated.amem")
	require.NoError(t, os.WriteFile(truncated, data[:codec.HeaderSize+4], 0o644))

	_, err = Open(truncated)
	require.Error(t, err)
}
