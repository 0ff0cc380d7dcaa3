package graphmem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/amem/internal/model"
)

func TestAddNodeAssignsMonotonicIDs(t *testing.T) {
	g := New(0)
	a, err := g.AddNode(model.KindFact, 1, 0.5, 100, "first", nil, nil)
	require.NoError(t, err)
	b, err := g.AddNode(model.KindFact, 1, 0.5, 101, "second", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, model.NodeID(0), a)
	assert.Equal(t, model.NodeID(1), b)
	assert.Equal(t, 2, g.NodeCount())
}

func TestAddNodeRejectsOutOfRangeConfidence(t *testing.T) {
	g := New(0)
	_, err := g.AddNode(model.KindFact, 1, 1.5, 100, "x", nil, nil)
	require.Error(t, err)
	var amErr *model.Error
	require.ErrorAs(t, err, &amErr)
	assert.Equal(t, model.KindRangeViolation, amErr.Kind)
	assert.Equal(t, 0, g.NodeCount())
}

func TestAddNodeRejectsDimensionMismatch(t *testing.T) {
	g := New(4)
	_, err := g.AddNode(model.KindFact, 1, 0.5, 100, "x", nil, []float32{1, 2})
	require.Error(t, err)
	var amErr *model.Error
	require.ErrorAs(t, err, &amErr)
	assert.Equal(t, model.KindDimensionMismatch, amErr.Kind)
}

func TestAddNodeRejectsVectorWithNoDimensionConfigured(t *testing.T) {
	g := New(0)
	_, err := g.AddNode(model.KindFact, 1, 0.5, 100, "x", nil, []float32{1, 2})
	require.Error(t, err)
	var amErr *model.Error
	require.ErrorAs(t, err, &amErr)
	assert.Equal(t, model.KindDimensionMismatch, amErr.Kind)
}

func TestAddEdgeRejectsUnknownEndpoints(t *testing.T) {
	g := New(0)
	a, _ := g.AddNode(model.KindFact, 1, 0.5, 100, "a", nil, nil)
	_, err := g.AddEdge(a, 99, model.EdgeSupports, 0.5)
	require.Error(t, err)
	var amErr *model.Error
	require.ErrorAs(t, err, &amErr)
	assert.Equal(t, model.KindEdgeEndpointInvalid, amErr.Kind)
}

func TestAddEdgeRejectsOutOfRangeWeight(t *testing.T) {
	g := New(0)
	a, _ := g.AddNode(model.KindFact, 1, 0.5, 100, "a", nil, nil)
	b, _ := g.AddNode(model.KindFact, 1, 0.5, 101, "b", nil, nil)
	_, err := g.AddEdge(a, b, model.EdgeSupports, 1.5)
	require.Error(t, err)
	var amErr *model.Error
	require.ErrorAs(t, err, &amErr)
	assert.Equal(t, model.KindRangeViolation, amErr.Kind)
}

func TestSupersedesCycleRejected(t *testing.T) {
	g := New(0)
	a, _ := g.AddNode(model.KindFact, 1, 0.5, 100, "a", nil, nil)
	b, _ := g.AddNode(model.KindFact, 1, 0.5, 101, "b", nil, nil)
	c, _ := g.AddNode(model.KindFact, 1, 0.5, 102, "c", nil, nil)

	_, err := g.AddEdge(a, b, model.EdgeSupersedes, 1)
	require.NoError(t, err)
	_, err = g.AddEdge(b, c, model.EdgeSupersedes, 1)
	require.NoError(t, err)

	// c already reachable from a via supersedes; closing the loop must fail.
	_, err = g.AddEdge(c, a, model.EdgeSupersedes, 1)
	require.Error(t, err)
	var amErr *model.Error
	require.ErrorAs(t, err, &amErr)
	assert.Equal(t, model.KindCycle, amErr.Kind)
}

func TestSupersedesSelfLoopRejected(t *testing.T) {
	g := New(0)
	a, _ := g.AddNode(model.KindFact, 1, 0.5, 100, "a", nil, nil)
	_, err := g.AddEdge(a, a, model.EdgeSupersedes, 1)
	require.Error(t, err)
	var amErr *model.Error
	require.ErrorAs(t, err, &amErr)
	assert.Equal(t, model.KindCycle, amErr.Kind)
}

func TestOutEdgesAndInEdges(t *testing.T) {
	g := New(0)
	a, _ := g.AddNode(model.KindFact, 1, 0.5, 100, "a", nil, nil)
	b, _ := g.AddNode(model.KindFact, 1, 0.5, 101, "b", nil, nil)
	_, err := g.AddEdge(a, b, model.EdgeSupports, 0.9)
	require.NoError(t, err)

	out := g.OutEdges(a)
	require.Len(t, out, 1)
	assert.Equal(t, b, out[0].Target)

	in := g.InEdges(b)
	require.Len(t, in, 1)
	assert.Equal(t, a, in[0].Source)

	assert.Empty(t, g.OutEdges(b))
	assert.Empty(t, g.InEdges(a))
}

func TestSessionTracking(t *testing.T) {
	g := New(0)
	a, _ := g.AddNode(model.KindFact, 7, 0.5, 100, "a", nil, nil)
	b, _ := g.AddNode(model.KindFact, 7, 0.5, 101, "b", nil, nil)
	_, _ = g.AddNode(model.KindFact, 8, 0.5, 102, "c", nil, nil)

	assert.Equal(t, 2, g.SessionCount())
	first, last, ok := g.SessionRange(7)
	require.True(t, ok)
	assert.Equal(t, a, first)
	assert.Equal(t, b, last)
	assert.Equal(t, []uint32{7, 8}, g.Sessions())
}

func TestNodeReturnsDefensiveMetadataCopy(t *testing.T) {
	g := New(0)
	a, _ := g.AddNode(model.KindFact, 1, 0.5, 100, "a", map[string]string{"k": "v"}, nil)
	got, ok := g.Node(a)
	require.True(t, ok)
	got.Metadata["k"] = "corrupted"

	again, _ := g.Node(a)
	assert.Equal(t, "v", again.Metadata["k"])
}

func TestTouchIncrementsAccessCount(t *testing.T) {
	g := New(0)
	a, _ := g.AddNode(model.KindFact, 1, 0.5, 100, "a", nil, nil)
	g.Touch(a)
	g.Touch(a)
	g.Touch(a)
	n, _ := g.Node(a)
	assert.Equal(t, "3", n.Metadata["_access_count"])
}

func TestDirtyFlag(t *testing.T) {
	g := New(0)
	assert.False(t, g.Dirty())
	_, _ = g.AddNode(model.KindFact, 1, 0.5, 100, "a", nil, nil)
	assert.True(t, g.Dirty())
	g.ClearDirty()
	assert.False(t, g.Dirty())
}

func TestEdgesReturnsInsertionOrder(t *testing.T) {
	g := New(0)
	a, _ := g.AddNode(model.KindFact, 1, 0.5, 100, "a", nil, nil)
	b, _ := g.AddNode(model.KindFact, 1, 0.5, 101, "b", nil, nil)
	c, _ := g.AddNode(model.KindFact, 1, 0.5, 102, "c", nil, nil)
	_, _ = g.AddEdge(b, c, model.EdgeSupports, 0.5)
	_, _ = g.AddEdge(a, b, model.EdgeSupports, 0.5)

	edges := g.Edges()
	require.Len(t, edges, 2)
	assert.Equal(t, b, edges[0].Source)
	assert.Equal(t, a, edges[1].Source)
}

var _ model.View = (*Graph)(nil)
