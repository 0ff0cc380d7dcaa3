package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/amem/internal/graphmem"
	"github.com/orneryd/amem/internal/index"
	"github.com/orneryd/amem/internal/model"
)

func buildGraph(t *testing.T) *graphmem.Graph {
	t.Helper()
	g := graphmem.New(4)
	vec := func(x float32) []float32 { return []float32{x, 0, 0, 0} }

	_, err := g.AddNode(model.KindFact, 1, 0.9, 100, "the sky is blue over the ocean", nil, vec(1))
	require.NoError(t, err)
	_, err = g.AddNode(model.KindInference, 1, 0.7, 101, "the ocean reflects the blue sky", nil, vec(0.9))
	require.NoError(t, err)
	_, err = g.AddNode(model.KindDecision, 2, 0.5, 102, "choose the fastest route home", nil, vec(-1))
	require.NoError(t, err)
	_, err = g.AddEdge(0, 1, model.EdgeSupports, 0.8)
	require.NoError(t, err)
	_, err = g.AddEdge(1, 2, model.EdgeCausedBy, 0.6)
	require.NoError(t, err)
	return g
}

func TestByTypeMatchesBothPaths(t *testing.T) {
	g := buildGraph(t)
	set := index.Build(g, index.DefaultBuildConfig())

	linear := New(g).ByType(model.KindFact)
	indexed := New(g).WithIndex(set).ByType(model.KindFact)
	assert.Equal(t, linear, indexed)
	assert.Equal(t, []model.NodeID{0}, linear)
}

func TestBySessionMatchesBothPaths(t *testing.T) {
	g := buildGraph(t)
	set := index.Build(g, index.DefaultBuildConfig())

	linear := New(g).BySession(1)
	indexed := New(g).WithIndex(set).BySession(1)
	assert.Equal(t, linear, indexed)
	assert.Equal(t, []model.NodeID{0, 1}, linear)
}

func TestInTimeRangeMatchesBothPaths(t *testing.T) {
	g := buildGraph(t)
	set := index.Build(g, index.DefaultBuildConfig())

	linear := New(g).InTimeRange(101, 200)
	indexed := New(g).WithIndex(set).InTimeRange(101, 200)
	assert.Equal(t, linear, indexed)
	assert.Equal(t, []model.NodeID{1, 2}, linear)
}

func TestTraverseForward(t *testing.T) {
	g := buildGraph(t)
	got := New(g).Traverse(0, TraverseOptions{Direction: model.Forward})
	assert.Equal(t, []model.NodeID{0, 1, 2}, got.Visited)
	require.Len(t, got.Edges, 2)
	assert.Equal(t, 2, got.MaxDepth)
}

func TestTraverseRespectsMaxDepth(t *testing.T) {
	g := buildGraph(t)
	got := New(g).Traverse(0, TraverseOptions{Direction: model.Forward, MaxDepth: 1})
	assert.Equal(t, []model.NodeID{0, 1}, got.Visited)
	assert.Equal(t, 1, got.MaxDepth)
}

func TestTraverseFiltersByEdgeKind(t *testing.T) {
	g := buildGraph(t)
	got := New(g).Traverse(0, TraverseOptions{Direction: model.Forward, Kinds: []model.EdgeKind{model.EdgeCausedBy}})
	assert.Equal(t, []model.NodeID{0}, got.Visited)
	assert.Empty(t, got.Edges)
	assert.Equal(t, 0, got.MaxDepth)
}

func TestTraverseFromIsolatedNodeReturnsJustStartAtDepthZero(t *testing.T) {
	g := graphmem.New(0)
	solo, err := g.AddNode(model.KindFact, 1, 0.9, 100, "solo", nil, nil)
	require.NoError(t, err)

	got := New(g).Traverse(solo, TraverseOptions{Direction: model.Forward})
	assert.Equal(t, []model.NodeID{solo}, got.Visited)
	assert.Empty(t, got.Edges)
	assert.Equal(t, 0, got.MaxDepth)
}

func TestContext(t *testing.T) {
	g := buildGraph(t)
	got := New(g).Context(1)
	assert.ElementsMatch(t, []model.NodeID{0, 1, 2}, got.Visited)
}

func TestSimilarBruteForceAndClusteredAgreeOnTop1(t *testing.T) {
	g := buildGraph(t)
	set := index.Build(g, index.BuildConfig{Cluster: true, ClusterCount: 2})

	query := []float32{1, 0, 0, 0}
	brute := New(g).Similar(query, 1)
	clustered := New(g).WithIndex(set).Similar(query, 1)
	require.Len(t, brute, 1)
	require.Len(t, clustered, 1)
	assert.Equal(t, model.NodeID(0), brute[0].Node)
}

func TestTextSearchFastAndSlowAgree(t *testing.T) {
	g := buildGraph(t)
	set := index.Build(g, index.DefaultBuildConfig())

	fast := New(g).WithIndex(set).TextSearch("ocean sky", 10)
	slow := New(g).TextSearch("ocean sky", 10)
	require.Equal(t, len(fast), len(slow))
	for i := range fast {
		assert.Equal(t, fast[i].Node, slow[i].Node)
	}
}

func TestHybridCombinesBothRankings(t *testing.T) {
	g := buildGraph(t)
	set := index.Build(g, index.DefaultBuildConfig())
	got := New(g).WithIndex(set).Hybrid("ocean sky", []float32{1, 0, 0, 0}, 3)
	require.NotEmpty(t, got)
	// node 0 matches both the text query and the similarity query, so it
	// should rank first.
	assert.Equal(t, model.NodeID(0), got[0].Node)
}

func TestResolveFollowsSupersedesToTerminal(t *testing.T) {
	g := graphmem.New(0)
	a, _ := g.AddNode(model.KindFact, 1, 0.5, 100, "a", nil, nil)
	b, _ := g.AddNode(model.KindFact, 1, 0.5, 101, "b", nil, nil)
	c, _ := g.AddNode(model.KindFact, 1, 0.5, 102, "c", nil, nil)
	_, err := g.AddEdge(a, b, model.EdgeSupersedes, 1)
	require.NoError(t, err)
	_, err = g.AddEdge(b, c, model.EdgeSupersedes, 1)
	require.NoError(t, err)

	got, err := New(g).Resolve(a)
	require.NoError(t, err)
	assert.Equal(t, c, got)

	got, err = New(g).Resolve(c)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

// buildImpactGraph mirrors the format's own worked example: facts F1, F2;
// inference I with edges I-supports->F1 and I-supports->F2; decision D
// with D-caused-by->I. impact(F1) and impact(F2) must each surface {I,
// D}; impact(I) must surface {D}.
func buildImpactGraph(t *testing.T) (*graphmem.Graph, model.NodeID, model.NodeID, model.NodeID, model.NodeID) {
	t.Helper()
	g := graphmem.New(0)
	f1, err := g.AddNode(model.KindFact, 1, 0.9, 100, "f1", nil, nil)
	require.NoError(t, err)
	f2, err := g.AddNode(model.KindFact, 1, 0.9, 101, "f2", nil, nil)
	require.NoError(t, err)
	i, err := g.AddNode(model.KindInference, 1, 0.8, 102, "i", nil, nil)
	require.NoError(t, err)
	d, err := g.AddNode(model.KindDecision, 1, 0.7, 103, "d", nil, nil)
	require.NoError(t, err)
	_, err = g.AddEdge(i, f1, model.EdgeSupports, 0.9)
	require.NoError(t, err)
	_, err = g.AddEdge(i, f2, model.EdgeSupports, 0.9)
	require.NoError(t, err)
	_, err = g.AddEdge(d, i, model.EdgeCausedBy, 0.9)
	require.NoError(t, err)
	return g, f1, f2, i, d
}

func TestImpactPartitionsByKind(t *testing.T) {
	g, f1, f2, i, d := buildImpactGraph(t)
	src := New(g)

	impactF1 := src.Impact(f1)
	assert.ElementsMatch(t, []model.NodeID{i}, impactF1[model.KindInference])
	assert.ElementsMatch(t, []model.NodeID{d}, impactF1[model.KindDecision])

	impactF2 := src.Impact(f2)
	assert.ElementsMatch(t, []model.NodeID{i}, impactF2[model.KindInference])
	assert.ElementsMatch(t, []model.NodeID{d}, impactF2[model.KindDecision])

	impactI := src.Impact(i)
	assert.ElementsMatch(t, []model.NodeID{d}, impactI[model.KindDecision])
	assert.Empty(t, impactI[model.KindInference])
}
