package amem

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/amem/cognitive"
)

func TestCreateAddLinkGet(t *testing.T) {
	e, err := Create(filepath.Join(t.TempDir(), "engine.amem"), WithDimension(8))
	require.NoError(t, err)

	a, err := e.Add(KindFact, "the sky is blue", 1, 0.9, map[string]string{"source": "observation"})
	require.NoError(t, err)
	b, err := e.Add(KindInference, "the sky reflects the ocean", 1, 0.7, nil)
	require.NoError(t, err)

	_, err = e.Link(b, a, EdgeSupports, 0.8)
	require.NoError(t, err)

	node, ok := e.Get(a)
	require.True(t, ok)
	assert.Equal(t, "the sky is blue", node.Content)

	out := e.Neighbors(b, Forward)
	require.Len(t, out, 1)
	assert.Equal(t, a, out[0].Target)

	stats := e.Stats()
	assert.Equal(t, 2, stats.NodeCount)
	assert.Equal(t, 1, stats.EdgeCount)
	assert.Equal(t, 1, stats.SessionCount)
	assert.Equal(t, 1, stats.PerKind[KindFact])
	assert.Equal(t, 1, stats.PerKind[KindInference])
}

func TestLinkRejectsCyclicSupersedes(t *testing.T) {
	e, err := Create(filepath.Join(t.TempDir(), "engine.amem"), WithDimension(0))
	require.NoError(t, err)

	a, err := e.Add(KindFact, "v1", 1, 0.9, nil)
	require.NoError(t, err)
	b, err := e.Add(KindCorrection, "v2", 1, 0.9, nil)
	require.NoError(t, err)

	_, err = e.Link(b, a, EdgeSupersedes, 1.0)
	require.NoError(t, err)

	_, err = e.Link(a, b, EdgeSupersedes, 1.0)
	require.Error(t, err)
	var kindErr *Error
	require.ErrorAs(t, err, &kindErr)
	assert.Equal(t, ErrCycle, kindErr.Kind)
}

func TestQueryRebuildsIndexAfterMutation(t *testing.T) {
	e, err := Create(filepath.Join(t.TempDir(), "engine.amem"), WithDimension(0))
	require.NoError(t, err)

	_, err = e.Add(KindFact, "first", 1, 0.9, nil)
	require.NoError(t, err)

	ids := e.Query().ByType(KindFact)
	assert.Len(t, ids, 1)

	_, err = e.Add(KindFact, "second", 1, 0.9, nil)
	require.NoError(t, err)

	ids = e.Query().ByType(KindFact)
	assert.Len(t, ids, 2, "index should reflect the node added after the first Query() call")
}

func TestCloseAndReopenRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.amem")
	e, err := Create(path, WithDimension(4))
	require.NoError(t, err)

	_, err = e.Add(KindFact, "durable fact", 2, 0.9, map[string]string{"k": "v"})
	require.NoError(t, err)
	require.NoError(t, e.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	stats := reopened.Stats()
	assert.Equal(t, 1, stats.NodeCount)
	assert.Equal(t, 1, stats.SessionCount)
}

func TestCentralityAndShortestPath(t *testing.T) {
	e, err := Create(filepath.Join(t.TempDir(), "engine.amem"), WithDimension(0))
	require.NoError(t, err)

	a, err := e.Add(KindFact, "a", 1, 0.9, nil)
	require.NoError(t, err)
	b, err := e.Add(KindFact, "b", 1, 0.9, nil)
	require.NoError(t, err)
	c, err := e.Add(KindFact, "c", 1, 0.9, nil)
	require.NoError(t, err)
	_, err = e.Link(a, b, EdgeRelatedTo, 1.0)
	require.NoError(t, err)
	_, err = e.Link(b, c, EdgeRelatedTo, 1.0)
	require.NoError(t, err)

	scores := e.Centrality(CentralityDegree)
	assert.Greater(t, scores[b], 0.0)

	path, _, err := e.ShortestPath(a, c, PathBFS)
	require.NoError(t, err)
	assert.Equal(t, []NodeID{a, b, c}, path)
}

func TestEmbedReachesSimilarAndHybridFromText(t *testing.T) {
	e, err := Create(filepath.Join(t.TempDir(), "engine.amem"), WithDimension(8))
	require.NoError(t, err)

	a, err := e.Add(KindFact, "the sky is blue over the ocean", 1, 0.9, nil)
	require.NoError(t, err)
	_, err = e.Add(KindFact, "the recipe calls for two eggs", 1, 0.9, nil)
	require.NoError(t, err)

	vector := e.Embed("the sky is blue over the ocean")
	require.Len(t, vector, 8)

	similar := e.Query().Similar(vector, 1)
	require.Len(t, similar, 1)
	assert.Equal(t, a, similar[0].Node)

	fused := e.Query().Hybrid("sky ocean", vector, 1)
	require.Len(t, fused, 1)
	assert.Equal(t, a, fused[0].Node)
}

func TestEmbedReturnsNilWhenDimensionIsZero(t *testing.T) {
	e, err := Create(filepath.Join(t.TempDir(), "engine.amem"), WithDimension(0))
	require.NoError(t, err)

	assert.Nil(t, e.Embed("anything"))
}

func TestMaintenanceAndCognitiveAreWired(t *testing.T) {
	e, err := Create(filepath.Join(t.TempDir(), "engine.amem"), WithDimension(0))
	require.NoError(t, err)

	report := e.Cognitive().Consolidate(cognitive.ConsolidateOptions{Now: 1000})
	assert.Empty(t, report.Duplicates)

	proj := e.Maintenance()
	require.NotNil(t, proj)
}
