package maintenance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/amem/internal/capture"
	"github.com/orneryd/amem/internal/graphmem"
	"github.com/orneryd/amem/internal/model"
)

func TestProjectStorageBudgetTriggersRolloutBeforeExceeding(t *testing.T) {
	proj := ProjectStorageBudget(800_000_000, BudgetOptions{
		TargetBytes:        1_000_000_000,
		HorizonDays:        7,
		DailyMutationBytes: 20_000_000,
	})

	assert.False(t, proj.ExceedsBudget)
	assert.True(t, proj.TriggersRollup)
	assert.Equal(t, int64(940_000_000), proj.ProjectedBytes)
}

func TestProjectStorageBudgetExceeds(t *testing.T) {
	proj := ProjectStorageBudget(900_000_000, BudgetOptions{
		TargetBytes:        1_000_000_000,
		HorizonDays:        10,
		DailyMutationBytes: 20_000_000,
	})

	assert.True(t, proj.ExceedsBudget)
	assert.True(t, proj.TriggersRollup)
}

func TestProjectStorageBudgetUsesDefaultRolloutFraction(t *testing.T) {
	proj := ProjectStorageBudget(0, BudgetOptions{
		TargetBytes:        1_000_000_000,
		HorizonDays:        1,
		DailyMutationBytes: 0,
	})

	assert.Equal(t, float64(1_000_000_000)*DefaultRolloutFraction, proj.ThresholdBytes)
}

func buildRollupGraph(t *testing.T) *graphmem.Graph {
	t.Helper()
	g := graphmem.New(0)
	f1, err := g.AddNode(model.KindFact, 1, 0.9, 100, "f1", nil, nil)
	require.NoError(t, err)
	f2, err := g.AddNode(model.KindFact, 1, 0.9, 101, "f2", nil, nil)
	require.NoError(t, err)
	i, err := g.AddNode(model.KindInference, 1, 0.8, 102, "i", nil, nil)
	require.NoError(t, err)
	_, err = g.AddEdge(i, f1, model.EdgeSupports, 0.9)
	require.NoError(t, err)
	_, err = g.AddEdge(i, f2, model.EdgeSupports, 0.9)
	require.NoError(t, err)
	// f1 and f2 have no outgoing edges: they should be skipped, not linked.
	require.NoError(t, g.UpdateMetadata(i, SessionStatusKey, SessionStatusCompleted))
	return g
}

func TestRollupSkipsSessionsNotMarkedCompleted(t *testing.T) {
	g := graphmem.New(0)
	_, err := g.AddNode(model.KindFact, 1, 0.9, 100, "f1", nil, nil)
	require.NoError(t, err)

	results, err := New(g).Rollup(RollupOptions{Now: 100000, AgeThreshold: 0})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRollupSkipsSessionsTooYoung(t *testing.T) {
	g := buildRollupGraph(t)

	results, err := New(g).Rollup(RollupOptions{Now: 102, AgeThreshold: 1000})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRollupProducesEpisodeAndLinksConstituents(t *testing.T) {
	g := buildRollupGraph(t)

	results, err := New(g).Rollup(RollupOptions{Now: 100000, AgeThreshold: 10})
	require.NoError(t, err)
	require.Len(t, results, 1)

	result := results[0]
	assert.Equal(t, uint32(1), result.Session)

	episode, ok := g.Node(result.EpisodeNode)
	require.True(t, ok)
	assert.Equal(t, model.KindEpisode, episode.Kind)
	assert.Contains(t, episode.Content, "facts=2")
	assert.Contains(t, episode.Content, "inferences=1")

	// Only i has outgoing edges (i->f1, i->f2); f1 and f2 have none.
	// Confirm the linked/skipped split matches outdegree.
	assert.Contains(t, result.LinkedNodes, model.NodeID(2)) // the inference node, id 2 (0-indexed: f1=0,f2=1,i=2)
	assert.NotEmpty(t, result.SkippedNodes)

	var partOfToEpisode bool
	for _, e := range g.OutEdges(model.NodeID(2)) {
		if e.Kind == model.EdgePartOf && e.Target == result.EpisodeNode {
			partOfToEpisode = true
		}
	}
	assert.True(t, partOfToEpisode, "constituent should be linked to the episode with a part-of edge")
}

func TestRollupDoesNotReprocessAfterFirstRun(t *testing.T) {
	g := buildRollupGraph(t)
	src := New(g)

	first, err := src.Rollup(RollupOptions{Now: 100000, AgeThreshold: 10})
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := src.Rollup(RollupOptions{Now: 200000, AgeThreshold: 10})
	require.NoError(t, err)
	assert.Empty(t, second, "session's last node is now the episode, which carries no session_status metadata")
}

func TestCaptureStagesOnlySafeFieldsInSafeMode(t *testing.T) {
	g := graphmem.New(0)
	src := New(g)
	queue, err := capture.OpenInMemory()
	require.NoError(t, err)
	defer queue.Close()

	staged, err := src.Capture(queue, []CapturePayload{
		{Field: "feedback", Content: "worked great"},
		{Field: "raw_prompt", Content: "ignored in safe mode"},
	}, CaptureOptions{Mode: CaptureSafe, Session: 1, Timestamp: 100})
	require.NoError(t, err)
	assert.Equal(t, 1, staged)

	n, err := queue.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCaptureOffStagesNothing(t *testing.T) {
	g := graphmem.New(0)
	src := New(g)
	queue, err := capture.OpenInMemory()
	require.NoError(t, err)
	defer queue.Close()

	staged, err := src.Capture(queue, []CapturePayload{
		{Field: "feedback", Content: "should not be staged"},
	}, CaptureOptions{Mode: CaptureOff})
	require.NoError(t, err)
	assert.Equal(t, 0, staged)

	n, err := queue.Len()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestCaptureRedactsEmailAndSecretPatterns(t *testing.T) {
	g := graphmem.New(0)
	src := New(g)
	queue, err := capture.OpenInMemory()
	require.NoError(t, err)
	defer queue.Close()

	_, err = src.Capture(queue, []CapturePayload{
		{Field: "note", Content: "contact me at alice@example.com, key is api_key_abcdefgh12"},
	}, CaptureOptions{Mode: CaptureSafe, Redact: true, Session: 1, Timestamp: 100})
	require.NoError(t, err)

	records, err := queue.Drain(0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Contains(t, records[0].Content, "[redacted-email]")
	assert.Contains(t, records[0].Content, "[redacted-secret]")
	assert.NotContains(t, records[0].Content, "alice@example.com")
}

func TestCaptureFullModeExcludesDuplicatesOfMemoryAdd(t *testing.T) {
	g := graphmem.New(0)
	src := New(g)
	queue, err := capture.OpenInMemory()
	require.NoError(t, err)
	defer queue.Close()

	staged, err := src.Capture(queue, []CapturePayload{
		{Field: "raw_prompt", Content: "keep me"},
		{Field: "memory_add_echo", Content: "drop me", DuplicatesMemoryAdd: true},
	}, CaptureOptions{Mode: CaptureFull, Session: 1, Timestamp: 100})
	require.NoError(t, err)
	assert.Equal(t, 1, staged)
}

func TestCaptureEnforcesByteCap(t *testing.T) {
	g := graphmem.New(0)
	src := New(g)
	queue, err := capture.OpenInMemory()
	require.NoError(t, err)
	defer queue.Close()

	_, err = src.Capture(queue, []CapturePayload{
		{Field: "note", Content: "0123456789"},
	}, CaptureOptions{Mode: CaptureSafe, ByteCap: 4, Session: 1, Timestamp: 100})
	require.NoError(t, err)

	records, err := queue.Drain(0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "0123", records[0].Content)
}

func TestFlushCapturedWritesFactNodesAndDrainsQueue(t *testing.T) {
	g := graphmem.New(0)
	src := New(g)
	queue, err := capture.OpenInMemory()
	require.NoError(t, err)
	defer queue.Close()

	_, err = src.Capture(queue, []CapturePayload{
		{Field: "feedback", Content: "great session"},
		{Field: "summary", Content: "did the thing"},
	}, CaptureOptions{Mode: CaptureSafe, Session: 3, Timestamp: 500})
	require.NoError(t, err)

	written, err := src.FlushCaptured(queue, 0)
	require.NoError(t, err)
	require.Len(t, written, 2)

	for _, id := range written {
		node, ok := g.Node(id)
		require.True(t, ok)
		assert.Equal(t, model.KindFact, node.Kind)
		assert.Equal(t, uint32(3), node.Session)
	}

	n, err := queue.Len()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
