package embed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/amem/internal/vecmath"
)

func TestEmbedIsDeterministic(t *testing.T) {
	e := NewHashEmbedder(64)
	a := e.Embed("the sky is blue over the ocean")
	b := e.Embed("the sky is blue over the ocean")
	assert.Equal(t, a, b)
}

func TestEmbedProducesUnitVector(t *testing.T) {
	e := NewHashEmbedder(32)
	vec := e.Embed("cognitive graphs store typed events")
	var sumSq float64
	for _, v := range vec {
		sumSq += float64(v) * float64(v)
	}
	require.Greater(t, sumSq, 0.0)
	assert.InDelta(t, 1.0, sumSq, 1e-4)
}

func TestEmbedEmptyTextIsZeroVector(t *testing.T) {
	e := NewHashEmbedder(16)
	vec := e.Embed("")
	for _, v := range vec {
		assert.Equal(t, float32(0), v)
	}
}

func TestSimilarTextsAreMoreSimilarThanUnrelatedOnes(t *testing.T) {
	e := NewHashEmbedder(256)
	a := e.Embed("the sky is blue over the calm ocean")
	b := e.Embed("the sky looks blue above the calm sea")
	c := e.Embed("quarterly tax filings are due next week")

	simAB := vecmath.CosineSimilarity(a, b)
	simAC := vecmath.CosineSimilarity(a, c)
	assert.Greater(t, simAB, simAC)
}

func TestDimension(t *testing.T) {
	e := NewHashEmbedder(128)
	assert.Equal(t, 128, e.Dimension())
	assert.Len(t, e.Embed("hello world"), 128)
}
