package decay

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHalfLifeOrdering(t *testing.T) {
	// Episodic memories should fade fastest, procedural slowest.
	assert.Less(t, HalfLife(TierEpisodic), HalfLife(TierSemantic))
	assert.Less(t, HalfLife(TierSemantic), HalfLife(TierProcedural))
}

func TestHalfLifeUnknownTierFallsBackToSemantic(t *testing.T) {
	assert.Equal(t, HalfLife(TierSemantic), HalfLife(Tier("bogus")))
}

func TestScoreClampedToUnitInterval(t *testing.T) {
	w := DefaultWeights()
	tests := []struct {
		name string
		in   Input
	}{
		{"fresh and confident", Input{Tier: TierEpisodic, IdleHours: 0, AccessCount: 1000, Confidence: 1}},
		{"stale and unconfident", Input{Tier: TierProcedural, IdleHours: 1e9, AccessCount: 0, Confidence: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := Score(tt.in, w)
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 1.0)
		})
	}
}

func TestScoreDecreasesWithIdleTime(t *testing.T) {
	w := DefaultWeights()
	fresh := Score(Input{Tier: TierSemantic, IdleHours: 1, AccessCount: 5, Confidence: 0.8}, w)
	stale := Score(Input{Tier: TierSemantic, IdleHours: 10000, AccessCount: 5, Confidence: 0.8}, w)
	assert.Greater(t, fresh, stale)
}

func TestScoreIncreasesWithAccessCount(t *testing.T) {
	w := DefaultWeights()
	rare := Score(Input{Tier: TierSemantic, IdleHours: 100, AccessCount: 1, Confidence: 0.5}, w)
	frequent := Score(Input{Tier: TierSemantic, IdleHours: 100, AccessCount: 100, Confidence: 0.5}, w)
	assert.Greater(t, frequent, rare)
}

func TestTierForKind(t *testing.T) {
	assert.Equal(t, TierEpisodic, TierForKind(5))
	assert.Equal(t, TierProcedural, TierForKind(4))
	assert.Equal(t, TierSemantic, TierForKind(0))
	assert.Equal(t, TierSemantic, TierForKind(200))
}
