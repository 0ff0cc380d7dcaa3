// Package decay computes the read-time decay score described in the data
// model: a scalar in [0.0, 1.0] derived from a node's age, access count,
// and confidence. Nothing here is persisted — callers compute it on demand
// from fields already stored on the node plus the reader-side access
// counters kept for the lifetime of the open engine.
//
// The engine's decay curve is tiered rather than flat, borrowed from a
// three-bucket half-life model (episodic/semantic/procedural) originally
// built for a broader memory system: episodic events fade in about a
// week, semantic knowledge over months, procedural skills over roughly
// two years. A node's tier is chosen from its event kind alone
// (TierForKind); there is no per-node override.
package decay

import "math"

// Tier selects the half-life curve used for the recency component of a
// node's decay score.
type Tier string

const (
	// TierEpisodic decays with an approximately 7-day half-life. Default
	// for episode nodes.
	TierEpisodic Tier = "episodic"

	// TierSemantic decays with an approximately 69-day half-life. Default
	// for facts, decisions, inferences, and corrections.
	TierSemantic Tier = "semantic"

	// TierProcedural decays with an approximately 693-day half-life.
	// Default for skill nodes.
	TierProcedural Tier = "procedural"
)

// tierLambda holds the per-hour exponential decay rate for each tier.
// halfLife = ln(2) / lambda.
var tierLambda = map[Tier]float64{
	TierEpisodic:   0.00412,   // ~7 days
	TierSemantic:   0.000418,  // ~69 days
	TierProcedural: 0.0000417, // ~693 days
}

// HalfLife returns the half-life, in hours, of the given tier.
func HalfLife(tier Tier) float64 {
	lambda, ok := tierLambda[tier]
	if !ok {
		lambda = tierLambda[TierSemantic]
	}
	return math.Ln2 / lambda
}

// Weights controls how the three decay factors are combined. The three
// fields should sum to 1.0; Score does not enforce this, it simply
// computes a weighted sum and clamps the result to [0, 1].
type Weights struct {
	Recency    float64 // weight on time-since-access (exponential decay)
	Frequency  float64 // weight on access count (logarithmic growth)
	Confidence float64 // weight on the node's stored confidence
}

// DefaultWeights returns the engine's default factor weighting: 40%
// recency, 30% frequency, 30% confidence.
func DefaultWeights() Weights {
	return Weights{Recency: 0.4, Frequency: 0.3, Confidence: 0.3}
}

// Input carries the fields Score needs. IdleHours is measured from "now"
// at the call site: the hours since the node was last accessed.
type Input struct {
	Tier        Tier
	IdleHours   float64
	AccessCount int64
	Confidence  float32
}

// Score computes the decay score for a node: a weighted combination of
// recency (exponential decay since last access), frequency (logarithmic
// growth with access count, capped at 100 accesses), and the node's own
// confidence. The result is clamped to [0.0, 1.0].
//
// Rather than track several overlapping staleness definitions, decay is
// exactly this one formula, parameterized by Weights and Tier so callers
// can retune it per deployment.
func Score(in Input, w Weights) float64 {
	lambda, ok := tierLambda[in.Tier]
	if !ok {
		lambda = tierLambda[TierSemantic]
	}
	recency := math.Exp(-lambda * in.IdleHours)

	const maxAccesses = 100.0
	frequency := math.Log(1+float64(in.AccessCount)) / math.Log(1+maxAccesses)
	if frequency > 1.0 {
		frequency = 1.0
	}

	confidence := float64(in.Confidence)

	score := w.Recency*recency + w.Frequency*frequency + w.Confidence*confidence
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score
}

// TierForKind returns the default tier for an event kind. Kinds outside
// the known six (forward-compatible unknown kinds) default to semantic.
func TierForKind(kind uint8) Tier {
	switch kind {
	case 5: // episode
		return TierEpisodic
	case 4: // skill
		return TierProcedural
	default: // fact, decision, inference, correction, and unknown kinds
		return TierSemantic
	}
}
