// Package embed computes the engine's built-in feature vectors. Rather
// than call out to an external model, it hashes each token of a node's
// content into a fixed-width vector — a deterministic, dependency-free
// stand-in for a real embedding model that still gives cosine similarity
// something meaningful to measure, and never needs network access or an
// API key to run (§4.5).
package embed

import (
	"github.com/cespare/xxhash/v2"

	"github.com/orneryd/amem/internal/tokenize"
	"github.com/orneryd/amem/internal/vecmath"
)

// Embedder produces a fixed-width feature vector for a piece of text.
// Implementations must be safe for concurrent use and, for a given
// dimension, deterministic: the same text always maps to the same
// vector, which is what lets an encoded file be reproduced byte-for-byte
// from its source events.
type Embedder interface {
	Embed(text string) []float32
	Dimension() int
}

// HashEmbedder implements the engine's default embedding: a signed hashed
// feature vector (the "hashing trick", Weinberger et al. 2009), built from
// two independent hash functions per token — one chooses the destination
// component, the other its sign — so that unrelated tokens interfere with
// each other only by chance collision rather than systematic bias.
type HashEmbedder struct {
	dimension int
}

// NewHashEmbedder returns an embedder that produces vectors of the given
// dimension. dimension must be positive.
func NewHashEmbedder(dimension int) *HashEmbedder {
	return &HashEmbedder{dimension: dimension}
}

// Dimension implements Embedder.
func (e *HashEmbedder) Dimension() int { return e.dimension }

// Embed tokenizes text with the same normative tokenizer used for BM25
// indexing, accumulates each token's signed hash into the output vector,
// and L2-normalizes the result. Empty or entirely-stopword text yields
// the zero vector.
func (e *HashEmbedder) Embed(text string) []float32 {
	vec := make([]float32, e.dimension)
	for _, tok := range tokenize.Tokens(text) {
		idx, sign := hashToken(tok, e.dimension)
		vec[idx] += sign
	}
	vecmath.NormalizeInPlace(vec)
	return vec
}

// hashToken derives a component index and a +1/-1 sign for tok from two
// independent xxhash digests: the digest of tok itself for the index, and
// the digest of a salted variant for the sign. Salting rather than
// reseeding keeps this to one hash implementation instead of two.
func hashToken(tok string, dimension int) (idx int, sign float32) {
	indexHash := xxhash.Sum64String(tok)
	signHash := xxhash.Sum64String(tok + "\x00sign")
	idx = int(indexHash % uint64(dimension))
	if signHash&1 == 0 {
		sign = 1
	} else {
		sign = -1
	}
	return idx, sign
}

var _ Embedder = (*HashEmbedder)(nil)
