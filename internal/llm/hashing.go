package llm

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// HashEmbedder is an offline embedder that hashes lower-cased tokens into a
// fixed number of buckets and L2-normalises the result. Texts sharing words
// end up close under cosine similarity.
type HashEmbedder struct {
	Dimension int
}

func NewHashEmbedder(dimension int) *HashEmbedder {
	if dimension <= 0 {
		dimension = 1536
	}
	return &HashEmbedder{Dimension: dimension}
}

func (h *HashEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = h.vector(t)
	}
	return out, nil
}

func (h *HashEmbedder) vector(text string) []float32 {
	vec := make([]float32, h.Dimension)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		f := fnv.New64a()
		_, _ = f.Write([]byte(tok))
		sum := f.Sum64()
		bucket := int(sum % uint64(h.Dimension))
		if sum&(1<<63) != 0 {
			vec[bucket] -= 1
		} else {
			vec[bucket] += 1
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}
