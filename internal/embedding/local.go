package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// LocalEmbedder is the degraded mode used when no API key is configured:
// a deterministic hashed bag-of-words embedding. Good enough to build
// and exercise an index offline; not a substitute for a real model.
type LocalEmbedder struct {
	dims int
}

// NewLocalEmbedder creates a local embedder with the given dimensionality.
func NewLocalEmbedder(dims int) *LocalEmbedder {
	if dims < 1 {
		dims = 256
	}
	return &LocalEmbedder{dims: dims}
}

// Dimensions returns the embedding dimensionality.
func (e *LocalEmbedder) Dimensions() int {
	return e.dims
}

// Embed hashes lowercased tokens into dimension buckets and
// L2-normalizes the result. Identical text always embeds identically.
func (e *LocalEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vector := make([]float32, e.dims)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New64a()
		h.Write([]byte(token))
		vector[h.Sum64()%uint64(e.dims)]++
	}

	var norm float64
	for _, v := range vector {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vector {
			vector[i] *= scale
		}
	}
	return vector, nil
}

// EmbedBatch embeds each text in order.
func (e *LocalEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vector, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = vector
	}
	return vectors, nil
}
