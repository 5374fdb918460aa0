/**
 * Vector index abstraction
 *
 * A VectorIndex stores chunk vectors with their retrievable payload and
 * answers similarity searches. Backends: in-memory cosine store and
 * Qdrant over gRPC.
 */

package index

import "context"

// Entry is one indexed chunk: vector plus retrievable payload.
type Entry struct {
	ID       string
	Text     string
	Vector   []float32
	Metadata map[string]interface{}
}

// Hit is one similarity search result.
type Hit struct {
	ID       string
	Text     string
	Score    float64
	Metadata map[string]interface{}
}

// VectorIndex stores vectors and serves similarity top-k queries.
type VectorIndex interface {
	Insert(ctx context.Context, entries []Entry) error
	Search(ctx context.Context, vector []float32, topK int) ([]Hit, error)
	Close() error
}
