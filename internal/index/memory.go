package index

import (
	"context"
	"math"
	"sort"
	"sync"
)

// MemoryIndex is an in-process cosine-similarity index, the default
// backend. Searches scan linearly; fine at benchmark scale.
type MemoryIndex struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewMemoryIndex creates an empty in-memory index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{}
}

// Insert appends entries to the index.
func (m *MemoryIndex) Insert(_ context.Context, entries []Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entries...)
	return nil
}

// Search returns the topK entries by cosine similarity, descending.
// Ties keep insertion order.
func (m *MemoryIndex) Search(_ context.Context, vector []float32, topK int) ([]Hit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hits := make([]Hit, 0, len(m.entries))
	for _, entry := range m.entries {
		hits = append(hits, Hit{
			ID:       entry.ID,
			Text:     entry.Text,
			Score:    cosine(vector, entry.Vector),
			Metadata: entry.Metadata,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if topK > len(hits) {
		topK = len(hits)
	}
	if topK < 0 {
		topK = 0
	}
	return hits[:topK], nil
}

// Close is a no-op for the in-memory backend.
func (m *MemoryIndex) Close() error {
	return nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
