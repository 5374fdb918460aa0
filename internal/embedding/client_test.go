package embedding

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"
)

func embeddingServer(t *testing.T, dims int, calls *[][]string) *httptest.Server {
	t.Helper()
	var mu sync.Mutex
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization = %q", got)
		}

		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		mu.Lock()
		*calls = append(*calls, req.Input)
		mu.Unlock()

		resp := embeddingResponse{}
		resp.Data = make([]struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}, len(req.Input))
		for i := range req.Input {
			vec := make([]float32, dims)
			vec[0] = float32(len(req.Input[i]))
			resp.Data[i].Embedding = vec
			// Deliberately out of order to exercise index-based placement.
			resp.Data[i].Index = len(req.Input) - 1 - i
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestEmbedPlacesByIndex(t *testing.T) {
	var calls [][]string
	server := embeddingServer(t, 4, &calls)
	defer server.Close()

	client, err := NewClient("test-key", server.URL, "test-model", 4, nil)
	if err != nil {
		t.Fatal(err)
	}

	vectors, err := client.EmbedBatch(context.Background(), []string{"aa", "bbbb"})
	if err != nil {
		t.Fatalf("EmbedBatch() error = %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(vectors))
	}

	// Index 0 in the response was the last input, so positions must have
	// been reassembled by index, not arrival order.
	if vectors[0][0] != 4 || vectors[1][0] != 2 {
		t.Errorf("vectors misplaced: %v, %v", vectors[0][0], vectors[1][0])
	}
}

func TestEmbedBatchChunks(t *testing.T) {
	var calls [][]string
	server := embeddingServer(t, 2, &calls)
	defer server.Close()

	client, err := NewClient("test-key", server.URL, "test-model", 2, nil)
	if err != nil {
		t.Fatal(err)
	}

	texts := make([]string, remoteBatchSize+2)
	for i := range texts {
		texts[i] = "text"
	}

	vectors, err := client.EmbedBatch(context.Background(), texts)
	if err != nil {
		t.Fatal(err)
	}
	if len(vectors) != len(texts) {
		t.Errorf("expected %d vectors, got %d", len(texts), len(vectors))
	}
	if len(calls) != 2 {
		t.Fatalf("expected 2 API calls, got %d", len(calls))
	}
	if len(calls[0]) != remoteBatchSize || len(calls[1]) != 2 {
		t.Errorf("batch sizes = %d, %d", len(calls[0]), len(calls[1]))
	}
}

func TestEmbedDimensionMismatch(t *testing.T) {
	var calls [][]string
	server := embeddingServer(t, 4, &calls)
	defer server.Close()

	client, err := NewClient("test-key", server.URL, "test-model", 8, nil)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := client.Embed(context.Background(), "text"); err == nil {
		t.Error("expected dimension mismatch error")
	}
}

func TestEmbedServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client, err := NewClient("test-key", server.URL, "test-model", 4, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := client.Embed(context.Background(), "text"); err == nil {
		t.Error("expected error from non-200 response")
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient("", "http://localhost", "m", 4, nil); err == nil {
		t.Error("expected error for empty API key")
	}
}

func TestEmbedUsesCache(t *testing.T) {
	var calls [][]string
	server := embeddingServer(t, 4, &calls)
	defer server.Close()

	client, err := NewClient("test-key", server.URL, "test-model", 4, nil)
	if err != nil {
		t.Fatal(err)
	}
	cache := &mapCache{entries: map[string][]float32{}}
	client.WithCache(cache)

	ctx := context.Background()
	first, err := client.Embed(ctx, "hello")
	if err != nil {
		t.Fatal(err)
	}
	second, err := client.Embed(ctx, "hello")
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("cached vector differs from original")
	}
	if len(calls) != 1 {
		t.Errorf("expected 1 API call with a warm cache, got %d", len(calls))
	}
}

func TestLocalEmbedderDeterministic(t *testing.T) {
	embedder := NewLocalEmbedder(64)
	ctx := context.Background()

	a, err := embedder.Embed(ctx, "deep learning is a branch of machine learning")
	if err != nil {
		t.Fatal(err)
	}
	b, err := embedder.Embed(ctx, "deep learning is a branch of machine learning")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("identical text embedded differently")
	}

	var norm float64
	for _, v := range a {
		norm += float64(v) * float64(v)
	}
	if math.Abs(norm-1.0) > 1e-6 {
		t.Errorf("vector norm = %v, want 1.0", norm)
	}
}

func TestLocalEmbedderEmptyText(t *testing.T) {
	embedder := NewLocalEmbedder(16)
	vec, err := embedder.Embed(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if len(vec) != 16 {
		t.Errorf("vector length = %d", len(vec))
	}
	for _, v := range vec {
		if v != 0 {
			t.Errorf("empty text produced non-zero vector")
			break
		}
	}
}

// mapCache is an in-memory Cache for tests.
type mapCache struct {
	mu      sync.Mutex
	entries map[string][]float32
}

func (c *mapCache) Get(_ context.Context, key string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *mapCache) Put(_ context.Context, key string, vector []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = vector
}
