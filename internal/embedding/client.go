/**
 * Embedding client
 *
 * Generates embeddings through an OpenAI-compatible /embeddings endpoint
 * (DashScope compatible mode by default). Batches requests and falls
 * back to individual calls when a batch fails.
 */

package embedding

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nlpforge/raglab/internal/logging"
)

// Embedder turns text into a numeric vector for similarity search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// DashScope compatible mode rejects batches larger than this.
const remoteBatchSize = 6

// Texts beyond this are truncated before embedding (approximate token limit).
const maxEmbedChars = 16000

// embeddingRequest is the OpenAI-compatible embeddings request body.
type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

// embeddingResponse is the OpenAI-compatible embeddings response body.
type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Client calls a remote embedding endpoint, optionally through a cache.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	dims       int
	httpClient *http.Client
	cache      Cache
	log        *logging.Logger
}

// NewClient creates an embedding client. baseURL is the API root; the
// /embeddings path is appended.
func NewClient(apiKey, baseURL, model string, dims int, log *logging.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("embedding API key is required")
	}
	if log == nil {
		log = logging.NewLogger("embedding")
	}

	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		dims:    dims,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log,
	}, nil
}

// WithCache attaches an embedding cache consulted before remote calls.
func (c *Client) WithCache(cache Cache) *Client {
	c.cache = cache
	return c
}

// Dimensions returns the configured embedding dimensionality.
func (c *Client) Dimensions() int {
	return c.dims
}

// Embed generates one embedding.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("text is required")
	}

	key := c.cacheKey(text)
	if c.cache != nil {
		if vector, ok := c.cache.Get(ctx, key); ok {
			return vector, nil
		}
	}

	vectors, err := c.callAPI(ctx, []string{text})
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		c.cache.Put(ctx, key, vectors[0])
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for multiple texts, chunked to the
// endpoint's batch limit. A failed batch falls back to one call per
// text so a single oversized item does not sink the rest.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("no texts provided")
	}

	all := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += remoteBatchSize {
		end := i + remoteBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[i:end]

		vectors, err := c.callAPI(ctx, batch)
		if err != nil {
			c.log.Warn("batch embedding failed, falling back to individual calls",
				"from", i, "to", end-1, "error", err)
			for j, text := range batch {
				vector, err := c.Embed(ctx, text)
				if err != nil {
					return nil, fmt.Errorf("failed to embed text %d (fallback): %w", i+j, err)
				}
				all = append(all, vector)
			}
			continue
		}
		all = append(all, vectors...)
	}

	return all, nil
}

func (c *Client) callAPI(ctx context.Context, texts []string) ([][]float32, error) {
	truncated := make([]string, len(texts))
	for i, text := range texts {
		if len(text) > maxEmbedChars {
			c.log.Warn("truncating text before embedding", "index", i, "chars", len(text))
			text = text[:maxEmbedChars]
		}
		truncated[i] = text
	}

	body, err := json.Marshal(embeddingRequest{Input: truncated, Model: c.model})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(parsed.Data) != len(texts) {
		return nil, fmt.Errorf("unexpected number of embeddings: got %d, expected %d", len(parsed.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for _, item := range parsed.Data {
		if item.Index < 0 || item.Index >= len(texts) {
			return nil, fmt.Errorf("invalid embedding index: %d", item.Index)
		}
		if c.dims > 0 && len(item.Embedding) != c.dims {
			return nil, fmt.Errorf("unexpected embedding dimensions: got %d, expected %d", len(item.Embedding), c.dims)
		}
		vectors[item.Index] = item.Embedding
	}

	return vectors, nil
}

func (c *Client) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(c.model + "\x00" + text))
	return "raglab:emb:" + hex.EncodeToString(sum[:])
}
