/**
 * Chunking benchmark harness
 *
 * Sweeps splitter configurations over the loaded documents. Each
 * configuration splits the documents, indexes exactly that chunk
 * sequence into a fresh index, issues the fixed query once, and records
 * chunk count, latency, and average similarity. Configurations run
 * sequentially and independently; one failure never aborts the sweep.
 */

package bench

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nlpforge/raglab/internal/chunker"
	"github.com/nlpforge/raglab/internal/document"
	"github.com/nlpforge/raglab/internal/embedding"
	"github.com/nlpforge/raglab/internal/index"
	"github.com/nlpforge/raglab/internal/llm"
	"github.com/nlpforge/raglab/internal/logging"
)

// Method labels used for per-method comparisons in the report.
const (
	MethodSentence = "sentence"
	MethodToken    = "token"
	MethodWindow   = "sentence-window"
)

// Config is one benchmark configuration.
type Config struct {
	Name     string
	Method   string
	Splitter chunker.Splitter

	// WindowReplacement retrieves the window metadata instead of the
	// matched sentence (sentence-window configurations only).
	WindowReplacement bool
}

// Result holds one configuration's measurements.
type Result struct {
	ConfigName    string
	Method        string
	NumChunks     int
	QueryTime     time.Duration
	Response      string
	NumSources    int
	AvgSimilarity float64
}

// IndexFactory builds a fresh vector index for one configuration. slug
// is a filesystem/collection-safe name derived from the configuration.
type IndexFactory func(slug string) (index.VectorIndex, error)

// ResultStore persists benchmark results. Optional.
type ResultStore interface {
	SaveResult(ctx context.Context, runID string, result Result) error
}

// DefaultConfigs returns the fixed configuration sweep: five sentence
// splits, five token splits, five sentence-window sizes.
func DefaultConfigs() []Config {
	var configs []Config

	sentence := []struct{ size, overlap int }{
		{256, 0}, {256, 50}, {512, 50}, {512, 128}, {1024, 100},
	}
	for _, p := range sentence {
		configs = append(configs, Config{
			Name:     fmt.Sprintf("Sentence %d/%d", p.size, p.overlap),
			Method:   MethodSentence,
			Splitter: chunker.NewSentenceSplitter(p.size, p.overlap),
		})
	}

	token := []struct{ size, overlap int }{
		{128, 0}, {128, 20}, {256, 30}, {256, 50}, {512, 50},
	}
	for _, p := range token {
		configs = append(configs, Config{
			Name:     fmt.Sprintf("Token %d/%d", p.size, p.overlap),
			Method:   MethodToken,
			Splitter: chunker.NewTokenSplitter(p.size, p.overlap),
		})
	}

	for _, size := range []int{1, 2, 3, 5, 10} {
		configs = append(configs, Config{
			Name:              fmt.Sprintf("Window size=%d", size),
			Method:            MethodWindow,
			Splitter:          chunker.NewSentenceWindowSplitter(size),
			WindowReplacement: true,
		})
	}

	return configs
}

// Harness runs the configuration sweep.
type Harness struct {
	loader   *document.DirectoryLoader
	embedder embedding.Embedder
	llm      *llm.Client // nil disables answer synthesis
	factory  IndexFactory
	store    ResultStore // nil disables persistence
	query    string
	topK     int
	delay    time.Duration
	log      *logging.Logger
}

// HarnessOptions configures a Harness.
type HarnessOptions struct {
	Embedder     embedding.Embedder
	LLM          *llm.Client
	IndexFactory IndexFactory
	Store        ResultStore
	Query        string
	TopK         int
	Delay        time.Duration
	Log          *logging.Logger
}

// NewHarness creates a benchmark harness.
func NewHarness(opts HarnessOptions) (*Harness, error) {
	if opts.Embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if opts.IndexFactory == nil {
		return nil, fmt.Errorf("index factory is required")
	}
	if opts.Query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if opts.TopK < 1 {
		opts.TopK = 3
	}
	if opts.Log == nil {
		opts.Log = logging.NewLogger("bench")
	}

	return &Harness{
		loader:   document.NewDirectoryLoader(),
		embedder: opts.Embedder,
		llm:      opts.LLM,
		factory:  opts.IndexFactory,
		store:    opts.Store,
		query:    opts.Query,
		topK:     opts.TopK,
		delay:    opts.Delay,
		log:      opts.Log,
	}, nil
}

// Run loads documents from dataDir and evaluates every configuration in
// order, returning the collected results. A failed configuration is
// logged and skipped; a missing or empty data directory aborts the run.
func (h *Harness) Run(ctx context.Context, dataDir string, configs []Config) ([]Result, error) {
	docs, err := h.loader.Load(dataDir)
	if err != nil {
		return nil, err
	}

	h.log.Info("documents loaded", "dir", dataDir, "count", len(docs))
	for i, doc := range docs {
		name, _ := doc.Metadata["file_name"].(string)
		h.log.Info("document",
			"index", i+1,
			"file", name,
			"chars", len(doc.Text))
	}
	h.log.Info("benchmark query", "query", h.query)

	runID := uuid.New().String()
	results := make([]Result, 0, len(configs))

	for i, cfg := range configs {
		result, err := h.evaluate(ctx, cfg, docs)
		if err != nil {
			h.log.Error("configuration failed", "config", cfg.Name, "error", err)
		} else {
			results = append(results, *result)
			if h.store != nil {
				if err := h.store.SaveResult(ctx, runID, *result); err != nil {
					h.log.Warn("failed to persist result", "config", cfg.Name, "error", err)
				}
			}
		}

		// Courtesy pause between configurations for the remote API's
		// rate limit; not a correctness mechanism.
		if h.delay > 0 && i < len(configs)-1 {
			time.Sleep(h.delay)
		}
	}

	return results, nil
}

func (h *Harness) evaluate(ctx context.Context, cfg Config, docs []document.Document) (*Result, error) {
	h.log.Info("evaluating configuration", "config", cfg.Name, "method", cfg.Method)
	start := time.Now()

	nodes := cfg.Splitter.Split(docs)
	h.log.Info("documents split", "config", cfg.Name, "chunks", len(nodes))
	for i, node := range nodes {
		if i >= 3 {
			break
		}
		h.log.Debug("chunk preview",
			"index", i+1,
			"chars", len(node.Text),
			"text", preview(node.Text, 100))
	}

	idx, err := h.factory(slugify(cfg.Name))
	if err != nil {
		return nil, fmt.Errorf("failed to build index: %w", err)
	}
	defer h.discard(ctx, idx, cfg.Name)

	if err := index.IndexNodes(ctx, idx, h.embedder, nodes); err != nil {
		return nil, err
	}

	engine := index.NewQueryEngine(idx, h.embedder, h.llm, h.topK, h.log)
	if cfg.WindowReplacement {
		engine.WithMetadataReplacement(chunker.WindowMetadataKey)
	}

	resp, err := engine.Query(ctx, h.query)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	for i, source := range resp.Sources {
		h.log.Debug("retrieved source",
			"rank", i+1,
			"score", fmt.Sprintf("%.4f", source.Score),
			"text", preview(source.Text, 200))
	}
	h.log.Info("configuration complete",
		"config", cfg.Name,
		"chunks", len(nodes),
		"elapsed", elapsed.Round(time.Millisecond),
		"avg_similarity", fmt.Sprintf("%.4f", resp.AvgSimilarity()))

	return &Result{
		ConfigName:    cfg.Name,
		Method:        cfg.Method,
		NumChunks:     len(nodes),
		QueryTime:     elapsed,
		Response:      resp.Answer,
		NumSources:    len(resp.Sources),
		AvgSimilarity: resp.AvgSimilarity(),
	}, nil
}

// discard closes a configuration's index, dropping its backing
// collection when the backend supports it.
func (h *Harness) discard(ctx context.Context, idx index.VectorIndex, configName string) {
	if dropper, ok := idx.(interface{ Drop(context.Context) error }); ok {
		if err := dropper.Drop(ctx); err != nil {
			h.log.Warn("failed to drop index collection", "config", configName, "error", err)
		}
	}
	if err := idx.Close(); err != nil {
		h.log.Warn("failed to close index", "config", configName, "error", err)
	}
}

func preview(text string, max int) string {
	runes := []rune(strings.ReplaceAll(text, "\n", " "))
	if len(runes) <= max {
		return string(runes)
	}
	return string(runes[:max]) + "..."
}

// slugify derives a collection-safe name from a configuration name.
func slugify(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return strings.Trim(b.String(), "_")
}
