/**
 * raglab - chunking benchmark and OCR ingestion CLI
 *
 * Usage:
 *   raglab bench [-data DIR] [-query TEXT]
 *   raglab ocr -image FILE | -dir DIR [-recursive]
 *
 * Configuration comes from the environment (a .env file is loaded when
 * present). Without DASHSCOPE_API_KEY the benchmark runs against a
 * local deterministic embedder and skips answer synthesis.
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/nlpforge/raglab/internal/bench"
	"github.com/nlpforge/raglab/internal/config"
	"github.com/nlpforge/raglab/internal/document"
	"github.com/nlpforge/raglab/internal/embedding"
	"github.com/nlpforge/raglab/internal/index"
	"github.com/nlpforge/raglab/internal/llm"
	"github.com/nlpforge/raglab/internal/logging"
	"github.com/nlpforge/raglab/internal/ocr"
	"github.com/nlpforge/raglab/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using environment variables")
	}

	log := logging.NewLogger("raglab")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch os.Args[1] {
	case "bench":
		err = runBench(ctx, cfg, log, os.Args[2:])
	case "ocr":
		err = runOCR(ctx, cfg, log, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		log.Error("command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  raglab bench [-data DIR] [-query TEXT]")
	fmt.Fprintln(os.Stderr, "  raglab ocr -image FILE | -dir DIR [-recursive]")
}

// runBench executes the chunking configuration sweep and prints the
// summary report.
func runBench(ctx context.Context, cfg *config.Config, log *logging.Logger, args []string) error {
	fs := flag.NewFlagSet("bench", flag.ExitOnError)
	dataDir := fs.String("data", cfg.DataDir, "directory of .txt documents to benchmark against")
	query := fs.String("query", cfg.BenchQuery, "fixed query issued once per configuration")
	if err := fs.Parse(args); err != nil {
		return err
	}

	embedder, llmClient := buildModelClients(cfg, log)

	factory, err := buildIndexFactory(cfg, embedder.Dimensions())
	if err != nil {
		return err
	}

	var store bench.ResultStore
	if cfg.DatabaseURL != "" {
		pg, err := storage.NewPostgresStore(cfg.DatabaseURL)
		if err != nil {
			log.Warn("result persistence disabled", "error", err)
		} else {
			defer pg.Close()
			store = pg
			log.Info("persisting results to PostgreSQL")
		}
	}

	harness, err := bench.NewHarness(bench.HarnessOptions{
		Embedder:     embedder,
		LLM:          llmClient,
		IndexFactory: factory,
		Store:        store,
		Query:        *query,
		TopK:         cfg.TopK,
		Delay:        cfg.RequestDelay,
		Log:          log,
	})
	if err != nil {
		return err
	}

	results, err := harness.Run(ctx, *dataDir, bench.DefaultConfigs())
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return fmt.Errorf("no configuration produced a result")
	}

	fmt.Println()
	bench.Report(os.Stdout, results)
	return nil
}

// runOCR ingests one image or a directory of images, prints the
// normalized text and metadata, and, when querying is enabled, indexes
// the documents and answers a question about them.
func runOCR(ctx context.Context, cfg *config.Config, log *logging.Logger, args []string) error {
	fs := flag.NewFlagSet("ocr", flag.ExitOnError)
	imagePath := fs.String("image", "", "single image file to recognize")
	dirPath := fs.String("dir", "", "directory of images to recognize")
	recursive := fs.Bool("recursive", false, "descend into subdirectories of -dir")
	query := fs.String("query", "", "optional question to answer over the recognized text")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if (*imagePath == "") == (*dirPath == "") {
		return fmt.Errorf("exactly one of -image or -dir is required")
	}

	engine := ocr.NewTesseractEngine(cfg.OCRLang)
	reader := ocr.NewImageReader(engine, log)

	var docs []document.Document
	if *imagePath != "" {
		doc, err := reader.Load(ctx, *imagePath, nil)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	} else {
		loaded, failures, err := reader.LoadDir(ctx, *dirPath, *recursive, nil)
		if err != nil {
			return err
		}
		for _, failure := range failures {
			log.Error("image failed", "path", failure.Path, "error", failure.Err)
		}
		docs = loaded
	}

	for _, doc := range docs {
		printDocument(doc)
	}

	if *query == "" {
		return nil
	}
	if len(docs) == 0 {
		return fmt.Errorf("no documents to query")
	}

	return queryDocuments(ctx, cfg, log, docs, *query)
}

// queryDocuments indexes the recognized documents whole (no chunking)
// and answers one question over them.
func queryDocuments(ctx context.Context, cfg *config.Config, log *logging.Logger, docs []document.Document, query string) error {
	embedder, llmClient := buildModelClients(cfg, log)

	idx := index.NewMemoryIndex()
	defer idx.Close()

	entries := make([]index.Entry, 0, len(docs))
	for _, doc := range docs {
		if doc.Text == "" {
			continue
		}
		vector, err := embedder.Embed(ctx, doc.Text)
		if err != nil {
			return fmt.Errorf("failed to embed document: %w", err)
		}
		entries = append(entries, index.Entry{
			ID:       doc.ID,
			Text:     doc.Text,
			Vector:   vector,
			Metadata: doc.Metadata,
		})
	}
	if len(entries) == 0 {
		return fmt.Errorf("no text recognized, nothing to query")
	}
	if err := idx.Insert(ctx, entries); err != nil {
		return err
	}

	engine := index.NewQueryEngine(idx, embedder, llmClient, cfg.TopK, log)
	resp, err := engine.Query(ctx, query)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Query:", query)
	if resp.Answer != "" {
		fmt.Println("Answer:", resp.Answer)
	}
	fmt.Printf("Sources: %d (avg similarity %.4f)\n", len(resp.Sources), resp.AvgSimilarity())
	return nil
}

// buildModelClients selects the embedder and LLM client. Without an API
// key the pipelines degrade to a local deterministic embedder and no
// answer synthesis.
func buildModelClients(cfg *config.Config, log *logging.Logger) (embedding.Embedder, *llm.Client) {
	if !cfg.HasAPIKey() {
		log.Warn("DASHSCOPE_API_KEY not set, using local embedder and skipping answer synthesis")
		return embedding.NewLocalEmbedder(0), nil
	}

	client, err := embedding.NewClient(cfg.APIKey, cfg.LLMBaseURL, cfg.EmbeddingModel, cfg.EmbeddingDims, log)
	if err != nil {
		log.Warn("remote embedder unavailable, using local embedder", "error", err)
		return embedding.NewLocalEmbedder(0), nil
	}

	if cfg.RedisURL != "" {
		cache, err := embedding.NewRedisCache(cfg.RedisURL, log)
		if err != nil {
			log.Warn("embedding cache disabled", "error", err)
		} else {
			client.WithCache(cache)
			log.Info("embedding cache enabled")
		}
	}

	llmClient, err := llm.NewClient(cfg.APIKey, cfg.LLMBaseURL, cfg.LLMModel)
	if err != nil {
		log.Warn("answer synthesis disabled", "error", err)
		llmClient = nil
	}

	return client, llmClient
}

// buildIndexFactory returns a factory producing one fresh index per
// benchmark configuration.
func buildIndexFactory(cfg *config.Config, dims int) (bench.IndexFactory, error) {
	switch cfg.IndexBackend {
	case config.IndexBackendMemory:
		return func(string) (index.VectorIndex, error) {
			return index.NewMemoryIndex(), nil
		}, nil
	case config.IndexBackendQdrant:
		return func(slug string) (index.VectorIndex, error) {
			collection := cfg.QdrantCollection + "_" + slug
			return index.NewQdrantIndex(cfg.QdrantURL, collection, dims)
		}, nil
	default:
		return nil, fmt.Errorf("unsupported index backend: %s", cfg.IndexBackend)
	}
}

func printDocument(doc document.Document) {
	name, _ := doc.Metadata["file_name"].(string)
	blocks, _ := doc.Metadata["num_text_blocks"].(int)
	avg, _ := doc.Metadata["avg_confidence"].(float64)

	fmt.Println()
	fmt.Printf("=== %s ===\n", name)
	fmt.Printf("blocks: %d, avg confidence: %.4f\n", blocks, avg)
	fmt.Println(preview(doc.Text, 600))
}

func preview(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "\n..."
}
