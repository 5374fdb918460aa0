/**
 * Configuration for raglab pipelines
 *
 * Loads configuration from environment variables (.env loaded by main).
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Index backend names accepted in INDEX_BACKEND.
const (
	IndexBackendMemory = "memory"
	IndexBackendQdrant = "qdrant"
)

// Config holds configuration for both pipelines. Built once at process
// start and passed into whichever component needs it.
type Config struct {
	// OpenAI-compatible LLM / embedding endpoint
	APIKey         string
	LLMBaseURL     string
	LLMModel       string
	EmbeddingModel string
	EmbeddingDims  int

	// Benchmark harness
	DataDir      string
	BenchQuery   string
	TopK         int
	RequestDelay time.Duration

	// Vector index backend
	IndexBackend     string
	QdrantURL        string
	QdrantCollection string

	// Optional embedding cache
	RedisURL string

	// Optional benchmark result persistence
	DatabaseURL string

	// OCR ingestion
	OCRLang string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		APIKey:           os.Getenv("DASHSCOPE_API_KEY"),
		LLMBaseURL:       getEnvOrDefault("LLM_BASE_URL", "https://dashscope.aliyuncs.com/compatible-mode/v1"),
		LLMModel:         getEnvOrDefault("LLM_MODEL", "qwen-plus"),
		EmbeddingModel:   getEnvOrDefault("EMBEDDING_MODEL", "text-embedding-v3"),
		EmbeddingDims:    getEnvAsIntOrDefault("EMBEDDING_DIMENSIONS", 1024),
		DataDir:          getEnvOrDefault("DATA_DIR", "./data"),
		BenchQuery:       getEnvOrDefault("BENCH_QUERY", "What is deep learning and how does it relate to machine learning?"),
		TopK:             getEnvAsIntOrDefault("TOP_K", 3),
		RequestDelay:     time.Duration(getEnvAsIntOrDefault("REQUEST_DELAY_MS", 2000)) * time.Millisecond,
		IndexBackend:     getEnvOrDefault("INDEX_BACKEND", IndexBackendMemory),
		QdrantURL:        getEnvOrDefault("QDRANT_URL", "localhost:6334"),
		QdrantCollection: getEnvOrDefault("QDRANT_COLLECTION", "raglab_chunks"),
		RedisURL:         os.Getenv("REDIS_URL"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		OCRLang:          getEnvOrDefault("OCR_LANG", "eng"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if configuration is valid. The API key is deliberately
// not validated here: its absence degrades querying, it does not abort
// the process.
func (c *Config) Validate() error {
	if c.TopK < 1 {
		return fmt.Errorf("TOP_K must be at least 1, got %d", c.TopK)
	}

	if c.EmbeddingDims < 1 {
		return fmt.Errorf("EMBEDDING_DIMENSIONS must be positive, got %d", c.EmbeddingDims)
	}

	if c.RequestDelay < 0 {
		return fmt.Errorf("REQUEST_DELAY_MS must not be negative, got %v", c.RequestDelay)
	}

	if c.IndexBackend != IndexBackendMemory && c.IndexBackend != IndexBackendQdrant {
		return fmt.Errorf("INDEX_BACKEND must be %q or %q, got %q",
			IndexBackendMemory, IndexBackendQdrant, c.IndexBackend)
	}

	if c.IndexBackend == IndexBackendQdrant && c.QdrantURL == "" {
		return fmt.Errorf("QDRANT_URL is required when INDEX_BACKEND=qdrant")
	}

	return nil
}

// HasAPIKey reports whether remote LLM/embedding calls are enabled.
func (c *Config) HasAPIKey() bool {
	return c.APIKey != ""
}

// getEnvOrDefault gets environment variable or returns default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault gets environment variable as int or returns default
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
