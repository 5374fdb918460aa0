package config

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"DASHSCOPE_API_KEY", "LLM_MODEL", "EMBEDDING_MODEL", "EMBEDDING_DIMENSIONS",
		"TOP_K", "REQUEST_DELAY_MS", "INDEX_BACKEND",
	} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.LLMModel != "qwen-plus" {
		t.Errorf("LLMModel = %q", cfg.LLMModel)
	}
	if cfg.EmbeddingModel != "text-embedding-v3" {
		t.Errorf("EmbeddingModel = %q", cfg.EmbeddingModel)
	}
	if cfg.EmbeddingDims != 1024 {
		t.Errorf("EmbeddingDims = %d", cfg.EmbeddingDims)
	}
	if cfg.TopK != 3 {
		t.Errorf("TopK = %d", cfg.TopK)
	}
	if cfg.RequestDelay != 2*time.Second {
		t.Errorf("RequestDelay = %v", cfg.RequestDelay)
	}
	if cfg.IndexBackend != IndexBackendMemory {
		t.Errorf("IndexBackend = %q", cfg.IndexBackend)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("DASHSCOPE_API_KEY", "sk-test")
	t.Setenv("TOP_K", "5")
	t.Setenv("EMBEDDING_DIMENSIONS", "512")
	t.Setenv("INDEX_BACKEND", "qdrant")
	t.Setenv("QDRANT_URL", "qdrant:6334")
	t.Setenv("REQUEST_DELAY_MS", "0")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if !cfg.HasAPIKey() {
		t.Error("HasAPIKey() = false")
	}
	if cfg.TopK != 5 || cfg.EmbeddingDims != 512 {
		t.Errorf("TopK = %d, EmbeddingDims = %d", cfg.TopK, cfg.EmbeddingDims)
	}
	if cfg.IndexBackend != IndexBackendQdrant || cfg.QdrantURL != "qdrant:6334" {
		t.Errorf("backend = %q, url = %q", cfg.IndexBackend, cfg.QdrantURL)
	}
	if cfg.RequestDelay != 0 {
		t.Errorf("RequestDelay = %v", cfg.RequestDelay)
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		TopK:          3,
		EmbeddingDims: 1024,
		IndexBackend:  IndexBackendMemory,
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"zero topK", func(c *Config) { c.TopK = 0 }, true},
		{"zero dims", func(c *Config) { c.EmbeddingDims = 0 }, true},
		{"negative delay", func(c *Config) { c.RequestDelay = -time.Second }, true},
		{"unknown backend", func(c *Config) { c.IndexBackend = "pinecone" }, true},
		{"qdrant without url", func(c *Config) { c.IndexBackend = IndexBackendQdrant }, true},
		{"qdrant with url", func(c *Config) {
			c.IndexBackend = IndexBackendQdrant
			c.QdrantURL = "localhost:6334"
		}, false},
		{"no api key is fine", func(c *Config) { c.APIKey = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetEnvAsIntOrDefault(t *testing.T) {
	t.Setenv("RAGLAB_TEST_INT", "not a number")
	if got := getEnvAsIntOrDefault("RAGLAB_TEST_INT", 7); got != 7 {
		t.Errorf("unparseable value returned %d, want default 7", got)
	}
}
