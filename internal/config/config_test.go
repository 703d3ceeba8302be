package config

import (
	"os"
	"path/filepath"
	"testing"

	"finrag/internal/models"
)

func TestLoadFailsFastWithoutCredential(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if !models.IsPhase(err, models.PhaseConfig) {
		t.Fatalf("expected a config-phase error, got %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "test-key")
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LLM.Key != "test-key" {
		t.Errorf("key not taken from environment: %q", cfg.LLM.Key)
	}
	if cfg.RAG.TopK != 6 || cfg.RAG.FetchK != 20 || cfg.RAG.Lambda != 0.7 {
		t.Errorf("unexpected retrieval defaults: %+v", cfg.RAG)
	}
	if cfg.RAG.SearchMode != "mmr" {
		t.Errorf("default search mode should be mmr, got %q", cfg.RAG.SearchMode)
	}
	if cfg.Store.Backend != "chromem" || cfg.Store.Path != "./chroma_db" {
		t.Errorf("unexpected store defaults: %+v", cfg.Store)
	}
	if cfg.Embedding.Provider != "openai" || cfg.Embedding.Model != "text-embedding-3-small" {
		t.Errorf("unexpected embedding defaults: %+v", cfg.Embedding)
	}
}

func TestLoadYAMLOverrides(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "test-key")
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
llm:
  model: some/other-model
embedding:
  provider: ollama
rag:
  top_k: 4
  lambda: 0.5
  search_mode: similarity
store:
  in_memory: true
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LLM.Model != "some/other-model" {
		t.Errorf("llm model override lost: %q", cfg.LLM.Model)
	}
	if cfg.Embedding.Provider != "ollama" || cfg.Embedding.Model != "nomic-embed-text" {
		t.Errorf("ollama provider should default its own model, got %+v", cfg.Embedding)
	}
	if cfg.Embedding.BaseURL != "http://localhost:11434" {
		t.Errorf("ollama provider should default its base URL, got %q", cfg.Embedding.BaseURL)
	}
	if cfg.RAG.TopK != 4 || cfg.RAG.Lambda != 0.5 || cfg.RAG.SearchMode != "similarity" {
		t.Errorf("rag overrides lost: %+v", cfg.RAG)
	}
	if !cfg.Store.InMemory {
		t.Error("store.in_memory override lost")
	}
	// untouched values still default
	if cfg.RAG.FetchK != 20 {
		t.Errorf("fetch_k default lost: %d", cfg.RAG.FetchK)
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "test-key")
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("llm: [not, a, mapping"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !models.IsPhase(err, models.PhaseConfig) {
		t.Fatalf("expected a config-phase error, got %v", err)
	}
}
