package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"

	"finrag/internal/models"
)

type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	// Key is never read from the config file; it comes from the environment.
	Key string `yaml:"-"`
}

type EmbeddingConfig struct {
	Provider string `yaml:"provider"` // "openai" or "ollama"
	BaseURL  string `yaml:"base_url"`
	Model    string `yaml:"model"`
}

type RAGConfig struct {
	TopK       int     `yaml:"top_k"`
	FetchK     int     `yaml:"fetch_k"`
	Lambda     float64 `yaml:"lambda"`
	SearchMode string  `yaml:"search_mode"` // "mmr" or "similarity"
}

type StoreConfig struct {
	Backend    string `yaml:"backend"` // "chromem" or "pgvector"
	Path       string `yaml:"path"`
	Collection string `yaml:"collection"`
	InMemory   bool   `yaml:"in_memory"`
}

type DatabaseConfig struct {
	DSN        string `yaml:"dsn"`
	Debug      bool   `yaml:"debug"`
	VectorSize int    `yaml:"vector_size"`
}

type Config struct {
	LLM       LLMConfig       `yaml:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	RAG       RAGConfig       `yaml:"rag"`
	Store     StoreConfig     `yaml:"store"`
	Database  DatabaseConfig  `yaml:"database"`
}

type secrets struct {
	APIKey string `env:"OPENROUTER_API_KEY"`
}

// Load reads the yaml config at path, fills defaults and pulls secrets
// from the environment. A missing config file falls back to defaults; a
// missing API key is fatal.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, models.ConfigError(fmt.Errorf("parsing %s: %w", path, err))
		}
	case os.IsNotExist(err):
		// defaults only
	default:
		return nil, models.ConfigError(err)
	}
	cfg.applyDefaults()

	var sec secrets
	if err := env.Parse(&sec); err != nil {
		return nil, models.ConfigError(err)
	}
	cfg.LLM.Key = sec.APIKey
	if cfg.LLM.Key == "" {
		return nil, models.ConfigError(errors.New("OPENROUTER_API_KEY is not set; the chat backend needs a credential"))
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "https://openrouter.ai/api/v1"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "openai/gpt-oss-20b"
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Model == "" {
		switch c.Embedding.Provider {
		case "ollama":
			c.Embedding.Model = "nomic-embed-text"
		default:
			c.Embedding.Model = "text-embedding-3-small"
		}
	}
	if c.Embedding.BaseURL == "" && c.Embedding.Provider == "ollama" {
		c.Embedding.BaseURL = "http://localhost:11434"
	}
	if c.RAG.TopK == 0 {
		c.RAG.TopK = 6
	}
	if c.RAG.FetchK == 0 {
		c.RAG.FetchK = 20
	}
	if c.RAG.Lambda == 0 {
		c.RAG.Lambda = 0.7
	}
	if c.RAG.SearchMode == "" {
		c.RAG.SearchMode = "mmr"
	}
	if c.Store.Backend == "" {
		c.Store.Backend = "chromem"
	}
	if c.Store.Path == "" {
		c.Store.Path = "./chroma_db"
	}
	if c.Store.Collection == "" {
		c.Store.Collection = "report"
	}
	if c.Database.VectorSize == 0 {
		c.Database.VectorSize = 1536
	}
}
