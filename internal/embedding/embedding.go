package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"finrag/internal/config"
	"finrag/internal/models"
)

// Embedder is the slice of langchaingo's embedder the pipeline needs.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// New builds the embedder named by the config. One embedder serves the
// whole lifetime of an index; mixing models across an index would make
// distances incomparable.
func New(cfg *config.Config) (Embedder, error) {
	switch cfg.Embedding.Provider {
	case "ollama":
		return newOllamaEmbedder(&cfg.Embedding)
	case "openai", "":
		return newOpenAIEmbedder(cfg)
	default:
		return nil, models.EmbeddingError(fmt.Errorf("unknown embedding provider: %s", cfg.Embedding.Provider))
	}
}

func newOpenAIEmbedder(cfg *config.Config) (*embeddings.EmbedderImpl, error) {
	llm, err := openai.New(
		openai.WithBaseURL(cfg.LLM.BaseURL),
		openai.WithToken(strings.TrimPrefix(cfg.LLM.Key, "Bearer ")),
		openai.WithModel(cfg.Embedding.Model),
		openai.WithEmbeddingModel(cfg.Embedding.Model),
	)
	if err != nil {
		return nil, models.EmbeddingError(err)
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, models.EmbeddingError(err)
	}
	return embedder, nil
}

func newOllamaEmbedder(cfg *config.EmbeddingConfig) (*embeddings.EmbedderImpl, error) {
	llm, err := ollama.New(
		ollama.WithServerURL(cfg.BaseURL),
		ollama.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, models.EmbeddingError(err)
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, models.EmbeddingError(err)
	}
	return embedder, nil
}

// EmbedChunks embeds every chunk in order. The result keeps chunk order
// and never contains silent zero vectors: an all-zero embedding is an
// error, not a datapoint.
func EmbedChunks(ctx context.Context, embedder Embedder, chunks []models.Chunk) ([]models.ChunkEmbedding, error) {
	if len(chunks) == 0 {
		return nil, nil
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, models.EmbeddingError(err)
	}
	if len(vectors) != len(chunks) {
		return nil, models.EmbeddingError(fmt.Errorf("got %d vectors for %d chunks", len(vectors), len(chunks)))
	}
	out := make([]models.ChunkEmbedding, len(chunks))
	for i, vec := range vectors {
		if isZero(vec) {
			return nil, models.EmbeddingError(fmt.Errorf("zero vector for chunk %d (page %d)", chunks[i].ChunkID, chunks[i].PageNumber))
		}
		out[i] = models.ChunkEmbedding{Chunk: chunks[i], Embedding: vec}
	}
	return out, nil
}

// EmbedQuery embeds a single query string.
func EmbedQuery(ctx context.Context, embedder Embedder, query string) ([]float32, error) {
	vec, err := embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, models.RetrievalError(err)
	}
	if isZero(vec) {
		return nil, models.RetrievalError(fmt.Errorf("embedding backend returned a zero vector"))
	}
	return vec, nil
}

func isZero(vec []float32) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}
