package embedding

import (
	"context"
	"errors"
	"testing"

	"finrag/internal/models"
)

type stubEmbedder struct {
	vectors [][]float32
	err     error
}

func (s *stubEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.vectors[:len(texts)], nil
}

func (s *stubEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.vectors[0], nil
}

func chunks(n int) []models.Chunk {
	out := make([]models.Chunk, n)
	for i := range out {
		out[i] = models.Chunk{Content: "text", ChunkID: i + 1, PageNumber: i + 1}
	}
	return out
}

func TestEmbedChunksPreservesOrder(t *testing.T) {
	stub := &stubEmbedder{vectors: [][]float32{{1, 0}, {0, 1}, {1, 1}}}
	got, err := EmbedChunks(context.Background(), stub, chunks(3))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 embedded chunks, got %d", len(got))
	}
	for i, ce := range got {
		if ce.ChunkID != i+1 {
			t.Errorf("chunk order changed at %d: %+v", i, ce.Chunk)
		}
	}
	if got[1].Embedding[1] != 1 {
		t.Error("vectors paired with the wrong chunks")
	}
}

func TestEmbedChunksRejectsZeroVectors(t *testing.T) {
	stub := &stubEmbedder{vectors: [][]float32{{1, 0}, {0, 0}}}
	_, err := EmbedChunks(context.Background(), stub, chunks(2))
	if !models.IsPhase(err, models.PhaseEmbed) {
		t.Fatalf("a zero vector must be an embed-phase error, got %v", err)
	}
}

func TestEmbedChunksBackendError(t *testing.T) {
	stub := &stubEmbedder{err: errors.New("model unavailable")}
	_, err := EmbedChunks(context.Background(), stub, chunks(1))
	if !models.IsPhase(err, models.PhaseEmbed) {
		t.Fatalf("expected an embed-phase error, got %v", err)
	}
}

func TestEmbedChunksEmptyInput(t *testing.T) {
	got, err := EmbedChunks(context.Background(), &stubEmbedder{}, nil)
	if err != nil || got != nil {
		t.Errorf("empty input should be a no-op, got %v, %v", got, err)
	}
}

func TestEmbedQueryErrorIsRetrievalPhase(t *testing.T) {
	stub := &stubEmbedder{err: errors.New("down")}
	_, err := EmbedQuery(context.Background(), stub, "revenue")
	if !models.IsPhase(err, models.PhaseRetrieve) {
		t.Fatalf("query embedding failures belong to the retrieve phase, got %v", err)
	}
}

func TestEmbedQueryRejectsZeroVector(t *testing.T) {
	stub := &stubEmbedder{vectors: [][]float32{{0, 0, 0}}}
	_, err := EmbedQuery(context.Background(), stub, "revenue")
	if !models.IsPhase(err, models.PhaseRetrieve) {
		t.Fatalf("expected a retrieve-phase error, got %v", err)
	}
}
