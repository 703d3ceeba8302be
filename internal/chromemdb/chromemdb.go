package chromemdb

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"finrag/internal/models"
)

const compress = false

// Store holds the embedded chunks of the active report in a chromem-go
// collection, persisted under path unless inMemory is set. It is
// rebuilt wholesale on every upload and torn down on reset.
type Store struct {
	db             *chromem.DB
	collection     *chromem.Collection
	path           string
	collectionName string
	inMemory       bool
}

// NewStore opens (or creates) the vector database. The persisted
// directory is owned by this store and removed on Reset.
func NewStore(path, collectionName string, inMemory bool) (*Store, error) {
	s := &Store{
		path:           path,
		collectionName: collectionName,
		inMemory:       inMemory,
	}
	if err := s.ensure(); err != nil {
		return nil, err
	}
	return s, nil
}

// ensure opens the database and collection handles, recreating them
// after a Reset so the store stays rebuildable.
func (s *Store) ensure() error {
	if s.db == nil {
		if s.inMemory {
			s.db = chromem.NewDB()
		} else {
			db, err := chromem.NewPersistentDB(s.path, compress)
			if err != nil {
				return fmt.Errorf("opening vector database: %w", err)
			}
			s.db = db
		}
	}
	if s.collection == nil {
		c, err := s.db.GetOrCreateCollection(s.collectionName, nil, externalEmbeddings)
		if err != nil {
			return fmt.Errorf("creating collection: %w", err)
		}
		s.collection = c
	}
	return nil
}

// externalEmbeddings guards against accidental in-store embedding: every
// document and query arrives with its vector already computed.
func externalEmbeddings(context.Context, string) ([]float32, error) {
	return nil, fmt.Errorf("embeddings are computed outside the store")
}

// Add appends embedded chunks to the collection.
func (s *Store) Add(ctx context.Context, chunks []models.ChunkEmbedding) error {
	if len(chunks) == 0 {
		return nil
	}
	if err := s.ensure(); err != nil {
		return err
	}
	docs := make([]chromem.Document, len(chunks))
	for i, c := range chunks {
		docs[i] = chromem.Document{
			ID:        fmt.Sprintf("%s-%d-%d", c.SourceID, c.PageNumber, c.ChunkID),
			Content:   c.Content,
			Metadata:  encodeMetadata(c.Chunk),
			Embedding: c.Embedding,
		}
	}
	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("adding documents: %w", err)
	}
	return nil
}

// Search returns the k nearest chunks by cosine similarity, best first.
func (s *Store) Search(ctx context.Context, query []float32, k int) ([]models.ScoredChunk, error) {
	if s.collection == nil {
		return nil, nil
	}
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}
	results, err := s.collection.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: query,
		NResults:       k,
	})
	if err != nil {
		return nil, fmt.Errorf("similarity query: %w", err)
	}
	out := make([]models.ScoredChunk, len(results))
	for i, r := range results {
		out[i] = models.ScoredChunk{
			Chunk:     decodeMetadata(r.Content, r.Metadata),
			Embedding: r.Embedding,
			Score:     float64(r.Similarity),
		}
	}
	return out, nil
}

// Count reports how many chunks are indexed.
func (s *Store) Count(context.Context) (int, error) {
	if s.collection == nil {
		return 0, nil
	}
	return s.collection.Count(), nil
}

// Reset drops the collection and best-effort removes the persisted
// directory. Physical cleanup failures are logged, never returned: the
// logical reset must not depend on the filesystem cooperating. Calling
// Reset on an already-empty store is a no-op.
func (s *Store) Reset(context.Context) error {
	if s.db != nil && s.collection != nil {
		if err := s.db.DeleteCollection(s.collectionName); err != nil {
			log.Warn().Err(err).Str("collection", s.collectionName).Msg("cleanup: failed to delete collection")
		}
	}
	s.collection = nil
	if !s.inMemory {
		s.db = nil
		if err := os.RemoveAll(s.path); err != nil {
			log.Warn().Err(err).Str("path", s.path).Msg("cleanup: failed to remove persisted store")
		}
	}
	return nil
}

func encodeMetadata(c models.Chunk) map[string]string {
	m := map[string]string{
		"section":  string(c.Section),
		"page":     strconv.Itoa(c.PageNumber),
		"chunk_id": strconv.Itoa(c.ChunkID),
		"source":   c.SourceID,
	}
	if c.Heading != "" {
		m["heading"] = c.Heading
	}
	return m
}

func decodeMetadata(content string, m map[string]string) models.Chunk {
	page, _ := strconv.Atoi(m["page"])
	chunkID, _ := strconv.Atoi(m["chunk_id"])
	return models.Chunk{
		Content:    content,
		Section:    models.Section(m["section"]),
		PageNumber: page,
		ChunkID:    chunkID,
		SourceID:   m["source"],
		Heading:    m["heading"],
	}
}
