package session

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"

	"finrag/internal/config"
	"finrag/internal/embedding"
	"finrag/internal/helper"
	"finrag/internal/models"
	"finrag/internal/parser"
	"finrag/internal/rag"
)

// ErrNoDocument is returned when a question arrives before any report
// has been indexed. Its text is the exact message shown to the user; no
// backend call happens on this path.
var ErrNoDocument = errors.New(models.NoDocumentMessage)

// Session owns the chat history and the single live index. All
// operations take the session lock, so index builds and resets never
// race a search.
type Session struct {
	mu       sync.Mutex
	cfg      *config.Config
	store    rag.Store
	embedder embedding.Embedder
	rag      *rag.RAG
	history  []models.ChatTurn
	indexed  bool
}

func New(cfg *config.Config, store rag.Store, embedder embedding.Embedder, llm rag.ChatModel) *Session {
	return &Session{
		cfg:      cfg,
		store:    store,
		embedder: embedder,
		rag:      rag.New(store, embedder, llm, &cfg.RAG),
	}
}

// Restore marks the session as indexed when a persisted store already
// holds chunks, so one-shot queries work across process restarts.
func (s *Session) Restore(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.store.Count(ctx)
	if err != nil {
		return err
	}
	s.indexed = n > 0
	return nil
}

// Indexed reports whether a report is currently queryable.
func (s *Session) Indexed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexed
}

// Upload ingests one report: extract units, classify and drop legal
// pages, chunk per section, embed, then swap the index. The build is
// all-or-nothing: nothing touches the store until every chunk has an
// embedding, and a failed swap tears the store back down so no partial
// index is left queryable.
func (s *Session) Upload(ctx context.Context, path string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ingestID, err := helper.GenerateUUID()
	if err != nil {
		return 0, models.IngestError(err)
	}
	sourceID := filepath.Base(path)
	logger := log.With().Str("ingest_id", ingestID).Str("source", sourceID).Logger()

	units, err := parser.Load(path, sourceID)
	if err != nil {
		return 0, err
	}

	chunks := parser.BuildChunks(units, parser.MarkdownAware(path))
	if len(chunks) == 0 {
		return 0, models.IngestError(fmt.Errorf("%s has no indexable content", sourceID))
	}
	logger.Info().Int("units", len(units)).Int("chunks", len(chunks)).Msg("document chunked")

	embedded, err := embedding.EmbedChunks(ctx, s.embedder, chunks)
	if err != nil {
		return 0, err
	}

	// Swap: the previous index dies with the new upload.
	if err := s.store.Reset(ctx); err != nil {
		return 0, models.IngestError(err)
	}
	s.indexed = false
	if err := s.store.Add(ctx, embedded); err != nil {
		if rerr := s.store.Reset(ctx); rerr != nil {
			log.Warn().Err(rerr).Msg("cleanup after failed index build")
		}
		return 0, models.IngestError(err)
	}
	s.indexed = true
	logger.Info().Int("chunks", len(embedded)).Msg("index built")
	return len(embedded), nil
}

// Ask answers one question against the live index using the current
// history. Without an index it fails fast with ErrNoDocument and makes
// no backend call. Retrieval or generation failures leave the index
// intact; the question can simply be asked again.
func (s *Session) Ask(ctx context.Context, question string) (*rag.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.indexed {
		return nil, ErrNoDocument
	}
	history := make([]models.ChatTurn, len(s.history))
	copy(history, s.history)
	return s.rag.Ask(ctx, history, question)
}

// RecordExchange appends a completed question/answer pair to the
// history. Abandoned or failed generations are never recorded.
func (s *Session) RecordExchange(question, answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history,
		models.ChatTurn{Role: models.RoleUser, Content: question},
		models.ChatTurn{Role: models.RoleAssistant, Content: answer},
	)
}

// History returns a copy of the chat turns so far.
func (s *Session) History() []models.ChatTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ChatTurn, len(s.history))
	copy(out, s.history)
	return out
}

// Reset tears the session down in a fixed order: drop the index and its
// persisted copy (tolerating physical cleanup failures), then clear the
// history, then allow a new upload. Logical state ends consistent even
// if the filesystem does not cooperate. Safe to call repeatedly.
func (s *Session) Reset(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Reset(ctx); err != nil {
		log.Warn().Err(err).Msg("index deletion failed during reset")
	}
	s.history = nil
	s.indexed = false
	log.Info().Msg("session reset")
}
