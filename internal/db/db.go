package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"finrag/internal/config"
	"finrag/internal/models"
)

// ChunkRow is the pgvector-backed row for one embedded chunk. The
// embedding travels as a pgvector literal ("[0.1,0.2,...]") in both
// directions.
type ChunkRow struct {
	bun.BaseModel `bun:"table:report_chunks,alias:c"`
	ID            int64   `bun:"id,pk,autoincrement"`
	Content       string  `bun:"content,notnull"`
	Embedding     string  `bun:"embedding,notnull"`
	Section       string  `bun:"section,notnull"`
	PageNumber    int     `bun:"page_number,notnull"`
	SourceID      string  `bun:"source_id,notnull"`
	ChunkID       int     `bun:"chunk_id,notnull"`
	Heading       string  `bun:"heading"`
	Score         float64 `bun:"score,scanonly"`
}

// Store is the alternative vector store backend on Postgres + pgvector,
// kept for deployments that already run a database.
type Store struct {
	db         *bun.DB
	vectorSize int
}

// Connect opens the Postgres connection described by the config.
func Connect(cfg *config.DatabaseConfig) (*bun.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN)))
	db := bun.NewDB(sqldb, pgdialect.New())
	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db, nil
}

// NewStore prepares the schema and returns the store.
func NewStore(ctx context.Context, db *bun.DB, vectorSize int) (*Store, error) {
	s := &Store{db: db, vectorSize: vectorSize}
	if err := s.init(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("creating vector extension: %w", err)
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS report_chunks (
		id BIGSERIAL PRIMARY KEY,
		content TEXT NOT NULL,
		embedding vector(%d) NOT NULL,
		section TEXT NOT NULL,
		page_number INT NOT NULL,
		source_id TEXT NOT NULL,
		chunk_id INT NOT NULL,
		heading TEXT
	)`, s.vectorSize)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("creating report_chunks table: %w", err)
	}
	return nil
}

// Add inserts embedded chunks in one batch.
func (s *Store) Add(ctx context.Context, chunks []models.ChunkEmbedding) error {
	if len(chunks) == 0 {
		return nil
	}
	rows := make([]ChunkRow, len(chunks))
	for i, c := range chunks {
		rows[i] = ChunkRow{
			Content:    c.Content,
			Embedding:  vectorLiteral(c.Embedding),
			Section:    string(c.Section),
			PageNumber: c.PageNumber,
			SourceID:   c.SourceID,
			ChunkID:    c.ChunkID,
			Heading:    c.Heading,
		}
	}
	if _, err := s.db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return fmt.Errorf("storing chunks: %w", err)
	}
	return nil
}

// Search returns the k nearest chunks by cosine similarity, best first.
func (s *Store) Search(ctx context.Context, query []float32, k int) ([]models.ScoredChunk, error) {
	lit := vectorLiteral(query)
	var rows []ChunkRow
	err := s.db.NewSelect().
		Model(&rows).
		ColumnExpr("c.content, c.embedding::text AS embedding, c.section, c.page_number, c.source_id, c.chunk_id, c.heading").
		ColumnExpr("1 - (c.embedding <=> ?::vector) AS score", lit).
		OrderExpr("c.embedding <=> ?::vector", lit).
		Limit(k).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("similarity query: %w", err)
	}
	out := make([]models.ScoredChunk, len(rows))
	for i, r := range rows {
		out[i] = models.ScoredChunk{
			Chunk: models.Chunk{
				Content:    r.Content,
				Section:    models.Section(r.Section),
				PageNumber: r.PageNumber,
				ChunkID:    r.ChunkID,
				SourceID:   r.SourceID,
				Heading:    r.Heading,
			},
			Embedding: parseVector(r.Embedding),
			Score:     r.Score,
		}
	}
	return out, nil
}

// Count reports how many chunks are indexed.
func (s *Store) Count(ctx context.Context) (int, error) {
	return s.db.NewSelect().Model((*ChunkRow)(nil)).Count(ctx)
}

// Reset drops and recreates the table. Failures are logged, not
// returned: a physical cleanup problem must not block the logical reset.
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.db.NewDropTable().Model((*ChunkRow)(nil)).IfExists().Exec(ctx); err != nil {
		log.Warn().Err(err).Msg("cleanup: failed to drop report_chunks")
		return nil
	}
	if err := s.init(ctx); err != nil {
		log.Warn().Err(err).Msg("cleanup: failed to recreate report_chunks")
	}
	return nil
}

func vectorLiteral(vec []float32) string {
	parts := make([]string, len(vec))
	for i, v := range vec {
		parts[i] = strconv.FormatFloat(float64(v), 'f', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func parseVector(lit string) []float32 {
	lit = strings.Trim(strings.TrimSpace(lit), "[]")
	if lit == "" {
		return nil
	}
	parts := strings.Split(lit, ",")
	vec := make([]float32, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			continue
		}
		vec = append(vec, float32(f))
	}
	return vec
}
