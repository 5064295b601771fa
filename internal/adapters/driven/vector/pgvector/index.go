// Package pgvector provides a Postgres-backed vector index adapter using
// the pgvector extension. Cosine distance is computed server-side with the
// <=> operator, so filtered nearest-neighbour queries run in one round trip.
package pgvector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgv "github.com/pgvector/pgvector-go"
	pgvectorpgx "github.com/pgvector/pgvector-go/pgx"

	"github.com/elimu-hub/elimu-core/internal/core/domain"
	"github.com/elimu-hub/elimu-core/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Default configuration values.
const (
	DefaultTable      = "chunk_vectors"
	DefaultDimensions = 768
)

// filterColumns maps filterable metadata fields to table columns. Only
// these fields may appear in query predicates or metadata deletes.
var filterColumns = map[string]string{
	domain.FieldEducationLevel: "education_level",
	domain.FieldSubject:        "subject",
	domain.FieldLanguage:       "language",
	domain.FieldDocumentID:     "document_id",
}

// Config holds configuration for the pgvector index.
type Config struct {
	// ConnString is the Postgres connection string (required).
	ConnString string

	// Table is the vector table name (default: chunk_vectors).
	Table string

	// Dimensions is the embedding vector size (default: 768). Must match
	// the embedding service configuration.
	Dimensions int
}

// Index is a pgvector-backed implementation of driven.VectorIndex.
type Index struct {
	pool  *pgxpool.Pool
	table string
}

// NewIndex connects to Postgres, ensures the vector extension and table
// exist, and returns the index.
func NewIndex(ctx context.Context, cfg Config) (*Index, error) {
	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.ConnString)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgvectorpgx.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %w", domain.ErrVectorIndexUnavailable, err)
	}

	idx := &Index{pool: pool, table: cfg.Table}
	if err := idx.ensureSchema(ctx, cfg.Dimensions); err != nil {
		pool.Close()
		return nil, err
	}
	return idx, nil
}

// ensureSchema creates the vector extension and table if missing.
func (idx *Index) ensureSchema(ctx context.Context, dimensions int) error {
	if _, err := idx.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}

	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id                TEXT PRIMARY KEY,
			embedding         vector(%d) NOT NULL,
			content           TEXT NOT NULL,
			document_id       TEXT NOT NULL,
			chunk_index       INTEGER NOT NULL,
			page_number       INTEGER NOT NULL,
			filename          TEXT NOT NULL,
			education_level   TEXT NOT NULL,
			subject           TEXT NOT NULL,
			language          TEXT NOT NULL,
			extraction_method TEXT NOT NULL,
			character_count   INTEGER NOT NULL,
			token_count       INTEGER NOT NULL,
			confidence_score  DOUBLE PRECISION,
			updated_at        TIMESTAMPTZ NOT NULL
		)`, idx.table, dimensions)
	if _, err := idx.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create vector table: %w", err)
	}

	indexDDL := fmt.Sprintf(
		"CREATE INDEX IF NOT EXISTS %s_document_id_idx ON %s (document_id)",
		idx.table, idx.table)
	if _, err := idx.pool.Exec(ctx, indexDDL); err != nil {
		return fmt.Errorf("create document index: %w", err)
	}
	return nil
}

// Upsert inserts or replaces entries by ID in a single transaction.
func (idx *Index) Upsert(ctx context.Context, entries []driven.VectorEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := idx.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	query := fmt.Sprintf(`
		INSERT INTO %s (
			id, embedding, content, document_id, chunk_index, page_number,
			filename, education_level, subject, language, extraction_method,
			character_count, token_count, confidence_score, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			content = EXCLUDED.content,
			document_id = EXCLUDED.document_id,
			chunk_index = EXCLUDED.chunk_index,
			page_number = EXCLUDED.page_number,
			filename = EXCLUDED.filename,
			education_level = EXCLUDED.education_level,
			subject = EXCLUDED.subject,
			language = EXCLUDED.language,
			extraction_method = EXCLUDED.extraction_method,
			character_count = EXCLUDED.character_count,
			token_count = EXCLUDED.token_count,
			confidence_score = EXCLUDED.confidence_score,
			updated_at = EXCLUDED.updated_at
	`, idx.table)

	now := time.Now().UTC()
	for _, e := range entries {
		m := e.Metadata
		if _, err := tx.Exec(ctx, query,
			e.ID, pgv.NewVector(e.Embedding), e.Content,
			m.DocumentID, m.ChunkIndex, m.PageNumber, m.Filename,
			m.EducationLevel, m.Subject, m.Language, m.ExtractionMethod,
			m.CharacterCount, m.TokenCount, m.Confidence, now,
		); err != nil {
			return fmt.Errorf("upsert vector %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Query returns up to k nearest neighbours by ascending cosine distance,
// with ties broken by chunk index for deterministic ordering.
func (idx *Index) Query(
	ctx context.Context, vector []float32, k int, predicates map[string]string,
) ([]driven.VectorHit, error) {
	if k <= 0 {
		return nil, nil
	}

	where, args := buildWhere(predicates)
	args = append([]any{pgv.NewVector(vector)}, args...)
	args = append(args, k)

	query := fmt.Sprintf(`
		SELECT id, content, document_id, chunk_index, page_number, filename,
		       education_level, subject, language, extraction_method,
		       character_count, token_count, confidence_score,
		       embedding <=> $1 AS distance
		FROM %s
		%s
		ORDER BY embedding <=> $1, chunk_index
		LIMIT $%d
	`, idx.table, where, len(args))

	rows, err := idx.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query vectors: %w", err)
	}
	defer rows.Close()

	var hits []driven.VectorHit //nolint:prealloc // size unknown from query
	for rows.Next() {
		var h driven.VectorHit
		m := &h.Metadata
		if err := rows.Scan(&h.ID, &h.Content, &m.DocumentID, &m.ChunkIndex,
			&m.PageNumber, &m.Filename, &m.EducationLevel, &m.Subject,
			&m.Language, &m.ExtractionMethod, &m.CharacterCount,
			&m.TokenCount, &m.Confidence, &h.Distance); err != nil {
			return nil, fmt.Errorf("scan vector hit: %w", err)
		}
		m.ChunkID = h.ID
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vector hits: %w", err)
	}
	return hits, nil
}

// DeleteByMetadata removes every entry whose metadata field matches value.
func (idx *Index) DeleteByMetadata(ctx context.Context, field, value string) error {
	column, ok := filterColumns[field]
	if !ok {
		return fmt.Errorf("%w: field %q is not filterable", domain.ErrInvalidInput, field)
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", idx.table, column)
	if _, err := idx.pool.Exec(ctx, query, value); err != nil {
		return fmt.Errorf("delete vectors by %s: %w", field, err)
	}
	return nil
}

// Count returns the total number of stored entries.
func (idx *Index) Count(ctx context.Context) (int, error) {
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", idx.table)
	if err := idx.pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count vectors: %w", err)
	}
	return count, nil
}

// Close releases the connection pool.
func (idx *Index) Close() error {
	idx.pool.Close()
	return nil
}

// buildWhere renders the predicate conjunction as a WHERE clause. Supplying
// zero predicates yields an empty clause: unfiltered search. Placeholders
// start at $2 because $1 is always the query vector.
func buildWhere(predicates map[string]string) (string, []any) {
	if len(predicates) == 0 {
		return "", nil
	}

	// Deterministic column order keeps generated SQL stable.
	conds := make([]string, 0, len(predicates))
	args := make([]any, 0, len(predicates))
	for _, field := range []string{
		domain.FieldEducationLevel, domain.FieldSubject,
		domain.FieldLanguage, domain.FieldDocumentID,
	} {
		value, ok := predicates[field]
		if !ok {
			continue
		}
		args = append(args, value)
		conds = append(conds, fmt.Sprintf("%s = $%d", filterColumns[field], len(args)+1))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}
