package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/elimu-hub/elimu-core/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/elimu-hub/elimu-core/internal/core/domain"
	"github.com/elimu-hub/elimu-core/internal/core/ports/driven"
)

var _ driven.DocumentStore = (*Store)(nil)

// Store is the SQLite-backed document store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.elimu/data/elimu.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".elimu", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "elimu.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// SaveDocument stores or updates a document record.
func (s *Store) SaveDocument(ctx context.Context, doc *domain.Document) error {
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, filename, content_hash, education_level, subject,
			language, total_pages, total_chunks, status, processing_error,
			created_at, updated_at, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			filename = excluded.filename,
			content_hash = excluded.content_hash,
			education_level = excluded.education_level,
			subject = excluded.subject,
			language = excluded.language,
			total_pages = excluded.total_pages,
			total_chunks = excluded.total_chunks,
			status = excluded.status,
			processing_error = excluded.processing_error,
			updated_at = excluded.updated_at,
			processed_at = excluded.processed_at
	`, doc.ID, doc.Filename, doc.ContentHash, doc.EducationLevel, doc.Subject,
		doc.Language, doc.TotalPages, doc.TotalChunks, doc.Status,
		nullString(doc.ProcessingError), doc.CreatedAt, doc.UpdatedAt,
		nullTime(doc.ProcessedAt))

	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, filename, content_hash, education_level, subject, language,
		       total_pages, total_chunks, status, processing_error,
		       created_at, updated_at, processed_at
		FROM documents WHERE id = ?
	`, id)

	return scanDocument(row)
}

// GetDocumentByHash looks a document up by content hash.
func (s *Store) GetDocumentByHash(ctx context.Context, hash string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, filename, content_hash, education_level, subject, language,
		       total_pages, total_chunks, status, processing_error,
		       created_at, updated_at, processed_at
		FROM documents WHERE content_hash = ?
	`, hash)

	return scanDocument(row)
}

// ListDocuments returns all document records, newest first.
func (s *Store) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, filename, content_hash, education_level, subject, language,
		       total_pages, total_chunks, status, processing_error,
		       created_at, updated_at, processed_at
		FROM documents
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocumentRows(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return docs, nil
}

// UpdateStatus transitions a document's processing status. Moving to failed
// records the error; moving to completed stamps processed_at.
func (s *Store) UpdateStatus(ctx context.Context, id, status, processingError string) error {
	now := time.Now().UTC()
	var processedAt *time.Time
	if status == domain.StatusCompleted {
		processedAt = &now
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE documents
		SET status = ?, processing_error = ?, updated_at = ?,
		    processed_at = COALESCE(?, processed_at)
		WHERE id = ?
	`, status, nullString(processingError), now, nullTime(processedAt), id)
	if err != nil {
		return fmt.Errorf("updating status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SaveChunks stores chunk records, replacing by ID.
func (s *Store) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, chunk_index, page_number, content,
			character_count, token_count, extraction_method, confidence)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id = excluded.document_id,
			chunk_index = excluded.chunk_index,
			page_number = excluded.page_number,
			content = excluded.content,
			character_count = excluded.character_count,
			token_count = excluded.token_count,
			extraction_method = excluded.extraction_method,
			confidence = excluded.confidence
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.DocumentID,
			chunk.Index, chunk.PageNumber, chunk.Content, chunk.CharacterCount,
			chunk.TokenCount, chunk.ExtractionMethod, chunk.Confidence); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetChunks returns a document's chunks ordered by global index.
func (s *Store) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, chunk_index, page_number, content,
		       character_count, token_count, extraction_method, confidence
		FROM chunks WHERE document_id = ?
		ORDER BY chunk_index
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		var chunk domain.Chunk
		var confidence sql.NullFloat64
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Index,
			&chunk.PageNumber, &chunk.Content, &chunk.CharacterCount,
			&chunk.TokenCount, &chunk.ExtractionMethod, &confidence); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		if confidence.Valid {
			chunk.Confidence = &confidence.Float64
		}
		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return chunks, nil
}

// DeleteDocument removes a document and, by cascade, its chunks.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// CountChunks returns the total number of stored chunks.
func (s *Store) CountChunks(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return count, nil
}

// LogQuery records an answered query for analytics.
func (s *Store) LogQuery(ctx context.Context, log *domain.QueryLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}

	filtersJSON, err := json.Marshal(log.Filters)
	if err != nil {
		return fmt.Errorf("marshalling filters: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO query_logs (id, query, filters, response, chunks_used,
			processing_time_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, log.ID, log.Query, string(filtersJSON), log.Response, log.ChunksUsed,
		log.ProcessingTimeMs, time.Now().UTC())

	if err != nil {
		return fmt.Errorf("logging query: %w", err)
	}
	return nil
}

// ==================== Helper Functions ====================

// scanDocument scans a single document row.
func scanDocument(row *sql.Row) (*domain.Document, error) {
	var doc domain.Document
	var processingError sql.NullString
	var processedAt sql.NullTime

	if err := row.Scan(&doc.ID, &doc.Filename, &doc.ContentHash,
		&doc.EducationLevel, &doc.Subject, &doc.Language, &doc.TotalPages,
		&doc.TotalChunks, &doc.Status, &processingError,
		&doc.CreatedAt, &doc.UpdatedAt, &processedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.ProcessingError = processingError.String
	if processedAt.Valid {
		doc.ProcessedAt = &processedAt.Time
	}

	return &doc, nil
}

// scanDocumentRows scans a document from *sql.Rows.
func scanDocumentRows(rows *sql.Rows) (*domain.Document, error) {
	var doc domain.Document
	var processingError sql.NullString
	var processedAt sql.NullTime

	if err := rows.Scan(&doc.ID, &doc.Filename, &doc.ContentHash,
		&doc.EducationLevel, &doc.Subject, &doc.Language, &doc.TotalPages,
		&doc.TotalChunks, &doc.Status, &processingError,
		&doc.CreatedAt, &doc.UpdatedAt, &processedAt); err != nil {
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.ProcessingError = processingError.String
	if processedAt.Valid {
		doc.ProcessedAt = &processedAt.Time
	}

	return &doc, nil
}

// nullString converts an empty string to a NULL value.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// nullTime converts a nil time pointer to a NULL value.
func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
