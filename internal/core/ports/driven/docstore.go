package driven

import (
	"context"

	"github.com/elimu-hub/elimu-core/internal/core/domain"
)

// DocumentStore is the relational store collaborator. The core needs only
// create/read/update-status/delete for documents and chunks, plus a content
// hash lookup for deduplication before ingestion.
type DocumentStore interface {
	// SaveDocument stores or updates a document record.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID. Returns domain.ErrNotFound
	// when it does not exist.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetDocumentByHash looks a document up by content hash, for
	// deduplication. Returns domain.ErrNotFound when absent.
	GetDocumentByHash(ctx context.Context, hash string) (*domain.Document, error)

	// ListDocuments returns all document records.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// UpdateStatus transitions a document's processing status. The error
	// message is recorded when status is failed, and ProcessedAt is set
	// when status is completed.
	UpdateStatus(ctx context.Context, id, status, processingError string) error

	// SaveChunks stores chunk records, replacing by ID.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// GetChunks returns a document's chunks ordered by global index.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// DeleteDocument removes a document and, by cascade, its chunks.
	// Idempotent: deleting an absent document is not an error.
	DeleteDocument(ctx context.Context, id string) error

	// CountChunks returns the total number of stored chunks.
	CountChunks(ctx context.Context) (int, error)

	// LogQuery records an answered query for analytics.
	LogQuery(ctx context.Context, log *domain.QueryLog) error

	// Close closes the underlying database.
	Close() error
}
