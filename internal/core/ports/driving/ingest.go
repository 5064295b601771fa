package driving

import (
	"context"

	"github.com/elimu-hub/elimu-core/internal/core/domain"
)

// IngestRequest describes one document to ingest: its metadata and the
// ordered pages produced by the extraction collaborator.
type IngestRequest struct {
	// Filename is the source file name used in citations.
	Filename string

	// EducationLevel, Subject and Language classify the document.
	EducationLevel string
	Subject        string
	Language       string

	// Pages is the ordered extracted text.
	Pages []domain.Page
}

// IngestResult reports the outcome of one ingestion.
type IngestResult struct {
	// DocumentID is the stored document's ID.
	DocumentID string

	// ChunkCount is the number of chunks created and indexed.
	ChunkCount int

	// Duplicate is true when the content hash matched an existing
	// document and no work was done.
	Duplicate bool
}

// IngestService is the document write path: segmentation, embedding and
// index upsert. Ingestion of a given document runs at most once
// concurrently; concurrent re-ingestion of identical content is safe but
// wasteful because upserts are keyed by stable chunk IDs.
type IngestService interface {
	// Ingest segments, embeds and indexes one document.
	Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error)

	// Purge removes a document's chunks from the vector index and the
	// relational store. The two deletions are independent idempotent
	// operations; no ordering is coordinated between them.
	Purge(ctx context.Context, documentID string) error
}
