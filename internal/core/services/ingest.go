package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/elimu-hub/elimu-core/internal/core/domain"
	"github.com/elimu-hub/elimu-core/internal/core/ports/driven"
	"github.com/elimu-hub/elimu-core/internal/core/ports/driving"
	"github.com/elimu-hub/elimu-core/internal/logger"
	"github.com/elimu-hub/elimu-core/internal/segmenter"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// DefaultEmbedBatchSize is the number of chunks embedded and indexed per
// round trip during ingestion.
const DefaultEmbedBatchSize = 100

// IngestConfig holds tunable ingestion parameters.
type IngestConfig struct {
	// EmbedBatchSize is the chunk batch size for embedding and index
	// upserts (default: 100).
	EmbedBatchSize int
}

// IngestService is the document write path. It deduplicates by content hash,
// segments pages into chunks, embeds them in batches and upserts vectors and
// chunk records. Document status tracks the pipeline: pending on creation,
// processing while work runs, completed or failed at the end.
type IngestService struct {
	docStore    driven.DocumentStore
	embedder    driven.EmbeddingService
	vectorIndex driven.VectorIndex
	segmenter   *segmenter.Segmenter
	batchSize   int
}

// NewIngestService creates an ingest service.
func NewIngestService(
	docStore driven.DocumentStore,
	embedder driven.EmbeddingService,
	vectorIndex driven.VectorIndex,
	seg *segmenter.Segmenter,
	cfg IngestConfig,
) *IngestService {
	if cfg.EmbedBatchSize <= 0 {
		cfg.EmbedBatchSize = DefaultEmbedBatchSize
	}

	return &IngestService{
		docStore:    docStore,
		embedder:    embedder,
		vectorIndex: vectorIndex,
		segmenter:   seg,
		batchSize:   cfg.EmbedBatchSize,
	}
}

// Ingest segments, embeds and indexes one document. Re-uploading content
// with an identical hash is detected before any segmentation work and
// reported as a duplicate, not an error.
func (s *IngestService) Ingest(
	ctx context.Context, req driving.IngestRequest,
) (*driving.IngestResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	logger.Section("Document Ingestion")
	logger.Info("Ingesting %s (%s / %s)", req.Filename, req.EducationLevel, req.Subject)

	hash := contentHash(req.Pages)

	existing, err := s.docStore.GetDocumentByHash(ctx, hash)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("check content hash: %w", err)
	}
	if existing != nil {
		logger.Info("Duplicate content, matches document %s", existing.ID)
		return &driving.IngestResult{
			DocumentID: existing.ID,
			ChunkCount: existing.TotalChunks,
			Duplicate:  true,
		}, nil
	}

	doc := &domain.Document{
		ID:             uuid.NewString(),
		Filename:       req.Filename,
		ContentHash:    hash,
		EducationLevel: req.EducationLevel,
		Subject:        req.Subject,
		Language:       req.Language,
		TotalPages:     countNonEmptyPages(req.Pages),
		Status:         domain.StatusPending,
	}
	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}

	if err := s.docStore.UpdateStatus(ctx, doc.ID, domain.StatusProcessing, ""); err != nil {
		return nil, fmt.Errorf("mark processing: %w", err)
	}

	chunkCount, err := s.process(ctx, doc, req.Pages)
	if err != nil {
		if statusErr := s.docStore.UpdateStatus(
			ctx, doc.ID, domain.StatusFailed, err.Error()); statusErr != nil {
			logger.Warn("Could not record failure for %s: %v", doc.ID, statusErr)
		}
		return nil, err
	}

	doc.TotalChunks = chunkCount
	doc.Status = domain.StatusCompleted
	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("save chunk count: %w", err)
	}
	if err := s.docStore.UpdateStatus(ctx, doc.ID, domain.StatusCompleted, ""); err != nil {
		return nil, fmt.Errorf("mark completed: %w", err)
	}

	logger.Info("Ingested %s: %d chunks", doc.ID, chunkCount)

	return &driving.IngestResult{
		DocumentID: doc.ID,
		ChunkCount: chunkCount,
	}, nil
}

// process runs segmentation, batched embedding and indexing for one document.
func (s *IngestService) process(
	ctx context.Context, doc *domain.Document, pages []domain.Page,
) (int, error) {
	chunks := s.segmenter.Segment(doc.ID, pages)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("%w: no text content in any page", domain.ErrInvalidInput)
	}
	logger.Debug("Segmented into %d chunks", len(chunks))

	for start := 0; start < len(chunks); start += s.batchSize {
		end := start + s.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Content
		}

		embeddings, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return 0, fmt.Errorf("%w: embed batch at %d: %w",
				domain.ErrEmbeddingUnavailable, start, err)
		}
		if len(embeddings) != len(batch) {
			return 0, fmt.Errorf("embed batch at %d: got %d embeddings for %d chunks",
				start, len(embeddings), len(batch))
		}

		entries := make([]driven.VectorEntry, len(batch))
		for i, c := range batch {
			entries[i] = driven.VectorEntry{
				ID:        c.ID,
				Embedding: embeddings[i],
				Content:   c.Content,
				Metadata:  chunkMetadata(doc, c),
			}
		}

		if err := s.vectorIndex.Upsert(ctx, entries); err != nil {
			return 0, fmt.Errorf("upsert vectors at %d: %w", start, err)
		}
		logger.Debug("Indexed chunks %d-%d", start, end-1)
	}

	if err := s.docStore.SaveChunks(ctx, chunks); err != nil {
		return 0, fmt.Errorf("save chunks: %w", err)
	}

	return len(chunks), nil
}

// Purge removes a document's vectors and its relational records. The two
// deletions are independent and idempotent; a failure in one does not roll
// back the other.
func (s *IngestService) Purge(ctx context.Context, documentID string) error {
	if strings.TrimSpace(documentID) == "" {
		return fmt.Errorf("%w: empty document ID", domain.ErrInvalidInput)
	}

	logger.Section("Document Purge")

	var errs []error
	if err := s.vectorIndex.DeleteByMetadata(ctx, domain.FieldDocumentID, documentID); err != nil {
		errs = append(errs, fmt.Errorf("delete vectors: %w", err))
	}
	if err := s.docStore.DeleteDocument(ctx, documentID); err != nil {
		errs = append(errs, fmt.Errorf("delete document: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	logger.Info("Purged document %s", documentID)
	return nil
}

// validateRequest rejects requests missing required metadata or pages.
func validateRequest(req driving.IngestRequest) error {
	switch {
	case strings.TrimSpace(req.Filename) == "":
		return fmt.Errorf("%w: filename is required", domain.ErrInvalidInput)
	case strings.TrimSpace(req.EducationLevel) == "":
		return fmt.Errorf("%w: education level is required", domain.ErrInvalidInput)
	case strings.TrimSpace(req.Subject) == "":
		return fmt.Errorf("%w: subject is required", domain.ErrInvalidInput)
	case len(req.Pages) == 0:
		return fmt.Errorf("%w: no pages to ingest", domain.ErrInvalidInput)
	}
	return nil
}

// contentHash computes the SHA-256 of the extracted page text. Two uploads
// with identical text hash identically regardless of file name or metadata.
func contentHash(pages []domain.Page) string {
	h := sha256.New()
	for _, p := range pages {
		h.Write([]byte(p.Text))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// countNonEmptyPages counts pages that carry text after trimming.
func countNonEmptyPages(pages []domain.Page) int {
	n := 0
	for _, p := range pages {
		if strings.TrimSpace(p.Text) != "" {
			n++
		}
	}
	return n
}

// chunkMetadata assembles the metadata stored with each vector so retrieval
// never reaches back into the relational store.
func chunkMetadata(doc *domain.Document, c domain.Chunk) domain.ChunkMetadata {
	return domain.ChunkMetadata{
		ChunkID:          c.ID,
		DocumentID:       doc.ID,
		ChunkIndex:       c.Index,
		PageNumber:       c.PageNumber,
		Filename:         doc.Filename,
		EducationLevel:   doc.EducationLevel,
		Subject:          doc.Subject,
		Language:         doc.Language,
		ExtractionMethod: c.ExtractionMethod,
		CharacterCount:   c.CharacterCount,
		TokenCount:       c.TokenCount,
		Confidence:       c.Confidence,
	}
}
