package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elimu-hub/elimu-core/internal/adapters/driven/vector/memory"
	"github.com/elimu-hub/elimu-core/internal/core/domain"
	"github.com/elimu-hub/elimu-core/internal/core/ports/driving"
	"github.com/elimu-hub/elimu-core/internal/segmenter"
)

func newIngestFixture(t *testing.T, cfg IngestConfig) (*IngestService, *mockDocStore, *mockEmbeddingService, *memory.Index) {
	t.Helper()

	seg, err := segmenter.New()
	require.NoError(t, err)

	store := newMockDocStore()
	embedder := &mockEmbeddingService{embedding: []float32{0.1, 0.2}}
	idx := memory.NewIndex()

	return NewIngestService(store, embedder, idx, seg, cfg), store, embedder, idx
}

func ingestRequest(text string) driving.IngestRequest {
	return driving.IngestRequest{
		Filename:       "grade4_math.pdf",
		EducationLevel: "Primary",
		Subject:        "Mathematics",
		Language:       "en",
		Pages: []domain.Page{{
			PageNumber:       1,
			Text:             text,
			ExtractionMethod: domain.ExtractionText,
		}},
	}
}

func TestIngest_Validation(t *testing.T) {
	svc, _, _, _ := newIngestFixture(t, IngestConfig{})
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*driving.IngestRequest)
	}{
		{"missing filename", func(r *driving.IngestRequest) { r.Filename = " " }},
		{"missing education level", func(r *driving.IngestRequest) { r.EducationLevel = "" }},
		{"missing subject", func(r *driving.IngestRequest) { r.Subject = "" }},
		{"no pages", func(r *driving.IngestRequest) { r.Pages = nil }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := ingestRequest("Fractions are parts of a whole.")
			tc.mutate(&req)

			_, err := svc.Ingest(ctx, req)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestIngest_HappyPath(t *testing.T) {
	svc, store, _, idx := newIngestFixture(t, IngestConfig{})
	ctx := context.Background()

	result, err := svc.Ingest(ctx, ingestRequest("Fractions are parts of a whole."))
	require.NoError(t, err)

	assert.NotEmpty(t, result.DocumentID)
	assert.Equal(t, 1, result.ChunkCount)
	assert.False(t, result.Duplicate)

	doc, err := store.GetDocument(ctx, result.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, doc.Status)
	assert.Equal(t, 1, doc.TotalChunks)
	assert.Equal(t, 1, doc.TotalPages)
	assert.NotEmpty(t, doc.ContentHash)

	chunks, err := store.GetChunks(ctx, result.DocumentID)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, result.DocumentID+":0", chunks[0].ID)

	vectors, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, vectors)
}

func TestIngest_VectorMetadataIsEager(t *testing.T) {
	svc, _, _, idx := newIngestFixture(t, IngestConfig{})
	ctx := context.Background()

	result, err := svc.Ingest(ctx, ingestRequest("Fractions are parts of a whole."))
	require.NoError(t, err)

	hits, err := idx.Query(ctx, []float32{0.1, 0.2}, 1, nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)

	m := hits[0].Metadata
	assert.Equal(t, result.DocumentID, m.DocumentID)
	assert.Equal(t, "grade4_math.pdf", m.Filename)
	assert.Equal(t, "Primary", m.EducationLevel)
	assert.Equal(t, "Mathematics", m.Subject)
	assert.Equal(t, "en", m.Language)
	assert.Equal(t, 1, m.PageNumber)
}

func TestIngest_DuplicateContentDetected(t *testing.T) {
	svc, store, _, idx := newIngestFixture(t, IngestConfig{})
	ctx := context.Background()

	first, err := svc.Ingest(ctx, ingestRequest("Fractions are parts of a whole."))
	require.NoError(t, err)

	// Same text under a different filename still collides on content hash.
	req := ingestRequest("Fractions are parts of a whole.")
	req.Filename = "renamed_copy.pdf"
	second, err := svc.Ingest(ctx, req)
	require.NoError(t, err)

	assert.True(t, second.Duplicate)
	assert.Equal(t, first.DocumentID, second.DocumentID)

	docs, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 1, "duplicate must not create a second document")

	vectors, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, vectors)
}

func TestIngest_EmbedFailureMarksDocumentFailed(t *testing.T) {
	svc, store, embedder, _ := newIngestFixture(t, IngestConfig{})
	embedder.batchErr = errBackend
	ctx := context.Background()

	_, err := svc.Ingest(ctx, ingestRequest("Fractions are parts of a whole."))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)

	docs, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, domain.StatusFailed, docs[0].Status)
	assert.NotEmpty(t, docs[0].ProcessingError)
}

func TestIngest_BlankPagesOnlyIsRejected(t *testing.T) {
	svc, store, _, _ := newIngestFixture(t, IngestConfig{})
	ctx := context.Background()

	_, err := svc.Ingest(ctx, ingestRequest("   \n\t  "))
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	docs, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, domain.StatusFailed, docs[0].Status)
}

func TestIngest_EmbedsInConfiguredBatches(t *testing.T) {
	svc, _, embedder, idx := newIngestFixture(t, IngestConfig{EmbedBatchSize: 2})
	ctx := context.Background()

	// Enough text for several chunks with the default window size.
	text := strings.Repeat("The Great Rift Valley runs through Kenya. ", 120)
	result, err := svc.Ingest(ctx, ingestRequest(text))
	require.NoError(t, err)
	require.Greater(t, result.ChunkCount, 2)

	total := 0
	for _, size := range embedder.batchSizes {
		assert.LessOrEqual(t, size, 2)
		total += size
	}
	assert.Equal(t, result.ChunkCount, total)

	vectors, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, result.ChunkCount, vectors)
}

func TestIngest_StatusTransitions(t *testing.T) {
	svc, store, _, _ := newIngestFixture(t, IngestConfig{})
	ctx := context.Background()

	_, err := svc.Ingest(ctx, ingestRequest("Fractions are parts of a whole."))
	require.NoError(t, err)

	assert.Equal(t, []string{domain.StatusProcessing, domain.StatusCompleted}, store.transitions)
}

func TestPurge_RemovesVectorsAndRecords(t *testing.T) {
	svc, store, _, idx := newIngestFixture(t, IngestConfig{})
	ctx := context.Background()

	result, err := svc.Ingest(ctx, ingestRequest("Fractions are parts of a whole."))
	require.NoError(t, err)

	require.NoError(t, svc.Purge(ctx, result.DocumentID))

	_, err = store.GetDocument(ctx, result.DocumentID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	vectors, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, vectors)

	// Purging again is a no-op, not an error.
	assert.NoError(t, svc.Purge(ctx, result.DocumentID))
}

func TestPurge_EmptyIDRejected(t *testing.T) {
	svc, _, _, _ := newIngestFixture(t, IngestConfig{})
	err := svc.Purge(context.Background(), "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
