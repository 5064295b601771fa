package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elimu-hub/elimu-core/internal/adapters/driven/vector/memory"
	"github.com/elimu-hub/elimu-core/internal/core/domain"
	"github.com/elimu-hub/elimu-core/internal/core/ports/driven"
)

func seedIndex(t *testing.T, idx *memory.Index, entries ...driven.VectorEntry) {
	t.Helper()
	require.NoError(t, idx.Upsert(context.Background(), entries))
}

func vectorEntry(id string, vec []float32, subject string, chunkIndex int) driven.VectorEntry {
	return driven.VectorEntry{
		ID:        id,
		Embedding: vec,
		Content:   "content of " + id,
		Metadata: domain.ChunkMetadata{
			ChunkID:    id,
			DocumentID: "doc-1",
			ChunkIndex: chunkIndex,
			Subject:    subject,
			Filename:   "book.pdf",
			PageNumber: 1,
		},
	}
}

func TestRetrieve_EmptyQueryRejected(t *testing.T) {
	s := NewRetrievalService(&mockEmbeddingService{}, memory.NewIndex(), RetrievalConfig{})

	_, err := s.Retrieve(context.Background(), "   ", 5, domain.Filter{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRetrieve_ZeroKReturnsEmpty(t *testing.T) {
	s := NewRetrievalService(&mockEmbeddingService{embedding: []float32{1, 0}}, memory.NewIndex(), RetrievalConfig{})

	results, err := s.Retrieve(context.Background(), "query", 0, domain.Filter{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRetrieve_EmbeddingFailure(t *testing.T) {
	embedder := &mockEmbeddingService{embedErr: errBackend}
	s := NewRetrievalService(embedder, memory.NewIndex(), RetrievalConfig{})

	_, err := s.Retrieve(context.Background(), "query", 5, domain.Filter{})
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestRetrieve_ThresholdDropsWeakHits(t *testing.T) {
	idx := memory.NewIndex()
	seedIndex(t, idx,
		vectorEntry("strong", []float32{1, 0}, "Mathematics", 0),    // similarity 1.0
		vectorEntry("medium", []float32{0.6, 0.8}, "Mathematics", 1), // similarity 0.6
		vectorEntry("weak", []float32{0, 1}, "Mathematics", 2),       // similarity 0.0
	)

	embedder := &mockEmbeddingService{embedding: []float32{1, 0}}
	s := NewRetrievalService(embedder, idx, RetrievalConfig{})

	results, err := s.Retrieve(context.Background(), "query", 5, domain.Filter{})
	require.NoError(t, err)
	require.Len(t, results, 2, "hits below min score must be dropped")
	assert.Equal(t, "strong", results[0].ChunkID)
	assert.Equal(t, "medium", results[1].ChunkID)
}

func TestRetrieve_SimilarityIsOneMinusDistance(t *testing.T) {
	idx := memory.NewIndex()
	seedIndex(t, idx, vectorEntry("c1", []float32{1, 0}, "Science", 0))

	embedder := &mockEmbeddingService{embedding: []float32{1, 0}}
	s := NewRetrievalService(embedder, idx, RetrievalConfig{})

	results, err := s.Retrieve(context.Background(), "query", 1, domain.Filter{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-9)
	assert.InDelta(t, 1-results[0].Distance, results[0].Similarity, 1e-9)
}

func TestRetrieve_TruncatesToK(t *testing.T) {
	idx := memory.NewIndex()
	seedIndex(t, idx,
		vectorEntry("c0", []float32{1, 0}, "Science", 0),
		vectorEntry("c1", []float32{0.99, 0.05}, "Science", 1),
		vectorEntry("c2", []float32{0.98, 0.1}, "Science", 2),
		vectorEntry("c3", []float32{0.97, 0.15}, "Science", 3),
	)

	embedder := &mockEmbeddingService{embedding: []float32{1, 0}}
	s := NewRetrievalService(embedder, idx, RetrievalConfig{})

	results, err := s.Retrieve(context.Background(), "query", 2, domain.Filter{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "c0", results[0].ChunkID)
	assert.Equal(t, "c1", results[1].ChunkID)
}

func TestRetrieve_FilterRestrictsResults(t *testing.T) {
	idx := memory.NewIndex()
	seedIndex(t, idx,
		vectorEntry("math", []float32{1, 0}, "Mathematics", 0),
		vectorEntry("science", []float32{1, 0}, "Science", 1),
	)

	embedder := &mockEmbeddingService{embedding: []float32{1, 0}}
	s := NewRetrievalService(embedder, idx, RetrievalConfig{})

	results, err := s.Retrieve(context.Background(), "query", 5, domain.Filter{Subject: "Science"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "science", results[0].ChunkID)
}

func TestRetrieve_CustomMinScore(t *testing.T) {
	idx := memory.NewIndex()
	seedIndex(t, idx, vectorEntry("medium", []float32{0.6, 0.8}, "Science", 0)) // similarity 0.6

	embedder := &mockEmbeddingService{embedding: []float32{1, 0}}
	s := NewRetrievalService(embedder, idx, RetrievalConfig{MinScore: 0.7})

	results, err := s.Retrieve(context.Background(), "query", 5, domain.Filter{})
	require.NoError(t, err)
	assert.Empty(t, results, "hit below the raised threshold must be dropped")
}
