package services

import (
	"context"
	"fmt"

	"github.com/elimu-hub/elimu-core/internal/core/ports/driven"
	"github.com/elimu-hub/elimu-core/internal/core/ports/driving"
)

// Ensure StatsService implements the interface.
var _ driving.StatsService = (*StatsService)(nil)

// StatsService reports corpus statistics for the status command.
type StatsService struct {
	docStore    driven.DocumentStore
	vectorIndex driven.VectorIndex
}

// NewStatsService creates a stats service.
func NewStatsService(docStore driven.DocumentStore, vectorIndex driven.VectorIndex) *StatsService {
	return &StatsService{
		docStore:    docStore,
		vectorIndex: vectorIndex,
	}
}

// Stats gathers document, chunk and vector counts plus per-metadata document
// breakdowns. The vector count should track the chunk count; a divergence
// points at a partial ingestion or purge.
func (s *StatsService) Stats(ctx context.Context) (*driving.Stats, error) {
	docs, err := s.docStore.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	chunks, err := s.docStore.CountChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("count chunks: %w", err)
	}

	vectors, err := s.vectorIndex.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count vectors: %w", err)
	}

	stats := &driving.Stats{
		Documents:       len(docs),
		Chunks:          chunks,
		Vectors:         vectors,
		EducationLevels: make(map[string]int),
		Subjects:        make(map[string]int),
		Languages:       make(map[string]int),
	}
	for _, doc := range docs {
		stats.EducationLevels[doc.EducationLevel]++
		stats.Subjects[doc.Subject]++
		stats.Languages[doc.Language]++
	}

	return stats, nil
}
