package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/elimu-hub/elimu-core/internal/core/domain"
	"github.com/elimu-hub/elimu-core/internal/core/ports/driven"
	"github.com/elimu-hub/elimu-core/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ Retriever = (*RetrievalService)(nil)

// Retriever returns the best-scoring chunks for a query. Results are ordered
// by descending similarity, ties broken by ascending global chunk index, and
// never exceed k entries.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int, filters domain.Filter) ([]domain.SearchResult, error)
}

// Default retrieval parameters.
const (
	// DefaultMinScore is the similarity floor below which a hit is noise.
	DefaultMinScore = 0.3

	// DefaultOverFetchFactor is how many times k the index is asked for,
	// so that threshold filtering still leaves enough candidates.
	DefaultOverFetchFactor = 2
)

// RetrievalConfig holds tunable retrieval parameters.
type RetrievalConfig struct {
	// MinScore is the minimum similarity to keep a hit (default: 0.3).
	MinScore float64

	// OverFetchFactor multiplies k for the index query (default: 2).
	OverFetchFactor int
}

// RetrievalService performs filtered semantic retrieval: it embeds the query,
// asks the vector index for nearest neighbours under the metadata filter, and
// applies the similarity threshold.
type RetrievalService struct {
	embedder    driven.EmbeddingService
	vectorIndex driven.VectorIndex
	minScore    float64
	overFetch   int
}

// NewRetrievalService creates a retrieval service. Zero config fields take
// their defaults; a negative MinScore disables threshold filtering.
func NewRetrievalService(
	embedder driven.EmbeddingService,
	vectorIndex driven.VectorIndex,
	cfg RetrievalConfig,
) *RetrievalService {
	if cfg.MinScore == 0 {
		cfg.MinScore = DefaultMinScore
	}
	if cfg.OverFetchFactor <= 0 {
		cfg.OverFetchFactor = DefaultOverFetchFactor
	}

	return &RetrievalService{
		embedder:    embedder,
		vectorIndex: vectorIndex,
		minScore:    cfg.MinScore,
		overFetch:   cfg.OverFetchFactor,
	}
}

// Retrieve runs one filtered similarity search. The index is over-fetched by
// the configured factor so that threshold filtering still yields up to k
// results; the final list is truncated to k preserving order.
func (s *RetrievalService) Retrieve(
	ctx context.Context, query string, k int, filters domain.Filter,
) ([]domain.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if k <= 0 {
		return []domain.SearchResult{}, nil
	}

	logger.Debug("Retrieval: query=%q, k=%d, filters=%v", query, k, filters.Predicates())

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", domain.ErrEmbeddingUnavailable, err)
	}
	logger.Debug("Retrieval: query embedding has %d dimensions", len(embedding))

	hits, err := s.vectorIndex.Query(ctx, embedding, k*s.overFetch, filters.Predicates())
	if err != nil {
		return nil, fmt.Errorf("query vector index: %w", err)
	}
	logger.Debug("Retrieval: %d raw hits", len(hits))

	// Hits arrive in ascending distance order, so descending similarity
	// order is preserved by construction.
	results := make([]domain.SearchResult, 0, len(hits))
	for _, hit := range hits {
		similarity := 1 - hit.Distance
		if similarity < s.minScore {
			continue
		}
		results = append(results, domain.SearchResult{
			ChunkID:    hit.ID,
			Content:    hit.Content,
			Metadata:   hit.Metadata,
			Similarity: similarity,
			Distance:   hit.Distance,
		})
	}

	if len(results) > k {
		results = results[:k]
	}
	logger.Debug("Retrieval: %d results above threshold %.2f", len(results), s.minScore)

	return results, nil
}
