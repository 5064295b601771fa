package driven

import (
	"context"

	"github.com/elimu-hub/elimu-core/internal/core/domain"
)

// VectorEntry is one chunk prepared for indexing: the vector, the content it
// was computed from, and the eagerly-assembled metadata. Nothing in the
// indexing path fetches metadata lazily.
type VectorEntry struct {
	// ID is the stable chunk identifier. Upserts are idempotent by ID.
	ID string

	// Embedding is the chunk's vector.
	Embedding []float32

	// Content is the chunk text, stored for retrieval.
	Content string

	// Metadata is stored alongside the vector and used for filtering.
	Metadata domain.ChunkMetadata
}

// VectorHit is one nearest-neighbour result, ordered by ascending distance.
type VectorHit struct {
	// ID is the matched chunk.
	ID string

	// Content is the stored chunk text.
	Content string

	// Metadata is the metadata stored at indexing time.
	Metadata domain.ChunkMetadata

	// Distance is the raw metric distance, in [0, 2] for normalized
	// cosine-style metrics.
	Distance float64
}

// VectorIndex stores embeddings with content and metadata and supports
// filtered nearest-neighbour search.
type VectorIndex interface {
	// Upsert inserts or replaces entries by ID. Re-upserting an unchanged
	// entry leaves the index count unchanged.
	Upsert(ctx context.Context, entries []VectorEntry) error

	// Query returns up to k nearest neighbours sorted by ascending
	// distance. predicates is an AND-conjunction of metadata equality
	// tests; a nil or empty map means unfiltered search.
	Query(ctx context.Context, vector []float32, k int, predicates map[string]string) ([]VectorHit, error)

	// DeleteByMetadata removes every entry whose metadata field matches
	// the value. Used for cascading document deletion; idempotent.
	DeleteByMetadata(ctx context.Context, field, value string) error

	// Count returns the total number of stored entries.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}
