// Package memory provides an in-memory vector index using brute-force
// cosine distance. It is the default index for single-machine deployments
// and the workhorse of the test suite.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/elimu-hub/elimu-core/internal/core/domain"
	"github.com/elimu-hub/elimu-core/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index stores vectors with content and metadata keyed by chunk ID.
type Index struct {
	mu      sync.RWMutex
	entries map[string]driven.VectorEntry
}

// NewIndex creates an empty in-memory index.
func NewIndex() *Index {
	return &Index{
		entries: make(map[string]driven.VectorEntry),
	}
}

// Upsert inserts or replaces entries by ID.
func (idx *Index) Upsert(_ context.Context, entries []driven.VectorEntry) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, e := range entries {
		if e.ID == "" {
			return fmt.Errorf("upsert: %w: entry without ID", domain.ErrInvalidInput)
		}
		idx.entries[e.ID] = e
	}
	return nil
}

// Query returns up to k nearest neighbours by ascending cosine distance.
// predicates is an AND-conjunction of metadata equality tests; nil means
// unfiltered. Ties are broken by ascending global chunk index so result
// order is deterministic.
func (idx *Index) Query(
	_ context.Context, vector []float32, k int, predicates map[string]string,
) ([]driven.VectorHit, error) {
	if k <= 0 {
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	hits := make([]driven.VectorHit, 0, len(idx.entries))
	for _, e := range idx.entries {
		if !matches(e.Metadata, predicates) {
			continue
		}
		hits = append(hits, driven.VectorHit{
			ID:       e.ID,
			Content:  e.Content,
			Metadata: e.Metadata,
			Distance: cosineDistance(vector, e.Embedding),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].Metadata.ChunkIndex < hits[j].Metadata.ChunkIndex
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// DeleteByMetadata removes every entry whose metadata field matches value.
func (idx *Index) DeleteByMetadata(_ context.Context, field, value string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for id, e := range idx.entries {
		got, ok := e.Metadata.Field(field)
		if ok && got == value {
			delete(idx.entries, id)
		}
	}
	return nil
}

// Count returns the number of stored entries.
func (idx *Index) Count(_ context.Context) (int, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries), nil
}

// Close releases resources.
func (idx *Index) Close() error {
	return nil
}

// matches reports whether metadata satisfies every predicate.
func matches(m domain.ChunkMetadata, predicates map[string]string) bool {
	for field, want := range predicates {
		got, ok := m.Field(field)
		if !ok || got != want {
			return false
		}
	}
	return true
}

// cosineDistance computes 1 - cosine similarity, yielding a distance in
// [0, 2] matching the metric contract the retrieval policy assumes.
func cosineDistance(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
