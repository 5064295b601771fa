package driving

import (
	"context"

	"github.com/elimu-hub/elimu-core/internal/core/domain"
)

// AnswerService answers natural-language questions over the indexed corpus.
type AnswerService interface {
	// Ask runs the full retrieval and synthesis pipeline. It always
	// returns a displayable Answer; generation failures are folded into
	// the answer record, never raised. The returned error is reserved for
	// deployment-level faults such as an unreachable embedding service.
	Ask(ctx context.Context, query string, filters domain.Filter) (*domain.Answer, error)
}

// Stats summarises the state of the corpus for health and monitoring.
type Stats struct {
	// Documents is the number of stored document records.
	Documents int

	// Chunks is the number of stored chunk records.
	Chunks int

	// Vectors is the vector index count; should track Chunks.
	Vectors int

	// EducationLevels, Subjects and Languages are document counts per
	// metadata value.
	EducationLevels map[string]int
	Subjects        map[string]int
	Languages       map[string]int
}

// StatsService reports corpus statistics.
type StatsService interface {
	Stats(ctx context.Context) (*Stats, error)
}
