package domain

// Confidence labels graded from average retrieval similarity. This is a
// property of the evidence, distinct from the generator's own uncertainty.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"

	// ConfidenceError marks answers produced from a generation failure.
	ConfidenceError = "error"
)

// SearchResult pairs a stored chunk's content and metadata with a similarity
// score for one query. Results are ordered by descending similarity, ties
// broken by ascending global chunk index.
type SearchResult struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Content is the stored chunk text.
	Content string

	// Metadata is the chunk metadata stored at indexing time.
	Metadata ChunkMetadata

	// Similarity is 1 - Distance, in [-1, 1] for cosine-style metrics.
	Similarity float64

	// Distance is the raw index distance.
	Distance float64
}

// Citation is one entry in an answer's ordered source list.
type Citation struct {
	// Rank is the 1-based position in the evidence ordering.
	Rank int `json:"id"`

	// Filename of the source document.
	Filename string `json:"filename"`

	// Page is the 1-based page number.
	Page int `json:"page"`

	// EducationLevel of the source document.
	EducationLevel string `json:"education_level"`

	// Subject of the source document.
	Subject string `json:"subject"`

	// Similarity is the retrieval score rounded to three decimals.
	Similarity float64 `json:"similarity_score"`

	// Excerpt is the first 200 characters of the chunk, with a trailing
	// ellipsis when truncated.
	Excerpt string `json:"excerpt"`
}

// Answer is the uniform result record returned for every query, on every
// path through the pipeline. It is created once and never mutated.
type Answer struct {
	// Answer is the displayable answer text. Always non-empty: failure
	// paths produce fixed apology or error strings.
	Answer string `json:"answer"`

	// Sources is the ordered citation list, empty when no evidence was used.
	Sources []Citation `json:"sources"`

	// Query echoes the question as asked.
	Query string `json:"query"`

	// Filters echoes the metadata filters applied.
	Filters Filter `json:"filters"`

	// ProcessingTimeMs is the total elapsed pipeline time.
	ProcessingTimeMs int64 `json:"processing_time_ms"`

	// ChunksUsed is the number of evidence chunks behind the answer.
	ChunksUsed int `json:"chunks_used"`

	// Confidence is high, medium, low or error.
	Confidence string `json:"confidence"`

	// AverageSimilarity is present only when at least one chunk was used.
	AverageSimilarity *float64 `json:"average_similarity,omitempty"`
}

// QueryLog is an analytics record of one answered query. Written by the
// surrounding service layer, never by the answer pipeline itself.
type QueryLog struct {
	ID               string
	Query            string
	Filters          Filter
	Response         string
	ChunksUsed       int
	ProcessingTimeMs int64
}
