package domain

import "time"

// Extraction methods recorded on pages and inherited by chunks.
const (
	// ExtractionText marks text pulled directly from the document layer.
	ExtractionText = "text"

	// ExtractionOCR marks text recovered by optical character recognition.
	// OCR pages carry a confidence score; direct-text pages do not.
	ExtractionOCR = "ocr"
)

// Document processing statuses.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Document represents one ingested source file and its educational metadata.
// The raw file itself lives with the extraction collaborator; the core only
// tracks metadata and processing state.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Filename is the human-readable name used in citations.
	Filename string

	// ContentHash is the SHA-256 of the extracted page text, used to
	// deduplicate re-uploads before any segmentation work happens.
	ContentHash string

	// EducationLevel is the curriculum level (e.g. "Primary", "Secondary").
	EducationLevel string

	// Subject is the curriculum subject (e.g. "Mathematics").
	Subject string

	// Language is the ISO language code of the document ("en", "sw").
	Language string

	// TotalPages is the number of non-empty extracted pages.
	TotalPages int

	// TotalChunks is the number of chunks produced at ingestion.
	TotalChunks int

	// Status is the processing state: pending, processing, completed, failed.
	Status string

	// ProcessingError holds the failure reason when Status is failed.
	ProcessingError string

	// CreatedAt is when the document record was created.
	CreatedAt time.Time

	// UpdatedAt is when the record was last updated.
	UpdatedAt time.Time

	// ProcessedAt is when ingestion finished, nil until then.
	ProcessedAt *time.Time
}

// Page is one unit of extracted text, produced by the external extraction
// collaborator. Pages are immutable after creation.
type Page struct {
	// PageNumber is 1-based.
	PageNumber int

	// Text is the cleaned page text.
	Text string

	// ExtractionMethod is ExtractionText or ExtractionOCR.
	ExtractionMethod string

	// Confidence is the OCR confidence, nil for direct-text pages.
	Confidence *float64
}

// WordCount returns the number of whitespace-separated words on the page.
func (p Page) WordCount() int {
	count := 0
	inWord := false
	for _, r := range p.Text {
		switch r {
		case ' ', '\t', '\n', '\r':
			inWord = false
		default:
			if !inWord {
				count++
			}
			inWord = true
		}
	}
	return count
}

// Chunk is a contiguous span of one page's text, the atom of retrieval.
// Chunk content is always a substring of exactly one page; neighbouring
// chunks from the same page may overlap by a bounded number of characters.
type Chunk struct {
	// ID is the stable chunk identifier, derived from the document ID and
	// the chunk's global index so that re-ingestion upserts in place.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Index is the global ordinal within the whole document, increasing by
	// one per chunk regardless of which page produced it.
	Index int

	// PageNumber is the 1-based page the content came from.
	PageNumber int

	// Content is the chunk text.
	Content string

	// CharacterCount is len(Content).
	CharacterCount int

	// TokenCount is an analytic estimate (roughly one token per four
	// characters), not a tokenizer call.
	TokenCount int

	// ExtractionMethod is inherited from the originating page.
	ExtractionMethod string

	// Confidence is the inherited OCR confidence, nil for direct text.
	Confidence *float64
}

// ChunkMetadata is the eagerly-assembled metadata stored alongside each
// vector. It travels with the chunk at indexing time so the index path never
// reaches back into the relational store.
type ChunkMetadata struct {
	ChunkID          string   `json:"chunk_id"`
	DocumentID       string   `json:"document_id"`
	ChunkIndex       int      `json:"chunk_index"`
	PageNumber       int      `json:"page_number"`
	Filename         string   `json:"filename"`
	EducationLevel   string   `json:"education_level"`
	Subject          string   `json:"subject"`
	Language         string   `json:"language"`
	ExtractionMethod string   `json:"extraction_method"`
	CharacterCount   int      `json:"character_count"`
	TokenCount       int      `json:"token_count"`
	Confidence       *float64 `json:"confidence_score,omitempty"`
}

// Field returns the metadata value for a filterable field name, and whether
// the name is filterable at all.
func (m ChunkMetadata) Field(name string) (string, bool) {
	switch name {
	case FieldEducationLevel:
		return m.EducationLevel, true
	case FieldSubject:
		return m.Subject, true
	case FieldLanguage:
		return m.Language, true
	case FieldDocumentID:
		return m.DocumentID, true
	default:
		return "", false
	}
}
