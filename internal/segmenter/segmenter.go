// Package segmenter splits extracted page text into overlapping,
// boundary-aware chunks sized for embedding and generation context windows.
package segmenter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/elimu-hub/elimu-core/internal/core/domain"
)

// DefaultMaxChars is the default maximum characters per chunk.
const DefaultMaxChars = 1000

// DefaultOverlapChars is the default overlap between neighbouring chunks.
const DefaultOverlapChars = 200

// Segmenter produces chunks from ordered page text. Each chunk is a
// contiguous substring of exactly one page; chunks never span pages.
type Segmenter struct {
	maxChars     int
	overlapChars int
}

// Option configures the segmenter.
type Option func(*Segmenter)

// WithMaxChars sets the maximum chunk size in characters.
func WithMaxChars(n int) Option {
	return func(s *Segmenter) {
		s.maxChars = n
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(n int) Option {
	return func(s *Segmenter) {
		s.overlapChars = n
	}
}

// New creates a segmenter. Malformed parameters are a configuration bug and
// are rejected outright rather than silently adjusted: maxChars must be
// positive and 0 <= overlapChars < maxChars.
func New(opts ...Option) (*Segmenter, error) {
	s := &Segmenter{
		maxChars:     DefaultMaxChars,
		overlapChars: DefaultOverlapChars,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.maxChars <= 0 {
		return nil, fmt.Errorf("%w: max chars must be positive, got %d",
			domain.ErrInvalidInput, s.maxChars)
	}
	if s.overlapChars < 0 || s.overlapChars >= s.maxChars {
		return nil, fmt.Errorf("%w: overlap must be in [0, %d), got %d",
			domain.ErrInvalidInput, s.maxChars, s.overlapChars)
	}

	return s, nil
}

// MaxChars returns the configured maximum chunk size.
func (s *Segmenter) MaxChars() int {
	return s.maxChars
}

// Segment splits the ordered pages of one document into chunks. Pages that
// are empty after trimming yield no chunks and are skipped. The chunk index
// is global: it increases by exactly one per emitted chunk across all pages.
func (s *Segmenter) Segment(documentID string, pages []domain.Page) []domain.Chunk {
	var chunks []domain.Chunk
	index := 0

	for _, page := range pages {
		for _, content := range s.splitPage(page.Text) {
			chunks = append(chunks, domain.Chunk{
				ID:               chunkID(documentID, index),
				DocumentID:       documentID,
				Index:            index,
				PageNumber:       page.PageNumber,
				Content:          content,
				CharacterCount:   len(content),
				TokenCount:       estimateTokens(content),
				ExtractionMethod: page.ExtractionMethod,
				Confidence:       page.Confidence,
			})
			index++
		}
	}

	return chunks
}

// splitPage splits one page's text into chunk contents.
func (s *Segmenter) splitPage(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if len(text) <= s.maxChars {
		return []string{strings.TrimSpace(text)}
	}

	var out []string
	cursor := 0

	for cursor < len(text) {
		// end may point past the text; only the emitted slice is capped.
		// Keeping it unclamped for the cursor arithmetic prevents the
		// tail of the page from being re-emitted overlap times.
		end := cursor + s.maxChars
		if end < len(text) {
			// Prefer ending on a sentence boundary within the last
			// half of the window; otherwise hard-cut at the window end.
			if b := findBoundary(text, cursor+s.maxChars/2, end); b > cursor {
				end = b
			}
		}

		sliceEnd := end
		if sliceEnd > len(text) {
			sliceEnd = len(text)
		}
		if chunk := strings.TrimSpace(text[cursor:sliceEnd]); chunk != "" {
			out = append(out, chunk)
		}

		// The +1 guarantees forward progress even when the overlap
		// would otherwise stall the cursor at a short chunk boundary.
		next := end - s.overlapChars
		if next < cursor+1 {
			next = cursor + 1
		}
		cursor = next
	}

	return out
}

// findBoundary scans backward through text[lo:hi] for the sentence
// terminator nearest the window end and returns the offset just past it
// (including one trailing whitespace character when present, capped at hi).
// Returns -1 when no terminator exists in the range.
func findBoundary(text string, lo, hi int) int {
	if lo < 0 {
		lo = 0
	}
	for i := hi - 1; i >= lo; i-- {
		c := text[i]
		if c != '.' && c != '!' && c != '?' {
			continue
		}
		end := i + 1
		if end < hi {
			switch text[end] {
			case ' ', '\t', '\n', '\r':
				end++
			}
		}
		return end
	}
	return -1
}

// estimateTokens approximates the token count analytically, roughly one
// token per four characters. It is an approximation, not a tokenizer call.
func estimateTokens(content string) int {
	n := len(content) / 4
	if n < 1 {
		n = 1
	}
	return n
}

// chunkID derives the stable chunk identifier. Re-segmenting the same
// document yields the same IDs, which makes index upserts idempotent.
func chunkID(documentID string, index int) string {
	return documentID + ":" + strconv.Itoa(index)
}
