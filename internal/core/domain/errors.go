package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateDocument indicates a document with the same content hash
	// has already been ingested.
	ErrDuplicateDocument = errors.New("duplicate document")

	// ErrInvalidInput indicates malformed or invalid input, such as bad
	// segmentation parameters. This is a deployment bug and must not be
	// swallowed; the caller has to fix configuration before retrying.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmbeddingUnavailable indicates the embedding service is unreachable.
	// Surfaced to the caller as a degraded-health signal, not retried here.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates the vector index is unreachable.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrLLMUnavailable indicates the generation service is not configured
	// or unreachable. Inside the answer pipeline this is recovered into a
	// user-visible error answer rather than propagated.
	ErrLLMUnavailable = errors.New("LLM service unavailable")
)
