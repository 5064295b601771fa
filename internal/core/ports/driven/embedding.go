package driven

import "context"

// EmbeddingService converts text into fixed-dimension vectors.
//
// The core does not know which model produces the vectors, only that all
// vectors for a deployment share one dimensionality and that semantically
// similar text yields vectors with small distance under the metric the
// vector index uses.
//
// Implementations may include:
//   - Ollama (nomic-embed-text, bge-small and friends)
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
type EmbeddingService interface {
	// Embed generates a vector embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts. vectors[i]
	// corresponds to texts[i]; inputs are never dropped or reordered.
	// An empty input yields an empty output without touching the model.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g. 384, 768, 1536).
	// It must match the vector index configuration.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
