package driven

import "context"

// LLMService is the text-generation capability consumed by the answer
// pipeline. It is a plain request/response boundary: a prompt with sampling
// options in, text out. Generation is the only call in the system expected
// to block for tens of seconds, so every invocation carries a context with
// an explicit timeout.
//
// Implementations may include:
//   - Ollama (mistral, llama3.2 and other local models)
type LLMService interface {
	// Generate produces a text completion for the prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the hard cap on generated output length.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64

	// TopP is the nucleus sampling parameter.
	TopP float64

	// Stop are sequences that terminate generation when encountered.
	Stop []string
}
