package driven

import (
	"context"
)

// GenerateOptions tunes a single generation call
type GenerateOptions struct {
	MaxTokens   int
	Temperature float64
}

// GenerationService provides single-turn text generation. Any provider
// exposing chat-completion semantics is substitutable.
type GenerationService interface {
	// Generate produces text for the given prompt
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// Model returns the model name being used
	Model() string

	// Ping verifies the generation service is available
	Ping(ctx context.Context) error

	// Close releases resources held by the generation service
	Close() error
}
