package ai

import (
	"fmt"

	"github.com/DalMakkhani/IntelliBase/internal/core/domain"
	"github.com/DalMakkhani/IntelliBase/internal/core/ports/driven"
)

// ProviderSettings selects and configures one AI provider
type ProviderSettings struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
}

// NewEmbeddingService creates an embedding service from settings.
// Supported providers: "jina" (default) and "openai-compatible" for any
// endpoint speaking the same protocol.
func NewEmbeddingService(settings ProviderSettings) (driven.EmbeddingService, error) {
	switch settings.Provider {
	case "", "jina":
		return NewJinaEmbedding(settings.APIKey, settings.Model, settings.BaseURL)
	case "openai-compatible":
		if settings.BaseURL == "" {
			return nil, fmt.Errorf("%w: openai-compatible embedding requires a base URL", domain.ErrInvalidProvider)
		}
		return NewJinaEmbedding(settings.APIKey, settings.Model, settings.BaseURL)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidProvider, settings.Provider)
	}
}

// NewGenerationService creates a generation service from settings.
// Supported providers: "groq" (default) and "openai-compatible".
func NewGenerationService(settings ProviderSettings) (driven.GenerationService, error) {
	switch settings.Provider {
	case "", "groq":
		return NewGroqGeneration(settings.APIKey, settings.Model, settings.BaseURL)
	case "openai-compatible":
		if settings.BaseURL == "" {
			return nil, fmt.Errorf("%w: openai-compatible generation requires a base URL", domain.ErrInvalidProvider)
		}
		return NewGroqGeneration(settings.APIKey, settings.Model, settings.BaseURL)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidProvider, settings.Provider)
	}
}
