package driven

import (
	"context"

	"github.com/DalMakkhani/IntelliBase/internal/core/domain"
)

// WebSearchService retrieves web snippets for augmentation. Failures are
// expected and callers degrade to corpus-only answers.
type WebSearchService interface {
	// Search returns up to maxResults ranked web results
	Search(ctx context.Context, query string, maxResults int) ([]domain.WebResult, error)
}
