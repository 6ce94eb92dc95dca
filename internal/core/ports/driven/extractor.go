package driven

import (
	"context"

	"github.com/DalMakkhani/IntelliBase/internal/core/domain"
)

// TextExtractor turns an uploaded file into page-ordered plain text.
type TextExtractor interface {
	// Extract returns the file's pages in order. Unreadable or empty
	// input yields a *domain.ExtractionError.
	Extract(ctx context.Context, filename string, data []byte) ([]domain.Page, error)

	// Supports reports whether the extractor handles the given filename
	// extension
	Supports(filename string) bool
}
