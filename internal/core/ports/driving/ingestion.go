package driving

import (
	"context"

	"github.com/DalMakkhani/IntelliBase/internal/core/domain"
)

// IngestionService executes ingestion and deletion tasks.
// It is driven by the background worker, not by API handlers.
type IngestionService interface {
	// Ingest runs the full pipeline for an uploaded document: extract,
	// chunk, embed, index. The document ends in completed or failed
	// status with a failure reason.
	Ingest(ctx context.Context, task *domain.Task) error

	// Remove deletes a document's vectors and stored chunks
	Remove(ctx context.Context, task *domain.Task) error

	// ExpireSweep removes documents and sessions past their retention
	// window, returning how many documents were queued for deletion
	ExpireSweep(ctx context.Context) (int, error)
}
