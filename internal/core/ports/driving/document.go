package driving

import (
	"context"

	"github.com/DalMakkhani/IntelliBase/internal/core/domain"
)

// DocumentService manages document upload, status and deletion.
type DocumentService interface {
	// Upload accepts a file, records it as pending and queues ingestion.
	// collection may be empty for the user's main corpus.
	Upload(ctx context.Context, userID, filename, collection string, data []byte) (*domain.Document, error)

	// Get retrieves a document by ID
	Get(ctx context.Context, userID, documentID string) (*domain.Document, error)

	// GetChunks returns a document's stored chunks ordered by index
	GetChunks(ctx context.Context, userID, documentID string) ([]*domain.Chunk, error)

	// GetFile returns a document's record and its stored file bytes
	GetFile(ctx context.Context, userID, documentID string) (*domain.Document, []byte, error)

	// List returns a user's documents, optionally filtered by collection
	List(ctx context.Context, userID, collection string) ([]*domain.Document, error)

	// ListCollections returns per-collection document counts
	ListCollections(ctx context.Context, userID string) ([]*domain.CollectionSummary, error)

	// Delete removes a document and queues removal of its vectors
	Delete(ctx context.Context, userID, documentID string) error
}
