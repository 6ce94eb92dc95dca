package driven

import (
	"context"

	"github.com/DalMakkhani/IntelliBase/internal/core/domain"
)

// DocumentStore persists document records and their ingestion state.
type DocumentStore interface {
	// CreatePending inserts a new document in pending status.
	// Returns domain.ErrAlreadyExists on ID collision.
	CreatePending(ctx context.Context, doc *domain.Document) error

	// Get returns a document by ID scoped to its owner.
	// Returns domain.ErrNotFound if missing.
	Get(ctx context.Context, userID, documentID string) (*domain.Document, error)

	// SetStatus transitions a document's status. failureReason is only
	// stored for the failed status and cleared otherwise.
	SetStatus(ctx context.Context, documentID string, status domain.DocumentStatus, failureReason domain.FailureReason) error

	// SetCompleted marks a document completed and records its final
	// chunk count and processing time
	SetCompleted(ctx context.Context, documentID string, chunkCount int) error

	// ListByUser returns a user's documents, optionally filtered by
	// collection (empty string = all collections), newest first
	ListByUser(ctx context.Context, userID, collection string) ([]*domain.Document, error)

	// CountCompleted returns how many searchable documents the user has
	// in the given collections (nil = all)
	CountCompleted(ctx context.Context, userID string, collections []string) (int, error)

	// ListCollections returns per-collection document counts for a user
	ListCollections(ctx context.Context, userID string) ([]*domain.CollectionSummary, error)

	// Delete removes a document record. Returns domain.ErrNotFound if
	// missing.
	Delete(ctx context.Context, userID, documentID string) error

	// ListExpired returns documents whose ExpiresAt has passed, capped
	// at limit
	ListExpired(ctx context.Context, limit int) ([]*domain.Document, error)
}

// ChunkStore persists the chunk text backing the vector index so that
// deletes and re-ingests know the exact vector key set.
type ChunkStore interface {
	// SaveBatch stores all chunks of a document atomically
	SaveBatch(ctx context.Context, chunks []*domain.Chunk) error

	// GetByDocument returns a document's chunks ordered by index
	GetByDocument(ctx context.Context, documentID string) ([]*domain.Chunk, error)

	// CountByDocument returns the stored chunk count for a document
	CountByDocument(ctx context.Context, documentID string) (int, error)

	// DeleteByDocument removes all chunks of a document
	DeleteByDocument(ctx context.Context, documentID string) error
}
