package driven

import "context"

// FileStore holds raw uploaded files between upload and ingestion.
type FileStore interface {
	// Save stores file data under a document ID and returns a storage key
	Save(ctx context.Context, documentID, filename string, data []byte) (string, error)

	// Load returns the stored bytes for a document.
	// Returns domain.ErrNotFound if missing.
	Load(ctx context.Context, documentID string) ([]byte, error)

	// Delete removes the stored file. Missing files are not an error.
	Delete(ctx context.Context, documentID string) error
}
