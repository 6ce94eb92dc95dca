package driven

import (
	"context"
)

// VectorMetadata travels with every indexed vector and comes back on hits.
// The (UserID, Collection) pair scopes every query; cross-user or
// cross-collection leakage is a correctness violation.
type VectorMetadata struct {
	DocumentID string `json:"document_id"`
	Document   string `json:"document"` // filename, used for citation anchors
	UserID     string `json:"user_id"`
	Collection string `json:"collection"`
	Page       int    `json:"page"`
	Text       string `json:"text"`
	ChunkIndex int    `json:"chunk_index"`
	StartChar  int    `json:"start_char"`
	EndChar    int    `json:"end_char"`
}

// VectorItem is one (key, vector, metadata) triple for upsert
type VectorItem struct {
	Key      string
	Vector   []float32
	Metadata VectorMetadata
}

// VectorMatch is one ranked query hit
type VectorMatch struct {
	Key      string
	Score    float64
	Metadata VectorMetadata
}

// VectorFilter restricts a query to an owner's collections. An empty
// Collections slice means all of the user's collections.
type VectorFilter struct {
	UserID      string
	Collections []string
}

// VectorIndex handles vector upsert and filtered top-k similarity search
type VectorIndex interface {
	// Upsert adds or replaces vectors in a namespace
	Upsert(ctx context.Context, namespace string, items []VectorItem) error

	// Query returns the top-k most similar vectors within the filter scope,
	// ranked by descending score
	Query(ctx context.Context, vector []float32, topK int, filter VectorFilter) ([]VectorMatch, error)

	// DeleteByDocument removes every vector belonging to a document. Used
	// both for deletion and for the delete-then-upsert discipline that keeps
	// a failed ingestion from leaving half a document searchable.
	DeleteByDocument(ctx context.Context, userID, collection, documentID string, chunkCount int) error

	// HealthCheck verifies the vector index is available
	HealthCheck(ctx context.Context) error
}
