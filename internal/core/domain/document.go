package domain

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CollectionMain is the default corpus every upload lands in unless the
// caller names an isolated collection.
const CollectionMain = "main"

// DocumentStatus tracks the ingestion lifecycle of an uploaded document
type DocumentStatus string

const (
	DocumentStatusPending    DocumentStatus = "pending"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusCompleted  DocumentStatus = "completed"
	DocumentStatusFailed     DocumentStatus = "failed"
)

// FailureReason explains why ingestion marked a document failed
type FailureReason string

const (
	FailureReasonExtraction FailureReason = "extraction_error"
	FailureReasonEmbedding  FailureReason = "embedding_error"
	FailureReasonIndex      FailureReason = "index_error"
)

// Document represents an uploaded document owned by a user
type Document struct {
	ID            string         `json:"id"`
	UserID        string         `json:"user_id"`
	Filename      string         `json:"filename"`
	Collection    string         `json:"collection"` // "main" or a named isolated collection
	Status        DocumentStatus `json:"status"`
	FailureReason FailureReason  `json:"failure_reason,omitempty"`
	ChunkCount    int            `json:"chunk_count"`
	SizeBytes     int64          `json:"size_bytes"`
	CreatedAt     time.Time      `json:"created_at"`
	ExpiresAt     time.Time      `json:"expires_at"`
	ProcessedAt   *time.Time     `json:"processed_at,omitempty"`
}

// NewDocument creates a pending document record for an upload
func NewDocument(userID, filename, collection string, sizeBytes int64) *Document {
	if collection == "" {
		collection = CollectionMain
	}
	now := time.Now()
	return &Document{
		ID:         "doc_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12],
		UserID:     userID,
		Filename:   filename,
		Collection: collection,
		Status:     DocumentStatusPending,
		SizeBytes:  sizeBytes,
		CreatedAt:  now,
		ExpiresAt:  now.Add(30 * 24 * time.Hour),
	}
}

// IsSearchable reports whether the document participates in retrieval.
// Only fully ingested documents do; a partially indexed document is
// misleading and stays out of the corpus until re-ingested.
func (d *Document) IsSearchable() bool {
	return d.Status == DocumentStatusCompleted
}

// DaysLeft returns whole days until expiry, never negative
func (d *Document) DaysLeft() int {
	days := int(time.Until(d.ExpiresAt).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// Namespace returns the vector index namespace for a user's collection.
// The main corpus uses the bare user namespace; isolated collections get
// a derived sub-namespace so their vectors never mix with the main corpus.
//
// The user id is hex-encoded before the "__" separator. Token subjects
// are free-form and may themselves contain "__"; hex cannot, so two
// distinct users can never produce the same namespace or fall under
// each other's namespace prefix.
func Namespace(userID, collection string) string {
	id := hex.EncodeToString([]byte(userID))
	if collection == "" || collection == CollectionMain {
		return "user_" + id
	}
	return "user_" + id + "__" + collection
}

// Page is one page of extracted document text
type Page struct {
	Number int    `json:"number"` // 1-based
	Text   string `json:"text"`
}

// Chunk is a bounded text span of a document, the unit of embedding and
// retrieval. Chunks are immutable once created; re-ingestion replaces a
// document's chunks wholesale.
type Chunk struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	UserID     string    `json:"user_id"`
	Collection string    `json:"collection"`
	Filename   string    `json:"filename,omitempty"` // denormalized for citation anchors
	Index      int       `json:"index"` // sequence position within the document
	Text       string    `json:"text"`
	Page       int       `json:"page"` // page of the chunk's starting offset, 0 if unknown
	StartChar  int       `json:"start_char"`
	EndChar    int       `json:"end_char"`
	CreatedAt  time.Time `json:"created_at"`
}

// VectorKey returns the stable external key associating this chunk with
// its indexed vector. Keys are prefix-sweepable by document id.
func (c *Chunk) VectorKey() string {
	return ChunkVectorKey(c.DocumentID, c.Index)
}

// ChunkVectorKey builds the vector key for a document chunk by index
func ChunkVectorKey(documentID string, index int) string {
	return fmt.Sprintf("%s_chunk_%d", documentID, index)
}

// CollectionSummary describes one of a user's collections
type CollectionSummary struct {
	Collection    string    `json:"collection"`
	DisplayName   string    `json:"display_name"`
	DocumentCount int       `json:"document_count"`
	LastUpload    time.Time `json:"last_upload"`
}
