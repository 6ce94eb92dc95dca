package domain

import (
	"errors"
	"fmt"
)

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates the resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the user lacks permission for this action
	ErrForbidden = errors.New("forbidden")

	// ErrTokenExpired indicates the auth token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the auth token is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")

	// ErrSessionNotFound indicates the chat session does not exist
	ErrSessionNotFound = errors.New("session not found")

	// ErrIngestInProgress indicates an ingestion is already running for the document
	ErrIngestInProgress = errors.New("ingestion already in progress")

	// ErrInvalidProvider indicates an unknown external provider was specified
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrServiceUnavailable indicates an external service could not be reached
	ErrServiceUnavailable = errors.New("service unavailable")
)

// ExtractionError indicates the source document could not be read.
// Ingestion transitions the document to failed with reason extraction_error.
type ExtractionError struct {
	Filename string
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed for %s: %v", e.Filename, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// EmbeddingError indicates the embedding provider rejected input or failed
// irrecoverably. BatchIndices identifies which input batches failed so the
// caller can mark only those chunks as failed.
type EmbeddingError struct {
	BatchIndices []int
	Err          error
}

func (e *EmbeddingError) Error() string {
	if len(e.BatchIndices) > 0 {
		return fmt.Sprintf("embedding failed for batches %v: %v", e.BatchIndices, e.Err)
	}
	return fmt.Sprintf("embedding failed: %v", e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// IndexError indicates the vector store is unavailable or rejected the write.
type IndexError struct {
	Op  string
	Err error
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("vector index %s failed: %v", e.Op, e.Err)
}

func (e *IndexError) Unwrap() error { return e.Err }

// GenerationError indicates the inference service was unavailable or timed
// out past its retry budget. The chat turn is still recorded with a fallback
// message; this error never propagates to the API caller as a failed turn.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
