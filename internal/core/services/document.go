package services

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"

	"github.com/DalMakkhani/IntelliBase/internal/core/domain"
	"github.com/DalMakkhani/IntelliBase/internal/core/ports/driven"
	"github.com/DalMakkhani/IntelliBase/internal/core/ports/driving"
)

// Ensure documentService implements DocumentService
var _ driving.DocumentService = (*documentService)(nil)

// maxUploadBytes caps accepted file size
const maxUploadBytes = 50 << 20

// collectionNamePattern restricts collection names to namespace-safe
// characters
var collectionNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]{0,63}$`)

// documentService manages document upload, listing, and deletion
type documentService struct {
	documentStore driven.DocumentStore
	chunkStore    driven.ChunkStore
	fileStore     driven.FileStore
	extractor     driven.TextExtractor
	taskQueue     driven.TaskQueue
	logger        *slog.Logger
}

// NewDocumentService creates a new DocumentService.
func NewDocumentService(
	documentStore driven.DocumentStore,
	chunkStore driven.ChunkStore,
	fileStore driven.FileStore,
	extractor driven.TextExtractor,
	taskQueue driven.TaskQueue,
	logger *slog.Logger,
) driving.DocumentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &documentService{
		documentStore: documentStore,
		chunkStore:    chunkStore,
		fileStore:     fileStore,
		extractor:     extractor,
		taskQueue:     taskQueue,
		logger:        logger,
	}
}

// Upload accepts a file, stores it, and queues ingestion.
func (s *documentService) Upload(ctx context.Context, userID, filename, collection string, data []byte) (*domain.Document, error) {
	if filename == "" {
		return nil, fmt.Errorf("%w: missing filename", domain.ErrInvalidInput)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", domain.ErrInvalidInput)
	}
	if len(data) > maxUploadBytes {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", domain.ErrInvalidInput, maxUploadBytes)
	}
	if !s.extractor.Supports(filename) {
		return nil, fmt.Errorf("%w: unsupported file type %q", domain.ErrInvalidInput, filename)
	}
	if collection != "" && collection != domain.CollectionMain && !collectionNamePattern.MatchString(collection) {
		return nil, fmt.Errorf("%w: invalid collection name %q", domain.ErrInvalidInput, collection)
	}

	doc := domain.NewDocument(userID, filename, collection, int64(len(data)))

	if _, err := s.fileStore.Save(ctx, doc.ID, filename, data); err != nil {
		return nil, fmt.Errorf("store file: %w", err)
	}
	if err := s.documentStore.CreatePending(ctx, doc); err != nil {
		// Orphaned file cleanup is best-effort; the expiry sweep is the
		// backstop
		_ = s.fileStore.Delete(ctx, doc.ID)
		return nil, fmt.Errorf("create document: %w", err)
	}

	if err := s.taskQueue.Enqueue(ctx, domain.NewIngestTask(userID, doc.ID)); err != nil {
		if serr := s.documentStore.SetStatus(ctx, doc.ID, domain.DocumentStatusFailed, domain.FailureReasonIndex); serr != nil {
			s.logger.Error("failed to mark unqueued document", "document_id", doc.ID, "error", serr)
		}
		return nil, fmt.Errorf("queue ingestion: %w", err)
	}

	s.logger.Info("document uploaded",
		"document_id", doc.ID,
		"filename", filename,
		"collection", doc.Collection,
		"size_bytes", doc.SizeBytes,
	)
	return doc, nil
}

// Get retrieves a document by ID.
func (s *documentService) Get(ctx context.Context, userID, documentID string) (*domain.Document, error) {
	return s.documentStore.Get(ctx, userID, documentID)
}

// GetChunks returns a document's stored chunks.
func (s *documentService) GetChunks(ctx context.Context, userID, documentID string) ([]*domain.Chunk, error) {
	if _, err := s.documentStore.Get(ctx, userID, documentID); err != nil {
		return nil, err
	}
	return s.chunkStore.GetByDocument(ctx, documentID)
}

// GetFile returns a document's record and its stored file bytes.
func (s *documentService) GetFile(ctx context.Context, userID, documentID string) (*domain.Document, []byte, error) {
	doc, err := s.documentStore.Get(ctx, userID, documentID)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.fileStore.Load(ctx, documentID)
	if err != nil {
		return nil, nil, fmt.Errorf("load file: %w", err)
	}
	return doc, data, nil
}

// List returns a user's documents.
func (s *documentService) List(ctx context.Context, userID, collection string) ([]*domain.Document, error) {
	return s.documentStore.ListByUser(ctx, userID, collection)
}

// ListCollections returns per-collection document counts.
func (s *documentService) ListCollections(ctx context.Context, userID string) ([]*domain.CollectionSummary, error) {
	return s.documentStore.ListCollections(ctx, userID)
}

// Delete removes the document record immediately and queues the vector
// and chunk sweep. The payload carries everything the worker needs once
// the record is gone.
func (s *documentService) Delete(ctx context.Context, userID, documentID string) error {
	doc, err := s.documentStore.Get(ctx, userID, documentID)
	if err != nil {
		return err
	}

	task := domain.NewTask(domain.TaskTypeDeleteDocument, userID, map[string]string{
		"document_id": doc.ID,
		"collection":  doc.Collection,
		"chunk_count": strconv.Itoa(doc.ChunkCount),
	})
	if err := s.taskQueue.Enqueue(ctx, task); err != nil {
		return fmt.Errorf("queue deletion: %w", err)
	}

	if err := s.documentStore.Delete(ctx, userID, documentID); err != nil {
		return err
	}

	s.logger.Info("document deleted", "document_id", documentID, "filename", doc.Filename)
	return nil
}
