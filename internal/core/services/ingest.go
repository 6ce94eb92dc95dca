package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/DalMakkhani/IntelliBase/internal/chunking"
	"github.com/DalMakkhani/IntelliBase/internal/core/domain"
	"github.com/DalMakkhani/IntelliBase/internal/core/ports/driven"
	"github.com/DalMakkhani/IntelliBase/internal/core/ports/driving"
)

// Ensure ingestionService implements IngestionService
var _ driving.IngestionService = (*ingestionService)(nil)

// IngestConfig tunes the ingestion pipeline.
type IngestConfig struct {
	// EmbedBatchSize is how many chunks go to the embedder per call
	EmbedBatchSize int

	// MaxEmbedFailureFraction is the tolerated fraction of chunks whose
	// embedding fails before the whole document is marked failed
	MaxEmbedFailureFraction float64

	// LockTTL bounds how long one worker may hold a document
	LockTTL time.Duration

	// ExpireBatchSize caps documents swept per expiry pass
	ExpireBatchSize int
}

// DefaultIngestConfig returns the ingestion defaults.
func DefaultIngestConfig() IngestConfig {
	return IngestConfig{
		EmbedBatchSize:          50,
		MaxEmbedFailureFraction: 0.2,
		LockTTL:                 5 * time.Minute,
		ExpireBatchSize:         100,
	}
}

// ingestionService executes ingestion and deletion tasks
type ingestionService struct {
	documentStore driven.DocumentStore
	chunkStore    driven.ChunkStore
	sessionStore  driven.ChatSessionStore
	fileStore     driven.FileStore
	extractor     driven.TextExtractor
	embedding     driven.EmbeddingService
	vectorIndex   driven.VectorIndex
	taskQueue     driven.TaskQueue
	lock          driven.DistributedLock
	chunker       *chunking.Pipeline
	config        IngestConfig
	logger        *slog.Logger
}

// IngestionServiceConfig holds dependencies for the ingestion service.
type IngestionServiceConfig struct {
	DocumentStore driven.DocumentStore
	ChunkStore    driven.ChunkStore
	SessionStore  driven.ChatSessionStore
	FileStore     driven.FileStore
	Extractor     driven.TextExtractor
	Embedding     driven.EmbeddingService
	VectorIndex   driven.VectorIndex
	TaskQueue     driven.TaskQueue
	Lock          driven.DistributedLock
	Chunking      chunking.Config
	Ingest        IngestConfig
	Logger        *slog.Logger
}

// NewIngestionService creates a new IngestionService.
func NewIngestionService(cfg IngestionServiceConfig) driving.IngestionService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ingest := cfg.Ingest
	if ingest.EmbedBatchSize <= 0 {
		ingest = DefaultIngestConfig()
	}
	return &ingestionService{
		documentStore: cfg.DocumentStore,
		chunkStore:    cfg.ChunkStore,
		sessionStore:  cfg.SessionStore,
		fileStore:     cfg.FileStore,
		extractor:     cfg.Extractor,
		embedding:     cfg.Embedding,
		vectorIndex:   cfg.VectorIndex,
		taskQueue:     cfg.TaskQueue,
		lock:          cfg.Lock,
		chunker:       chunking.NewPipeline(cfg.Chunking),
		config:        ingest,
		logger:        logger,
	}
}

// Ingest runs the full pipeline for one uploaded document.
func (s *ingestionService) Ingest(ctx context.Context, task *domain.Task) error {
	documentID := task.DocumentID()
	if documentID == "" {
		return fmt.Errorf("%w: ingest task missing document_id", domain.ErrInvalidInput)
	}

	acquired, err := s.lock.Acquire(ctx, docLockName(documentID), s.config.LockTTL)
	if err != nil {
		return fmt.Errorf("acquire ingest lock: %w", err)
	}
	if !acquired {
		return domain.ErrIngestInProgress
	}
	defer func() {
		if err := s.lock.Release(context.WithoutCancel(ctx), docLockName(documentID)); err != nil {
			s.logger.Warn("failed to release ingest lock", "document_id", documentID, "error", err)
		}
	}()

	doc, err := s.documentStore.Get(ctx, task.UserID, documentID)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}

	if err := s.documentStore.SetStatus(ctx, doc.ID, domain.DocumentStatusProcessing, ""); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}

	start := time.Now()
	chunkCount, err := s.runPipeline(ctx, doc)
	if err != nil {
		reason := failureReasonFor(err)
		s.logger.Error("ingestion failed",
			"document_id", doc.ID,
			"filename", doc.Filename,
			"reason", reason,
			"error", err,
		)
		if serr := s.documentStore.SetStatus(ctx, doc.ID, domain.DocumentStatusFailed, reason); serr != nil {
			s.logger.Error("failed to mark document failed", "document_id", doc.ID, "error", serr)
		}
		return err
	}

	if err := s.documentStore.SetCompleted(ctx, doc.ID, chunkCount); err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}

	s.logger.Info("document ingested",
		"document_id", doc.ID,
		"filename", doc.Filename,
		"chunks", chunkCount,
		"took", time.Since(start),
	)
	return nil
}

// runPipeline extracts, chunks, embeds, and indexes one document,
// returning the final chunk count.
func (s *ingestionService) runPipeline(ctx context.Context, doc *domain.Document) (int, error) {
	data, err := s.fileStore.Load(ctx, doc.ID)
	if err != nil {
		return 0, &domain.ExtractionError{Filename: doc.Filename, Err: fmt.Errorf("load file: %w", err)}
	}

	pages, err := s.extractor.Extract(ctx, doc.Filename, data)
	if err != nil {
		return 0, err
	}

	chunks := s.chunker.Chunk(doc, pages)
	if len(chunks) == 0 {
		return 0, &domain.ExtractionError{Filename: doc.Filename, Err: errors.New("no extractable text")}
	}

	embedded, vectors, err := s.embedChunks(ctx, chunks)
	if err != nil {
		return 0, err
	}

	// Replace, never merge: the previous index state for this document
	// is swept before the new chunks go in
	if err := s.removeIndexed(ctx, doc); err != nil {
		return 0, &domain.IndexError{Op: "delete", Err: err}
	}

	if err := s.chunkStore.SaveBatch(ctx, embedded); err != nil {
		return 0, &domain.IndexError{Op: "save_chunks", Err: err}
	}

	items := make([]driven.VectorItem, len(embedded))
	for i, chunk := range embedded {
		items[i] = driven.VectorItem{
			Key:    chunk.VectorKey(),
			Vector: vectors[i],
			Metadata: driven.VectorMetadata{
				DocumentID: chunk.DocumentID,
				Document:   chunk.Filename,
				UserID:     chunk.UserID,
				Collection: chunk.Collection,
				Page:       chunk.Page,
				Text:       chunk.Text,
				ChunkIndex: chunk.Index,
				StartChar:  chunk.StartChar,
				EndChar:    chunk.EndChar,
			},
		}
	}
	namespace := domain.Namespace(doc.UserID, doc.Collection)
	if err := s.vectorIndex.Upsert(ctx, namespace, items); err != nil {
		return 0, err
	}

	return len(embedded), nil
}

// embedChunks embeds in batches and tolerates a bounded fraction of
// failures. Surviving chunks are reindexed contiguously so vector keys
// stay dense and count-based sweeps reach every key.
func (s *ingestionService) embedChunks(ctx context.Context, chunks []*domain.Chunk) ([]*domain.Chunk, [][]float32, error) {
	var (
		kept    []*domain.Chunk
		vectors [][]float32
		failed  int
	)

	for start := 0; start < len(chunks); start += s.config.EmbedBatchSize {
		end := start + s.config.EmbedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		embeddings, err := s.embedding.Embed(ctx, texts)
		if err != nil {
			failed += len(batch)
			s.logger.Warn("embedding batch failed",
				"document_id", batch[0].DocumentID,
				"batch_start", start,
				"batch_size", len(batch),
				"error", err,
			)
			continue
		}

		kept = append(kept, batch...)
		vectors = append(vectors, embeddings...)
	}

	if failed > 0 {
		fraction := float64(failed) / float64(len(chunks))
		if fraction > s.config.MaxEmbedFailureFraction || len(kept) == 0 {
			return nil, nil, &domain.EmbeddingError{Err: fmt.Errorf("%d of %d chunks failed to embed", failed, len(chunks))}
		}
		for i, chunk := range kept {
			chunk.Index = i
			chunk.ID = domain.ChunkVectorKey(chunk.DocumentID, i)
		}
	}

	return kept, vectors, nil
}

// Remove deletes a document's vectors, stored chunks, and raw file. The
// document record itself is already gone; the task payload carries what
// the sweep needs.
func (s *ingestionService) Remove(ctx context.Context, task *domain.Task) error {
	documentID := task.DocumentID()
	if documentID == "" {
		return fmt.Errorf("%w: delete task missing document_id", domain.ErrInvalidInput)
	}

	acquired, err := s.lock.Acquire(ctx, docLockName(documentID), s.config.LockTTL)
	if err != nil {
		return fmt.Errorf("acquire delete lock: %w", err)
	}
	if !acquired {
		return domain.ErrIngestInProgress
	}
	defer func() {
		if err := s.lock.Release(context.WithoutCancel(ctx), docLockName(documentID)); err != nil {
			s.logger.Warn("failed to release delete lock", "document_id", documentID, "error", err)
		}
	}()

	collection := task.Payload["collection"]
	chunkCount, _ := strconv.Atoi(task.Payload["chunk_count"])
	if stored, err := s.chunkStore.CountByDocument(ctx, documentID); err == nil && stored > chunkCount {
		chunkCount = stored
	}

	if err := s.vectorIndex.DeleteByDocument(ctx, task.UserID, collection, documentID, chunkCount); err != nil {
		return fmt.Errorf("delete vectors: %w", err)
	}
	if err := s.chunkStore.DeleteByDocument(ctx, documentID); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	if err := s.fileStore.Delete(ctx, documentID); err != nil {
		s.logger.Warn("failed to delete stored file", "document_id", documentID, "error", err)
	}

	s.logger.Info("document removed", "document_id", documentID, "chunks", chunkCount)
	return nil
}

// ExpireSweep queues deletion for expired documents and drops expired
// sessions.
func (s *ingestionService) ExpireSweep(ctx context.Context) (int, error) {
	docs, err := s.documentStore.ListExpired(ctx, s.config.ExpireBatchSize)
	if err != nil {
		return 0, fmt.Errorf("list expired documents: %w", err)
	}

	queued := 0
	for _, doc := range docs {
		task := domain.NewTask(domain.TaskTypeDeleteDocument, doc.UserID, map[string]string{
			"document_id": doc.ID,
			"collection":  doc.Collection,
			"chunk_count": strconv.Itoa(doc.ChunkCount),
		})
		if err := s.taskQueue.Enqueue(ctx, task); err != nil {
			s.logger.Error("failed to queue expiry deletion", "document_id", doc.ID, "error", err)
			continue
		}
		if err := s.documentStore.Delete(ctx, doc.UserID, doc.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("failed to delete expired document record", "document_id", doc.ID, "error", err)
			continue
		}
		queued++
	}

	if s.sessionStore != nil {
		deleted, err := s.sessionStore.DeleteExpired(ctx)
		if err != nil {
			s.logger.Error("failed to delete expired sessions", "error", err)
		} else if deleted > 0 {
			s.logger.Info("expired sessions deleted", "count", deleted)
		}
	}

	return queued, nil
}

// removeIndexed sweeps a document's existing vectors and chunks before
// re-ingestion
func (s *ingestionService) removeIndexed(ctx context.Context, doc *domain.Document) error {
	chunkCount, err := s.chunkStore.CountByDocument(ctx, doc.ID)
	if err != nil {
		return fmt.Errorf("count existing chunks: %w", err)
	}
	if chunkCount < doc.ChunkCount {
		chunkCount = doc.ChunkCount
	}
	if chunkCount == 0 {
		return nil
	}
	if err := s.vectorIndex.DeleteByDocument(ctx, doc.UserID, doc.Collection, doc.ID, chunkCount); err != nil {
		return err
	}
	return s.chunkStore.DeleteByDocument(ctx, doc.ID)
}

// failureReasonFor maps a pipeline error to its document failure reason
func failureReasonFor(err error) domain.FailureReason {
	var (
		extractionErr *domain.ExtractionError
		embeddingErr  *domain.EmbeddingError
	)
	switch {
	case errors.As(err, &extractionErr):
		return domain.FailureReasonExtraction
	case errors.As(err, &embeddingErr):
		return domain.FailureReasonEmbedding
	default:
		return domain.FailureReasonIndex
	}
}

func docLockName(documentID string) string {
	return "ingest:document:" + documentID
}
