package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DalMakkhani/IntelliBase/internal/chunking"
	"github.com/DalMakkhani/IntelliBase/internal/core/domain"
	"github.com/DalMakkhani/IntelliBase/internal/core/ports/driven/mocks"
	"github.com/DalMakkhani/IntelliBase/internal/core/ports/driving"
)

type ingestFixture struct {
	documents *mocks.MockDocumentStore
	chunks    *mocks.MockChunkStore
	sessions  *mocks.MockChatSessionStore
	files     *mocks.MockFileStore
	extractor *mocks.MockTextExtractor
	embedding *mocks.MockEmbeddingService
	index     *mocks.MockVectorIndex
	queue     *mocks.MockTaskQueue
	lock      *mocks.MockDistributedLock
}

func newIngestFixture() (*ingestFixture, driving.IngestionService) {
	f := &ingestFixture{
		documents: mocks.NewMockDocumentStore(),
		chunks:    mocks.NewMockChunkStore(),
		sessions:  mocks.NewMockChatSessionStore(),
		files:     mocks.NewMockFileStore(),
		extractor: mocks.NewMockTextExtractor(),
		embedding: mocks.NewMockEmbeddingService(),
		index:     mocks.NewMockVectorIndex(),
		queue:     mocks.NewMockTaskQueue(),
		lock:      mocks.NewMockDistributedLock(),
	}
	svc := NewIngestionService(IngestionServiceConfig{
		DocumentStore: f.documents,
		ChunkStore:    f.chunks,
		SessionStore:  f.sessions,
		FileStore:     f.files,
		Extractor:     f.extractor,
		Embedding:     f.embedding,
		VectorIndex:   f.index,
		TaskQueue:     f.queue,
		Lock:          f.lock,
		Chunking:      chunking.Config{ChunkSize: 120, Overlap: 20, MinChunkChars: 10},
		Ingest:        DefaultIngestConfig(),
	})
	return f, svc
}

// seedUpload stores a pending document with its file and returns the
// ingest task for it
func (f *ingestFixture) seedUpload(t *testing.T, userID, text string) (*domain.Document, *domain.Task) {
	t.Helper()
	doc := domain.NewDocument(userID, "notes.pdf", "", int64(len(text)))
	f.documents.Put(doc)
	if _, err := f.files.Save(context.Background(), doc.ID, doc.Filename, []byte(text)); err != nil {
		t.Fatal(err)
	}
	return doc, domain.NewIngestTask(userID, doc.ID)
}

func longText() string {
	return strings.Repeat("Cells convert glucose into ATP during respiration. ", 20)
}

func TestIngest_HappyPath(t *testing.T) {
	f, svc := newIngestFixture()
	doc, task := f.seedUpload(t, "user-1", longText())

	if err := svc.Ingest(context.Background(), task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := f.documents.Get(context.Background(), "user-1", doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.DocumentStatusCompleted {
		t.Errorf("expected completed, got %s (reason %s)", got.Status, got.FailureReason)
	}
	if got.ChunkCount == 0 {
		t.Error("chunk count must be set on completion")
	}
	if got.ProcessedAt == nil {
		t.Error("processed timestamp must be set")
	}

	stored, _ := f.chunks.CountByDocument(context.Background(), doc.ID)
	if stored != got.ChunkCount {
		t.Errorf("chunk store count %d != document chunk count %d", stored, got.ChunkCount)
	}

	namespace := domain.Namespace("user-1", doc.Collection)
	if f.index.Count(namespace) != got.ChunkCount {
		t.Errorf("index count %d != chunk count %d", f.index.Count(namespace), got.ChunkCount)
	}
	for i := 0; i < got.ChunkCount; i++ {
		if !f.index.Has(namespace, domain.ChunkVectorKey(doc.ID, i)) {
			t.Errorf("vector key %d missing from index", i)
		}
	}

	if f.lock.IsHeld("ingest:document:" + doc.ID) {
		t.Error("lock must be released after ingestion")
	}
}

func TestIngest_ExtractionFailure(t *testing.T) {
	f, svc := newIngestFixture()
	doc, task := f.seedUpload(t, "user-1", longText())
	f.extractor.SetFail(true)

	err := svc.Ingest(context.Background(), task)
	if err == nil {
		t.Fatal("expected error")
	}
	var extractionErr *domain.ExtractionError
	if !errors.As(err, &extractionErr) {
		t.Fatalf("expected ExtractionError, got %v", err)
	}

	got, _ := f.documents.Get(context.Background(), "user-1", doc.ID)
	if got.Status != domain.DocumentStatusFailed || got.FailureReason != domain.FailureReasonExtraction {
		t.Errorf("expected failed/extraction_error, got %s/%s", got.Status, got.FailureReason)
	}
	if got.ChunkCount != 0 {
		t.Error("failed document must not report chunks")
	}
}

func TestIngest_EmbeddingFailureAboveThreshold(t *testing.T) {
	f, svc := newIngestFixture()
	doc, task := f.seedUpload(t, "user-1", longText())
	// Single batch (few chunks at 120 chars), so one failure is 100%
	f.embedding.SetFailNext(true)

	err := svc.Ingest(context.Background(), task)
	var embeddingErr *domain.EmbeddingError
	if !errors.As(err, &embeddingErr) {
		t.Fatalf("expected EmbeddingError, got %v", err)
	}

	got, _ := f.documents.Get(context.Background(), "user-1", doc.ID)
	if got.FailureReason != domain.FailureReasonEmbedding {
		t.Errorf("expected embedding_error, got %s", got.FailureReason)
	}
	if f.index.Count(domain.Namespace("user-1", doc.Collection)) != 0 {
		t.Error("nothing should be indexed on failure")
	}
}

func TestIngest_IndexFailure(t *testing.T) {
	f, svc := newIngestFixture()
	doc, task := f.seedUpload(t, "user-1", longText())
	f.index.SetFailUpsert(true)

	err := svc.Ingest(context.Background(), task)
	var indexErr *domain.IndexError
	if !errors.As(err, &indexErr) {
		t.Fatalf("expected IndexError, got %v", err)
	}

	got, _ := f.documents.Get(context.Background(), "user-1", doc.ID)
	if got.FailureReason != domain.FailureReasonIndex {
		t.Errorf("expected index_error, got %s", got.FailureReason)
	}
}

func TestIngest_LockHeldByAnotherWorker(t *testing.T) {
	f, svc := newIngestFixture()
	doc, task := f.seedUpload(t, "user-1", longText())
	f.lock.SetLockHeld("ingest:document:"+doc.ID, time.Minute)

	err := svc.Ingest(context.Background(), task)
	if !errors.Is(err, domain.ErrIngestInProgress) {
		t.Fatalf("expected ErrIngestInProgress, got %v", err)
	}

	got, _ := f.documents.Get(context.Background(), "user-1", doc.ID)
	if got.Status != domain.DocumentStatusPending {
		t.Errorf("contended document must stay untouched, got %s", got.Status)
	}
}

func TestIngest_ReingestSweepsOldVectors(t *testing.T) {
	f, svc := newIngestFixture()
	doc, task := f.seedUpload(t, "user-1", longText())

	if err := svc.Ingest(context.Background(), task); err != nil {
		t.Fatal(err)
	}
	first, _ := f.documents.Get(context.Background(), "user-1", doc.ID)

	// Shrink the document, then re-ingest
	if _, err := f.files.Save(context.Background(), doc.ID, doc.Filename, []byte("Short replacement text about respiration and glucose.")); err != nil {
		t.Fatal(err)
	}
	if err := svc.Ingest(context.Background(), task); err != nil {
		t.Fatal(err)
	}
	second, _ := f.documents.Get(context.Background(), "user-1", doc.ID)

	if second.ChunkCount >= first.ChunkCount {
		t.Fatalf("expected fewer chunks after shrink: first=%d second=%d", first.ChunkCount, second.ChunkCount)
	}
	namespace := domain.Namespace("user-1", doc.Collection)
	if f.index.Count(namespace) != second.ChunkCount {
		t.Errorf("stale vectors left behind: index=%d want=%d", f.index.Count(namespace), second.ChunkCount)
	}
}

func TestRemove_SweepsEverything(t *testing.T) {
	f, svc := newIngestFixture()
	doc, task := f.seedUpload(t, "user-1", longText())
	if err := svc.Ingest(context.Background(), task); err != nil {
		t.Fatal(err)
	}
	got, _ := f.documents.Get(context.Background(), "user-1", doc.ID)

	deleteTask := domain.NewTask(domain.TaskTypeDeleteDocument, "user-1", map[string]string{
		"document_id": doc.ID,
		"collection":  doc.Collection,
		"chunk_count": "0", // stale payload; stored count wins
	})
	if err := svc.Remove(context.Background(), deleteTask); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.index.Count(domain.Namespace("user-1", doc.Collection)) != 0 {
		t.Error("vectors not removed")
	}
	if n, _ := f.chunks.CountByDocument(context.Background(), doc.ID); n != 0 {
		t.Error("chunks not removed")
	}
	if f.files.Has(doc.ID) {
		t.Error("stored file not removed")
	}
	_ = got
}

func TestExpireSweep(t *testing.T) {
	f, svc := newIngestFixture()

	expired := domain.NewDocument("user-1", "old.pdf", "", 100)
	expired.Status = domain.DocumentStatusCompleted
	expired.ChunkCount = 3
	expired.ExpiresAt = time.Now().Add(-time.Hour)
	f.documents.Put(expired)

	fresh := domain.NewDocument("user-1", "new.pdf", "", 100)
	fresh.Status = domain.DocumentStatusCompleted
	f.documents.Put(fresh)

	oldSession := domain.NewChatSession("user-1", domain.ModeCasual)
	oldSession.ExpiresAt = time.Now().Add(-time.Hour)
	if err := f.sessions.CreateSession(context.Background(), oldSession); err != nil {
		t.Fatal(err)
	}

	queued, err := svc.ExpireSweep(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if queued != 1 {
		t.Errorf("expected 1 queued deletion, got %d", queued)
	}
	if _, err := f.documents.Get(context.Background(), "user-1", expired.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Error("expired document record should be gone")
	}
	if _, err := f.documents.Get(context.Background(), "user-1", fresh.ID); err != nil {
		t.Error("fresh document must survive the sweep")
	}
	if f.queue.PendingCount() != 1 {
		t.Errorf("expected 1 pending delete task, got %d", f.queue.PendingCount())
	}

	if _, err := f.sessions.GetSession(context.Background(), "user-1", oldSession.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Error("expired session should be gone")
	}
}
