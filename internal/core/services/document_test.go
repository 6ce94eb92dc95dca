package services

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/DalMakkhani/IntelliBase/internal/core/domain"
	"github.com/DalMakkhani/IntelliBase/internal/core/ports/driven/mocks"
	"github.com/DalMakkhani/IntelliBase/internal/core/ports/driving"
)

type docFixture struct {
	documents *mocks.MockDocumentStore
	chunks    *mocks.MockChunkStore
	files     *mocks.MockFileStore
	extractor *mocks.MockTextExtractor
	queue     *mocks.MockTaskQueue
}

func newDocFixture() (*docFixture, driving.DocumentService) {
	f := &docFixture{
		documents: mocks.NewMockDocumentStore(),
		chunks:    mocks.NewMockChunkStore(),
		files:     mocks.NewMockFileStore(),
		extractor: mocks.NewMockTextExtractor(),
		queue:     mocks.NewMockTaskQueue(),
	}
	svc := NewDocumentService(f.documents, f.chunks, f.files, f.extractor, f.queue, nil)
	return f, svc
}

func TestUpload_Success(t *testing.T) {
	f, svc := newDocFixture()

	doc, err := svc.Upload(context.Background(), "user-1", "notes.pdf", "", []byte("content"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Status != domain.DocumentStatusPending {
		t.Errorf("expected pending, got %s", doc.Status)
	}
	if doc.Collection != domain.CollectionMain {
		t.Errorf("expected main collection, got %s", doc.Collection)
	}
	if !f.files.Has(doc.ID) {
		t.Error("file not stored")
	}
	if f.queue.PendingCount() != 1 {
		t.Errorf("expected 1 queued ingest task, got %d", f.queue.PendingCount())
	}

	task, err := f.queue.DequeueWithTimeout(context.Background(), 0)
	if err != nil || task == nil {
		t.Fatalf("dequeue failed: %v", err)
	}
	if task.Type != domain.TaskTypeIngestDocument || task.DocumentID() != doc.ID {
		t.Errorf("unexpected task: %+v", task)
	}
}

func TestUpload_Validation(t *testing.T) {
	f, svc := newDocFixture()

	cases := []struct {
		name       string
		filename   string
		collection string
		data       []byte
	}{
		{"empty filename", "", "", []byte("x")},
		{"empty file", "a.pdf", "", nil},
		{"oversized file", "a.pdf", "", bytes.Repeat([]byte("x"), maxUploadBytes+1)},
		{"bad collection name", "a.pdf", "has spaces!", []byte("x")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Upload(context.Background(), "user-1", tc.filename, tc.collection, tc.data)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
	if f.queue.PendingCount() != 0 {
		t.Error("rejected uploads must not queue work")
	}
}

func TestUpload_IsolatedCollection(t *testing.T) {
	_, svc := newDocFixture()

	doc, err := svc.Upload(context.Background(), "user-1", "exam.pdf", "exam-prep", []byte("content"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Collection != "exam-prep" {
		t.Errorf("expected isolated collection, got %s", doc.Collection)
	}
	if ns := domain.Namespace(doc.UserID, doc.Collection); ns != "user_757365722d31__exam-prep" {
		t.Errorf("unexpected namespace %s", ns)
	}
}

func TestDelete_QueuesSweepAndRemovesRecord(t *testing.T) {
	f, svc := newDocFixture()

	doc := domain.NewDocument("user-1", "notes.pdf", "", 100)
	doc.Status = domain.DocumentStatusCompleted
	doc.ChunkCount = 7
	f.documents.Put(doc)

	if err := svc.Delete(context.Background(), "user-1", doc.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := f.documents.Get(context.Background(), "user-1", doc.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Error("record should be gone immediately")
	}

	task, _ := f.queue.DequeueWithTimeout(context.Background(), 0)
	if task == nil || task.Type != domain.TaskTypeDeleteDocument {
		t.Fatalf("expected delete task, got %+v", task)
	}
	if task.Payload["chunk_count"] != "7" || task.Payload["collection"] != domain.CollectionMain {
		t.Errorf("payload missing sweep data: %+v", task.Payload)
	}
}

func TestDelete_ForeignDocumentRejected(t *testing.T) {
	f, svc := newDocFixture()

	doc := domain.NewDocument("user-1", "notes.pdf", "", 100)
	f.documents.Put(doc)

	if err := svc.Delete(context.Background(), "user-2", doc.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for foreign user, got %v", err)
	}
	if f.queue.PendingCount() != 0 {
		t.Error("foreign delete must not queue work")
	}
}

func TestGetFile_ReturnsStoredBytes(t *testing.T) {
	f, svc := newDocFixture()

	doc := domain.NewDocument("user-1", "notes.pdf", "", 7)
	f.documents.Put(doc)
	if _, err := f.files.Save(context.Background(), doc.ID, doc.Filename, []byte("content")); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	got, data, err := svc.GetFile(context.Background(), "user-1", doc.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Filename != "notes.pdf" {
		t.Errorf("unexpected filename %s", got.Filename)
	}
	if !bytes.Equal(data, []byte("content")) {
		t.Errorf("unexpected data %q", data)
	}

	if _, _, err := svc.GetFile(context.Background(), "user-2", doc.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for foreign user, got %v", err)
	}
}

func TestGetChunks_ChecksOwnership(t *testing.T) {
	f, svc := newDocFixture()

	doc := domain.NewDocument("user-1", "notes.pdf", "", 100)
	f.documents.Put(doc)

	if _, err := svc.GetChunks(context.Background(), "user-2", doc.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
