package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/DalMakkhani/IntelliBase/internal/core/domain"
	"github.com/DalMakkhani/IntelliBase/internal/core/ports/driven"
)

// mockTaskQueue implements driven.TaskQueue for testing
type mockTaskQueue struct {
	mu           sync.Mutex
	tasks        []*domain.Task
	dequeueDelay time.Duration
	ackFn        func(string) error
	nackFn       func(string, string) error
	pingFn       func() error
}

func newMockTaskQueue() *mockTaskQueue {
	return &mockTaskQueue{
		tasks: make([]*domain.Task, 0),
	}
}

func (m *mockTaskQueue) Enqueue(ctx context.Context, task *domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = append(m.tasks, task)
	return nil
}

func (m *mockTaskQueue) DequeueWithTimeout(ctx context.Context, timeout int) (*domain.Task, error) {
	if m.dequeueDelay > 0 {
		select {
		case <-time.After(m.dequeueDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.tasks) == 0 {
		return nil, nil
	}
	task := m.tasks[0]
	m.tasks = m.tasks[1:]
	return task, nil
}

func (m *mockTaskQueue) Ack(ctx context.Context, taskID string) error {
	if m.ackFn != nil {
		return m.ackFn(taskID)
	}
	return nil
}

func (m *mockTaskQueue) Nack(ctx context.Context, taskID string, reason string) error {
	if m.nackFn != nil {
		return m.nackFn(taskID, reason)
	}
	return nil
}

func (m *mockTaskQueue) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tasks {
		if t.ID == taskID {
			return t, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockTaskQueue) Stats(ctx context.Context) (*driven.QueueStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &driven.QueueStats{
		PendingCount: int64(len(m.tasks)),
	}, nil
}

func (m *mockTaskQueue) Ping(ctx context.Context) error {
	if m.pingFn != nil {
		return m.pingFn()
	}
	return nil
}

func (m *mockTaskQueue) Close() error {
	return nil
}

// mockIngestionService implements driving.IngestionService for testing
type mockIngestionService struct {
	mu            sync.Mutex
	ingested      []string
	removed       []string
	ingestFn      func(task *domain.Task) error
	removeFn      func(task *domain.Task) error
	expireSweepFn func() (int, error)
}

func (m *mockIngestionService) Ingest(ctx context.Context, task *domain.Task) error {
	m.mu.Lock()
	m.ingested = append(m.ingested, task.DocumentID())
	m.mu.Unlock()
	if m.ingestFn != nil {
		return m.ingestFn(task)
	}
	return nil
}

func (m *mockIngestionService) Remove(ctx context.Context, task *domain.Task) error {
	m.mu.Lock()
	m.removed = append(m.removed, task.DocumentID())
	m.mu.Unlock()
	if m.removeFn != nil {
		return m.removeFn(task)
	}
	return nil
}

func (m *mockIngestionService) ExpireSweep(ctx context.Context) (int, error) {
	if m.expireSweepFn != nil {
		return m.expireSweepFn()
	}
	return 0, nil
}

func TestNewWorker(t *testing.T) {
	queue := newMockTaskQueue()

	w := NewWorker(Config{
		TaskQueue:      queue,
		Ingestion:      &mockIngestionService{},
		Logger:         slog.Default(),
		Concurrency:    2,
		DequeueTimeout: 5,
	})

	if w == nil {
		t.Fatal("expected non-nil worker")
	}
	if w.concurrency != 2 {
		t.Errorf("expected concurrency 2, got %d", w.concurrency)
	}
	if w.dequeueTimeout != 5 {
		t.Errorf("expected dequeue timeout 5, got %d", w.dequeueTimeout)
	}
}

func TestNewWorker_Defaults(t *testing.T) {
	queue := newMockTaskQueue()

	w := NewWorker(Config{
		TaskQueue:      queue,
		Ingestion:      &mockIngestionService{},
		Concurrency:    0, // Should default to 1
		DequeueTimeout: 0, // Should default to 5
	})

	if w.concurrency != 1 {
		t.Errorf("expected default concurrency 1, got %d", w.concurrency)
	}
	if w.dequeueTimeout != 5 {
		t.Errorf("expected default dequeue timeout 5, got %d", w.dequeueTimeout)
	}
	if w.logger == nil {
		t.Error("expected default logger")
	}
}

func TestWorker_StartStop(t *testing.T) {
	queue := newMockTaskQueue()
	// Add delay so workers don't spin too fast
	queue.dequeueDelay = 100 * time.Millisecond

	w := NewWorker(Config{
		TaskQueue:      queue,
		Ingestion:      &mockIngestionService{},
		Concurrency:    1,
		DequeueTimeout: 1,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		t.Fatalf("failed to start worker: %v", err)
	}

	health := w.Health(ctx)
	if !health.Running {
		t.Error("expected worker to be running")
	}

	// Start again should be no-op
	if err := w.Start(ctx); err != nil {
		t.Errorf("second start should not error: %v", err)
	}

	w.Stop()

	health = w.Health(ctx)
	if health.Running {
		t.Error("expected worker to be stopped")
	}

	// Stop again should be no-op
	w.Stop() // Should not panic
}

func TestWorker_ProcessesIngestTask(t *testing.T) {
	queue := newMockTaskQueue()
	ingestion := &mockIngestionService{}

	acked := make(chan string, 1)
	queue.ackFn = func(taskID string) error {
		acked <- taskID
		return nil
	}

	task := domain.NewIngestTask("user-1", "doc-1")
	_ = queue.Enqueue(context.Background(), task)

	w := NewWorker(Config{
		TaskQueue:      queue,
		Ingestion:      ingestion,
		Concurrency:    1,
		DequeueTimeout: 1,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		t.Fatalf("failed to start worker: %v", err)
	}
	defer w.Stop()

	select {
	case taskID := <-acked:
		if taskID != task.ID {
			t.Errorf("expected ack for %s, got %s", task.ID, taskID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("task was not processed")
	}

	ingestion.mu.Lock()
	defer ingestion.mu.Unlock()
	if len(ingestion.ingested) != 1 || ingestion.ingested[0] != "doc-1" {
		t.Errorf("expected doc-1 to be ingested, got %v", ingestion.ingested)
	}
}

func TestWorker_ProcessTask_IngestFailureNacks(t *testing.T) {
	queue := newMockTaskQueue()

	var nacked []string
	var nackReason string
	queue.nackFn = func(taskID, reason string) error {
		nacked = append(nacked, taskID)
		nackReason = reason
		return nil
	}

	ingestion := &mockIngestionService{
		ingestFn: func(task *domain.Task) error {
			return errors.New("embedding service down")
		},
	}

	w := NewWorker(Config{
		TaskQueue:   queue,
		Ingestion:   ingestion,
		Concurrency: 1,
	})

	task := domain.NewIngestTask("user-1", "doc-1")
	w.processTask(context.Background(), task, slog.Default())

	if len(nacked) != 1 {
		t.Fatalf("expected 1 nack, got %d", len(nacked))
	}
	if nackReason != "embedding service down" {
		t.Errorf("expected failure reason in nack, got %q", nackReason)
	}
}

func TestWorker_ProcessTask_DeleteTask(t *testing.T) {
	queue := newMockTaskQueue()
	ingestion := &mockIngestionService{}

	task := domain.NewTask(domain.TaskTypeDeleteDocument, "user-1", map[string]string{
		"document_id": "doc-9",
	})

	w := NewWorker(Config{
		TaskQueue:   queue,
		Ingestion:   ingestion,
		Concurrency: 1,
	})

	w.processTask(context.Background(), task, slog.Default())

	if len(ingestion.removed) != 1 || ingestion.removed[0] != "doc-9" {
		t.Errorf("expected doc-9 to be removed, got %v", ingestion.removed)
	}
}

func TestWorker_ProcessTask_UnknownType(t *testing.T) {
	queue := newMockTaskQueue()

	var nacked []string
	queue.nackFn = func(taskID, reason string) error {
		nacked = append(nacked, taskID)
		return nil
	}

	task := &domain.Task{
		ID:     "task-123",
		Type:   domain.TaskType("unknown_type"),
		UserID: "user-1",
	}

	w := NewWorker(Config{
		TaskQueue:   queue,
		Ingestion:   &mockIngestionService{},
		Concurrency: 1,
	})

	w.processTask(context.Background(), task, slog.Default())

	if len(nacked) != 1 {
		t.Errorf("expected 1 nack for unknown type, got %d", len(nacked))
	}
}

func TestWorker_ProcessTask_MissingDocumentID(t *testing.T) {
	queue := newMockTaskQueue()

	var nacked []string
	queue.nackFn = func(taskID, reason string) error {
		nacked = append(nacked, taskID)
		return nil
	}

	task := &domain.Task{
		ID:      "task-123",
		Type:    domain.TaskTypeIngestDocument,
		UserID:  "user-1",
		Payload: nil, // No document_id
	}

	w := NewWorker(Config{
		TaskQueue:   queue,
		Ingestion:   &mockIngestionService{},
		Concurrency: 1,
	})

	w.processTask(context.Background(), task, slog.Default())

	if len(nacked) != 1 {
		t.Errorf("expected 1 nack for missing document_id, got %d", len(nacked))
	}
}

func TestWorker_ExpireSweepLoop(t *testing.T) {
	queue := newMockTaskQueue()
	queue.dequeueDelay = 100 * time.Millisecond

	swept := make(chan struct{}, 4)
	ingestion := &mockIngestionService{
		expireSweepFn: func() (int, error) {
			swept <- struct{}{}
			return 2, nil
		},
	}

	w := NewWorker(Config{
		TaskQueue:      queue,
		Ingestion:      ingestion,
		Concurrency:    1,
		DequeueTimeout: 1,
		SweepInterval:  50 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		t.Fatalf("failed to start worker: %v", err)
	}
	defer w.Stop()

	select {
	case <-swept:
		// Sweep fired
	case <-time.After(2 * time.Second):
		t.Fatal("expiry sweep did not run")
	}
}

func TestWorker_Health(t *testing.T) {
	queue := newMockTaskQueue()

	w := NewWorker(Config{
		TaskQueue:   queue,
		Ingestion:   &mockIngestionService{},
		Concurrency: 1,
	})

	ctx := context.Background()

	health := w.Health(ctx)
	if health.Running {
		t.Error("expected not running")
	}
	if !health.QueueHealth {
		t.Error("expected queue to be healthy")
	}
}

func TestWorker_Health_QueueError(t *testing.T) {
	queue := newMockTaskQueue()
	queue.pingFn = func() error {
		return errors.New("connection failed")
	}

	w := NewWorker(Config{
		TaskQueue:   queue,
		Ingestion:   &mockIngestionService{},
		Concurrency: 1,
	})

	health := w.Health(context.Background())
	if health.QueueHealth {
		t.Error("expected queue to be unhealthy")
	}
	if health.Error != "connection failed" {
		t.Errorf("expected error message, got %q", health.Error)
	}
}

func TestWorker_ContextCancellation(t *testing.T) {
	queue := newMockTaskQueue()
	// Slow dequeue so we can cancel
	queue.dequeueDelay = 500 * time.Millisecond

	w := NewWorker(Config{
		TaskQueue:      queue,
		Ingestion:      &mockIngestionService{},
		Concurrency:    1,
		DequeueTimeout: 10,
	})

	ctx, cancel := context.WithCancel(context.Background())

	if err := w.Start(ctx); err != nil {
		t.Fatalf("failed to start worker: %v", err)
	}

	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	done := make(chan struct{})
	go func() {
		w.Wait()
		close(done)
	}()

	select {
	case <-done:
		// Worker stopped
	case <-time.After(2 * time.Second):
		t.Error("worker did not stop after context cancellation")
		w.Stop() // Force stop
	}
}
