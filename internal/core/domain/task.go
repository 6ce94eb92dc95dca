package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskType identifies the type of background task
type TaskType string

const (
	// TaskTypeIngestDocument runs the ingestion pipeline for one document
	TaskTypeIngestDocument TaskType = "ingest_document"
	// TaskTypeDeleteDocument sweeps a document's vectors, chunks, and file
	TaskTypeDeleteDocument TaskType = "delete_document"
)

// TaskStatus represents the current state of a task
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Task represents a background job to be processed by workers
type Task struct {
	ID          string            `json:"id"`
	Type        TaskType          `json:"type"`
	UserID      string            `json:"user_id"`
	Payload     map[string]string `json:"payload"`
	Status      TaskStatus        `json:"status"`
	Attempts    int               `json:"attempts"`
	MaxAttempts int               `json:"max_attempts"`
	Error       string            `json:"error,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// NewTask creates a new task with default values
func NewTask(taskType TaskType, userID string, payload map[string]string) *Task {
	now := time.Now()
	return &Task{
		ID:          "task_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12],
		Type:        taskType,
		UserID:      userID,
		Payload:     payload,
		Status:      TaskStatusPending,
		MaxAttempts: 3,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// NewIngestTask creates a task to ingest a specific document
func NewIngestTask(userID, documentID string) *Task {
	return NewTask(TaskTypeIngestDocument, userID, map[string]string{
		"document_id": documentID,
	})
}

// DocumentID returns the document id from the payload, or ""
func (t *Task) DocumentID() string {
	if t.Payload == nil {
		return ""
	}
	return t.Payload["document_id"]
}

// CanRetry reports whether the task has retry budget left
func (t *Task) CanRetry() bool {
	return t.Attempts < t.MaxAttempts
}

// MarkProcessing transitions the task to processing and counts the attempt
func (t *Task) MarkProcessing() {
	t.Status = TaskStatusProcessing
	t.Attempts++
	t.UpdatedAt = time.Now()
}

// MarkCompleted transitions the task to completed
func (t *Task) MarkCompleted() {
	t.Status = TaskStatusCompleted
	t.Error = ""
	t.UpdatedAt = time.Now()
}

// MarkFailed transitions the task to failed with the terminal error
func (t *Task) MarkFailed(reason string) {
	t.Status = TaskStatusFailed
	t.Error = reason
	t.UpdatedAt = time.Now()
}

// Retry returns the task to pending for another attempt
func (t *Task) Retry(reason string) {
	t.Status = TaskStatusPending
	t.Error = reason
	t.UpdatedAt = time.Now()
}
