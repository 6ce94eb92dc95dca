package driven

import (
	"context"

	"github.com/DalMakkhani/IntelliBase/internal/core/domain"
)

// ChatSessionStore persists chat sessions and their append-only message
// history.
type ChatSessionStore interface {
	// CreateSession inserts a new session
	CreateSession(ctx context.Context, session *domain.ChatSession) error

	// GetSession returns a session by ID scoped to its owner.
	// Returns domain.ErrSessionNotFound if missing or expired.
	GetSession(ctx context.Context, userID, sessionID string) (*domain.ChatSession, error)

	// AppendMessage adds a message to the session history. Messages are
	// never updated or deleted individually.
	AppendMessage(ctx context.Context, sessionID string, msg *domain.Message) error

	// GetHistory returns the most recent messages of a session in
	// chronological order, capped at limit (0 = all)
	GetHistory(ctx context.Context, sessionID string, limit int) ([]*domain.Message, error)

	// ListByUser returns a user's sessions, most recently active first
	ListByUser(ctx context.Context, userID string) ([]*domain.SessionSummary, error)

	// SetTitle updates a session's display title
	SetTitle(ctx context.Context, sessionID, title string) error

	// SetMode updates a session's conversation mode
	SetMode(ctx context.Context, sessionID string, mode domain.Mode) error

	// DeleteSession removes a session and its history.
	// Returns domain.ErrSessionNotFound if missing.
	DeleteSession(ctx context.Context, userID, sessionID string) error

	// DeleteExpired removes sessions past their expiry, returning how
	// many were deleted
	DeleteExpired(ctx context.Context) (int, error)
}
