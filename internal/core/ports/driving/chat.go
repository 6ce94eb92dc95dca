package driving

import (
	"context"

	"github.com/DalMakkhani/IntelliBase/internal/core/domain"
)

// ChatService runs the retrieval-augmented chat pipeline and manages
// chat sessions.
type ChatService interface {
	// Query answers a user message against their corpus. A missing or
	// empty SessionID creates a new session.
	Query(ctx context.Context, userID string, req domain.QueryRequest) (*domain.QueryResponse, error)

	// GetSession retrieves a session with its full history
	GetSession(ctx context.Context, userID, sessionID string) (*domain.ChatSession, []*domain.Message, error)

	// ListSessions returns a user's sessions, most recently active first
	ListSessions(ctx context.Context, userID string) ([]*domain.SessionSummary, error)

	// SetSessionMode changes the conversation mode of a session
	SetSessionMode(ctx context.Context, userID, sessionID string, mode domain.Mode) error

	// DeleteSession removes a session and its history
	DeleteSession(ctx context.Context, userID, sessionID string) error
}
