package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/DalMakkhani/IntelliBase/internal/core/domain"
	"github.com/DalMakkhani/IntelliBase/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ChatSessionStore = (*SessionStore)(nil)

// SessionStore implements driven.ChatSessionStore using PostgreSQL
type SessionStore struct {
	db *DB
}

// NewSessionStore creates a new SessionStore
func NewSessionStore(db *DB) *SessionStore {
	return &SessionStore{db: db}
}

// CreateSession inserts a new session
func (s *SessionStore) CreateSession(ctx context.Context, session *domain.ChatSession) error {
	query := `
		INSERT INTO chat_sessions (id, user_id, title, mode, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		session.ID,
		session.UserID,
		session.Title,
		session.Mode,
		session.CreatedAt,
		session.ExpiresAt,
	)
	return err
}

// GetSession returns a live session by ID scoped to its owner. Sessions
// past their expiry behave as if already deleted.
func (s *SessionStore) GetSession(ctx context.Context, userID, sessionID string) (*domain.ChatSession, error) {
	query := `
		SELECT id, user_id, title, mode, created_at, expires_at
		FROM chat_sessions
		WHERE id = $1 AND user_id = $2 AND expires_at > NOW()
	`

	var session domain.ChatSession
	err := s.db.QueryRowContext(ctx, query, sessionID, userID).Scan(
		&session.ID,
		&session.UserID,
		&session.Title,
		&session.Mode,
		&session.CreatedAt,
		&session.ExpiresAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// AppendMessage adds a message to the session history
func (s *SessionStore) AppendMessage(ctx context.Context, sessionID string, msg *domain.Message) error {
	var citations []byte
	if len(msg.Citations) > 0 {
		var err error
		citations, err = json.Marshal(msg.Citations)
		if err != nil {
			return err
		}
	}

	query := `
		INSERT INTO chat_messages (session_id, role, content, citations, flashcard_set_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		sessionID,
		msg.Role,
		msg.Content,
		citations,
		NullString(stringOrNil(msg.FlashcardSetID)),
		msg.CreatedAt,
	)
	return err
}

// GetHistory returns the most recent messages in chronological order,
// capped at limit (0 = all)
func (s *SessionStore) GetHistory(ctx context.Context, sessionID string, limit int) ([]*domain.Message, error) {
	// select the newest rows, then reverse into chronological order
	query := `
		SELECT role, content, citations, flashcard_set_id, created_at
		FROM chat_messages
		WHERE session_id = $1
		ORDER BY id DESC
	`
	args := []interface{}{sessionID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*domain.Message
	for rows.Next() {
		var msg domain.Message
		var citations []byte
		var setID sql.NullString
		if err := rows.Scan(&msg.Role, &msg.Content, &citations, &setID, &msg.CreatedAt); err != nil {
			return nil, err
		}
		if len(citations) > 0 {
			if err := json.Unmarshal(citations, &msg.Citations); err != nil {
				return nil, err
			}
		}
		msg.FlashcardSetID = setID.String
		messages = append(messages, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// ListByUser returns a user's live sessions, newest first
func (s *SessionStore) ListByUser(ctx context.Context, userID string) ([]*domain.SessionSummary, error) {
	query := `
		SELECT s.id, s.title, s.mode, s.created_at, COUNT(m.id)
		FROM chat_sessions s
		LEFT JOIN chat_messages m ON m.session_id = s.id
		WHERE s.user_id = $1 AND s.expires_at > NOW()
		GROUP BY s.id, s.title, s.mode, s.created_at
		ORDER BY s.created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []*domain.SessionSummary
	for rows.Next() {
		var summary domain.SessionSummary
		if err := rows.Scan(&summary.SessionID, &summary.Title, &summary.Mode, &summary.CreatedAt, &summary.MessageCount); err != nil {
			return nil, err
		}
		summaries = append(summaries, &summary)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return summaries, nil
}

// SetTitle updates a session's display title
func (s *SessionStore) SetTitle(ctx context.Context, sessionID, title string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE chat_sessions SET title = $2 WHERE id = $1`, sessionID, title)
	if err != nil {
		return err
	}
	return requireSession(result)
}

// SetMode updates a session's conversation mode
func (s *SessionStore) SetMode(ctx context.Context, sessionID string, mode domain.Mode) error {
	result, err := s.db.ExecContext(ctx, `UPDATE chat_sessions SET mode = $2 WHERE id = $1`, sessionID, mode)
	if err != nil {
		return err
	}
	return requireSession(result)
}

// DeleteSession removes a session and its history (messages cascade)
func (s *SessionStore) DeleteSession(ctx context.Context, userID, sessionID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM chat_sessions WHERE id = $1 AND user_id = $2`, sessionID, userID)
	if err != nil {
		return err
	}
	return requireSession(result)
}

// DeleteExpired removes sessions past their expiry
func (s *SessionStore) DeleteExpired(ctx context.Context) (int, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM chat_sessions WHERE expires_at < NOW()`)
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	return int(affected), err
}

func requireSession(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func stringOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
