package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/DalMakkhani/IntelliBase/internal/core/domain"
)

// MockChatSessionStore is a mock implementation of ChatSessionStore for testing
type MockChatSessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.ChatSession
	messages map[string][]*domain.Message
}

// NewMockChatSessionStore creates a new MockChatSessionStore
func NewMockChatSessionStore() *MockChatSessionStore {
	return &MockChatSessionStore{
		sessions: make(map[string]*domain.ChatSession),
		messages: make(map[string][]*domain.Message),
	}
}

func (m *MockChatSessionStore) CreateSession(ctx context.Context, session *domain.ChatSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[session.ID]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *session
	m.sessions[session.ID] = &cp
	return nil
}

func (m *MockChatSessionStore) GetSession(ctx context.Context, userID, sessionID string) (*domain.ChatSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[sessionID]
	if !ok || session.UserID != userID || session.ExpiresAt.Before(time.Now()) {
		return nil, domain.ErrSessionNotFound
	}
	cp := *session
	return &cp, nil
}

func (m *MockChatSessionStore) AppendMessage(ctx context.Context, sessionID string, msg *domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[sessionID]; !ok {
		return domain.ErrSessionNotFound
	}
	cp := *msg
	m.messages[sessionID] = append(m.messages[sessionID], &cp)
	return nil
}

func (m *MockChatSessionStore) GetHistory(ctx context.Context, sessionID string, limit int) ([]*domain.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msgs := m.messages[sessionID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]*domain.Message, 0, len(msgs))
	for _, msg := range msgs {
		cp := *msg
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MockChatSessionStore) ListByUser(ctx context.Context, userID string) ([]*domain.SessionSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var summaries []*domain.SessionSummary
	for _, session := range m.sessions {
		if session.UserID != userID {
			continue
		}
		summaries = append(summaries, &domain.SessionSummary{
			SessionID:    session.ID,
			Title:        session.Title,
			Mode:         session.Mode,
			MessageCount: len(m.messages[session.ID]),
			CreatedAt:    session.CreatedAt,
		})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].CreatedAt.After(summaries[j].CreatedAt) })
	return summaries, nil
}

func (m *MockChatSessionStore) SetTitle(ctx context.Context, sessionID, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[sessionID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	session.Title = title
	return nil
}

func (m *MockChatSessionStore) SetMode(ctx context.Context, sessionID string, mode domain.Mode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[sessionID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	session.Mode = mode
	return nil
}

func (m *MockChatSessionStore) DeleteSession(ctx context.Context, userID, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[sessionID]
	if !ok || session.UserID != userID {
		return domain.ErrSessionNotFound
	}
	delete(m.sessions, sessionID)
	delete(m.messages, sessionID)
	return nil
}

func (m *MockChatSessionStore) DeleteExpired(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	count := 0
	for id, session := range m.sessions {
		if session.ExpiresAt.Before(now) {
			delete(m.sessions, id)
			delete(m.messages, id)
			count++
		}
	}
	return count, nil
}

// Helper methods for testing

func (m *MockChatSessionStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = make(map[string]*domain.ChatSession)
	m.messages = make(map[string][]*domain.Message)
}

// MessageCount returns how many messages a session holds
func (m *MockChatSessionStore) MessageCount(sessionID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.messages[sessionID])
}
