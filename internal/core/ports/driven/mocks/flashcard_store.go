package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/DalMakkhani/IntelliBase/internal/core/domain"
)

// MockFlashcardStore is a mock implementation of FlashcardStore for testing
type MockFlashcardStore struct {
	mu   sync.RWMutex
	sets map[string]*domain.FlashcardSet
}

// NewMockFlashcardStore creates a new MockFlashcardStore
func NewMockFlashcardStore() *MockFlashcardStore {
	return &MockFlashcardStore{
		sets: make(map[string]*domain.FlashcardSet),
	}
}

func (m *MockFlashcardStore) SaveSet(ctx context.Context, set *domain.FlashcardSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *set
	m.sets[set.ID] = &cp
	return nil
}

func (m *MockFlashcardStore) GetSet(ctx context.Context, userID, setID string) (*domain.FlashcardSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	set, ok := m.sets[setID]
	if !ok || set.UserID != userID {
		return nil, domain.ErrNotFound
	}
	cp := *set
	return &cp, nil
}

func (m *MockFlashcardStore) ListByUser(ctx context.Context, userID string) ([]*domain.FlashcardSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var sets []*domain.FlashcardSet
	for _, set := range m.sets {
		if set.UserID != userID {
			continue
		}
		cp := *set
		sets = append(sets, &cp)
	}
	sort.Slice(sets, func(i, j int) bool { return sets[i].CreatedAt.After(sets[j].CreatedAt) })
	return sets, nil
}

func (m *MockFlashcardStore) ListBySession(ctx context.Context, userID, sessionID string) ([]*domain.FlashcardSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var sets []*domain.FlashcardSet
	for _, set := range m.sets {
		if set.UserID != userID || set.SessionID != sessionID {
			continue
		}
		cp := *set
		sets = append(sets, &cp)
	}
	sort.Slice(sets, func(i, j int) bool { return sets[i].CreatedAt.After(sets[j].CreatedAt) })
	return sets, nil
}

func (m *MockFlashcardStore) MarkReviewed(ctx context.Context, userID, setID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.sets[setID]
	if !ok || set.UserID != userID {
		return domain.ErrNotFound
	}
	now := time.Now()
	set.LastReviewed = &now
	return nil
}

func (m *MockFlashcardStore) DeleteSet(ctx context.Context, userID, setID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.sets[setID]
	if !ok || set.UserID != userID {
		return domain.ErrNotFound
	}
	delete(m.sets, setID)
	return nil
}

// Helper methods for testing

func (m *MockFlashcardStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets = make(map[string]*domain.FlashcardSet)
}

// SetCount returns how many sets are stored
func (m *MockFlashcardStore) SetCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sets)
}
