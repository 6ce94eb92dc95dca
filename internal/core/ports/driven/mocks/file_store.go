package mocks

import (
	"context"
	"sync"

	"github.com/DalMakkhani/IntelliBase/internal/core/domain"
)

// MockFileStore is an in-memory FileStore for testing
type MockFileStore struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMockFileStore creates a new MockFileStore
func NewMockFileStore() *MockFileStore {
	return &MockFileStore{
		files: make(map[string][]byte),
	}
}

func (m *MockFileStore) Save(ctx context.Context, documentID, filename string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.files[documentID] = cp
	return documentID, nil
}

func (m *MockFileStore) Load(ctx context.Context, documentID string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[documentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

func (m *MockFileStore) Delete(ctx context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, documentID)
	return nil
}

// Helper methods for testing

// Has reports whether a file is stored for a document
func (m *MockFileStore) Has(documentID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.files[documentID]
	return ok
}
