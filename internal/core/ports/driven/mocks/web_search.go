package mocks

import (
	"context"
	"sync"

	"github.com/DalMakkhani/IntelliBase/internal/core/domain"
)

// MockWebSearchService is a mock implementation of WebSearchService for testing
type MockWebSearchService struct {
	mu      sync.Mutex
	results []domain.WebResult
	err     error
	queries []string
}

// NewMockWebSearchService creates a new MockWebSearchService
func NewMockWebSearchService() *MockWebSearchService {
	return &MockWebSearchService{}
}

func (m *MockWebSearchService) Search(ctx context.Context, query string, maxResults int) ([]domain.WebResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.queries = append(m.queries, query)
	if m.err != nil {
		return nil, m.err
	}
	if maxResults > 0 && len(m.results) > maxResults {
		return m.results[:maxResults], nil
	}
	return m.results, nil
}

// Helper methods for testing

func (m *MockWebSearchService) SetResults(results []domain.WebResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = results
}

func (m *MockWebSearchService) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Queries returns every query passed to Search
func (m *MockWebSearchService) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.queries))
	copy(out, m.queries)
	return out
}
