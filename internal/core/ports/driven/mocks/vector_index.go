package mocks

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/DalMakkhani/IntelliBase/internal/core/domain"
	"github.com/DalMakkhani/IntelliBase/internal/core/ports/driven"
)

// MockVectorIndex is an in-memory VectorIndex for testing.
// Vectors are grouped by namespace and queries rank by cosine similarity.
type MockVectorIndex struct {
	mu         sync.RWMutex
	namespaces map[string]map[string]driven.VectorItem

	// QueryFn overrides Query when set
	QueryFn func(vector []float32, topK int, filter driven.VectorFilter) ([]driven.VectorMatch, error)

	failUpsert bool
}

// NewMockVectorIndex creates a new MockVectorIndex
func NewMockVectorIndex() *MockVectorIndex {
	return &MockVectorIndex{
		namespaces: make(map[string]map[string]driven.VectorItem),
	}
}

func (m *MockVectorIndex) Upsert(ctx context.Context, namespace string, items []driven.VectorItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failUpsert {
		m.failUpsert = false
		return &domain.IndexError{Op: "upsert", Err: context.DeadlineExceeded}
	}

	ns, ok := m.namespaces[namespace]
	if !ok {
		ns = make(map[string]driven.VectorItem)
		m.namespaces[namespace] = ns
	}
	for _, item := range items {
		ns[item.Key] = item
	}
	return nil
}

func (m *MockVectorIndex) Query(ctx context.Context, vector []float32, topK int, filter driven.VectorFilter) ([]driven.VectorMatch, error) {
	if m.QueryFn != nil {
		return m.QueryFn(vector, topK, filter)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var matches []driven.VectorMatch
	for namespace, items := range m.namespaces {
		if !m.namespaceMatches(namespace, filter) {
			continue
		}
		for _, item := range items {
			matches = append(matches, driven.VectorMatch{
				Key:      item.Key,
				Score:    cosine(vector, item.Vector),
				Metadata: item.Metadata,
			})
		}
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func (m *MockVectorIndex) DeleteByDocument(ctx context.Context, userID, collection, documentID string, chunkCount int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	namespace := domain.Namespace(userID, collection)
	ns, ok := m.namespaces[namespace]
	if !ok {
		return nil
	}
	for i := 0; i < chunkCount; i++ {
		delete(ns, domain.ChunkVectorKey(documentID, i))
	}
	return nil
}

func (m *MockVectorIndex) HealthCheck(ctx context.Context) error {
	return nil
}

func (m *MockVectorIndex) namespaceMatches(namespace string, filter driven.VectorFilter) bool {
	userPrefix := domain.Namespace(filter.UserID, "")
	if len(filter.Collections) == 0 {
		return namespace == userPrefix || strings.HasPrefix(namespace, userPrefix+"__")
	}
	for _, c := range filter.Collections {
		if namespace == domain.Namespace(filter.UserID, c) {
			return true
		}
	}
	return false
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Helper methods for testing

// Count returns the number of vectors stored in a namespace
func (m *MockVectorIndex) Count(namespace string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.namespaces[namespace])
}

// Has reports whether a vector key exists in a namespace
func (m *MockVectorIndex) Has(namespace, key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.namespaces[namespace][key]
	return ok
}

// SetFailUpsert makes the next Upsert call fail
func (m *MockVectorIndex) SetFailUpsert(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failUpsert = fail
}

// Reset clears all namespaces
func (m *MockVectorIndex) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.namespaces = make(map[string]map[string]driven.VectorItem)
}
