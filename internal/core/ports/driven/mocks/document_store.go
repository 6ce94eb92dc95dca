package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/DalMakkhani/IntelliBase/internal/core/domain"
)

// MockDocumentStore is a mock implementation of DocumentStore for testing
type MockDocumentStore struct {
	mu        sync.RWMutex
	documents map[string]*domain.Document
}

// NewMockDocumentStore creates a new MockDocumentStore
func NewMockDocumentStore() *MockDocumentStore {
	return &MockDocumentStore{
		documents: make(map[string]*domain.Document),
	}
}

func (m *MockDocumentStore) CreatePending(ctx context.Context, doc *domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.documents[doc.ID]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *doc
	m.documents[doc.ID] = &cp
	return nil
}

func (m *MockDocumentStore) Get(ctx context.Context, userID, documentID string) (*domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.documents[documentID]
	if !ok || doc.UserID != userID {
		return nil, domain.ErrNotFound
	}
	cp := *doc
	return &cp, nil
}

func (m *MockDocumentStore) SetStatus(ctx context.Context, documentID string, status domain.DocumentStatus, failureReason domain.FailureReason) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.documents[documentID]
	if !ok {
		return domain.ErrNotFound
	}
	doc.Status = status
	if status == domain.DocumentStatusFailed {
		doc.FailureReason = failureReason
	} else {
		doc.FailureReason = ""
	}
	return nil
}

func (m *MockDocumentStore) SetCompleted(ctx context.Context, documentID string, chunkCount int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.documents[documentID]
	if !ok {
		return domain.ErrNotFound
	}
	now := time.Now().UTC()
	doc.Status = domain.DocumentStatusCompleted
	doc.FailureReason = ""
	doc.ChunkCount = chunkCount
	doc.ProcessedAt = &now
	return nil
}

func (m *MockDocumentStore) ListByUser(ctx context.Context, userID, collection string) ([]*domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var docs []*domain.Document
	for _, doc := range m.documents {
		if doc.UserID != userID {
			continue
		}
		if collection != "" && doc.Collection != collection {
			continue
		}
		cp := *doc
		docs = append(docs, &cp)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].CreatedAt.After(docs[j].CreatedAt) })
	return docs, nil
}

func (m *MockDocumentStore) CountCompleted(ctx context.Context, userID string, collections []string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, doc := range m.documents {
		if doc.UserID != userID || !doc.IsSearchable() {
			continue
		}
		if len(collections) > 0 && !containsString(collections, doc.Collection) {
			continue
		}
		count++
	}
	return count, nil
}

func (m *MockDocumentStore) ListCollections(ctx context.Context, userID string) ([]*domain.CollectionSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	byName := make(map[string]*domain.CollectionSummary)
	for _, doc := range m.documents {
		if doc.UserID != userID {
			continue
		}
		s, ok := byName[doc.Collection]
		if !ok {
			s = &domain.CollectionSummary{Collection: doc.Collection}
			byName[doc.Collection] = s
		}
		s.DocumentCount++
		if doc.CreatedAt.After(s.LastUpload) {
			s.LastUpload = doc.CreatedAt
		}
	}
	var out []*domain.CollectionSummary
	for _, s := range byName {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Collection < out[j].Collection })
	return out, nil
}

func (m *MockDocumentStore) Delete(ctx context.Context, userID, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.documents[documentID]
	if !ok || doc.UserID != userID {
		return domain.ErrNotFound
	}
	delete(m.documents, documentID)
	return nil
}

func (m *MockDocumentStore) ListExpired(ctx context.Context, limit int) ([]*domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := time.Now()
	var docs []*domain.Document
	for _, doc := range m.documents {
		if doc.ExpiresAt.Before(now) {
			cp := *doc
			docs = append(docs, &cp)
			if limit > 0 && len(docs) >= limit {
				break
			}
		}
	}
	return docs, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Helper methods for testing

func (m *MockDocumentStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents = make(map[string]*domain.Document)
}

// Put inserts a document directly, bypassing status checks
func (m *MockDocumentStore) Put(doc *domain.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *doc
	m.documents[doc.ID] = &cp
}
