package mocks

import (
	"context"
	"errors"
	"strings"

	"github.com/DalMakkhani/IntelliBase/internal/core/domain"
)

// MockTextExtractor is a mock implementation of TextExtractor for testing.
// By default it treats the raw bytes as a single page of text.
type MockTextExtractor struct {
	pages []domain.Page
	fail  bool
}

// NewMockTextExtractor creates a new MockTextExtractor
func NewMockTextExtractor() *MockTextExtractor {
	return &MockTextExtractor{}
}

func (m *MockTextExtractor) Extract(ctx context.Context, filename string, data []byte) ([]domain.Page, error) {
	if m.fail {
		return nil, &domain.ExtractionError{Filename: filename, Err: errors.New("unreadable file")}
	}
	if m.pages != nil {
		return m.pages, nil
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, &domain.ExtractionError{Filename: filename, Err: errors.New("no extractable text")}
	}
	return []domain.Page{{Number: 1, Text: text}}, nil
}

func (m *MockTextExtractor) Supports(filename string) bool {
	return true
}

// Helper methods for testing

// SetPages fixes the pages returned regardless of input
func (m *MockTextExtractor) SetPages(pages []domain.Page) {
	m.pages = pages
}

// SetFail makes Extract return an extraction error
func (m *MockTextExtractor) SetFail(fail bool) {
	m.fail = fail
}
