package mocks

import (
	"context"
	"sync"

	"github.com/DalMakkhani/IntelliBase/internal/core/domain"
	"github.com/DalMakkhani/IntelliBase/internal/core/ports/driven"
)

// MockGenerationService is a mock implementation of GenerationService for
// testing. Responses are served from a scripted queue; when the queue is
// empty a canned answer is returned.
type MockGenerationService struct {
	mu        sync.Mutex
	responses []string
	failures  int
	prompts   []string

	// GenerateFn overrides the scripted behavior when set
	GenerateFn func(prompt string, opts driven.GenerateOptions) (string, error)
}

// NewMockGenerationService creates a new MockGenerationService
func NewMockGenerationService() *MockGenerationService {
	return &MockGenerationService{}
}

func (m *MockGenerationService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.prompts = append(m.prompts, prompt)

	if m.failures > 0 {
		m.failures--
		return "", &domain.GenerationError{Err: context.DeadlineExceeded}
	}

	// Scripted responses win over the custom hook
	if len(m.responses) > 0 {
		resp := m.responses[0]
		m.responses = m.responses[1:]
		return resp, nil
	}

	if m.GenerateFn != nil {
		return m.GenerateFn(prompt, opts)
	}
	return "mock answer", nil
}

func (m *MockGenerationService) Model() string {
	return "mock-generation-model"
}

func (m *MockGenerationService) Ping(ctx context.Context) error {
	return nil
}

func (m *MockGenerationService) Close() error {
	return nil
}

// Helper methods for testing

// QueueResponse appends a scripted response
func (m *MockGenerationService) QueueResponse(resp string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

// FailNext makes the next n calls fail before scripted responses resume
func (m *MockGenerationService) FailNext(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = n
}

// Prompts returns every prompt passed to Generate
func (m *MockGenerationService) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

// LastPrompt returns the most recent prompt, or "" if none
func (m *MockGenerationService) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}
