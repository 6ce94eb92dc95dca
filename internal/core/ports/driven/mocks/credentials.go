package mocks

import (
	"context"

	"github.com/DalMakkhani/IntelliBase/internal/core/domain"
)

// MockCredentialService is a mock implementation of CredentialService for
// testing. Tokens map directly to identities.
type MockCredentialService struct {
	identities map[string]*domain.Identity
}

// NewMockCredentialService creates a new MockCredentialService
func NewMockCredentialService() *MockCredentialService {
	return &MockCredentialService{
		identities: make(map[string]*domain.Identity),
	}
}

func (m *MockCredentialService) ValidateToken(ctx context.Context, token string) (*domain.Identity, error) {
	identity, ok := m.identities[token]
	if !ok {
		return nil, domain.ErrTokenInvalid
	}
	return identity, nil
}

// Helper methods for testing

// AddToken registers a token that validates to the given identity
func (m *MockCredentialService) AddToken(token string, identity *domain.Identity) {
	m.identities[token] = identity
}
