package driven

import (
	"context"

	"github.com/DalMakkhani/IntelliBase/internal/core/domain"
)

// CredentialService validates bearer tokens presented by API callers.
// Token issuance happens outside this system.
type CredentialService interface {
	// ValidateToken verifies a bearer token and returns the identity it
	// carries. Returns domain.ErrTokenExpired or domain.ErrTokenInvalid.
	ValidateToken(ctx context.Context, token string) (*domain.Identity, error)
}
