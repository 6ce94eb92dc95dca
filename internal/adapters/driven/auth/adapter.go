// Package auth validates bearer tokens issued by the identity provider.
// The service never issues tokens itself; it only verifies the signature
// and extracts the caller's identity.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/DalMakkhani/IntelliBase/internal/core/domain"
	"github.com/DalMakkhani/IntelliBase/internal/core/ports/driven"
)

// Ensure Adapter implements CredentialService
var _ driven.CredentialService = (*Adapter)(nil)

// jwtClaims wraps the identity fields for JWT compatibility
type jwtClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// Adapter verifies HS256-signed JWTs against a shared secret
type Adapter struct {
	secret []byte
}

// NewAdapter creates a credential adapter with the given signing secret
func NewAdapter(secret string) (*Adapter, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret is required")
	}
	return &Adapter{secret: []byte(secret)}, nil
}

// ValidateToken verifies the token signature and expiry and returns the
// caller's identity. Expired tokens map to ErrTokenExpired, everything
// else to ErrTokenInvalid.
func (a *Adapter) ValidateToken(ctx context.Context, tokenString string) (*domain.Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwtClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}

	claims, ok := token.Claims.(*jwtClaims)
	if !ok || !token.Valid {
		return nil, domain.ErrTokenInvalid
	}

	userID := claims.UserID
	if userID == "" {
		// some providers only set the standard subject claim
		userID = claims.Subject
	}
	if userID == "" {
		return nil, domain.ErrTokenInvalid
	}

	return &domain.Identity{
		UserID: userID,
		Email:  claims.Email,
		Name:   claims.Name,
	}, nil
}
