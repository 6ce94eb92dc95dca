package driven

import (
	"context"

	"github.com/DalMakkhani/IntelliBase/internal/core/domain"
)

// FlashcardStore persists flashcard sets generated during study sessions.
type FlashcardStore interface {
	// SaveSet stores a flashcard set
	SaveSet(ctx context.Context, set *domain.FlashcardSet) error

	// GetSet returns a set by ID scoped to its owner.
	// Returns domain.ErrNotFound if missing.
	GetSet(ctx context.Context, userID, setID string) (*domain.FlashcardSet, error)

	// ListByUser returns a user's sets, newest first
	ListByUser(ctx context.Context, userID string) ([]*domain.FlashcardSet, error)

	// ListBySession returns a user's sets for one session, newest first
	ListBySession(ctx context.Context, userID, sessionID string) ([]*domain.FlashcardSet, error)

	// MarkReviewed records a review timestamp on a set
	MarkReviewed(ctx context.Context, userID, setID string) error

	// DeleteSet removes a set. Returns domain.ErrNotFound if missing.
	DeleteSet(ctx context.Context, userID, setID string) error
}
