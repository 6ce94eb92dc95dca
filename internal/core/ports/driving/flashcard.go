package driving

import (
	"context"

	"github.com/DalMakkhani/IntelliBase/internal/core/domain"
)

// FlashcardService manages flashcard sets captured from study sessions.
type FlashcardService interface {
	// CreateSet stores a hand-built flashcard set
	CreateSet(ctx context.Context, userID string, req domain.CreateFlashcardSetRequest) (*domain.FlashcardSet, error)

	// GetSet retrieves a flashcard set by ID
	GetSet(ctx context.Context, userID, setID string) (*domain.FlashcardSet, error)

	// ListSets returns a user's flashcard sets, newest first.
	// A non-empty sessionID restricts the list to one session.
	ListSets(ctx context.Context, userID, sessionID string) ([]*domain.FlashcardSet, error)

	// MarkReviewed records that the user reviewed a set
	MarkReviewed(ctx context.Context, userID, setID string) error

	// DeleteSet removes a flashcard set
	DeleteSet(ctx context.Context, userID, setID string) error
}
