package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/DalMakkhani/IntelliBase/internal/core/domain"
	"github.com/DalMakkhani/IntelliBase/internal/core/ports/driven"
	"github.com/DalMakkhani/IntelliBase/internal/core/ports/driving"
)

// Ensure flashcardService implements FlashcardService
var _ driving.FlashcardService = (*flashcardService)(nil)

// flashcardService manages stored flashcard sets. Most sets are created by
// the chat pipeline in study mode; CreateSet covers hand-built sets.
type flashcardService struct {
	store driven.FlashcardStore
}

// NewFlashcardService creates a new FlashcardService.
func NewFlashcardService(store driven.FlashcardStore) driving.FlashcardService {
	return &flashcardService{store: store}
}

func (s *flashcardService) CreateSet(ctx context.Context, userID string, req domain.CreateFlashcardSetRequest) (*domain.FlashcardSet, error) {
	if strings.TrimSpace(req.Topic) == "" {
		return nil, fmt.Errorf("%w: missing topic", domain.ErrInvalidInput)
	}
	if len(req.Flashcards) == 0 {
		return nil, fmt.Errorf("%w: a set needs at least one flashcard", domain.ErrInvalidInput)
	}
	for _, card := range req.Flashcards {
		if strings.TrimSpace(card.Question) == "" || strings.TrimSpace(card.Answer) == "" {
			return nil, fmt.Errorf("%w: flashcards need both a question and an answer", domain.ErrInvalidInput)
		}
	}

	set := domain.NewFlashcardSet(userID, req.SessionID, strings.TrimSpace(req.Topic), req.Flashcards)
	if err := s.store.SaveSet(ctx, set); err != nil {
		return nil, fmt.Errorf("save flashcard set: %w", err)
	}
	return set, nil
}

func (s *flashcardService) GetSet(ctx context.Context, userID, setID string) (*domain.FlashcardSet, error) {
	return s.store.GetSet(ctx, userID, setID)
}

func (s *flashcardService) ListSets(ctx context.Context, userID, sessionID string) ([]*domain.FlashcardSet, error) {
	if sessionID != "" {
		return s.store.ListBySession(ctx, userID, sessionID)
	}
	return s.store.ListByUser(ctx, userID)
}

func (s *flashcardService) MarkReviewed(ctx context.Context, userID, setID string) error {
	return s.store.MarkReviewed(ctx, userID, setID)
}

func (s *flashcardService) DeleteSet(ctx context.Context, userID, setID string) error {
	return s.store.DeleteSet(ctx, userID, setID)
}
