package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Flashcard is one question/answer pair extracted from a study-mode answer
type Flashcard struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// FlashcardSet groups the flashcards produced by one study-mode turn
type FlashcardSet struct {
	ID           string      `json:"id"`
	UserID       string      `json:"user_id"`
	SessionID    string      `json:"session_id"`
	Topic        string      `json:"topic"`
	Flashcards   []Flashcard `json:"flashcards"`
	CreatedAt    time.Time   `json:"created_at"`
	LastReviewed *time.Time  `json:"last_reviewed,omitempty"`
}

// NewFlashcardSet creates a set owned by a user and session
func NewFlashcardSet(userID, sessionID, topic string, cards []Flashcard) *FlashcardSet {
	return &FlashcardSet{
		ID:         "fc_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12],
		UserID:     userID,
		SessionID:  sessionID,
		Topic:      topic,
		Flashcards: cards,
		CreatedAt:  time.Now(),
	}
}

// CreateFlashcardSetRequest is the payload for creating a set by hand,
// outside the study-mode pipeline
type CreateFlashcardSetRequest struct {
	SessionID  string      `json:"session_id,omitempty"`
	Topic      string      `json:"topic"`
	Flashcards []Flashcard `json:"flashcards"`
}

// TopicFromQuery derives a set topic from the query that produced it
func TopicFromQuery(query string) string {
	query = strings.TrimSpace(query)
	if len(query) <= 50 {
		return query
	}
	return query[:47] + "..."
}
