package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/DalMakkhani/IntelliBase/internal/core/domain"
	"github.com/DalMakkhani/IntelliBase/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.FlashcardStore = (*FlashcardStore)(nil)

// FlashcardStore implements driven.FlashcardStore using PostgreSQL
type FlashcardStore struct {
	db *DB
}

// NewFlashcardStore creates a new FlashcardStore
func NewFlashcardStore(db *DB) *FlashcardStore {
	return &FlashcardStore{db: db}
}

// SaveSet stores a flashcard set
func (s *FlashcardStore) SaveSet(ctx context.Context, set *domain.FlashcardSet) error {
	cards, err := json.Marshal(set.Flashcards)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO flashcard_sets (id, user_id, session_id, topic, flashcards, created_at, last_reviewed)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = s.db.ExecContext(ctx, query,
		set.ID,
		set.UserID,
		set.SessionID,
		set.Topic,
		cards,
		set.CreatedAt,
		NullTime(set.LastReviewed),
	)
	return err
}

// GetSet returns a set by ID scoped to its owner
func (s *FlashcardStore) GetSet(ctx context.Context, userID, setID string) (*domain.FlashcardSet, error) {
	query := `
		SELECT id, user_id, session_id, topic, flashcards, created_at, last_reviewed
		FROM flashcard_sets
		WHERE id = $1 AND user_id = $2
	`
	return scanFlashcardSet(s.db.QueryRowContext(ctx, query, setID, userID))
}

// ListByUser returns a user's sets, newest first
func (s *FlashcardStore) ListByUser(ctx context.Context, userID string) ([]*domain.FlashcardSet, error) {
	query := `
		SELECT id, user_id, session_id, topic, flashcards, created_at, last_reviewed
		FROM flashcard_sets
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sets []*domain.FlashcardSet
	for rows.Next() {
		set, err := scanFlashcardSet(rows)
		if err != nil {
			return nil, err
		}
		sets = append(sets, set)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sets, nil
}

// ListBySession returns a user's sets for one chat session, newest first
func (s *FlashcardStore) ListBySession(ctx context.Context, userID, sessionID string) ([]*domain.FlashcardSet, error) {
	query := `
		SELECT id, user_id, session_id, topic, flashcards, created_at, last_reviewed
		FROM flashcard_sets
		WHERE user_id = $1 AND session_id = $2
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sets []*domain.FlashcardSet
	for rows.Next() {
		set, err := scanFlashcardSet(rows)
		if err != nil {
			return nil, err
		}
		sets = append(sets, set)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sets, nil
}

// MarkReviewed records a review timestamp on a set
func (s *FlashcardStore) MarkReviewed(ctx context.Context, userID, setID string) error {
	query := `UPDATE flashcard_sets SET last_reviewed = NOW() WHERE id = $1 AND user_id = $2`
	result, err := s.db.ExecContext(ctx, query, setID, userID)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// DeleteSet removes a set
func (s *FlashcardStore) DeleteSet(ctx context.Context, userID, setID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM flashcard_sets WHERE id = $1 AND user_id = $2`, setID, userID)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func scanFlashcardSet(row rowScanner) (*domain.FlashcardSet, error) {
	var set domain.FlashcardSet
	var cards []byte
	var lastReviewed sql.NullTime

	err := row.Scan(
		&set.ID,
		&set.UserID,
		&set.SessionID,
		&set.Topic,
		&cards,
		&set.CreatedAt,
		&lastReviewed,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(cards, &set.Flashcards); err != nil {
		return nil, err
	}
	set.LastReviewed = TimePtr(lastReviewed)
	return &set, nil
}
