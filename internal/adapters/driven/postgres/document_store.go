package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/DalMakkhani/IntelliBase/internal/core/domain"
	"github.com/DalMakkhani/IntelliBase/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore implements driven.DocumentStore using PostgreSQL
type DocumentStore struct {
	db *DB
}

// NewDocumentStore creates a new DocumentStore
func NewDocumentStore(db *DB) *DocumentStore {
	return &DocumentStore{db: db}
}

const documentColumns = `id, user_id, filename, collection, status, failure_reason, chunk_count, size_bytes, created_at, expires_at, processed_at`

// CreatePending inserts a new pending document
func (s *DocumentStore) CreatePending(ctx context.Context, doc *domain.Document) error {
	query := `
		INSERT INTO documents (id, user_id, filename, collection, status, chunk_count, size_bytes, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.db.ExecContext(ctx, query,
		doc.ID,
		doc.UserID,
		doc.Filename,
		doc.Collection,
		doc.Status,
		doc.ChunkCount,
		doc.SizeBytes,
		doc.CreatedAt,
		doc.ExpiresAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return domain.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Get retrieves a document by ID scoped to its owner
func (s *DocumentStore) Get(ctx context.Context, userID, documentID string) (*domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1 AND user_id = $2`
	return scanDocument(s.db.QueryRowContext(ctx, query, documentID, userID))
}

// SetStatus transitions a document's status. failureReason is stored only
// for the failed status and cleared otherwise.
func (s *DocumentStore) SetStatus(ctx context.Context, documentID string, status domain.DocumentStatus, failureReason domain.FailureReason) error {
	var reason sql.NullString
	if status == domain.DocumentStatusFailed && failureReason != "" {
		reason = sql.NullString{String: string(failureReason), Valid: true}
	}

	query := `UPDATE documents SET status = $2, failure_reason = $3 WHERE id = $1`
	result, err := s.db.ExecContext(ctx, query, documentID, status, reason)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// SetCompleted marks a document completed with its final chunk count
func (s *DocumentStore) SetCompleted(ctx context.Context, documentID string, chunkCount int) error {
	query := `
		UPDATE documents
		SET status = $2, failure_reason = NULL, chunk_count = $3, processed_at = NOW()
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query, documentID, domain.DocumentStatusCompleted, chunkCount)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// ListByUser returns a user's documents, newest first. An empty collection
// matches all collections.
func (s *DocumentStore) ListByUser(ctx context.Context, userID, collection string) ([]*domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE user_id = $1`
	args := []interface{}{userID}
	if collection != "" {
		query += ` AND collection = $2`
		args = append(args, collection)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanDocuments(rows)
}

// CountCompleted returns how many searchable documents the user has in the
// given collections (nil = all)
func (s *DocumentStore) CountCompleted(ctx context.Context, userID string, collections []string) (int, error) {
	query := `SELECT COUNT(*) FROM documents WHERE user_id = $1 AND status = $2`
	args := []interface{}{userID, domain.DocumentStatusCompleted}
	if len(collections) > 0 {
		query += ` AND collection = ANY($3)`
		args = append(args, pq.Array(collections))
	}

	var count int
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

// ListCollections returns per-collection document counts for a user
func (s *DocumentStore) ListCollections(ctx context.Context, userID string) ([]*domain.CollectionSummary, error) {
	query := `
		SELECT collection, COUNT(*), MAX(created_at)
		FROM documents
		WHERE user_id = $1
		GROUP BY collection
		ORDER BY collection
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []*domain.CollectionSummary
	for rows.Next() {
		var summary domain.CollectionSummary
		if err := rows.Scan(&summary.Collection, &summary.DocumentCount, &summary.LastUpload); err != nil {
			return nil, err
		}
		summary.DisplayName = summary.Collection
		summaries = append(summaries, &summary)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return summaries, nil
}

// Delete removes a document record. Chunks cascade.
func (s *DocumentStore) Delete(ctx context.Context, userID, documentID string) error {
	query := `DELETE FROM documents WHERE id = $1 AND user_id = $2`
	result, err := s.db.ExecContext(ctx, query, documentID, userID)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// ListExpired returns documents whose expiry has passed, oldest first
func (s *DocumentStore) ListExpired(ctx context.Context, limit int) ([]*domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE expires_at < NOW() ORDER BY expires_at LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanDocuments(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDocumentFrom(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var failureReason sql.NullString
	var processedAt sql.NullTime

	err := row.Scan(
		&doc.ID,
		&doc.UserID,
		&doc.Filename,
		&doc.Collection,
		&doc.Status,
		&failureReason,
		&doc.ChunkCount,
		&doc.SizeBytes,
		&doc.CreatedAt,
		&doc.ExpiresAt,
		&processedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	doc.FailureReason = domain.FailureReason(failureReason.String)
	doc.ProcessedAt = TimePtr(processedAt)
	return &doc, nil
}

func scanDocument(row *sql.Row) (*domain.Document, error) {
	return scanDocumentFrom(row)
}

func scanDocuments(rows *sql.Rows) ([]*domain.Document, error) {
	var docs []*domain.Document
	for rows.Next() {
		doc, err := scanDocumentFrom(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

// requireRow converts a zero-row update or delete into ErrNotFound
func requireRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
