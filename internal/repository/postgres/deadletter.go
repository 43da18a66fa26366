package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ignite/edi-gateway/internal/domain"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// DeadLetterRepo persists quarantined files and their error reports.
type DeadLetterRepo struct{ db *sql.DB }

// NewDeadLetterRepo creates a Postgres-backed dead-letter repository.
func NewDeadLetterRepo(db *sql.DB) *DeadLetterRepo { return &DeadLetterRepo{db: db} }

// Insert stores one dead-letter entry.
func (r *DeadLetterRepo) Insert(ctx context.Context, e *domain.DeadLetterEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO edi_dead_letters
			(id, correlation_id, retailer_id, file_name, original_content, error_report, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`, e.ID, e.CorrelationID, strings.ToLower(e.RetailerID), e.FileName, e.OriginalContent, e.ErrorReport)
	if err != nil {
		return fmt.Errorf("insert dead letter: %w", err)
	}
	return nil
}

// Get fetches one dead-letter entry by correlation id, for resubmission
// tooling.
func (r *DeadLetterRepo) Get(ctx context.Context, correlationID string) (*domain.DeadLetterEntry, error) {
	var e domain.DeadLetterEntry
	err := r.db.QueryRowContext(ctx, `
		SELECT id, correlation_id, retailer_id, file_name, original_content, error_report, created_at
		FROM edi_dead_letters
		WHERE correlation_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, correlationID).Scan(&e.ID, &e.CorrelationID, &e.RetailerID, &e.FileName,
		&e.OriginalContent, &e.ErrorReport, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get dead letter: %w", err)
	}
	return &e, nil
}

// List returns dead-letter entries newest first, without the (potentially
// large) original payloads.
func (r *DeadLetterRepo) List(ctx context.Context, limit int) ([]domain.DeadLetterEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, correlation_id, retailer_id, file_name, error_report, created_at
		FROM edi_dead_letters
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list dead letters: %w", err)
	}
	defer rows.Close()

	var out []domain.DeadLetterEntry
	for rows.Next() {
		var e domain.DeadLetterEntry
		if err := rows.Scan(&e.ID, &e.CorrelationID, &e.RetailerID, &e.FileName,
			&e.ErrorReport, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan dead letter: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
