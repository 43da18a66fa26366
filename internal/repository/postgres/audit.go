// Package postgres implements the gateway's persistence ports against
// PostgreSQL using hand-written SQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignite/edi-gateway/internal/domain"
)

// AuditRepo persists the append-only processing audit trail.
type AuditRepo struct{ db *sql.DB }

// NewAuditRepo creates a Postgres-backed audit repository.
func NewAuditRepo(db *sql.DB) *AuditRepo { return &AuditRepo{db: db} }

// Insert appends one audit entry. Entries are immutable after insert.
func (r *AuditRepo) Insert(ctx context.Context, e *domain.AuditEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO edi_audit_log
			(id, correlation_id, retailer_id, transaction_set_code, po_number,
			 status, source_key, message, error_detail, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
	`, e.ID, e.CorrelationID, e.RetailerID, e.TransactionSetCode, e.PONumber,
		string(e.Status), e.SourceKey, e.Message, e.ErrorDetail, e.DurationMS)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// Trail returns every audit entry for a correlation id in insert order.
func (r *AuditRepo) Trail(ctx context.Context, correlationID string) ([]domain.AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, correlation_id, retailer_id, transaction_set_code, po_number,
		       status, source_key, message, error_detail, duration_ms, created_at
		FROM edi_audit_log
		WHERE correlation_id = $1
		ORDER BY created_at ASC, id ASC
	`, correlationID)
	if err != nil {
		return nil, fmt.Errorf("query audit trail: %w", err)
	}
	defer rows.Close()

	var out []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		var status string
		if err := rows.Scan(&e.ID, &e.CorrelationID, &e.RetailerID, &e.TransactionSetCode,
			&e.PONumber, &status, &e.SourceKey, &e.Message, &e.ErrorDetail,
			&e.DurationMS, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.Status = domain.Status(status)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Recent returns the latest audit entries across all files, newest first.
func (r *AuditRepo) Recent(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, correlation_id, retailer_id, transaction_set_code, po_number,
		       status, source_key, message, error_detail, duration_ms, created_at
		FROM edi_audit_log
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent audit entries: %w", err)
	}
	defer rows.Close()

	var out []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		var status string
		if err := rows.Scan(&e.ID, &e.CorrelationID, &e.RetailerID, &e.TransactionSetCode,
			&e.PONumber, &status, &e.SourceKey, &e.Message, &e.ErrorDetail,
			&e.DurationMS, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.Status = domain.Status(status)
		out = append(out, e)
	}
	return out, rows.Err()
}
