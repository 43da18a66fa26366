// Package audit records the append-only processing trail for every
// inbound EDI file. A write failure here is logged and swallowed:
// losing one audit row must never abort or reclassify the pipeline
// run that produced it.
package audit

import (
	"context"
	"time"

	"github.com/ignite/edi-gateway/internal/domain"
	"github.com/ignite/edi-gateway/internal/pkg/logger"
)

// Store is the persistence port the recorder writes through.
type Store interface {
	Insert(ctx context.Context, e *domain.AuditEntry) error
	Trail(ctx context.Context, correlationID string) ([]domain.AuditEntry, error)
	Recent(ctx context.Context, limit int) ([]domain.AuditEntry, error)
}

// Recorder appends pipeline stage transitions to the audit store.
type Recorder struct {
	store Store
}

// NewRecorder creates an audit recorder.
func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

// Record appends one stage entry. Persistence errors are logged, never
// returned, so a flaky audit database cannot mask the pipeline outcome.
func (r *Recorder) Record(ctx context.Context, e *domain.AuditEntry) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if err := r.store.Insert(ctx, e); err != nil {
		logger.Error("failed to persist audit entry",
			"error", err.Error(),
			"correlation_id", e.CorrelationID,
			"status", string(e.Status))
	}
}

// Trail returns the full stage history for one file.
func (r *Recorder) Trail(ctx context.Context, correlationID string) ([]domain.AuditEntry, error) {
	return r.store.Trail(ctx, correlationID)
}

// Recent returns the latest entries across all files.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	return r.store.Recent(ctx, limit)
}
