// Package dlq quarantines failed EDI files with a human-readable error
// report so an operator can correct and resubmit them.
package dlq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ignite/edi-gateway/internal/domain"
	"github.com/ignite/edi-gateway/internal/pkg/logger"
)

// Store is the persistence port for quarantined files.
type Store interface {
	Insert(ctx context.Context, e *domain.DeadLetterEntry) error
	Get(ctx context.Context, correlationID string) (*domain.DeadLetterEntry, error)
	List(ctx context.Context, limit int) ([]domain.DeadLetterEntry, error)
}

// Service writes failed files to the dead-letter store.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a dead-letter service.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Quarantine records a failed file together with a generated error
// report. Persistence failures are logged at the highest severity and
// swallowed: the quarantine is a best-effort safety net, and its own
// failure must never replace the pipeline error that got us here.
func (s *Service) Quarantine(ctx context.Context, correlationID, retailerID, fileName, originalContent string, cause error) {
	entry := &domain.DeadLetterEntry{
		CorrelationID:   correlationID,
		RetailerID:      retailerID,
		FileName:        fileName,
		OriginalContent: originalContent,
		ErrorReport:     s.buildErrorReport(correlationID, retailerID, fileName, cause),
		CreatedAt:       s.now().UTC(),
	}
	if err := s.store.Insert(ctx, entry); err != nil {
		logger.Error("CRITICAL: failed to persist dead letter entry",
			"error", err.Error(),
			"correlation_id", correlationID,
			"retailer", retailerID)
		return
	}
	logger.Warn("quarantined failed EDI file",
		"correlation_id", correlationID,
		"retailer", retailerID,
		"dead_letter_id", entry.ID)
}

// Get returns one quarantined file by correlation id.
func (s *Service) Get(ctx context.Context, correlationID string) (*domain.DeadLetterEntry, error) {
	return s.store.Get(ctx, correlationID)
}

// List returns recent quarantined files, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]domain.DeadLetterEntry, error) {
	return s.store.List(ctx, limit)
}

func (s *Service) buildErrorReport(correlationID, retailerID, fileName string, cause error) string {
	var b strings.Builder
	b.WriteString("=== EDI Gateway Dead Letter Queue Error Report ===\n")
	fmt.Fprintf(&b, "Timestamp     : %s\n", s.now().UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Correlation ID: %s\n", correlationID)
	fmt.Fprintf(&b, "Retailer      : %s\n", retailerID)
	fmt.Fprintf(&b, "Original File : %s\n", fileName)
	b.WriteString("\n--- Error ---\n")
	if cause != nil {
		b.WriteString(cause.Error())
		b.WriteString("\n")
		if chain := unwrapChain(cause); len(chain) > 1 {
			b.WriteString("\n--- Error Chain ---\n")
			for _, msg := range chain {
				fmt.Fprintf(&b, "  caused by: %s\n", msg)
			}
		}
	} else {
		b.WriteString("unknown error\n")
	}
	b.WriteString("\n--- Resolution Steps ---\n")
	b.WriteString("1. Correct the EDI segment/element identified in the error above.\n")
	b.WriteString("2. Resubmit the corrected file to POST /api/v1/edi/ingest\n")
	fmt.Fprintf(&b, "   with the header X-Correlation-Id: %s\n", correlationID)
	b.WriteString("   for traceability continuity.\n")
	b.WriteString("==================================================\n")
	return b.String()
}

// unwrapChain walks the wrapped error chain, capped so a pathological
// self-referential error cannot loop forever.
func unwrapChain(err error) []string {
	var chain []string
	for err != nil && len(chain) < 10 {
		chain = append(chain, err.Error())
		err = errors.Unwrap(err)
	}
	return chain
}
