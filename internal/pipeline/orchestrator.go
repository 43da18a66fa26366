// Package pipeline orchestrates the per-file processing lifecycle:
// RECEIVED, PARSED, VALIDATED, TRANSMITTED, ACKNOWLEDGED, with FAILED
// reachable from any stage. Each file runs in its own goroutine behind
// a bounded semaphore; one file's failure never affects another's.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/edi-gateway/internal/canonical"
	"github.com/ignite/edi-gateway/internal/domain"
	"github.com/ignite/edi-gateway/internal/mapping"
	"github.com/ignite/edi-gateway/internal/pkg/logger"
	"github.com/ignite/edi-gateway/internal/storage"
	"github.com/ignite/edi-gateway/internal/x12"
)

// AuditSink records stage transitions. Implementations must swallow
// their own persistence failures.
type AuditSink interface {
	Record(ctx context.Context, e *domain.AuditEntry)
}

// DeadLetterSink quarantines failed files. Implementations must swallow
// their own persistence failures.
type DeadLetterSink interface {
	Quarantine(ctx context.Context, correlationID, retailerID, fileName, originalContent string, cause error)
}

// Transmitter delivers a validated order downstream and returns the
// downstream order id.
type Transmitter interface {
	Transmit(ctx context.Context, order *canonical.Order) (string, error)
}

// DedupMarker remembers already-transmitted purchase orders so resent
// files do not create duplicate downstream orders.
type DedupMarker interface {
	WasTransmitted(ctx context.Context, retailerID, poNumber string) (string, bool)
	MarkTransmitted(ctx context.Context, retailerID, poNumber, draftOrderID string)
}

// Request is one inbound EDI file to process.
type Request struct {
	// CorrelationID, when blank, is assigned by the orchestrator. Callers
	// resubmitting a corrected file pass the original id to keep the
	// audit trail continuous.
	CorrelationID string
	RetailerID    string
	FileName      string
	Content       string
}

// Orchestrator runs the processing pipeline.
type Orchestrator struct {
	store       storage.Store
	registry    *mapping.Registry
	audit       AuditSink
	dlq         DeadLetterSink
	transmitter Transmitter
	dedup       DedupMarker

	sem chan struct{}
	wg  sync.WaitGroup
}

// New creates an orchestrator. maxInFlight bounds the number of files
// processed concurrently; dedup may be nil.
func New(store storage.Store, registry *mapping.Registry, audit AuditSink,
	dlq DeadLetterSink, transmitter Transmitter, dedup DedupMarker, maxInFlight int) *Orchestrator {
	if maxInFlight <= 0 {
		maxInFlight = 4096
	}
	return &Orchestrator{
		store:       store,
		registry:    registry,
		audit:       audit,
		dlq:         dlq,
		transmitter: transmitter,
		dedup:       dedup,
		sem:         make(chan struct{}, maxInFlight),
	}
}

// Submit accepts a file for asynchronous processing and returns its
// correlation id immediately. The pipeline runs on its own goroutine;
// failures quarantine the file without surfacing to the caller.
func (o *Orchestrator) Submit(ctx context.Context, req Request) string {
	if req.CorrelationID == "" {
		req.CorrelationID = uuid.New().String()
	}
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		select {
		case o.sem <- struct{}{}:
			defer func() { <-o.sem }()
		case <-ctx.Done():
			o.handleFailure(context.Background(), req,
				fmt.Errorf("pipeline shutting down before processing started: %w", ctx.Err()))
			return
		}
		if err := o.Process(ctx, req); err != nil {
			logger.Error("pipeline failed",
				"correlation_id", req.CorrelationID,
				"retailer", req.RetailerID,
				"error", err.Error())
		}
	}()
	return req.CorrelationID
}

// Wait blocks until all submitted files have finished processing.
func (o *Orchestrator) Wait() { o.wg.Wait() }

// Process runs the full pipeline for one file synchronously. On any
// stage failure the file is quarantined, a FAILED audit entry is
// written, and the stage error is returned.
func (o *Orchestrator) Process(ctx context.Context, req Request) error {
	if req.CorrelationID == "" {
		req.CorrelationID = uuid.New().String()
	}
	logger.Info("starting pipeline",
		"correlation_id", req.CorrelationID,
		"retailer", req.RetailerID,
		"file", req.FileName)

	if err := o.run(ctx, req); err != nil {
		o.handleFailure(ctx, req, err)
		return err
	}
	return nil
}

func (o *Orchestrator) run(ctx context.Context, req Request) error {
	stageStart := time.Now()

	// Stage 1: RECEIVED. A storage outage degrades durability, not
	// processing: we log it and continue with an empty source key.
	sourceKey, err := o.store.StoreInbound(ctx, req.CorrelationID, req.RetailerID, req.Content)
	if err != nil {
		logger.Error("failed to store inbound file, continuing without archive",
			"correlation_id", req.CorrelationID,
			"error", err.Error())
		sourceKey = ""
	}
	o.audit.Record(ctx, &domain.AuditEntry{
		CorrelationID: req.CorrelationID,
		RetailerID:    req.RetailerID,
		Status:        domain.StatusReceived,
		SourceKey:     sourceKey,
		Message:       "File received and stored: " + sourceKey,
		DurationMS:    time.Since(stageStart).Milliseconds(),
	})

	// Stage 2: PARSED.
	stageStart = time.Now()
	interchange, err := x12.Parse(req.Content)
	if err != nil {
		return err
	}
	txn := interchange.FirstTransaction()
	if txn == nil {
		return &x12.ParseError{Message: "no ST transaction found in interchange", SegmentID: "ST"}
	}

	profile, ok := o.registry.Find(req.RetailerID, txn.SetCode)
	if !ok {
		return &mapping.ProfileNotFoundError{
			RetailerID:         req.RetailerID,
			TransactionSetCode: txn.SetCode,
		}
	}

	order, err := mapping.Map(txn, profile, req.RetailerID)
	if err != nil {
		return err
	}
	order.CorrelationID = req.CorrelationID
	order.InterchangeControlNumber = interchange.ControlNumber
	order.TransactionControlNumber = txn.ControlNumber

	o.audit.Record(ctx, &domain.AuditEntry{
		CorrelationID:      req.CorrelationID,
		RetailerID:         req.RetailerID,
		TransactionSetCode: txn.SetCode,
		PONumber:           order.PONumber,
		Status:             domain.StatusParsed,
		SourceKey:          sourceKey,
		Message:            fmt.Sprintf("Parsed %d line items from %s transaction", len(order.Lines), txn.SetCode),
		DurationMS:         time.Since(stageStart).Milliseconds(),
	})

	// Stage 3: VALIDATED.
	stageStart = time.Now()
	if err := order.Validate(); err != nil {
		return err
	}
	o.audit.Record(ctx, &domain.AuditEntry{
		CorrelationID:      req.CorrelationID,
		RetailerID:         req.RetailerID,
		TransactionSetCode: txn.SetCode,
		PONumber:           order.PONumber,
		Status:             domain.StatusValidated,
		SourceKey:          sourceKey,
		Message:            fmt.Sprintf("Validation passed, %d lines verified", len(order.Lines)),
		DurationMS:         time.Since(stageStart).Milliseconds(),
	})

	// Stage 4: TRANSMITTED. A previously delivered PO is not resent;
	// the earlier draft order id is reused.
	stageStart = time.Now()
	draftOrderID, alreadySent := o.checkDedup(ctx, req, order)
	if !alreadySent {
		draftOrderID, err = o.transmitter.Transmit(ctx, order)
		if err != nil {
			return err
		}
		if o.dedup != nil {
			o.dedup.MarkTransmitted(ctx, req.RetailerID, order.PONumber, draftOrderID)
		}
	}
	message := "Successfully transmitted to Shopify. Draft Order ID: " + draftOrderID
	if alreadySent {
		message = "Duplicate PO detected, reusing Draft Order ID: " + draftOrderID
	}
	o.audit.Record(ctx, &domain.AuditEntry{
		CorrelationID:      req.CorrelationID,
		RetailerID:         req.RetailerID,
		TransactionSetCode: txn.SetCode,
		PONumber:           order.PONumber,
		Status:             domain.StatusTransmitted,
		SourceKey:          sourceKey,
		Message:            message,
		DurationMS:         time.Since(stageStart).Milliseconds(),
	})

	// Stage 5: ACKNOWLEDGED. Archiving is best-effort like storing.
	if sourceKey != "" {
		if _, err := o.store.ArchiveProcessed(ctx, sourceKey, req.CorrelationID); err != nil {
			logger.Error("failed to archive processed file",
				"correlation_id", req.CorrelationID,
				"source_key", sourceKey,
				"error", err.Error())
		}
	}
	o.audit.Record(ctx, &domain.AuditEntry{
		CorrelationID:      req.CorrelationID,
		RetailerID:         req.RetailerID,
		TransactionSetCode: txn.SetCode,
		PONumber:           order.PONumber,
		Status:             domain.StatusAcknowledged,
		SourceKey:          sourceKey,
		Message:            "Pipeline complete. Shopify Draft Order: " + draftOrderID,
	})

	logger.Info("pipeline complete",
		"correlation_id", req.CorrelationID,
		"po_number", order.PONumber,
		"draft_order_id", draftOrderID)
	return nil
}

func (o *Orchestrator) checkDedup(ctx context.Context, req Request, order *canonical.Order) (string, bool) {
	if o.dedup == nil {
		return "", false
	}
	return o.dedup.WasTransmitted(ctx, req.RetailerID, order.PONumber)
}

// handleFailure is the single place a file becomes FAILED: it writes
// the terminal audit entry and quarantines the original content. Sink
// failures inside are logged by the sinks themselves and never replace
// the pipeline error.
func (o *Orchestrator) handleFailure(ctx context.Context, req Request, cause error) {
	logger.Error("pipeline failed, quarantining file",
		"correlation_id", req.CorrelationID,
		"retailer", req.RetailerID,
		"file", req.FileName,
		"error", cause.Error())

	o.dlq.Quarantine(ctx, req.CorrelationID, req.RetailerID, req.FileName, req.Content, cause)

	o.audit.Record(ctx, &domain.AuditEntry{
		CorrelationID: req.CorrelationID,
		RetailerID:    req.RetailerID,
		Status:        domain.StatusFailed,
		Message:       "Processing failed: " + cause.Error(),
		ErrorDetail:   fmt.Sprintf("%+v", cause),
	})
}
