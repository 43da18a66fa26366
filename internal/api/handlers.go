package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/edi-gateway/internal/domain"
	"github.com/ignite/edi-gateway/internal/mapping"
	"github.com/ignite/edi-gateway/internal/pipeline"
	"github.com/ignite/edi-gateway/internal/pkg/httputil"
	"github.com/ignite/edi-gateway/internal/pkg/logger"
	"github.com/ignite/edi-gateway/internal/ratelimit"
	"github.com/ignite/edi-gateway/internal/repository/postgres"
)

// Submitter accepts a file for asynchronous processing.
type Submitter interface {
	Submit(ctx context.Context, req pipeline.Request) string
}

// AuditReader exposes the audit trail to the API.
type AuditReader interface {
	Trail(ctx context.Context, correlationID string) ([]domain.AuditEntry, error)
	Recent(ctx context.Context, limit int) ([]domain.AuditEntry, error)
}

// DeadLetterReader exposes quarantined files to the API.
type DeadLetterReader interface {
	Get(ctx context.Context, correlationID string) (*domain.DeadLetterEntry, error)
	List(ctx context.Context, limit int) ([]domain.DeadLetterEntry, error)
}

// Handlers holds the API's dependencies.
type Handlers struct {
	submitter Submitter
	registry  *mapping.Registry
	audit     AuditReader
	dlq       DeadLetterReader
	bucket    *ratelimit.Bucket
	startTime time.Time
}

// NewHandlers creates the API handler set. bucket may be nil.
func NewHandlers(submitter Submitter, registry *mapping.Registry, audit AuditReader,
	dlq DeadLetterReader, bucket *ratelimit.Bucket) *Handlers {
	return &Handlers{
		submitter: submitter,
		registry:  registry,
		audit:     audit,
		dlq:       dlq,
		bucket:    bucket,
		startTime: time.Now(),
	}
}

// IngestRequest is the JSON body for POST /api/v1/edi/ingest.
type IngestRequest struct {
	RetailerID string `json:"retailerId"`
	FileName   string `json:"fileName"`
	Content    string `json:"content"`
}

// IngestResponse confirms receipt; processing is asynchronous.
type IngestResponse struct {
	CorrelationID string    `json:"correlationId"`
	Message       string    `json:"message"`
	AcceptedAt    time.Time `json:"acceptedAt"`
	AuditTrailURL string    `json:"auditTrailUrl"`
}

// Ingest accepts an EDI file for asynchronous processing and returns
// 202 with a correlation id immediately. A resubmission passes the
// original id in X-Correlation-Id to keep the audit trail continuous.
//
//	POST /api/v1/edi/ingest
func (h *Handlers) Ingest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.RetailerID == "" {
		httputil.BadRequest(w, "retailerId is required")
		return
	}
	if req.Content == "" {
		httputil.BadRequest(w, "content is required")
		return
	}
	if req.FileName == "" {
		req.FileName = "upload.edi"
	}

	logger.Info("EDI ingest request",
		"retailer", req.RetailerID,
		"file", req.FileName,
		"size_bytes", len(req.Content))

	// The pipeline must outlive this request.
	correlationID := h.submitter.Submit(context.WithoutCancel(r.Context()), pipeline.Request{
		CorrelationID: r.Header.Get("X-Correlation-Id"),
		RetailerID:    req.RetailerID,
		FileName:      req.FileName,
		Content:       req.Content,
	})

	httputil.Accepted(w, IngestResponse{
		CorrelationID: correlationID,
		Message:       "EDI file accepted for async processing. Retailer: " + req.RetailerID + ". Poll the audit trail for status updates.",
		AcceptedAt:    time.Now().UTC(),
		AuditTrailURL: "/api/v1/audit/" + correlationID,
	})
}

// ListMappings returns the registered mapping profile keys.
//
//	GET /api/v1/mappings
func (h *Handlers) ListMappings(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]interface{}{
		"profiles": h.registry.Keys(),
		"count":    len(h.registry.Keys()),
	})
}

// AuditTrail returns the full stage history for one file.
//
//	GET /api/v1/audit/{correlationId}
func (h *Handlers) AuditTrail(w http.ResponseWriter, r *http.Request) {
	correlationID := chi.URLParam(r, "correlationId")
	trail, err := h.audit.Trail(r.Context(), correlationID)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if len(trail) == 0 {
		httputil.NotFound(w, "no audit trail for correlation id "+correlationID)
		return
	}
	httputil.OK(w, trail)
}

// RecentAudit returns the latest audit entries across all files.
//
//	GET /api/v1/audit/recent
func (h *Handlers) RecentAudit(w http.ResponseWriter, r *http.Request) {
	entries, err := h.audit.Recent(r.Context(), 100)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if entries == nil {
		entries = []domain.AuditEntry{}
	}
	httputil.OK(w, entries)
}

// ListDeadLetters returns recent quarantined files without payloads.
//
//	GET /api/v1/dlq
func (h *Handlers) ListDeadLetters(w http.ResponseWriter, r *http.Request) {
	entries, err := h.dlq.List(r.Context(), 50)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if entries == nil {
		entries = []domain.DeadLetterEntry{}
	}
	httputil.OK(w, entries)
}

// GetDeadLetter returns one quarantined file including its original
// content, for correction and resubmission.
//
//	GET /api/v1/dlq/{correlationId}
func (h *Handlers) GetDeadLetter(w http.ResponseWriter, r *http.Request) {
	correlationID := chi.URLParam(r, "correlationId")
	entry, err := h.dlq.Get(r.Context(), correlationID)
	if errors.Is(err, postgres.ErrNotFound) {
		httputil.NotFound(w, "no dead letter for correlation id "+correlationID)
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, entry)
}

// HealthCheck reports process liveness plus rate limiter and mapping
// registry state for operational dashboards.
//
//	GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":           "healthy",
		"uptime":           time.Since(h.startTime).Round(time.Second).String(),
		"mapping_profiles": h.registry.Keys(),
	}
	if h.bucket != nil {
		resp["rate_limiter"] = map[string]int{
			"available": h.bucket.Available(),
			"capacity":  h.bucket.Capacity(),
		}
	}
	httputil.OK(w, resp)
}
