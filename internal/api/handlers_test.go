package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/edi-gateway/internal/domain"
	"github.com/ignite/edi-gateway/internal/mapping"
	"github.com/ignite/edi-gateway/internal/pipeline"
	"github.com/ignite/edi-gateway/internal/repository/postgres"
)

type stubSubmitter struct {
	last pipeline.Request
}

func (s *stubSubmitter) Submit(_ context.Context, req pipeline.Request) string {
	if req.CorrelationID == "" {
		req.CorrelationID = "generated-id"
	}
	s.last = req
	return req.CorrelationID
}

type stubAudit struct {
	trail []domain.AuditEntry
}

func (s *stubAudit) Trail(context.Context, string) ([]domain.AuditEntry, error) {
	return s.trail, nil
}

func (s *stubAudit) Recent(context.Context, int) ([]domain.AuditEntry, error) {
	return s.trail, nil
}

type stubDLQ struct {
	entries []domain.DeadLetterEntry
}

func (s *stubDLQ) Get(_ context.Context, correlationID string) (*domain.DeadLetterEntry, error) {
	for i := range s.entries {
		if s.entries[i].CorrelationID == correlationID {
			return &s.entries[i], nil
		}
	}
	return nil, postgres.ErrNotFound
}

func (s *stubDLQ) List(context.Context, int) ([]domain.DeadLetterEntry, error) {
	return s.entries, nil
}

func testRegistry(t *testing.T) *mapping.Registry {
	t.Helper()
	dir := t.TempDir()
	profile := `{"retailerId":"TARGET","transactionSetCode":"850","headerMappings":[],"lineMappings":[]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "target-850.json"), []byte(profile), 0o644))
	reg, err := mapping.LoadDir(dir)
	require.NoError(t, err)
	return reg
}

func setupServer(t *testing.T) (*Server, *stubSubmitter, *stubAudit, *stubDLQ) {
	t.Helper()
	sub := &stubSubmitter{}
	aud := &stubAudit{}
	dlq := &stubDLQ{}
	srv := NewServer(NewHandlers(sub, testRegistry(t), aud, dlq, nil))
	return srv, sub, aud, dlq
}

func doRequest(t *testing.T, srv *Server, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestIngest_Accepted(t *testing.T) {
	srv, sub, _, _ := setupServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/edi/ingest", IngestRequest{
		RetailerID: "TARGET",
		FileName:   "po.edi",
		Content:    "ISA*...",
	}, nil)

	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp IngestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "generated-id", resp.CorrelationID)
	assert.Equal(t, "/api/v1/audit/generated-id", resp.AuditTrailURL)
	assert.Equal(t, "TARGET", sub.last.RetailerID)
	assert.Equal(t, "ISA*...", sub.last.Content)
}

func TestIngest_HonorsCorrelationHeader(t *testing.T) {
	srv, sub, _, _ := setupServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/edi/ingest", IngestRequest{
		RetailerID: "TARGET",
		Content:    "ISA*...",
	}, map[string]string{"X-Correlation-Id": "resubmit-42"})

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "resubmit-42", sub.last.CorrelationID)
	assert.Equal(t, "upload.edi", sub.last.FileName, "missing file name gets a default")
}

func TestIngest_Validation(t *testing.T) {
	srv, _, _, _ := setupServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/edi/ingest", IngestRequest{
		Content: "ISA*...",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "retailerId is required")

	rec = doRequest(t, srv, http.MethodPost, "/api/v1/edi/ingest", IngestRequest{
		RetailerID: "TARGET",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "content is required")
}

func TestListMappings(t *testing.T) {
	srv, _, _, _ := setupServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/mappings", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "TARGET:850")
}

func TestAuditTrail(t *testing.T) {
	srv, _, aud, _ := setupServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/audit/corr-1", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	aud.trail = []domain.AuditEntry{
		{CorrelationID: "corr-1", Status: domain.StatusReceived},
		{CorrelationID: "corr-1", Status: domain.StatusAcknowledged},
	}
	rec = doRequest(t, srv, http.MethodGet, "/api/v1/audit/corr-1", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var trail []domain.AuditEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &trail))
	assert.Len(t, trail, 2)
}

func TestDeadLetters(t *testing.T) {
	srv, _, _, dlq := setupServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/dlq/", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	dlq.entries = []domain.DeadLetterEntry{{
		CorrelationID: "corr-9",
		FileName:      "bad.edi",
		ErrorReport:   "=== report ===",
	}}
	rec = doRequest(t, srv, http.MethodGet, "/api/v1/dlq/corr-9", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bad.edi")

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/dlq/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthCheck(t *testing.T) {
	srv, _, _, _ := setupServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
	assert.Contains(t, rec.Body.String(), "TARGET:850")
}
