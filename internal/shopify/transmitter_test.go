package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/edi-gateway/internal/canonical"
	"github.com/ignite/edi-gateway/internal/config"
	"github.com/ignite/edi-gateway/internal/domain"
	"github.com/ignite/edi-gateway/internal/ratelimit"
)

type stubPlatforms struct {
	platform *domain.ConnectedPlatform
	err      error
}

func (s *stubPlatforms) FindActive(context.Context, string) (*domain.ConnectedPlatform, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.platform, nil
}

func testConfig() config.ShopifyConfig {
	return config.ShopifyConfig{
		StoreName:        "fallback-store",
		AccessToken:      "shpat_fallback",
		APIVersion:       "2024-01",
		BucketCapacity:   40,
		RefillIntervalMS: 10,
		MaxAttempts:      3,
		BackoffBaseMS:    1,
		BackoffMaxMS:     5,
		TimeoutSeconds:   5,
	}
}

func testOrder() *canonical.Order {
	return &canonical.Order{
		CorrelationID: "corr-1",
		RetailerID:    "TARGET",
		PONumber:      "TGT-2026-00042",
		ShipToName:    "Target Store #1742",
		ShipToAddress: "700 Nicollet Mall",
		ShipToCity:    "Minneapolis",
		ShipToState:   "MN",
		ShipToZip:     "55402",
		Lines: []canonical.OrderLine{
			{SequenceNumber: 1, SKU: "089541234567", QuantityOrdered: 120, UnitOfMeasure: "EA", UnitPrice: 24.99},
			{SequenceNumber: 2, SKU: "089599876543", QuantityOrdered: 60, UnitOfMeasure: "EA", UnitPrice: 49.99, ProductDescription: "Wireless Speaker"},
		},
	}
}

func newTransmitterForServer(t *testing.T, srv *httptest.Server, platforms PlatformFinder) (*Transmitter, *ratelimit.Bucket) {
	t.Helper()
	bucket := ratelimit.NewBucket(40, 10*time.Millisecond)
	t.Cleanup(bucket.Close)
	tr := NewTransmitter(testConfig(), bucket, platforms)
	tr.baseURL = srv.URL
	return tr, bucket
}

func TestTransmit_Success(t *testing.T) {
	var gotToken string
	var gotBody DraftOrderRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Shopify-Access-Token")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		assert.Equal(t, "/admin/api/2024-01/draft_orders.json", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"draft_order":{"id":987654321}}`))
	}))
	defer srv.Close()

	platforms := &stubPlatforms{platform: &domain.ConnectedPlatform{
		StoreDomain: "acme.myshopify.com",
		AccessToken: "shpat_seller",
	}}
	tr, _ := newTransmitterForServer(t, srv, platforms)

	id, err := tr.Transmit(context.Background(), testOrder())
	require.NoError(t, err)
	assert.Equal(t, "987654321", id)
	assert.Equal(t, "shpat_seller", gotToken)

	do := gotBody.DraftOrder
	assert.Equal(t, "EDI PO# TGT-2026-00042 from TARGET", do.Note)
	assert.Equal(t, "edi,gateway,target", do.Tags)
	require.Len(t, do.LineItems, 2)
	assert.Equal(t, "24.99", do.LineItems[0].Price)
	assert.Equal(t, "089541234567", do.LineItems[0].Title) // no description falls back to SKU
	assert.Equal(t, "Wireless Speaker", do.LineItems[1].Title)
	assert.True(t, do.LineItems[0].RequiresShipping)
	require.NotNil(t, do.ShippingAddress)
	assert.Equal(t, "MN", do.ShippingAddress.ProvinceCode)
	assert.Equal(t, "US", do.ShippingAddress.CountryCode)
	require.Len(t, do.NoteAttributes, 3)
	assert.Equal(t, NoteAttribute{Name: "edi_po_number", Value: "TGT-2026-00042"}, do.NoteAttributes[0])
	assert.Equal(t, NoteAttribute{Name: "correlation_id", Value: "corr-1"}, do.NoteAttributes[2])
}

func TestTransmit_FallsBackToConfigStore(t *testing.T) {
	var gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Shopify-Access-Token")
		w.Write([]byte(`{"draft_order":{"id":1}}`))
	}))
	defer srv.Close()

	tr, _ := newTransmitterForServer(t, srv, &stubPlatforms{err: errors.New("not found")})

	_, err := tr.Transmit(context.Background(), testOrder())
	require.NoError(t, err)
	assert.Equal(t, "shpat_fallback", gotToken)
}

func TestTransmit_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"draft_order":{"id":42}}`))
	}))
	defer srv.Close()

	tr, _ := newTransmitterForServer(t, srv, &stubPlatforms{err: errors.New("none")})

	id, err := tr.Transmit(context.Background(), testOrder())
	require.NoError(t, err)
	assert.Equal(t, "42", id)
	assert.Equal(t, int32(3), calls.Load())
}

func TestTransmit_ClientErrorIsTerminal(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"errors":{"line_items":["invalid sku"]}}`))
	}))
	defer srv.Close()

	tr, _ := newTransmitterForServer(t, srv, &stubPlatforms{err: errors.New("none")})

	_, err := tr.Transmit(context.Background(), testOrder())
	require.Error(t, err)
	var terr *TransmissionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, http.StatusUnprocessableEntity, terr.StatusCode)
	assert.False(t, terr.Retryable)
	assert.Equal(t, int32(1), calls.Load(), "client errors must not be retried")
}

func TestTransmit_RetryExhaustion(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	tr, _ := newTransmitterForServer(t, srv, &stubPlatforms{err: errors.New("none")})

	_, err := tr.Transmit(context.Background(), testOrder())
	require.Error(t, err)
	var terr *TransmissionError
	require.ErrorAs(t, err, &terr)
	assert.True(t, terr.Retryable)
	assert.Equal(t, int32(3), calls.Load())
}

func TestTransmit_SingleAttemptConfig(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxAttempts = 1
	bucket := ratelimit.NewBucket(40, 10*time.Millisecond)
	t.Cleanup(bucket.Close)
	tr := NewTransmitter(cfg, bucket, &stubPlatforms{err: errors.New("none")})
	tr.baseURL = srv.URL

	_, err := tr.Transmit(context.Background(), testOrder())
	require.Error(t, err)
	var terr *TransmissionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, http.StatusServiceUnavailable, terr.StatusCode)
	assert.Equal(t, int32(1), calls.Load(), "max_attempts: 1 means exactly one request")
}

func TestTransmit_CancelledContextIsNotRetryable(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"draft_order":{"id":1}}`))
	}))
	defer srv.Close()

	tr, _ := newTransmitterForServer(t, srv, &stubPlatforms{err: errors.New("none")})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tr.Transmit(ctx, testOrder())
	require.Error(t, err)
	var terr *TransmissionError
	require.ErrorAs(t, err, &terr)
	assert.False(t, terr.Retryable, "a cancelled run must not be reported as retryable")
	assert.Equal(t, int32(0), calls.Load())
}

func TestTransmit_AcquiresPermitPerAttempt(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	// A bucket that never refills within the test window: only one
	// permit is available, so only one attempt can go out.
	bucket := ratelimit.NewBucket(1, time.Hour)
	defer bucket.Close()
	for !bucket.TryAcquire() {
	}

	tr := NewTransmitter(testConfig(), bucket, &stubPlatforms{err: errors.New("none")})
	tr.baseURL = srv.URL

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := tr.Transmit(ctx, testOrder())
	require.Error(t, err)
	assert.Equal(t, int32(0), calls.Load(), "no attempt should pass an empty bucket")
}

func TestTransmit_MissingDraftOrderID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"unexpected":true}`))
	}))
	defer srv.Close()

	tr, _ := newTransmitterForServer(t, srv, &stubPlatforms{err: errors.New("none")})

	_, err := tr.Transmit(context.Background(), testOrder())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "draft_order.id")
}
