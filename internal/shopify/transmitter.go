// Package shopify delivers canonical purchase orders to the Shopify
// Admin API as draft orders, behind a leaky-bucket rate limiter and
// retrying transient failures with exponential backoff.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ignite/edi-gateway/internal/canonical"
	"github.com/ignite/edi-gateway/internal/config"
	"github.com/ignite/edi-gateway/internal/domain"
	"github.com/ignite/edi-gateway/internal/pkg/httpretry"
	"github.com/ignite/edi-gateway/internal/pkg/logger"
	"github.com/ignite/edi-gateway/internal/ratelimit"
)

// PlatformFinder resolves a seller's connected store, with a database
// row taking priority over the globally configured fallback store.
type PlatformFinder interface {
	FindActive(ctx context.Context, platform string) (*domain.ConnectedPlatform, error)
}

// Transmitter posts draft orders to Shopify.
type Transmitter struct {
	cfg       config.ShopifyConfig
	bucket    *ratelimit.Bucket
	platforms PlatformFinder
	client    httpretry.HTTPDoer

	// baseURL overrides the https://{domain} scheme+host in tests.
	baseURL string
}

// NewTransmitter wires the outbound Shopify adapter. The rate limiter
// permit is acquired before every HTTP attempt, retries included, so
// retried requests cannot sneak past the bucket.
func NewTransmitter(cfg config.ShopifyConfig, bucket *ratelimit.Bucket, platforms PlatformFinder) *Transmitter {
	// max_attempts counts total attempts; the retry client counts retries
	// after the first. max_attempts: 1 must mean exactly one request.
	retries := cfg.MaxAttempts - 1
	if retries < 0 {
		retries = 0
	}
	retry := httpretry.NewRetryClient(&http.Client{Timeout: cfg.Timeout()}, retries).
		WithBackoff(cfg.BackoffBase(), cfg.BackoffMax())
	if bucket != nil {
		retry.PreAttempt = bucket.Acquire
	}
	return &Transmitter{
		cfg:       cfg,
		bucket:    bucket,
		platforms: platforms,
		client:    retry,
	}
}

type target struct {
	storeDomain string
	accessToken string
}

// resolveTarget prefers the most recently connected seller store; the
// static config store is a fallback for direct API testing.
func (t *Transmitter) resolveTarget(ctx context.Context) target {
	if t.platforms != nil {
		p, err := t.platforms.FindActive(ctx, "SHOPIFY")
		if err == nil {
			logger.Info("using seller token for store", "store_domain", p.StoreDomain)
			return target{storeDomain: p.StoreDomain, accessToken: p.AccessToken}
		}
		logger.Warn("could not resolve seller token, falling back to config", "error", err.Error())
	}
	domainName := t.cfg.StoreName + ".myshopify.com"
	return target{storeDomain: domainName, accessToken: t.cfg.AccessToken}
}

// Transmit delivers one order and returns the created draft order id.
// Transient failures (5xx, 429, network) are retried with exponential
// backoff; any other 4xx is terminal and surfaces immediately.
func (t *Transmitter) Transmit(ctx context.Context, order *canonical.Order) (string, error) {
	dest := t.resolveTarget(ctx)

	payload, err := json.Marshal(NewDraftOrderRequest(order))
	if err != nil {
		return "", &TransmissionError{Detail: fmt.Sprintf("encode draft order for PO %s: %v", order.PONumber, err)}
	}

	url := t.baseURL
	if url == "" {
		url = "https://" + dest.storeDomain
	}
	url += "/admin/api/" + t.cfg.APIVersion + "/draft_orders.json"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", &TransmissionError{Detail: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("X-Shopify-Access-Token", dest.accessToken)
	req.Header.Set("Content-Type", "application/json")

	logger.Info("transmitting purchase order",
		"po_number", order.PONumber,
		"store_domain", dest.storeDomain,
		"line_count", len(order.Lines))

	start := time.Now()
	resp, err := t.client.Do(req)
	if err != nil {
		// A cancelled or expired context is not worth resubmitting;
		// only genuine transport failures are flagged retryable.
		return "", &TransmissionError{
			Detail:    fmt.Sprintf("request for PO %s failed after retries: %v", order.PONumber, err),
			Retryable: ctx.Err() == nil,
		}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &TransmissionError{
			StatusCode: resp.StatusCode,
			Detail:     fmt.Sprintf("shopify rejected PO %s: %s", order.PONumber, string(body)),
			Retryable:  httpretry.IsRetryableStatus(resp.StatusCode),
		}
	}

	id, err := extractDraftOrderID(body)
	if err != nil {
		return "", err
	}

	logger.Info("draft order created",
		"draft_order_id", id,
		"po_number", order.PONumber,
		"duration_ms", time.Since(start).Milliseconds())
	return id, nil
}

func extractDraftOrderID(body []byte) (string, error) {
	var parsed struct {
		DraftOrder struct {
			ID json.Number `json:"id"`
		} `json:"draft_order"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &TransmissionError{Detail: fmt.Sprintf("decode shopify response: %v", err)}
	}
	if parsed.DraftOrder.ID.String() == "" {
		return "", &TransmissionError{Detail: "missing 'draft_order.id' in shopify response"}
	}
	return parsed.DraftOrder.ID.String(), nil
}
