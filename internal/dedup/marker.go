// Package dedup marks purchase orders that have already been
// transmitted downstream, so a retailer resending the same file does
// not create a duplicate draft order. Delivery stays at-least-once;
// the marker is an idempotency hint, not a guarantee.
package dedup

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/edi-gateway/internal/pkg/logger"
)

// DefaultTTL keeps markers around long enough to cover the window in
// which retailers typically resend a file.
const DefaultTTL = 7 * 24 * time.Hour

// Marker records transmitted purchase orders in Redis with a TTL.
type Marker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewMarker creates a redis-backed marker. A nil client disables
// deduplication entirely; every check reports "not seen".
func NewMarker(client *redis.Client, ttl time.Duration) *Marker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Marker{client: client, ttl: ttl}
}

func markerKey(retailerID, poNumber string) string {
	return fmt.Sprintf("edi:transmitted:%s:%s", strings.ToLower(retailerID), poNumber)
}

// MarkTransmitted records that a PO was delivered downstream. A Redis
// failure is logged and ignored; losing the marker only risks a
// duplicate transmission, which the downstream idempotency attributes
// make harmless.
func (m *Marker) MarkTransmitted(ctx context.Context, retailerID, poNumber, draftOrderID string) {
	if m.client == nil || poNumber == "" {
		return
	}
	key := markerKey(retailerID, poNumber)
	if err := m.client.Set(ctx, key, draftOrderID, m.ttl).Err(); err != nil {
		logger.Warn("failed to record transmission marker",
			"error", err.Error(),
			"key", key)
	}
}

// WasTransmitted reports whether a PO was already delivered, returning
// the draft order id it produced. Redis being unreachable degrades to
// "not seen" so the pipeline keeps flowing.
func (m *Marker) WasTransmitted(ctx context.Context, retailerID, poNumber string) (string, bool) {
	if m.client == nil || poNumber == "" {
		return "", false
	}
	key := markerKey(retailerID, poNumber)
	val, err := m.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		logger.Warn("failed to check transmission marker",
			"error", err.Error(),
			"key", key)
		return "", false
	}
	return val, true
}
