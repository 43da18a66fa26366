// Package ratelimit implements the leaky-bucket admission control used to
// keep outbound calls inside the downstream platform's documented limits
// (a burst capacity that drains and is steadily topped back up).
package ratelimit

import (
	"context"
	"time"
)

// Bucket is a leaky bucket of permits. Acquire suspends only its caller;
// a background goroutine tops the bucket back up to capacity on every tick
// and never exceeds it.
type Bucket struct {
	capacity int
	tokens   chan struct{}
	done     chan struct{}
}

// NewBucket creates a bucket holding capacity permits, starting full, with
// a refill every interval. A capacity < 1 is raised to 1; an interval <= 0
// defaults to one second.
func NewBucket(capacity int, interval time.Duration) *Bucket {
	if capacity < 1 {
		capacity = 1
	}
	if interval <= 0 {
		interval = time.Second
	}

	b := &Bucket{
		capacity: capacity,
		tokens:   make(chan struct{}, capacity),
		done:     make(chan struct{}),
	}
	for i := 0; i < capacity; i++ {
		b.tokens <- struct{}{}
	}

	go b.refillLoop(interval)
	return b
}

// Acquire consumes one permit, blocking the calling goroutine until one is
// available or the context is done.
func (b *Bucket) Acquire(ctx context.Context) error {
	select {
	case <-b.tokens:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryAcquire consumes a permit without blocking, reporting whether one was
// available.
func (b *Bucket) TryAcquire() bool {
	select {
	case <-b.tokens:
		return true
	default:
		return false
	}
}

// Available returns the current permit count, for health endpoints.
func (b *Bucket) Available() int {
	return len(b.tokens)
}

// Capacity returns the configured burst capacity.
func (b *Bucket) Capacity() int {
	return b.capacity
}

// Close stops the refill goroutine. Pending Acquire calls keep draining
// whatever permits remain.
func (b *Bucket) Close() {
	close(b.done)
}

func (b *Bucket) refillLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-b.done:
			return
		case <-ticker.C:
			b.refill()
		}
	}
}

// refill tops the bucket back up to capacity. The channel buffer caps the
// permit count, so a refill can never exceed capacity.
func (b *Bucket) refill() {
	for {
		select {
		case b.tokens <- struct{}{}:
		default:
			return
		}
	}
}
