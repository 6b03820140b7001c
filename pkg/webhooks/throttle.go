package webhooks

import (
	"context"
	"sync"
	"time"
)

// Throttle enforces a minimum interval between outbound requests across
// all deliveries. It protects third-party receivers from delivery storms
// caused by fan-out or event bursts; it is not an inbound API rate limit.
//
// The last-request timestamp is guarded by a mutex so the throttle stays
// correct when deliveries run in parallel.
type Throttle struct {
	mu          sync.Mutex
	minInterval time.Duration
	last        time.Time
}

// NewThrottle creates a throttle allowing maxRequestsPerSecond outbound
// requests. A rate <= 0 disables throttling entirely.
func NewThrottle(maxRequestsPerSecond float64) *Throttle {
	t := &Throttle{}
	if maxRequestsPerSecond > 0 {
		t.minInterval = time.Duration(float64(time.Second) / maxRequestsPerSecond)
	}
	return t
}

// Wait blocks until the minimum interval since the last outbound request
// has elapsed, then stamps the new last-request time. Returns early with
// the context error if the context is cancelled while waiting.
func (t *Throttle) Wait(ctx context.Context) error {
	if t.minInterval <= 0 {
		return nil
	}

	for {
		t.mu.Lock()
		now := time.Now()
		remaining := t.minInterval - now.Sub(t.last)
		if remaining <= 0 {
			t.last = now
			t.mu.Unlock()
			return nil
		}
		t.mu.Unlock()

		timer := time.NewTimer(remaining)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			// Re-check: another delivery may have taken the slot.
		}
	}
}
