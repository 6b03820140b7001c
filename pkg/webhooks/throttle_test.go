package webhooks

import (
	"context"
	"testing"
	"time"
)

func TestThrottle_EnforcesMinimumInterval(t *testing.T) {
	// 100 rps -> 10ms minimum interval.
	throttle := NewThrottle(100)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := throttle.Wait(ctx); err != nil {
			t.Fatalf("Wait failed: %v", err)
		}
	}
	elapsed := time.Since(start)

	// First request passes immediately, the next two wait ~10ms each.
	if elapsed < 20*time.Millisecond {
		t.Errorf("Expected at least 20ms across 3 requests, got %v", elapsed)
	}
}

func TestThrottle_DisabledAtZeroRate(t *testing.T) {
	for _, rate := range []float64{0, -1} {
		throttle := NewThrottle(rate)

		start := time.Now()
		for i := 0; i < 100; i++ {
			if err := throttle.Wait(context.Background()); err != nil {
				t.Fatalf("Wait failed: %v", err)
			}
		}
		if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
			t.Errorf("Expected disabled throttle to be immediate, took %v", elapsed)
		}
	}
}

func TestThrottle_ContextCancellation(t *testing.T) {
	throttle := NewThrottle(1) // 1s interval

	if err := throttle.Wait(context.Background()); err != nil {
		t.Fatalf("First wait failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := throttle.Wait(ctx); err != context.Canceled {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
