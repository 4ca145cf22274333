package cache

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestMemoryLimiterWindow(t *testing.T) {
	current := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewMemoryLimiter()
	limiter.now = func() time.Time { return current }

	ctx := context.Background()

	ok, err := limiter.Allow(ctx, "10.0.0.1")
	if err != nil {
		t.Fatalf("Allow failed: %v", err)
	}
	if !ok {
		t.Fatal("first request should pass")
	}

	// Same caller inside the window is refused.
	current = current.Add(30 * time.Second)
	ok, _ = limiter.Allow(ctx, "10.0.0.1")
	if ok {
		t.Fatal("second request within the window should be refused")
	}

	// A different caller is unaffected.
	ok, _ = limiter.Allow(ctx, "10.0.0.2")
	if !ok {
		t.Fatal("different caller should pass")
	}

	// The refused attempt did not extend the original caller's cooldown.
	current = current.Add(31 * time.Second)
	ok, _ = limiter.Allow(ctx, "10.0.0.1")
	if !ok {
		t.Fatal("request after the window should pass")
	}
}

func TestMemoryLimiterExactBoundary(t *testing.T) {
	current := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewMemoryLimiter()
	limiter.now = func() time.Time { return current }

	limiter.Allow(context.Background(), "caller")

	// Exactly one window later is no longer inside the window.
	current = current.Add(ForceRefreshWindow)
	ok, _ := limiter.Allow(context.Background(), "caller")
	if !ok {
		t.Fatal("request exactly at the window boundary should pass")
	}
}

func TestMemoryLimiterCleanup(t *testing.T) {
	current := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewMemoryLimiter()
	limiter.now = func() time.Time { return current }

	ctx := context.Background()
	for i := 0; i < 150; i++ {
		limiter.Allow(ctx, fmt.Sprintf("10.0.%d.%d", i/256, i%256))
	}

	// Everything is still inside the window, so nothing is evicted yet.
	if len(limiter.seen) != 150 {
		t.Fatalf("expected 150 tracked callers, got %d", len(limiter.seen))
	}

	current = current.Add(2 * ForceRefreshWindow)
	limiter.Allow(ctx, "fresh")

	if len(limiter.seen) != 1 {
		t.Fatalf("expected stale entries evicted, got %d remaining", len(limiter.seen))
	}
}
