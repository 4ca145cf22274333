package cache

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ForceRefreshWindow is the cooldown between forced syncs per caller.
const ForceRefreshWindow = 60 * time.Second

// Limiter gates forced refreshes per caller identity. Allow both checks and
// records the caller's timestamp in one atomic step, so two near-concurrent
// requests from the same key cannot both pass.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RedisLimiter stores rate-limit state in Redis so the cooldown holds across
// process restarts and multiple instances.
type RedisLimiter struct {
	cache  *RedisCache
	window time.Duration
}

// NewRedisLimiter creates a limiter backed by the shared Redis connection
func NewRedisLimiter(cache *RedisCache) *RedisLimiter {
	return &RedisLimiter{cache: cache, window: ForceRefreshWindow}
}

// Allow returns false if key has already passed within the window.
// SET NX EX makes the check-and-record a single atomic operation.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	ok, err := l.cache.Client().SetNX(ctx, "ratelimit:sync:"+key, time.Now().Unix(), l.window).Result()
	if err != nil {
		return false, fmt.Errorf("rate limit check: %w", err)
	}
	return ok, nil
}

// MemoryLimiter keeps rate-limit state in process memory. Used when no
// Redis URL is configured; state resets on restart and is not shared
// between instances.
type MemoryLimiter struct {
	mu     sync.Mutex
	seen   map[string]time.Time
	window time.Duration
	now    func() time.Time
}

// NewMemoryLimiter creates an in-process limiter
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		seen:   make(map[string]time.Time),
		window: ForceRefreshWindow,
		now:    time.Now,
	}
}

// Allow returns false if key has already passed within the window
func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if last, ok := l.seen[key]; ok && now.Sub(last) < l.window {
		return false, nil
	}
	l.seen[key] = now

	// Keep the map small
	if len(l.seen) > 100 {
		cutoff := now.Add(-l.window)
		for k, t := range l.seen {
			if t.Before(cutoff) {
				delete(l.seen, k)
			}
		}
	}

	return true, nil
}
