// Package ratelimit implements Allow(key, limit, window) from SPEC_FULL.md
// §4.2 with fixed-window counters in both backends: the count resets when
// a window ends rather than sliding, so a burst that straddles a window
// boundary can be admitted up to twice the limit. The in-memory backend is
// always available; an external-kv (Redis) backend is layered in front
// of it and falls back to memory on any backend failure, per spec.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/open-builders/contestlet/internal/platform/clock"
)

// Limiter is satisfied by both backends; callers depend only on this.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (allowed bool, retryAfter time.Duration, err error)
}

// Memory is a goroutine-safe fixed-window counter. It is the fallback
// target for External, and the whole limiter when config selects
// rate_limit_backend=memory.
type Memory struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	clock   clock.Clock
}

type bucket struct {
	windowStart time.Time
	count       int
}

func NewMemory(clk clock.Clock) *Memory {
	return &Memory{buckets: make(map[string]*bucket), clock: clk}
}

func (m *Memory) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	b, ok := m.buckets[key]
	if !ok || now.Sub(b.windowStart) >= window {
		b = &bucket{windowStart: now, count: 0}
		m.buckets[key] = b
	}
	if b.count >= limit {
		retryAfter := window - now.Sub(b.windowStart)
		if retryAfter < 0 {
			retryAfter = 0
		}
		return false, retryAfter, nil
	}
	b.count++
	return true, 0, nil
}

// External is a Redis-backed sliding window (fixed-window approximation
// via INCR+EXPIRE, the same approach the teacher's redis cache wrapper
// uses for counters) that falls back to an in-memory Limiter whenever
// the Redis round trip itself fails, per spec.md §4.2's "fails open".
type External struct {
	client   *redis.Client
	fallback *Memory
}

func NewExternal(client *redis.Client, fallback *Memory) *External {
	return &External{client: client, fallback: fallback}
}

func (e *External) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	redisKey := fmt.Sprintf("ratelimit:%s", key)

	count, err := e.client.Incr(ctx, redisKey).Result()
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("ratelimit: redis backend failed, falling open to memory")
		return e.fallback.Allow(ctx, key, limit, window)
	}
	if count == 1 {
		if err := e.client.Expire(ctx, redisKey, window).Err(); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("ratelimit: failed to set expiry, falling open to memory")
			return e.fallback.Allow(ctx, key, limit, window)
		}
	}
	if count > int64(limit) {
		ttl, err := e.client.TTL(ctx, redisKey).Result()
		if err != nil || ttl < 0 {
			ttl = window
		}
		return false, ttl, nil
	}
	return true, 0, nil
}

// Key builders for the two buckets spec.md §4.2 names explicitly.
func OtpRequestKey(phone string) string { return "otp:request:" + phone }
func OtpVerifyKey(phone string) string  { return "otp:verify:" + phone }
