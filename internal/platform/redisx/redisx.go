// Package redisx bootstraps the shared go-redis client, used by the
// external-kv RateLimiter backend. The scheduler's leader lock does not
// use it; that lock is held in the Store (scheduler_leader table).
// Adapted from the teacher's internal/platform/redis/redis.go, trimmed of
// the multi-shard routing this service doesn't need.
package redisx

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Open constructs and pings a go-redis client.
func Open(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
