package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/open-builders/contestlet/internal/platform/clock"
)

func TestMemoryAllowsUpToLimitThenBlocks(t *testing.T) {
	clk := clock.NewFixed(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	m := NewMemory(clk)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, _, err := m.Allow(ctx, "k", 3, time.Minute)
		require.NoError(t, err)
		require.True(t, allowed, "request %d should be allowed", i)
	}

	allowed, retryAfter, err := m.Allow(ctx, "k", 3, time.Minute)
	require.NoError(t, err)
	require.False(t, allowed)
	require.Greater(t, retryAfter, time.Duration(0))
}

func TestMemoryWindowResetsAfterExpiry(t *testing.T) {
	clk := clock.NewFixed(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	m := NewMemory(clk)
	ctx := context.Background()

	allowed, _, err := m.Allow(ctx, "k", 1, time.Minute)
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, _, err = m.Allow(ctx, "k", 1, time.Minute)
	require.NoError(t, err)
	require.False(t, allowed)

	clk.Advance(time.Minute + time.Second)
	allowed, _, err = m.Allow(ctx, "k", 1, time.Minute)
	require.NoError(t, err)
	require.True(t, allowed, "window should have reset")
}

func TestMemoryKeysAreIndependent(t *testing.T) {
	clk := clock.NewFixed(time.Now())
	m := NewMemory(clk)
	ctx := context.Background()

	allowed, _, err := m.Allow(ctx, "a", 1, time.Minute)
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, _, err = m.Allow(ctx, "a", 1, time.Minute)
	require.NoError(t, err)
	require.False(t, allowed, "second call on same key should be blocked")

	allowed, _, err = m.Allow(ctx, "b", 1, time.Minute)
	require.NoError(t, err)
	require.True(t, allowed, "different key must have its own bucket")
}

func TestOtpKeyBuildersAreDistinctPerPhone(t *testing.T) {
	require.NotEqual(t, OtpRequestKey("+15551234567"), OtpVerifyKey("+15551234567"))
	require.NotEqual(t, OtpRequestKey("+15551234567"), OtpRequestKey("+15557654321"))
}
