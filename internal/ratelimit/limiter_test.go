package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledLimiterNeverLimits(t *testing.T) {
	ctx := context.Background()
	l := Disabled()

	for i := 0; i < 100; i++ {
		require.NoError(t, l.RecordIPRequestWithPurpose(ctx, "10.0.0.1", "signin"))
	}

	exceeded, err := l.CheckIPRateLimitWithPurpose(ctx, "10.0.0.1", "signin")
	require.NoError(t, err)
	assert.False(t, exceeded)
}

func TestNilLimiterNeverLimits(t *testing.T) {
	var l *Limiter

	exceeded, err := l.CheckIPRateLimitWithPurpose(context.Background(), "10.0.0.1", "signup")
	require.NoError(t, err)
	assert.False(t, exceeded)
}

func TestGetIPKey(t *testing.T) {
	assert.Equal(t, "ratelimit:signin:ip:127.0.0.1", getIPKey("127.0.0.1", "signin"))
}

// Runs against a real Redis when REDIS_TEST_ADDR is set.
func TestLimiterWithRedis(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())

	l := NewLimiter(client, 3, time.Minute)
	ip := uuid.NewString()
	t.Cleanup(func() { client.Del(ctx, getIPKey(ip, "signin")) })

	for i := 0; i < 3; i++ {
		exceeded, err := l.CheckIPRateLimitWithPurpose(ctx, ip, "signin")
		require.NoError(t, err)
		assert.False(t, exceeded)
		require.NoError(t, l.RecordIPRequestWithPurpose(ctx, ip, "signin"))
	}

	exceeded, err := l.CheckIPRateLimitWithPurpose(ctx, ip, "signin")
	require.NoError(t, err)
	assert.True(t, exceeded)

	ttl, err := client.TTL(ctx, getIPKey(ip, "signin")).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
