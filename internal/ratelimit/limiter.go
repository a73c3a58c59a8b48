package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter is a fixed-window request counter keyed by client IP and purpose.
// A Limiter without a Redis client never limits.
type Limiter struct {
	client      *redis.Client
	maxRequests int
	window      time.Duration
}

func NewLimiter(client *redis.Client, maxRequests int, window time.Duration) *Limiter {
	return &Limiter{client: client, maxRequests: maxRequests, window: window}
}

// Disabled returns a Limiter that lets every request through
func Disabled() *Limiter {
	return &Limiter{}
}

func (l *Limiter) enabled() bool {
	return l != nil && l.client != nil && l.maxRequests > 0 && l.window > 0
}

// getIPKey generates the Redis key for an IP counter
func getIPKey(ip, purpose string) string {
	return fmt.Sprintf("ratelimit:%s:ip:%s", purpose, ip)
}

// CheckIPRateLimitWithPurpose reports whether ip has used up its window for purpose
func (l *Limiter) CheckIPRateLimitWithPurpose(ctx context.Context, ip, purpose string) (bool, error) {
	if !l.enabled() {
		return false, nil
	}

	count, err := l.client.Get(ctx, getIPKey(ip, purpose)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read rate limit counter: %w", err)
	}

	return count >= l.maxRequests, nil
}

// RecordIPRequestWithPurpose counts one request; the window starts at the first one
func (l *Limiter) RecordIPRequestWithPurpose(ctx context.Context, ip, purpose string) error {
	if !l.enabled() {
		return nil
	}

	key := getIPKey(ip, purpose)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}

	return nil
}
