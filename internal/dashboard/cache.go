package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKey = "dashboard:data:v1"

// Cache holds the last loaded Data for a short time
type Cache interface {
	Get(ctx context.Context) (*Data, bool, error)
	Set(ctx context.Context, data *Data) error
}

// RedisCache stores Data as JSON under a single key with a TTL
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context) (*Data, bool, error) {
	raw, err := c.client.Get(ctx, cacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read dashboard cache: %w", err)
	}

	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, false, fmt.Errorf("failed to decode dashboard cache: %w", err)
	}
	return &data, true, nil
}

func (c *RedisCache) Set(ctx context.Context, data *Data) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode dashboard cache: %w", err)
	}
	if err := c.client.Set(ctx, cacheKey, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write dashboard cache: %w", err)
	}
	return nil
}

// NoopCache never stores anything; used when Redis is disabled
type NoopCache struct{}

func (NoopCache) Get(context.Context) (*Data, bool, error) { return nil, false, nil }
func (NoopCache) Set(context.Context, *Data) error         { return nil }
