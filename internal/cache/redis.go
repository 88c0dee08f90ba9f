// Package cache provides an optional Redis-backed cache for upstream API
// responses. A nil *ResponseCache is valid and behaves as a cache that
// always misses, so callers never branch on whether caching is enabled.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// ResponseCache stores raw upstream response payloads keyed by request URL.
type ResponseCache struct {
	client *redis.Client
}

// New connects to Redis and verifies the connection with a ping.
func New(redisURL string) (*ResponseCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &ResponseCache{client: client}, nil
}

// Close closes the Redis connection.
func (rc *ResponseCache) Close() error {
	if rc == nil {
		return nil
	}
	return rc.client.Close()
}

// Get returns the cached payload for key, or false on a miss.
func (rc *ResponseCache) Get(ctx context.Context, key string) (string, bool) {
	if rc == nil {
		return "", false
	}
	value, err := rc.client.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return value, true
}

// Set stores a payload under key with the given TTL. Failures are ignored:
// the cache is an optimization, never a source of truth.
func (rc *ResponseCache) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if rc == nil {
		return
	}
	rc.client.Set(ctx, key, value, ttl)
}

// HealthCheck pings Redis to verify the connection.
func (rc *ResponseCache) HealthCheck(ctx context.Context) error {
	if rc == nil {
		return nil
	}
	return rc.client.Ping(ctx).Err()
}
