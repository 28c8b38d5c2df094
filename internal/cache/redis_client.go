// Package cache wraps Redis as the QueryEngine's cache backend: typed fingerprint keys, a
// default TTL, and prefix invalidation on project writes.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/codegraph/graphrag/internal/logging"
)

// Client wraps a Redis connection with the Get/Set/DeletePattern helpers every cacheable
// QueryEngine operation uses.
type Client struct {
	client *redis.Client
	logger *logging.Logger
	ttl    time.Duration
}

// NewClient creates a Redis client from connection parameters and verifies connectivity.
func NewClient(ctx context.Context, addr, password string, db int, ttl time.Duration, logger *logging.Logger) (*Client, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis address missing")
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	logger.Info("redis client connected")
	return &Client{client: client, logger: logger, ttl: ttl}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	if err := c.client.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}
	return nil
}

// HealthCheck verifies Redis connectivity.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

// Get retrieves a cached value by key and unmarshals it into target. Returns false on a cache
// miss, which is not an error.
func (c *Client) Get(ctx context.Context, key string, target any) (bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get failed for key %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(val), target); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached value for key %s: %w", key, err)
	}
	return true, nil
}

// Set stores value under key with the client's default TTL.
func (c *Client) Set(ctx context.Context, key string, value any) error {
	return c.SetWithTTL(ctx, key, value, c.ttl)
}

// SetWithTTL stores value under key with a custom TTL.
func (c *Client) SetWithTTL(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for key %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed for key %s: %w", key, err)
	}
	return nil
}

// Delete removes a single key from cache.
func (c *Client) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete failed for key %s: %w", key, err)
	}
	return nil
}

// DeletePattern deletes every key matching pattern, scanning in batches of 100 rather than
// KEYS so invalidation doesn't block the Redis event loop on a large keyspace.
func (c *Client) DeletePattern(ctx context.Context, pattern string) (int64, error) {
	var cursor uint64
	var keys []string

	for {
		var batch []string
		var err error
		batch, cursor, err = c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return 0, fmt.Errorf("redis scan failed for pattern %s: %w", pattern, err)
		}
		keys = append(keys, batch...)
		if cursor == 0 {
			break
		}
	}

	if len(keys) == 0 {
		return 0, nil
	}

	deleted, err := c.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("redis delete failed for pattern %s: %w", pattern, err)
	}
	c.logger.Infof("invalidated %d cache keys matching %s", deleted, pattern)
	return deleted, nil
}

// QueryKey builds the standardized cache key for a cacheable QueryEngine operation:
// "query:<op>:project:<pid>:<fingerprint>".
func QueryKey(op, projectID, fingerprint string) string {
	return fmt.Sprintf("query:%s:project:%s:%s", op, projectID, fingerprint)
}

// ProjectInvalidationPattern is the DeletePattern argument used to drop every cached query
// result for a project after a write or delete.
func ProjectInvalidationPattern(projectID string) string {
	return fmt.Sprintf("*:project:%s:*", projectID)
}
