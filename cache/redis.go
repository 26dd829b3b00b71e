package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/raul-padua/agentic-product-price-scrapping/models"
)

const redisKeyPrefix = "pricecap:search:"

// RedisClient is the subset of *redis.Client the cache uses (for testing).
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Close() error
}

// Redis is a Store backed by Redis. Values are JSON with a TTL, so several
// service instances share one cache.
type Redis struct {
	client RedisClient
	ttl    time.Duration
}

// NewRedis connects to the Redis server at rawURL
// (redis://[:password@]host:port/db) and verifies it with PING.
func NewRedis(ctx context.Context, rawURL string, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("cache: parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("cache: connect to redis: %w", err)
	}
	return NewRedisWithClient(client, ttl), nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client RedisClient, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

// Get returns the cached response for key. Errors are logged and reported
// as a miss.
func (r *Redis) Get(ctx context.Context, key string) (*models.SearchResponse, bool) {
	raw, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("redis cache get failed", "error", err)
		}
		return nil, false
	}

	var resp models.SearchResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		slog.Warn("redis cache entry corrupt", "error", err)
		return nil, false
	}
	return &resp, true
}

// Set stores resp under key with the configured TTL.
func (r *Redis) Set(ctx context.Context, key string, resp *models.SearchResponse) {
	raw, err := json.Marshal(resp)
	if err != nil {
		slog.Warn("redis cache marshal failed", "error", err)
		return
	}
	if err := r.client.Set(ctx, redisKeyPrefix+key, raw, r.ttl).Err(); err != nil {
		slog.Warn("redis cache set failed", "error", err)
	}
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}
