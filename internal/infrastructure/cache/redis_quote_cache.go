// Package cache provides quote cache implementations: Redis for
// distributed deployments and an in-memory store for tests and
// single-instance development.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/commerce/fulfillment/internal/domain/shipping"
)

const defaultQuoteKeyPrefix = "shipping:quote:"

// RedisQuoteCache stores quote records in Redis keyed by the canonical
// quote key. Writes are plain overwrites: concurrent writers for the
// same key produce semantically identical records, so last-write-wins
// is safe without a lock.
type RedisQuoteCache struct {
	client    *redis.Client
	keyPrefix string
	logger    *zap.Logger
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisQuoteCache connects to Redis and verifies the connection.
func NewRedisQuoteCache(cfg RedisConfig, logger *zap.Logger) (*RedisQuoteCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisQuoteCacheWithClient(client, defaultQuoteKeyPrefix, logger), nil
}

// NewRedisQuoteCacheWithClient wraps an existing Redis client, useful
// for sharing a client or for tests against miniature servers.
func NewRedisQuoteCacheWithClient(client *redis.Client, keyPrefix string, logger *zap.Logger) *RedisQuoteCache {
	if keyPrefix == "" {
		keyPrefix = defaultQuoteKeyPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisQuoteCache{client: client, keyPrefix: keyPrefix, logger: logger.Named("quote_cache")}
}

// Get returns the record for the key, or nil on a miss. A record that
// fails to decode counts as a miss so the caller fails open to a fresh
// quote rather than failing the request.
func (c *RedisQuoteCache) Get(ctx context.Context, key string) (*shipping.QuoteRecord, error) {
	payload, err := c.client.Get(ctx, c.keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("quote cache read: %w", err)
	}

	var record shipping.QuoteRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		c.logger.Warn("discarding malformed quote record", zap.String("quote_key", key), zap.Error(err))
		return nil, nil
	}
	return &record, nil
}

// Put upserts the record. A TTL of zero or less stores it without
// expiry; the record's own ExpiresAt still governs validity.
func (c *RedisQuoteCache) Put(ctx context.Context, record *shipping.QuoteRecord, ttl time.Duration) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("quote cache encode: %w", err)
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := c.client.Set(ctx, c.keyPrefix+record.QuoteKey, payload, ttl).Err(); err != nil {
		return fmt.Errorf("quote cache write: %w", err)
	}
	return nil
}
