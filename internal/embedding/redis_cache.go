package embedding

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hyperjump/lookalike/internal/vector"
)

const redisKeyPrefix = "lookalike:embedding:"

// RedisCache shares embeddings between server instances. Values are stored
// as little-endian float32 blobs with a TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisCache wraps client. A zero ttl stores keys without expiry.
func NewRedisCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached embedding for key; errors are logged and reported as misses.
func (c *RedisCache) Get(ctx context.Context, key string) ([]float32, bool) {
	b, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("redis GET failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	v, err := vector.DecodeEmbedding(b)
	if err != nil || len(v) == 0 {
		c.logger.Warn("redis cache entry corrupt", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return v, true
}

// Set stores value for key; errors are logged.
func (c *RedisCache) Set(ctx context.Context, key string, value []float32) {
	if err := c.client.Set(ctx, redisKeyPrefix+key, vector.EncodeEmbedding(value), c.ttl).Err(); err != nil {
		c.logger.Warn("redis SET failed", zap.String("key", key), zap.Error(err))
	}
}

// Close closes the underlying client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
