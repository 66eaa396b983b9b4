package embedding

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hyperjump/lookalike/internal/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// redisPingTimeout bounds the startup connectivity check.
const redisPingTimeout = 2 * time.Second

// NewFromConfig builds the configured backend and wraps it with the
// concurrency bound and the embedding cache. A Redis cache that cannot be
// reached at startup falls back to the in-process LRU.
func NewFromConfig(ctx context.Context, cfg config.EmbeddingConfig, logger *zap.Logger) (Embedder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	base, err := newBackend(cfg, logger)
	if err != nil {
		return nil, err
	}
	var e Embedder = NewLimited(base, cfg.MaxConcurrent)
	if cache := newCache(ctx, cfg, logger); cache != nil {
		e = NewCached(e, cache)
	}
	logger.Info("embedder ready",
		zap.String("backend", e.Name()),
		zap.Int("dimensions", e.Dimensions()),
		zap.Int("max_concurrent", cfg.MaxConcurrent),
	)
	return e, nil
}

func newBackend(cfg config.EmbeddingConfig, logger *zap.Logger) (Embedder, error) {
	switch cfg.Backend {
	case "command", "":
		return NewCommandEmbedder(cfg.Command, cfg.Args,
			WithTempDir(cfg.TempDir),
			WithCommandLogger(logger),
		)
	case "http":
		return NewHTTPEmbedder(cfg.URL, &http.Client{}, 0)
	case "onnx":
		return NewONNXEmbedder(ONNXOptions{
			ModelPath:   cfg.ModelPath,
			LibraryPath: cfg.ORTLibraryPath,
			InputName:   cfg.InputName,
			OutputName:  cfg.OutputName,
			InputSize:   cfg.InputSize,
			Dimensions:  cfg.Dimensions,
		})
	case "mock":
		return NewMockEmbedder(cfg.Dimensions), nil
	default:
		return nil, fmt.Errorf("unknown embedding backend: %s", cfg.Backend)
	}
}

func newCache(ctx context.Context, cfg config.EmbeddingConfig, logger *zap.Logger) Cache {
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			logger.Info("using redis embedding cache", zap.String("addr", cfg.Redis.Addr), zap.Duration("ttl", cfg.Redis.TTL))
			return NewRedisCache(client, cfg.Redis.TTL, logger)
		}
		_ = client.Close()
		logger.Warn("redis unreachable, using in-process embedding cache",
			zap.String("addr", cfg.Redis.Addr), zap.Error(err))
	}
	if cfg.CacheSize > 0 {
		return NewLRUCache(cfg.CacheSize)
	}
	return nil
}
