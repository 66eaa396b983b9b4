package main

import (
	"context"
	"fmt"

	"github.com/hyperjump/lookalike/internal/catalog"
	"github.com/hyperjump/lookalike/internal/config"
	"github.com/hyperjump/lookalike/internal/embedding"
	"github.com/hyperjump/lookalike/internal/keyword"
	"github.com/hyperjump/lookalike/internal/query"
	"github.com/hyperjump/lookalike/pkg/utils"
	"go.uber.org/zap"
)

// Components holds initialized application components.
type Components struct {
	Store    *catalog.Store
	Embedder embedding.Embedder
	Keywords *keyword.Index
	Service  *query.Service
}

// Close releases the embedder and the keyword index.
func (c *Components) Close() {
	if c.Keywords != nil {
		_ = c.Keywords.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := catalog.OpenStore(ctx, cfg.Catalog.Path, logger)
	if err != nil {
		return nil, err
	}
	cat := store.Snapshot()
	logger.Info("catalog loaded",
		zap.String("source", cat.Source()),
		zap.Int("products", cat.Len()),
		zap.Int("dimensions", cat.Dimensions()),
	)
	if n := cat.ZeroNormCount(); n > 0 {
		logger.Warn("catalog has products with zero-norm embeddings; they always score 0", zap.Int("count", n))
	}

	embedder, err := embedding.NewFromConfig(ctx, cfg.Embedding, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	if d := embedder.Dimensions(); d > 0 && cat.Len() > 0 && d != cat.Dimensions() {
		logger.Warn("embedder and catalog dimensions differ; queries will fail",
			zap.Int("embedder", d),
			zap.Int("catalog", cat.Dimensions()),
		)
	}

	keywords, err := keyword.NewIndex(cat, logger)
	if err != nil {
		_ = embedder.Close()
		return nil, fmt.Errorf("failed to build keyword index: %w", err)
	}
	store.OnSwap(func(next *catalog.Catalog) {
		if err := keywords.Rebuild(next); err != nil {
			logger.Warn("keyword index rebuild failed", zap.Error(err))
		}
	})

	svc := query.NewService(store, embedder, query.Config{
		DefaultTopK:    cfg.Search.DefaultTopK,
		MaxTopK:        cfg.Search.MaxTopK,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		EmbedTimeout:   cfg.Embedding.Timeout,
	}, query.WithLogger(logger), query.WithKeywordIndex(keywords))

	return &Components{
		Store:    store,
		Embedder: embedder,
		Keywords: keywords,
		Service:  svc,
	}, nil
}

// newLocalComponents loads config and components for commands running
// without a server. Logging stays quiet unless debug is set.
func newLocalComponents(ctx context.Context, configPath string) (*Components, error) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger := zap.NewNop()
	if cfg.Debug {
		if l, lerr := utils.NewLogger(true); lerr == nil {
			logger = l
		}
	}
	return initializeComponents(ctx, cfg, logger)
}
