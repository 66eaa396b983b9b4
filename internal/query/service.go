// Package query answers "which catalog products look like this image"
// requests: it validates the upload, embeds it, ranks the catalog and
// projects the results for callers.
package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hyperjump/lookalike/internal/catalog"
	"github.com/hyperjump/lookalike/internal/embedding"
	"github.com/hyperjump/lookalike/internal/keyword"
	"github.com/hyperjump/lookalike/internal/models"
	"github.com/hyperjump/lookalike/internal/search"
	"github.com/hyperjump/lookalike/internal/upload"
	"github.com/hyperjump/lookalike/internal/vector"
	"go.uber.org/zap"
)

// ErrNotFound is returned when a product id is not in the catalog.
var ErrNotFound = errors.New("product not found")

// ErrLookupDisabled is returned by Lookup when no keyword index is attached.
var ErrLookupDisabled = errors.New("keyword lookup is not enabled")

// Config holds query limits.
type Config struct {
	DefaultTopK    int
	MaxTopK        int
	MaxUploadBytes int64
	// EmbedTimeout bounds one embedding call. Zero means no extra bound
	// beyond the request context.
	EmbedTimeout time.Duration
}

// Service runs similarity queries against the store's current snapshot.
type Service struct {
	store    *catalog.Store
	embedder embedding.Embedder
	keywords *keyword.Index
	cfg      Config
	logger   *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithKeywordIndex enables Lookup.
func WithKeywordIndex(idx *keyword.Index) Option {
	return func(s *Service) { s.keywords = idx }
}

// NewService creates a query service.
func NewService(store *catalog.Store, embedder embedding.Embedder, cfg Config, opts ...Option) *Service {
	cfg.DefaultTopK = models.NormalizeTopK(cfg.DefaultTopK, models.DefaultTopK, cfg.MaxTopK)
	if cfg.MaxTopK <= 0 {
		cfg.MaxTopK = models.MaxTopK
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = upload.DefaultMaxBytes
	}
	s := &Service{
		store:    store,
		embedder: embedder,
		cfg:      cfg,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the effective limits.
func (s *Service) Config() Config { return s.cfg }

// Embedder returns the embedder queries run through.
func (s *Service) Embedder() embedding.Embedder { return s.embedder }

// Store returns the catalog store.
func (s *Service) Store() *catalog.Store { return s.store }

// HandleQuery embeds image and returns the topK most similar products.
// topK <= 0 uses the configured default; larger values are clamped to the
// configured maximum. The catalog snapshot is taken once, so a concurrent
// reload never mixes two catalogs in one response.
//
// Errors are *InvalidInputError for bad uploads, *embedding.UnavailableError
// when no usable embedding was produced and *vector.DimensionMismatchError
// when the embedder and the catalog disagree on D. No partial results are
// returned on error.
func (s *Service) HandleQuery(ctx context.Context, image []byte, topK int) (*models.QueryResponse, error) {
	start := time.Now()
	if err := s.validate(image); err != nil {
		return nil, err
	}
	topK = models.NormalizeTopK(topK, s.cfg.DefaultTopK, s.cfg.MaxTopK)
	cat := s.store.Snapshot()

	embedStart := time.Now()
	vec, err := s.embed(ctx, image)
	embedTime := time.Since(embedStart)
	if err != nil {
		return nil, err
	}

	if len(vec) != cat.Dimensions() {
		// Every query fails until the embedder or the catalog is fixed.
		s.logger.Error("embedding dimension does not match catalog",
			zap.String("embedder", s.embedder.Name()),
			zap.Int("embedding_dimensions", len(vec)),
			zap.Int("catalog_dimensions", cat.Dimensions()),
			zap.String("catalog", cat.Source()),
		)
		return nil, &vector.DimensionMismatchError{Got: len(vec), Want: cat.Dimensions()}
	}

	matches, err := search.Rank(ctx, cat, vec, topK)
	if err != nil {
		return nil, fmt.Errorf("rank catalog: %w", err)
	}

	results := make([]*models.ProductResult, len(matches))
	for i, m := range matches {
		results[i] = Project(m.Product, m.Similarity, i+1)
	}
	resp := &models.QueryResponse{
		Results:     results,
		TopK:        topK,
		CatalogSize: cat.Len(),
		QueryTime:   time.Since(start).Milliseconds(),
		EmbedTime:   embedTime.Milliseconds(),
	}
	s.logger.Debug("similarity query",
		zap.Int("top_k", topK),
		zap.Int("results", len(results)),
		zap.Duration("embed", embedTime),
		zap.Duration("total", time.Since(start)),
	)
	return resp, nil
}

func (s *Service) validate(image []byte) error {
	if len(image) == 0 {
		return &InvalidInputError{Kind: KindNoInput, Reason: "no image provided", Err: upload.ErrEmpty}
	}
	if int64(len(image)) > s.cfg.MaxUploadBytes {
		return &InvalidInputError{
			Kind:   KindTooLarge,
			Reason: fmt.Sprintf("image is %d bytes, limit is %d", len(image), s.cfg.MaxUploadBytes),
			Err:    upload.ErrTooLarge,
		}
	}
	if _, _, err := upload.ImageConfig(image); err != nil {
		return &InvalidInputError{Kind: KindCorrupt, Reason: "image could not be decoded", Err: err}
	}
	return nil
}

func (s *Service) embed(ctx context.Context, image []byte) ([]float32, error) {
	if s.cfg.EmbedTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.EmbedTimeout)
		defer cancel()
	}
	vec, err := s.embedder.Embed(ctx, image)
	if err != nil {
		err = embedding.AsUnavailable(s.embedder.Name(), err)
		s.logger.Warn("embedding failed", zap.String("embedder", s.embedder.Name()), zap.Error(err))
		return nil, err
	}
	if len(vec) == 0 {
		return nil, embedding.Unavailable(s.embedder.Name(), "embedder returned an empty vector", nil)
	}
	if !vector.IsFinite(vec) {
		return nil, embedding.Unavailable(s.embedder.Name(), "embedder returned non-finite values", nil)
	}
	if vector.Norm(vec) == 0 {
		return nil, embedding.Unavailable(s.embedder.Name(), "embedder returned a zero vector", nil)
	}
	return vec, nil
}

// Product returns the product with the given id.
func (s *Service) Product(id string) (*models.ProductResult, error) {
	p, ok := s.store.Snapshot().Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return Project(p, 0, 0), nil
}

// Lookup finds products by name or category text. When nothing matches,
// the response carries a spelling suggestion if one exists.
func (s *Service) Lookup(ctx context.Context, q string, limit int) (*models.LookupResponse, error) {
	if s.keywords == nil {
		return nil, ErrLookupDisabled
	}
	limit = models.NormalizeTopK(limit, s.cfg.DefaultTopK, s.cfg.MaxTopK)
	hits, err := s.keywords.Search(ctx, q, limit)
	if err != nil {
		if errors.Is(err, keyword.ErrEmptyQuery) {
			return nil, &InvalidInputError{Kind: KindNoInput, Reason: "query text is empty", Err: err}
		}
		return nil, err
	}
	resp := &models.LookupResponse{
		Query:   q,
		Results: make([]*models.ProductResult, len(hits)),
		Total:   len(hits),
	}
	for i, h := range hits {
		resp.Results[i] = Project(h.Product, 0, i+1)
	}
	if len(hits) == 0 {
		resp.Suggestion = s.keywords.Suggest(q)
	}
	return resp, nil
}

// Status describes the serving catalog and embedder.
func (s *Service) Status() *models.StatusResponse {
	cat := s.store.Snapshot()
	return &models.StatusResponse{
		CatalogSource:  cat.Source(),
		CatalogSize:    cat.Len(),
		Dimensions:     cat.Dimensions(),
		ZeroNormCount:  cat.ZeroNormCount(),
		LoadedAt:       cat.LoadedAt().UTC().Format(time.RFC3339),
		Embedder:       s.embedder.Name(),
		DefaultTopK:    s.cfg.DefaultTopK,
		MaxTopK:        s.cfg.MaxTopK,
		MaxUploadBytes: s.cfg.MaxUploadBytes,
		KeywordLookup:  s.keywords != nil,
	}
}

// Project builds the caller-visible view of p. The embedding and its norm
// are never exposed.
func Project(p *catalog.Product, similarity float64, rank int) *models.ProductResult {
	return &models.ProductResult{
		ID:              p.ID,
		Name:            p.Name,
		Category:        p.Category,
		RetailPrice:     p.RetailPrice,
		DiscountedPrice: p.DiscountedPrice,
		Image:           p.ImageURL,
		Specifications:  p.Specifications,
		Similarity:      similarity,
		Rank:            rank,
	}
}
