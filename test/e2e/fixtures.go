package e2e

import (
	"context"
	"path/filepath"

	"github.com/hyperjump/lookalike/internal/catalog"
	"github.com/hyperjump/lookalike/internal/embedding"
)

// SupportedCatalogExtensions lists the catalog formats exercised by E2E tests.
var SupportedCatalogExtensions = []string{".json", ".xlsx", ".db"}

// WriteCatalog saves the corpus catalog under dir in the format implied by
// ext and returns the file path.
func WriteCatalog(ctx context.Context, c *Corpus, dir, ext string) (string, error) {
	cat, err := c.Catalog()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, "catalog"+ext)
	if err := catalog.Save(ctx, path, cat); err != nil {
		return "", err
	}
	return path, nil
}

// FixtureEmbedder returns the embedding registered for exact image bytes.
// Unknown images fail the way an unreachable backend would.
type FixtureEmbedder struct {
	dims    int
	vectors map[string][]float32
}

// NewFixtureEmbedder registers every query image of the corpus.
func NewFixtureEmbedder(c *Corpus) *FixtureEmbedder {
	e := &FixtureEmbedder{dims: c.Dimensions, vectors: make(map[string][]float32, len(c.TestCases))}
	for _, tc := range c.TestCases {
		e.vectors[string(tc.Image)] = tc.Embedding
	}
	return e
}

func (e *FixtureEmbedder) Embed(ctx context.Context, image []byte) ([]float32, error) {
	if v, ok := e.vectors[string(image)]; ok {
		return v, nil
	}
	return nil, embedding.Unavailable(e.Name(), "no fixture for image", nil)
}

func (e *FixtureEmbedder) Dimensions() int { return e.dims }
func (e *FixtureEmbedder) Name() string    { return "fixture" }
func (e *FixtureEmbedder) Close() error    { return nil }
