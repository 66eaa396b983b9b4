// Package catalog loads the product catalog and holds it as an immutable,
// validated snapshot with precomputed embedding norms.
package catalog

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hyperjump/lookalike/internal/vector"
)

// Product is one catalog record. Display metadata other than ID, Name and
// ImageURL is kept as raw JSON and passed through unchanged.
type Product struct {
	ID              string
	Name            string
	Category        json.RawMessage
	RetailPrice     json.RawMessage
	DiscountedPrice json.RawMessage
	ImageURL        string
	Specifications  json.RawMessage
	Embedding       []float32
	// Norm is the Euclidean norm of Embedding, computed once by New.
	Norm float64
}

// Catalog is a validated, read-only set of products. All embeddings share
// the same dimension. A Catalog is never mutated after New returns, so it can
// be shared across goroutines without locking.
type Catalog struct {
	source     string
	products   []*Product
	byID       map[string]int
	dimensions int
	zeroNorm   int
	loadedAt   time.Time
}

// New validates products and builds a catalog snapshot. Products must be
// non-empty, have unique non-empty ids, and share one non-zero embedding
// dimension with finite values. Norms are computed here. Failures are
// returned as *LoadError.
func New(source string, products []Product) (*Catalog, error) {
	if len(products) == 0 {
		return nil, &LoadError{Source: source, Reason: "catalog is empty"}
	}
	c := &Catalog{
		source:     source,
		products:   make([]*Product, len(products)),
		byID:       make(map[string]int, len(products)),
		dimensions: len(products[0].Embedding),
		loadedAt:   time.Now(),
	}
	if c.dimensions == 0 {
		return nil, &LoadError{Source: source, Reason: fmt.Sprintf("product %q has an empty embedding", products[0].ID)}
	}
	for i := range products {
		p := products[i]
		if p.ID == "" {
			return nil, &LoadError{Source: source, Reason: fmt.Sprintf("product at position %d has no id", i)}
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, &LoadError{Source: source, Reason: fmt.Sprintf("duplicate product id %q", p.ID)}
		}
		if len(p.Embedding) != c.dimensions {
			return nil, &LoadError{
				Source: source,
				Reason: fmt.Sprintf("product %q embedding has %d dimensions, expected %d", p.ID, len(p.Embedding), c.dimensions),
				Err:    &vector.DimensionMismatchError{Got: len(p.Embedding), Want: c.dimensions},
			}
		}
		if !vector.IsFinite(p.Embedding) {
			return nil, &LoadError{Source: source, Reason: fmt.Sprintf("product %q embedding has non-finite values", p.ID)}
		}
		emb := make([]float32, len(p.Embedding))
		copy(emb, p.Embedding)
		p.Embedding = emb
		p.Norm = vector.Norm(emb)
		if p.Norm == 0 {
			c.zeroNorm++
		}
		c.products[i] = &p
		c.byID[p.ID] = i
	}
	return c, nil
}

// Source returns the path the catalog was loaded from ("" for in-memory catalogs).
func (c *Catalog) Source() string { return c.source }

// Dimensions returns the shared embedding length D.
func (c *Catalog) Dimensions() int { return c.dimensions }

// Len returns the number of products.
func (c *Catalog) Len() int { return len(c.products) }

// LoadedAt returns when the snapshot was built.
func (c *Catalog) LoadedAt() time.Time { return c.loadedAt }

// ZeroNormCount returns how many products have an all-zero embedding. Such
// products score 0 against every query.
func (c *Catalog) ZeroNormCount() int { return c.zeroNorm }

// Products returns the products in catalog order. Callers must not modify
// the returned slice or the products it points to.
func (c *Catalog) Products() []*Product { return c.products }

// At returns the product at position i.
func (c *Catalog) At(i int) *Product { return c.products[i] }

// Position returns the catalog position of the product with the given id.
func (c *Catalog) Position(id string) (int, bool) {
	i, ok := c.byID[id]
	return i, ok
}

// Get returns the product with the given id.
func (c *Catalog) Get(id string) (*Product, bool) {
	i, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	return c.products[i], true
}
