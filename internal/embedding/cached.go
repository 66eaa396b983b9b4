package embedding

import "context"

// Cached serves repeated images from a cache and asks next only on a miss.
// Failed embeddings are never cached.
type Cached struct {
	next  Embedder
	cache Cache
}

// NewCached wraps next with cache.
func NewCached(next Embedder, cache Cache) *Cached {
	return &Cached{next: next, cache: cache}
}

// Embed returns the cached embedding for image or computes and stores it.
func (c *Cached) Embed(ctx context.Context, image []byte) ([]float32, error) {
	key := ContentKey(image)
	if v, ok := c.cache.Get(ctx, key); ok {
		return v, nil
	}
	v, err := c.next.Embed(ctx, image)
	if err != nil {
		return nil, err
	}
	c.cache.Set(ctx, key, v)
	return v, nil
}

// Dimensions delegates to the wrapped embedder.
func (c *Cached) Dimensions() int { return c.next.Dimensions() }

// Name delegates to the wrapped embedder.
func (c *Cached) Name() string { return c.next.Name() }

// Close closes the wrapped embedder and the cache when it is closable.
func (c *Cached) Close() error {
	err := c.next.Close()
	if closer, ok := c.cache.(interface{ Close() error }); ok {
		if cerr := closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
