package embedding

import (
	"context"
	"hash/fnv"
	"math"
)

// MockEmbedder is a deterministic embedder for tests and demos. The same
// image bytes always produce the same unit-length vector.
type MockEmbedder struct {
	dimensions int
}

// NewMockEmbedder returns a mock producing vectors of the given dimension.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 2048
	}
	return &MockEmbedder{dimensions: dimensions}
}

// Embed returns a vector derived from the FNV hash of image.
func (e *MockEmbedder) Embed(ctx context.Context, image []byte) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, AsUnavailable(e.Name(), err)
	}
	h := fnv.New64a()
	_, _ = h.Write(image)
	seed := float64(h.Sum64()%1000003) + 1
	emb := make([]float32, e.dimensions)
	var sum float64
	for i := range emb {
		v := math.Sin(seed*float64(i+1))*0.1 + 0.01
		emb[i] = float32(v)
		sum += v * v
	}
	if sum > 0 {
		norm := 1.0 / math.Sqrt(sum)
		for i := range emb {
			emb[i] *= float32(norm)
		}
	}
	return emb, nil
}

// Dimensions returns the embedding dimension.
func (e *MockEmbedder) Dimensions() int { return e.dimensions }

// Name returns "mock".
func (e *MockEmbedder) Name() string { return "mock" }

// Close is a no-op for MockEmbedder.
func (e *MockEmbedder) Close() error { return nil }
