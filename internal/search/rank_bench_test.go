package search

import (
	"context"
	"strconv"
	"testing"

	"github.com/hyperjump/lookalike/internal/catalog"
)

func BenchmarkRank(b *testing.B) {
	const n, dims = 10000, 2048
	products := make([]catalog.Product, n)
	for i := range products {
		emb := make([]float32, dims)
		emb[i%dims] = 1
		emb[(i+1)%dims] = float32(i) / n
		products[i] = catalog.Product{ID: strconv.Itoa(i), Embedding: emb}
	}
	cat := newCatalog(b, products...)
	query := make([]float32, dims)
	query[0] = 1
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Rank(ctx, cat, query, 6)
	}
}
