// Package search ranks catalog products against a query embedding.
package search

import (
	"context"
	"errors"
	"sort"

	"github.com/hyperjump/lookalike/internal/catalog"
	"github.com/hyperjump/lookalike/internal/vector"
)

// cancelCheckInterval is how many products are scored between context checks.
const cancelCheckInterval = 1024

// ErrInvalidTopK is returned when topK is not a positive integer.
var ErrInvalidTopK = errors.New("topK must be positive")

// Match is one ranked product with its cosine similarity to the query.
type Match struct {
	Product    *catalog.Product
	Similarity float64
}

// Rank scores every product in cat against query by cosine similarity and
// returns the best min(topK, cat.Len()) matches, highest first. Equal
// similarities keep catalog order. The scan is brute force, O(N·D).
func Rank(ctx context.Context, cat *catalog.Catalog, query []float32, topK int) ([]Match, error) {
	if topK <= 0 {
		return nil, ErrInvalidTopK
	}
	if len(query) != cat.Dimensions() {
		return nil, &vector.DimensionMismatchError{Got: len(query), Want: cat.Dimensions()}
	}
	queryNorm := vector.Norm(query)

	products := cat.Products()
	matches := make([]Match, len(products))
	for i, p := range products {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		sim, err := vector.CosineSimilarity(query, p.Embedding, queryNorm, p.Norm)
		if err != nil {
			return nil, err
		}
		matches[i] = Match{Product: p, Similarity: sim}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if topK > len(matches) {
		topK = len(matches)
	}
	return matches[:topK:topK], nil
}
