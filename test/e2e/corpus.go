// Package e2e provides end-to-end tests with a generated catalog and one
// query image per product.
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"math/rand"

	"github.com/hyperjump/lookalike/internal/catalog"
)

// QueryTestCase is a query image whose embedding is a slightly perturbed copy
// of one product's embedding. That product must rank first.
type QueryTestCase struct {
	Image       []byte
	Embedding   []float32
	ExpectedID  string
	Description string
}

// Corpus holds products and query test cases for E2E tests.
type Corpus struct {
	Products     []catalog.Product
	TestCases    []QueryTestCase
	Dimensions   int
	TotalQueries int
}

var categories = []string{"Clothing", "Footwear", "Furniture", "Jewellery", "Kitchen", "Toys"}

var adjectives = []string{"Red", "Blue", "Green", "Black", "Printed", "Striped", "Classic", "Slim"}

var nouns = []string{"Shorts", "Kurta", "Sofa", "Sneakers", "Bangle", "Mug", "Jacket", "Lamp", "Saree", "Watch"}

// BuildCorpus returns n products with random unit embeddings of the given
// dimension and one query test case per product. The generator is seeded so
// the corpus is the same on every run.
func BuildCorpus(n, dims int) *Corpus {
	rng := rand.New(rand.NewSource(42))
	c := &Corpus{
		Products:   make([]catalog.Product, 0, n),
		TestCases:  make([]QueryTestCase, 0, n),
		Dimensions: dims,
	}
	for i := 0; i < n; i++ {
		emb := randomUnit(rng, dims)
		id := fmt.Sprintf("p%03d", i)
		name := fmt.Sprintf("%s %s %d", adjectives[i%len(adjectives)], nouns[i%len(nouns)], i)
		category, _ := json.Marshal(fmt.Sprintf(`["%s >> %s"]`, categories[i%len(categories)], nouns[i%len(nouns)]))
		c.Products = append(c.Products, catalog.Product{
			ID:          id,
			Name:        name,
			Category:    category,
			RetailPrice: json.RawMessage(fmt.Sprintf("%d", 499+i*10)),
			ImageURL:    fmt.Sprintf("http://img.example.com/%s.jpg", id),
			Embedding:   emb,
		})

		query := make([]float32, dims)
		for j := range emb {
			query[j] = emb[j] + float32(rng.NormFloat64()*0.01)
		}
		c.TestCases = append(c.TestCases, QueryTestCase{
			Image:       queryImage(i),
			Embedding:   query,
			ExpectedID:  id,
			Description: fmt.Sprintf("query_for_%s", id),
		})
	}
	c.TotalQueries = len(c.TestCases)
	return c
}

// Catalog builds a catalog snapshot from the corpus products.
func (c *Corpus) Catalog() (*catalog.Catalog, error) {
	return catalog.New("e2e", c.Products)
}

func randomUnit(rng *rand.Rand, dims int) []float32 {
	v := make([]float32, dims)
	var sum float64
	for i := range v {
		x := rng.NormFloat64()
		v[i] = float32(x)
		sum += x * x
	}
	inv := 1 / math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
	return v
}

// queryImage returns a distinct 2x2 PNG for index i.
func queryImage(i int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: uint8(i), G: uint8(i >> 8), B: 128, A: 255})
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}
