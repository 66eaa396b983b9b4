package catalog

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/hyperjump/lookalike/internal/vector"
)

func TestNew(t *testing.T) {
	cat, err := New("", []Product{
		{ID: "a", Embedding: []float32{3, 4}},
		{ID: "b", Embedding: []float32{0, 1}, RetailPrice: json.RawMessage(`999`)},
	})
	if err != nil {
		t.Fatal(err)
	}
	if cat.Len() != 2 || cat.Dimensions() != 2 {
		t.Errorf("Len=%d Dimensions=%d", cat.Len(), cat.Dimensions())
	}
	if cat.At(0).Norm != 5 {
		t.Errorf("norm = %f, want 5", cat.At(0).Norm)
	}
	p, ok := cat.Get("b")
	if !ok || string(p.RetailPrice) != "999" {
		t.Errorf("Get(b) = %+v, %v", p, ok)
	}
	if _, ok := cat.Get("missing"); ok {
		t.Error("Get(missing) should fail")
	}
}

func TestNew_CopiesEmbeddings(t *testing.T) {
	emb := []float32{1, 0}
	cat, err := New("", []Product{{ID: "a", Embedding: emb}})
	if err != nil {
		t.Fatal(err)
	}
	emb[0] = 42
	if cat.At(0).Embedding[0] != 1 {
		t.Error("catalog shares the caller's embedding slice")
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		products []Product
	}{
		{"empty", nil},
		{"missing id", []Product{{Embedding: []float32{1}}}},
		{"duplicate id", []Product{{ID: "a", Embedding: []float32{1}}, {ID: "a", Embedding: []float32{2}}}},
		{"empty embedding", []Product{{ID: "a"}}},
		{"heterogeneous", []Product{{ID: "a", Embedding: []float32{1, 0}}, {ID: "b", Embedding: []float32{1}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New("test", tt.products)
			var le *LoadError
			if !errors.As(err, &le) {
				t.Fatalf("expected *LoadError, got %v", err)
			}
		})
	}
}

func TestNew_HeterogeneousWrapsDimensionMismatch(t *testing.T) {
	_, err := New("", []Product{{ID: "a", Embedding: []float32{1, 0}}, {ID: "b", Embedding: []float32{1}}})
	var dm *vector.DimensionMismatchError
	if !errors.As(err, &dm) {
		t.Fatalf("expected wrapped DimensionMismatchError, got %v", err)
	}
}

func TestNew_ZeroNorm(t *testing.T) {
	cat, err := New("", []Product{{ID: "a", Embedding: []float32{0, 0}}, {ID: "b", Embedding: []float32{1, 0}}})
	if err != nil {
		t.Fatal(err)
	}
	if cat.ZeroNormCount() != 1 {
		t.Errorf("ZeroNormCount = %d, want 1", cat.ZeroNormCount())
	}
}
