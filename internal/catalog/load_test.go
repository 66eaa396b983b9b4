package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const sampleJSON = `[
  {"uniq_id": "A", "product_name": "Red shirt", "product_category_tree": "[\"Clothing >> Shirts\"]",
   "retail_price": 999, "discounted_price": 499, "first_image_url": "http://img/a.jpg",
   "product_specifications": {"product_specification": [{"key": "Color", "value": "Red"}]},
   "embedding": [1, 0, 0.5]},
  {"uniq_id": "B", "product_name": "Blue mug", "retail_price": "1,200",
   "embedding": ["0", "1", "0.25"]}
]`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "product_features.json", sampleJSON)
	cat, err := Load(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if cat.Len() != 2 || cat.Dimensions() != 3 {
		t.Fatalf("Len=%d Dimensions=%d", cat.Len(), cat.Dimensions())
	}
	a := cat.At(0)
	if a.ID != "A" || a.Name != "Red shirt" || a.ImageURL != "http://img/a.jpg" {
		t.Errorf("unexpected product: %+v", a)
	}
	if string(a.RetailPrice) != "999" {
		t.Errorf("retail price = %s, want 999", a.RetailPrice)
	}
	b := cat.At(1)
	if string(b.RetailPrice) != `"1,200"` {
		t.Errorf("string price not passed through: %s", b.RetailPrice)
	}
	if b.Embedding[2] != 0.25 {
		t.Errorf("numeric string not parsed: %v", b.Embedding)
	}
	if cat.Source() != path {
		t.Errorf("Source = %s", cat.Source())
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty array", `[]`},
		{"not json", `uniq_id,embedding`},
		{"object not array", `{"uniq_id": "A"}`},
		{"non-numeric embedding", `[{"uniq_id": "A", "embedding": ["abc"]}]`},
		{"heterogeneous", `[{"uniq_id": "A", "embedding": [1, 0]}, {"uniq_id": "B", "embedding": [1]}]`},
		{"duplicate ids", `[{"uniq_id": "A", "embedding": [1]}, {"uniq_id": "A", "embedding": [2]}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "catalog.json", tt.content)
			_, err := Load(context.Background(), path)
			var le *LoadError
			if !errors.As(err, &le) {
				t.Fatalf("expected *LoadError, got %v", err)
			}
		})
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope.json"))
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("expected *LoadError, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected wrapped ErrNotExist, got %v", err)
	}
	if _, err := Load(context.Background(), ""); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestFormatOf(t *testing.T) {
	tests := map[string]SourceFormat{
		"a.json":    FormatJSON,
		"a.XLSX":    FormatXLSX,
		"a.db":      FormatSQLite,
		"a.sqlite3": FormatSQLite,
		"a.txt":     FormatJSON,
	}
	for path, want := range tests {
		if got := FormatOf(path); got != want {
			t.Errorf("FormatOf(%s) = %s, want %s", path, got, want)
		}
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()
	src, err := Load(ctx, writeFile(t, "catalog.json", sampleJSON))
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"out.json", "out.xlsx", "out.db"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			if err := Save(ctx, path, src); err != nil {
				t.Fatal(err)
			}
			got, err := Load(ctx, path)
			if err != nil {
				t.Fatal(err)
			}
			if got.Len() != src.Len() || got.Dimensions() != src.Dimensions() {
				t.Fatalf("Len=%d Dimensions=%d", got.Len(), got.Dimensions())
			}
			for i, want := range src.Products() {
				p := got.At(i)
				if p.ID != want.ID || p.Name != want.Name || p.ImageURL != want.ImageURL {
					t.Errorf("[%d] = %+v, want %+v", i, p, want)
				}
				if string(p.RetailPrice) != string(want.RetailPrice) {
					t.Errorf("[%d] retail price = %s, want %s", i, p.RetailPrice, want.RetailPrice)
				}
				if string(p.Category) != string(want.Category) {
					t.Errorf("[%d] category = %s, want %s", i, p.Category, want.Category)
				}
				for j := range want.Embedding {
					if p.Embedding[j] != want.Embedding[j] {
						t.Errorf("[%d] embedding[%d] = %v, want %v", i, j, p.Embedding[j], want.Embedding[j])
					}
				}
			}
		})
	}
}

func TestSave_ReplacesSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.db")
	first, _ := New("", []Product{{ID: "a", Embedding: []float32{1}}, {ID: "b", Embedding: []float32{2}}})
	second, _ := New("", []Product{{ID: "c", Embedding: []float32{3}}})
	if err := Save(ctx, path, first); err != nil {
		t.Fatal(err)
	}
	if err := Save(ctx, path, second); err != nil {
		t.Fatal(err)
	}
	got, err := Load(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Len() != 1 || got.At(0).ID != "c" {
		t.Errorf("expected only product c, got %d products", got.Len())
	}
}
