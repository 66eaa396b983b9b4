package main

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/hyperjump/lookalike/internal/catalog"
	"github.com/hyperjump/lookalike/internal/config"
	"github.com/hyperjump/lookalike/internal/models"
	"go.uber.org/zap"
)

const testCatalog = `[
  {"uniq_id": "a", "product_name": "Red Cycling Shorts", "product_category_tree": "[\"Clothing >> Shorts\"]", "retail_price": 999, "embedding": [1, 0, 0]},
  {"uniq_id": "b", "product_name": "Blue Sofa", "product_category_tree": "[\"Furniture\"]", "retail_price": 15000, "embedding": [0, 1, 0]},
  {"uniq_id": "c", "product_name": "Red Running Shoes", "product_category_tree": "[\"Footwear\"]", "retail_price": 2499, "embedding": [0.7, 0.7, 0]}
]`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestArgsReorder(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "flags after image are moved first",
			args:     []string{"shoe.jpg", "-top-k", "3"},
			expected: []string{"-top-k", "3", "shoe.jpg"},
		},
		{
			name:     "flags first returns unchanged",
			args:     []string{"-top-k", "3", "shoe.jpg"},
			expected: []string{"-top-k", "3", "shoe.jpg"},
		},
		{
			name:     "positional only returns unchanged",
			args:     []string{"shoe.jpg"},
			expected: []string{"shoe.jpg"},
		},
		{
			name:     "empty args returns unchanged",
			args:     []string{},
			expected: []string{},
		},
		{
			name:     "multiple positionals then flags",
			args:     []string{"red", "shorts", "-limit", "5"},
			expected: []string{"-limit", "5", "red", "shorts"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := argsReorder(tt.args)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("argsReorder() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBuildLookupQuery(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"single word", []string{"shorts"}, "shorts"},
		{"multiple words", []string{"cycling", "shorts"}, "cycling shorts"},
		{"single quoted phrase", []string{"cycling shorts"}, "cycling shorts"},
		{"empty args", []string{}, ""},
		{"blank args", []string{"  ", "  "}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildLookupQuery(tt.args)
			if got != tt.expected {
				t.Errorf("buildLookupQuery(%v) = %q, want %q", tt.args, got, tt.expected)
			}
		})
	}
}

func TestLoadConfig_prefersCwdConfigWhenDefaultPath(t *testing.T) {
	t.Setenv("PORT", "")
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  host: "localhost"
  port: 8080
catalog:
  path: "/data/product_features.json"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	// On macOS, cwd can be /private/var/... while configPath from t.TempDir() is /var/...; compare canonical paths.
	resolvedCanon, _ := filepath.EvalSymlinks(resolved)
	configPathCanon, _ := filepath.EvalSymlinks(configPath)
	if resolvedCanon != configPathCanon {
		t.Errorf("resolved path = %s (canon %s), want %s (canon %s)", resolved, resolvedCanon, configPath, configPathCanon)
	}
	if !cfg.Debug {
		t.Error("debug should be true from cwd config.yaml")
	}
}

func TestLoadConfig_usesExplicitPath(t *testing.T) {
	t.Setenv("PORT", "")
	configPath := writeFile(t, "config.yaml", `
server:
  host: "127.0.0.1"
  port: 9000
catalog:
  path: "/data/product_features.json"
`)

	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != configPath {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
}

func TestImportCatalog(t *testing.T) {
	in := writeFile(t, "product_features.json", testCatalog)
	out := filepath.Join(t.TempDir(), "catalog.db")

	cat, err := importCatalog(context.Background(), in, out)
	if err != nil {
		t.Fatal(err)
	}
	if cat.Len() != 3 || cat.Dimensions() != 3 {
		t.Fatalf("imported %d products of %d dims", cat.Len(), cat.Dimensions())
	}

	back, err := catalog.Load(context.Background(), out)
	if err != nil {
		t.Fatal(err)
	}
	if back.Len() != 3 {
		t.Fatalf("reloaded %d products, want 3", back.Len())
	}
	if p, ok := back.Get("c"); !ok || p.Name != "Red Running Shoes" {
		t.Errorf("product c = %+v", p)
	}
}

func TestImportCatalog_badSource(t *testing.T) {
	in := writeFile(t, "broken.json", `{"not": "a list"}`)
	_, err := importCatalog(context.Background(), in, filepath.Join(t.TempDir(), "out.json"))
	var loadErr *catalog.LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected *catalog.LoadError, got %v", err)
	}
}

func TestAPIClient_Similar(t *testing.T) {
	img := pngBytes(t)
	imagePath := writeFile(t, "query.png", string(img))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/similar" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Error(err)
			return
		}
		if got := r.FormValue("top_k"); got != "2" {
			t.Errorf("top_k = %q, want 2", got)
		}
		f, hdr, err := r.FormFile("image")
		if err != nil {
			t.Error(err)
			return
		}
		defer f.Close()
		body, _ := io.ReadAll(f)
		if hdr.Filename != "query.png" || !bytes.Equal(body, img) {
			t.Errorf("image part = %s (%d bytes)", hdr.Filename, len(body))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"uniq_id":"a","product_name":"Red Cycling Shorts","similarity":0.9,"rank":1}],"top_k":2,"catalog_size":3}`))
	}))
	defer srv.Close()

	resp, err := newAPIClient(srv.URL+"/").Similar(context.Background(), imagePath, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 1 || resp.Results[0].ID != "a" || resp.TopK != 2 {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestAPIClient_errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind models.ErrorKind
		wantMsg  string
	}{
		{
			name:     "structured error",
			status:   http.StatusBadGateway,
			body:     `{"error":"embedder timed out","kind":"embedding_unavailable"}`,
			wantKind: models.ErrorKind("embedding_unavailable"),
			wantMsg:  "embedder timed out",
		},
		{
			name:    "plain text error",
			status:  http.StatusServiceUnavailable,
			body:    "upstream down\n",
			wantMsg: "upstream down",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newAPIClient(srv.URL).Status(context.Background())
			var apiErr *apiError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *apiError, got %v", err)
			}
			if apiErr.Status != tt.status || apiErr.Kind != tt.wantKind || apiErr.Msg != tt.wantMsg {
				t.Errorf("apiError = %+v", apiErr)
			}
		})
	}
}

func TestAPIClient_Lookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/products" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if q := r.URL.Query().Get("q"); q != "cycling shorts" {
			t.Errorf("q = %q", q)
		}
		if l := r.URL.Query().Get("limit"); l != "4" {
			t.Errorf("limit = %q", l)
		}
		_, _ = w.Write([]byte(`{"query":"cycling shorts","results":[],"total":0,"did_you_mean":"cycling"}`))
	}))
	defer srv.Close()

	resp, err := newAPIClient(srv.URL).Lookup(context.Background(), "cycling shorts", 4)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Suggestion != "cycling" {
		t.Errorf("suggestion = %q", resp.Suggestion)
	}
}

func TestInitializeComponents(t *testing.T) {
	cfg, err := config.Default()
	if err != nil {
		t.Fatal(err)
	}
	cfg.Catalog.Path = writeFile(t, "product_features.json", testCatalog)
	cfg.Embedding.Backend = "mock"
	cfg.Embedding.Dimensions = 3
	cfg.Embedding.CacheSize = 0

	components, err := initializeComponents(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer components.Close()

	resp, err := components.Service.HandleQuery(context.Background(), pngBytes(t), 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 2 || resp.CatalogSize != 3 {
		t.Errorf("unexpected response: %+v", resp)
	}

	lookup, err := components.Service.Lookup(context.Background(), "sofa", 0)
	if err != nil {
		t.Fatal(err)
	}
	if lookup.Total != 1 || lookup.Results[0].ID != "b" {
		t.Errorf("lookup = %+v", lookup)
	}

	st := components.Service.Status()
	if !st.KeywordLookup || st.CatalogSize != 3 || st.Dimensions != 3 {
		t.Errorf("status = %+v", st)
	}
}

func TestInitializeComponents_missingCatalog(t *testing.T) {
	cfg, err := config.Default()
	if err != nil {
		t.Fatal(err)
	}
	cfg.Catalog.Path = filepath.Join(t.TempDir(), "missing.json")
	cfg.Embedding.Backend = "mock"

	_, err = initializeComponents(context.Background(), cfg, zap.NewNop())
	var loadErr *catalog.LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected *catalog.LoadError, got %v", err)
	}
}
