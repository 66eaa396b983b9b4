package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SourceFormat identifies a catalog file format.
type SourceFormat string

const (
	// FormatJSON is a JSON array of product objects (product_features.json).
	FormatJSON SourceFormat = "json"
	// FormatXLSX is a spreadsheet whose first sheet has a header row of field names.
	FormatXLSX SourceFormat = "xlsx"
	// FormatSQLite is a SQLite database with a products table.
	FormatSQLite SourceFormat = "sqlite"
)

// FormatOf returns the source format for path based on its extension.
// Unknown extensions are treated as JSON.
func FormatOf(path string) SourceFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return FormatXLSX
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite
	default:
		return FormatJSON
	}
}

// Load reads the catalog at path and returns a validated snapshot.
// All failures are *LoadError.
func Load(ctx context.Context, path string) (*Catalog, error) {
	if path == "" {
		return nil, &LoadError{Reason: "no catalog source configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, &LoadError{Source: path, Reason: "source not readable", Err: err}
	}
	if info.IsDir() {
		return nil, &LoadError{Source: path, Reason: "source is a directory"}
	}

	var products []Product
	switch FormatOf(path) {
	case FormatXLSX:
		products, err = readXLSX(path)
	case FormatSQLite:
		products, err = readSQLite(ctx, path)
	default:
		products, err = readJSONFile(path)
	}
	if err != nil {
		return nil, &LoadError{Source: path, Reason: "malformed source", Err: err}
	}
	return New(path, products)
}

// Save writes cat to path in the format implied by the extension.
// An existing file at path is replaced.
func Save(ctx context.Context, path string, cat *Catalog) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create catalog directory: %w", err)
		}
	}
	switch FormatOf(path) {
	case FormatXLSX:
		return writeXLSX(path, cat)
	case FormatSQLite:
		return writeSQLite(ctx, path, cat)
	default:
		return writeJSONFile(path, cat)
	}
}
