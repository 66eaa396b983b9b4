package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/lookalike/internal/vector"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS products (
	position INTEGER PRIMARY KEY,
	uniq_id TEXT NOT NULL UNIQUE,
	product_name TEXT NOT NULL DEFAULT '',
	product_category_tree TEXT,
	retail_price TEXT,
	discounted_price TEXT,
	first_image_url TEXT NOT NULL DEFAULT '',
	product_specifications TEXT,
	embedding BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS catalog_meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

func readSQLite(ctx context.Context, path string) ([]Product, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	var dims sql.NullString
	err = db.QueryRowContext(ctx, `SELECT value FROM catalog_meta WHERE key = 'dimensions'`).Scan(&dims)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("read catalog metadata: %w", err)
	}
	wantDims := 0
	if dims.Valid {
		if wantDims, err = strconv.Atoi(dims.String); err != nil {
			return nil, fmt.Errorf("invalid dimensions metadata %q", dims.String)
		}
	}

	rows, err := db.QueryContext(ctx, `
		SELECT uniq_id, product_name, product_category_tree, retail_price, discounted_price,
		       first_image_url, product_specifications, embedding
		FROM products ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var (
			p                            Product
			category, retail, discounted sql.NullString
			specs                        sql.NullString
			blob                         []byte
		)
		if err := rows.Scan(&p.ID, &p.Name, &category, &retail, &discounted, &p.ImageURL, &specs, &blob); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		if p.Embedding, err = vector.DecodeEmbedding(blob); err != nil {
			return nil, fmt.Errorf("product %q: %w", p.ID, err)
		}
		if wantDims > 0 && len(p.Embedding) != wantDims {
			return nil, fmt.Errorf("product %q: %w", p.ID, &vector.DimensionMismatchError{Got: len(p.Embedding), Want: wantDims})
		}
		p.Category = nullRaw(category)
		p.RetailPrice = nullRaw(retail)
		p.DiscountedPrice = nullRaw(discounted)
		p.Specifications = nullRaw(specs)
		products = append(products, p)
	}
	return products, rows.Err()
}

// writeSQLite replaces the database at path with the contents of cat.
func writeSQLite(ctx context.Context, path string, cat *Catalog) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove existing database: %w", err)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO products (position, uniq_id, product_name, product_category_tree, retail_price,
			discounted_price, first_image_url, product_specifications, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, p := range cat.Products() {
		_, err := stmt.ExecContext(ctx, i, p.ID, p.Name,
			rawNull(p.Category), rawNull(p.RetailPrice), rawNull(p.DiscountedPrice),
			p.ImageURL, rawNull(p.Specifications), vector.EncodeEmbedding(p.Embedding))
		if err != nil {
			return fmt.Errorf("insert product %q: %w", p.ID, err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO catalog_meta (key, value) VALUES ('dimensions', ?)`,
		strconv.Itoa(cat.Dimensions())); err != nil {
		return fmt.Errorf("write catalog metadata: %w", err)
	}
	return tx.Commit()
}

func nullRaw(s sql.NullString) json.RawMessage {
	if !s.Valid {
		return nil
	}
	return json.RawMessage(s.String)
}

func rawNull(r json.RawMessage) sql.NullString {
	if r == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(r), Valid: true}
}
