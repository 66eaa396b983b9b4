package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/hyperjump/lookalike/internal/vector"
)

// record is the on-disk shape of a product, using the field names of the
// product_features.json export.
type record struct {
	ID              json.RawMessage `json:"uniq_id"`
	Name            string          `json:"product_name"`
	Category        json.RawMessage `json:"product_category_tree,omitempty"`
	RetailPrice     json.RawMessage `json:"retail_price,omitempty"`
	DiscountedPrice json.RawMessage `json:"discounted_price,omitempty"`
	ImageURL        string          `json:"first_image_url,omitempty"`
	Specifications  json.RawMessage `json:"product_specifications,omitempty"`
	Embedding       []json.Number   `json:"embedding"`
}

func readJSONFile(path string) ([]Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return decodeJSON(data)
}

func decodeJSON(data []byte) ([]Product, error) {
	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	products := make([]Product, 0, len(records))
	for i, r := range records {
		id, err := parseID(r.ID)
		if err != nil {
			return nil, fmt.Errorf("product %d: %w", i, err)
		}
		emb, err := vector.ParseNumbers(r.Embedding)
		if err != nil {
			return nil, fmt.Errorf("product %q: embedding: %w", id, err)
		}
		products = append(products, Product{
			ID:              id,
			Name:            r.Name,
			Category:        r.Category,
			RetailPrice:     r.RetailPrice,
			DiscountedPrice: r.DiscountedPrice,
			ImageURL:        r.ImageURL,
			Specifications:  r.Specifications,
			Embedding:       emb,
		})
	}
	return products, nil
}

// parseID accepts a JSON string or number.
func parseID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("uniq_id: %w", err)
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("uniq_id must be a string or number: %w", err)
	}
	return n.String(), nil
}

func toRecord(p *Product) record {
	id, _ := json.Marshal(p.ID)
	return record{
		ID:              id,
		Name:            p.Name,
		Category:        p.Category,
		RetailPrice:     p.RetailPrice,
		DiscountedPrice: p.DiscountedPrice,
		ImageURL:        p.ImageURL,
		Specifications:  p.Specifications,
		Embedding:       vector.FormatNumbers(p.Embedding),
	}
}

func writeJSONFile(path string, cat *Catalog) error {
	records := make([]record, 0, cat.Len())
	for _, p := range cat.Products() {
		records = append(records, toRecord(p))
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	return nil
}
