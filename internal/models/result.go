// Package models defines the request and response shapes of the query API.
package models

import "encoding/json"

// ProductResult is the caller-visible projection of a ranked product. It
// never carries the embedding or its norm. JSON keys match the legacy
// find-similar API.
type ProductResult struct {
	ID              string          `json:"uniq_id"`
	Name            string          `json:"product_name"`
	Category        json.RawMessage `json:"category"`
	RetailPrice     json.RawMessage `json:"retail_price"`
	DiscountedPrice json.RawMessage `json:"discounted_price"`
	Image           string          `json:"image"`
	Specifications  json.RawMessage `json:"product_specifications"`
	Similarity      float64         `json:"similarity"`
	Rank            int             `json:"rank"`
}

// QueryResponse is the response for a similarity query.
type QueryResponse struct {
	Results     []*ProductResult `json:"results"`
	TopK        int              `json:"top_k"`
	CatalogSize int              `json:"catalog_size"`
	QueryTime   int64            `json:"query_time_ms"`
	EmbedTime   int64            `json:"embed_time_ms"`
}

// LookupResponse is the response for a keyword product lookup.
type LookupResponse struct {
	Query      string           `json:"query"`
	Results    []*ProductResult `json:"results"`
	Total      int              `json:"total"`
	Suggestion string           `json:"did_you_mean,omitempty"`
}

// StatusResponse describes the serving catalog and embedder.
type StatusResponse struct {
	CatalogSource   string `json:"catalog_source"`
	CatalogSize     int    `json:"catalog_size"`
	Dimensions      int    `json:"dimensions"`
	ZeroNormCount   int    `json:"zero_norm_products,omitempty"`
	LoadedAt        string `json:"loaded_at"`
	Embedder        string `json:"embedder"`
	DefaultTopK     int    `json:"default_top_k"`
	MaxTopK         int    `json:"max_top_k"`
	MaxUploadBytes  int64  `json:"max_upload_bytes"`
	KeywordLookup   bool   `json:"keyword_lookup"`
	CatalogWatching bool   `json:"catalog_watching"`
}
