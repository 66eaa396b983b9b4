// Package keyword indexes product names and categories with Bleve so
// products can be looked up by text.
package keyword

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
	"github.com/hyperjump/lookalike/internal/catalog"
	"go.uber.org/zap"
)

const (
	fieldName     = "name"
	fieldCategory = "category"
	nameBoost     = 2.0
)

var (
	// ErrEmptyQuery is returned by Search for a blank query.
	ErrEmptyQuery = errors.New("query is empty")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("keyword index is closed")
)

// Hit is one lookup result.
type Hit struct {
	Product *catalog.Product
	Score   float64
}

// Index is an in-memory Bleve index over one catalog snapshot. Rebuild
// replaces the index and its catalog together.
type Index struct {
	mu     sync.RWMutex
	index  bleve.Index
	cat    *catalog.Catalog
	vocab  map[string]uint64
	logger *zap.Logger
}

// NewIndex builds an index for cat.
func NewIndex(cat *catalog.Catalog, logger *zap.Logger) (*Index, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	idx := &Index{logger: logger}
	if err := idx.Rebuild(cat); err != nil {
		return nil, err
	}
	return idx, nil
}

func newMapping() *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	text := bleve.NewTextFieldMapping()
	// Standard analyzer: lowercase and tokenize without stemming, so brand
	// names and sizes match as typed.
	text.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt(fieldName, text)
	docMapping.AddFieldMappingsAt(fieldCategory, text)
	im.AddDocumentMapping("product", docMapping)
	im.DefaultType = "product"
	im.DefaultMapping = docMapping
	return im
}

// Rebuild indexes cat into a fresh index and swaps it in. Searches running
// against the previous index finish before it is closed.
func (i *Index) Rebuild(cat *catalog.Catalog) error {
	next, err := bleve.NewMemOnly(newMapping())
	if err != nil {
		return fmt.Errorf("create keyword index: %w", err)
	}
	batch := next.NewBatch()
	for _, p := range cat.Products() {
		doc := map[string]interface{}{
			fieldName:     p.Name,
			fieldCategory: CategoryText(p.Category),
		}
		if err := batch.Index(p.ID, doc); err != nil {
			_ = next.Close()
			return fmt.Errorf("index product %q: %w", p.ID, err)
		}
	}
	if err := next.Batch(batch); err != nil {
		_ = next.Close()
		return fmt.Errorf("commit keyword index: %w", err)
	}
	vocab, err := loadVocabulary(next, fieldName, fieldCategory)
	if err != nil {
		_ = next.Close()
		return err
	}

	i.mu.Lock()
	prev := i.index
	i.index = next
	i.cat = cat
	i.vocab = vocab
	i.mu.Unlock()

	if prev != nil {
		if err := prev.Close(); err != nil {
			i.logger.Warn("failed to close previous keyword index", zap.Error(err))
		}
	}
	i.logger.Debug("keyword index built", zap.Int("products", cat.Len()))
	return nil
}

// Search returns up to limit products whose name or category match q,
// best first. Name matches weigh more than category matches. Equal scores
// keep catalog order.
func (i *Index) Search(ctx context.Context, q string, limit int) ([]Hit, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = 10
	}

	nameQuery := bleve.NewMatchQuery(q)
	nameQuery.SetField(fieldName)
	nameQuery.SetBoost(nameBoost)
	categoryQuery := bleve.NewMatchQuery(q)
	categoryQuery.SetField(fieldCategory)
	var query blevequery.Query = bleve.NewDisjunctionQuery(nameQuery, categoryQuery)

	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.index == nil {
		return nil, ErrClosed
	}

	req := bleve.NewSearchRequestOptions(query, limit, 0, false)
	res, err := i.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}
	hits := make([]Hit, 0, len(res.Hits))
	positions := make([]int, 0, len(res.Hits))
	for _, h := range res.Hits {
		pos, ok := i.cat.Position(h.ID)
		if !ok {
			continue
		}
		hits = append(hits, Hit{Product: i.cat.At(pos), Score: h.Score})
		positions = append(positions, pos)
	}
	sort.Sort(byScore{hits: hits, positions: positions})
	return hits, nil
}

// DocCount returns the number of indexed products.
func (i *Index) DocCount() (uint64, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.index == nil {
		return 0, ErrClosed
	}
	return i.index.DocCount()
}

// Close releases the index.
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.index == nil {
		return nil
	}
	err := i.index.Close()
	i.index = nil
	return err
}

type byScore struct {
	hits      []Hit
	positions []int
}

func (s byScore) Len() int { return len(s.hits) }

func (s byScore) Less(a, b int) bool {
	if s.hits[a].Score != s.hits[b].Score {
		return s.hits[a].Score > s.hits[b].Score
	}
	return s.positions[a] < s.positions[b]
}

func (s byScore) Swap(a, b int) {
	s.hits[a], s.hits[b] = s.hits[b], s.hits[a]
	s.positions[a], s.positions[b] = s.positions[b], s.positions[a]
}

// CategoryText flattens a raw category value into searchable text. The
// value may be a JSON string, an array of strings or any other JSON value.
func CategoryText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		// Category trees are often a JSON list serialised into a string.
		if strings.HasPrefix(strings.TrimSpace(s), "[") {
			var inner []string
			if err := json.Unmarshal([]byte(s), &inner); err == nil {
				return strings.Join(inner, " ")
			}
		}
		return s
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, " ")
	}
	return string(raw)
}
