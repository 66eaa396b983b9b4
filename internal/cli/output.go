// Package cli renders query results for the lookalike command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/hyperjump/lookalike/internal/keyword"
	"github.com/hyperjump/lookalike/internal/models"
	"github.com/hyperjump/lookalike/pkg/utils"
	"github.com/shopspring/decimal"
)

// OutputFormat is the format for result output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputCompact is one tab-separated line per result.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// maxNameLen bounds product names in text output.
const maxNameLen = 80

// ParseOutputFormat validates a -output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case OutputText, OutputCompact, OutputJSON:
		return f, nil
	case "":
		return OutputText, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, compact or json)", s)
	}
}

// WriteQueryResults writes similarity results to w in the given format.
func WriteQueryResults(w io.Writer, resp *models.QueryResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, resp)
	case OutputCompact:
		return writeCompact(w, resp.Results)
	default:
		fmt.Fprintf(w, "\nFound %d similar products in %dms (embedding %dms, catalog of %d)\n\n",
			len(resp.Results), resp.QueryTime, resp.EmbedTime, resp.CatalogSize)
		for _, r := range resp.Results {
			writeOneResult(w, r, true)
		}
		return nil
	}
}

// WriteLookupResults writes keyword lookup results to w in the given format.
func WriteLookupResults(w io.Writer, resp *models.LookupResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, resp)
	case OutputCompact:
		return writeCompact(w, resp.Results)
	default:
		fmt.Fprintf(w, "\nFound %d products matching %q\n\n", resp.Total, resp.Query)
		if resp.Total == 0 && resp.Suggestion != "" {
			color.New(color.FgYellow).Fprintf(w, "Did you mean %q?\n\n", resp.Suggestion)
		}
		for _, r := range resp.Results {
			writeOneResult(w, r, false)
		}
		return nil
	}
}

// WriteStatus writes a status response to w in the given format.
func WriteStatus(w io.Writer, st *models.StatusResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, st)
	}
	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Fprintln(w, "Catalog")
	fmt.Fprintf(w, "  source:      %s\n", st.CatalogSource)
	fmt.Fprintf(w, "  products:    %d\n", st.CatalogSize)
	fmt.Fprintf(w, "  dimensions:  %d\n", st.Dimensions)
	if st.ZeroNormCount > 0 {
		color.New(color.FgYellow).Fprintf(w, "  zero-norm:   %d\n", st.ZeroNormCount)
	}
	fmt.Fprintf(w, "  loaded at:   %s\n", st.LoadedAt)
	fmt.Fprintf(w, "  watching:    %t\n", st.CatalogWatching)
	cyan.Fprintln(w, "Query")
	fmt.Fprintf(w, "  embedder:    %s\n", st.Embedder)
	fmt.Fprintf(w, "  top k:       %d (max %d)\n", st.DefaultTopK, st.MaxTopK)
	fmt.Fprintf(w, "  max upload:  %d bytes\n", st.MaxUploadBytes)
	fmt.Fprintf(w, "  lookup:      %t\n", st.KeywordLookup)
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCompact(w io.Writer, results []*models.ProductResult) error {
	for _, r := range results {
		if _, err := fmt.Fprintf(w, "%d\t%.4f\t%s\t%s\n", r.Rank, r.Similarity, r.ID, r.Name); err != nil {
			return err
		}
	}
	return nil
}

func writeOneResult(w io.Writer, r *models.ProductResult, showSimilarity bool) {
	bold := color.New(color.Bold)
	gray := color.New(color.FgHiBlack)
	green := color.New(color.FgGreen)

	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	if showSimilarity {
		fmt.Fprintf(w, "Rank: %d | Similarity: ", r.Rank)
		green.Fprintf(w, "%.4f\n", r.Similarity)
	} else {
		fmt.Fprintf(w, "Rank: %d\n", r.Rank)
	}
	bold.Fprintln(w, utils.Truncate(r.Name, maxNameLen))
	gray.Fprintf(w, "ID: %s\n", r.ID)
	if cat := keyword.CategoryText(r.Category); cat != "" {
		fmt.Fprintf(w, "Category: %s\n", utils.Truncate(cat, maxNameLen))
	}
	if price := FormatPrice(r.RetailPrice, r.DiscountedPrice); price != "" {
		fmt.Fprintf(w, "Price: %s\n", price)
	}
	if r.Image != "" {
		fmt.Fprintf(w, "Image: %s\n", r.Image)
	}
	fmt.Fprintln(w)
}

// FormatPrice renders retail and discounted prices. When both are known and
// the discounted price is lower, the discount is shown as a whole percentage.
// It returns "" when neither price can be read.
func FormatPrice(retailRaw, discountedRaw json.RawMessage) string {
	retail, hasRetail := ParsePrice(retailRaw)
	discounted, hasDiscounted := ParsePrice(discountedRaw)
	switch {
	case hasRetail && hasDiscounted && discounted.LessThan(retail) && retail.IsPositive():
		off := retail.Sub(discounted).Div(retail).Mul(decimal.NewFromInt(100)).Round(0)
		return fmt.Sprintf("%s (was %s, %s%% off)", discounted.StringFixed(2), retail.StringFixed(2), off.String())
	case hasDiscounted:
		return discounted.StringFixed(2)
	case hasRetail:
		return retail.StringFixed(2)
	default:
		return ""
	}
}

// ParsePrice reads a price stored as a JSON number or numeric string.
// Negative prices are rejected.
func ParsePrice(raw json.RawMessage) (decimal.Decimal, bool) {
	if len(raw) == 0 {
		return decimal.Zero, false
	}
	s := strings.TrimSpace(string(raw))
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		s = strings.ReplaceAll(strings.TrimSpace(str), ",", "")
	}
	if s == "" || s == "null" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero, false
	}
	return d, true
}
