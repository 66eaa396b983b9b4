package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/lookalike/internal/vector"
)

// xlsxColumns is the header row written by writeXLSX; readXLSX accepts the
// columns in any order.
var xlsxColumns = []string{
	"uniq_id",
	"product_name",
	"product_category_tree",
	"retail_price",
	"discounted_price",
	"first_image_url",
	"product_specifications",
	"embedding",
}

// readXLSX reads products from the first sheet. Cells holding valid JSON are
// kept as raw JSON; other metadata cells become JSON strings. The embedding
// cell must hold a JSON array of numbers.
func readXLSX(path string) ([]Product, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, errors.New("sheet has no header row")
	}
	cols := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"uniq_id", "embedding"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing %s column", required)
		}
	}

	products := make([]Product, 0, len(rows)-1)
	for i, row := range rows[1:] {
		cell := func(name string) string {
			idx, ok := cols[name]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}
		if strings.TrimSpace(strings.Join(row, "")) == "" {
			continue
		}
		var nums []json.Number
		if err := json.Unmarshal([]byte(cell("embedding")), &nums); err != nil {
			return nil, fmt.Errorf("row %d: embedding: %w", i+2, err)
		}
		emb, err := vector.ParseNumbers(nums)
		if err != nil {
			return nil, fmt.Errorf("row %d: embedding: %w", i+2, err)
		}
		products = append(products, Product{
			ID:              cell("uniq_id"),
			Name:            cell("product_name"),
			Category:        rawCell(cell("product_category_tree")),
			RetailPrice:     rawCell(cell("retail_price")),
			DiscountedPrice: rawCell(cell("discounted_price")),
			ImageURL:        cell("first_image_url"),
			Specifications:  rawCell(cell("product_specifications")),
			Embedding:       emb,
		})
	}
	return products, nil
}

func rawCell(s string) json.RawMessage {
	if s == "" {
		return nil
	}
	if json.Valid([]byte(s)) {
		return json.RawMessage(s)
	}
	b, _ := json.Marshal(s)
	return b
}

func writeXLSX(path string, cat *Catalog) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	header := make([]interface{}, len(xlsxColumns))
	for i, c := range xlsxColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, p := range cat.Products() {
		emb, err := json.Marshal(vector.FormatNumbers(p.Embedding))
		if err != nil {
			return fmt.Errorf("marshal embedding of %q: %w", p.ID, err)
		}
		row := []interface{}{
			p.ID,
			p.Name,
			string(p.Category),
			string(p.RetailPrice),
			string(p.DiscountedPrice),
			p.ImageURL,
			string(p.Specifications),
			string(emb),
		}
		cellRef, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cellRef, &row); err != nil {
			return fmt.Errorf("write row for %q: %w", p.ID, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}
