package scraper

import (
	"errors"
	"fmt"
	"strings"
)

const (
	ColumnURL        = "url"
	ColumnProductURL = "product_url"

	cssPrefix   = "css:"
	xpathPrefix = "xpath:"
)

var ErrNoColumns = errors.New("selector table has no fields")

// Field maps an output column to a selector. Selectors are XPath expressions
// unless prefixed with "css:".
type Field struct {
	Name     string
	Selector string

	// Raw fields capture the first match serialized back to markup.
	Raw bool
}

// SelectorTable is an ordered, immutable list of fields.
type SelectorTable struct {
	fields []Field
}

func NewSelectorTable(fields ...Field) (SelectorTable, error) {
	if len(fields) == 0 {
		return SelectorTable{}, ErrNoColumns
	}
	seen := map[string]bool{ColumnURL: true, ColumnProductURL: true}
	for _, f := range fields {
		if strings.TrimSpace(f.Name) == "" {
			return SelectorTable{}, fmt.Errorf("field with selector %q has no name", f.Selector)
		}
		if seen[f.Name] {
			return SelectorTable{}, fmt.Errorf("duplicate or reserved field name %q", f.Name)
		}
		seen[f.Name] = true
	}
	return SelectorTable{fields: append([]Field(nil), fields...)}, nil
}

func mustSelectorTable(fields ...Field) SelectorTable {
	t, err := NewSelectorTable(fields...)
	if err != nil {
		panic(err)
	}
	return t
}

// Fields returns a copy of the table's fields.
func (t SelectorTable) Fields() []Field {
	return append([]Field(nil), t.fields...)
}

func (t SelectorTable) Len() int {
	return len(t.fields)
}

// Columns is the CSV header: url, product_url, then the fields in table order.
func (t SelectorTable) Columns() []string {
	cols := make([]string, 0, len(t.fields)+2)
	cols = append(cols, ColumnURL, ColumnProductURL)
	for _, f := range t.fields {
		cols = append(cols, f.Name)
	}
	return cols
}

// DefaultSelectorTable is the product page layout the scraper was built for.
func DefaultSelectorTable() SelectorTable {
	return mustSelectorTable(
		Field{Name: "breadcrumb", Selector: `//*[@id="breadcrumb"]`},
		Field{Name: "brand", Selector: `//*[@id="product-header"]/div[2]/div[1]/div[1]/div/a/span`},
		Field{Name: "title", Selector: `//*[@id="product-header"]/div[2]/div[1]/div[1]/div/h1`},
		Field{Name: "subtitle", Selector: `//*[@id="product-header"]/div[2]/div[1]/div[1]/div/span/div/div[2]/text()`},
		Field{Name: "desc_p1", Selector: `//*[@id="product-info"]/div/div[1]/p[1]`},
		Field{Name: "desc_p2", Selector: `//*[@id="product-info"]/div/div[1]/p[2]`},
		Field{Name: "desc_html", Selector: `//*[@id="product-info"]/div/div[1]`, Raw: true},
		Field{Name: "price", Selector: `//*[@id="product-info"]/div/div[2]/span[1]/text()[1]`},
		Field{Name: "compare_price", Selector: `//*[@id="product-info"]/div/div[2]/span[4]`},
		Field{Name: "video_embed", Selector: `//*[@id="player"]`},
		Field{Name: "img1", Selector: `//*[@id="preview"]/div[1]/div[1]/div[1]/img`},
		Field{Name: "img2", Selector: `//*[@id="preview"]/div[2]/div/div[2]`},
		Field{Name: "img3", Selector: `//*[@id="preview"]/div[2]/div/div[3]`},
		Field{Name: "img4", Selector: `//*[@id="preview"]/div[2]/div/div[4]`},
		Field{Name: "img5", Selector: `//*[@id="preview"]/div[2]/div/div[5]`},
	)
}
