package scraper

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"golang.org/x/net/html"
)

var styleURLRegex = regexp.MustCompile(`url\(['"]?(.*?)['"]?\)`)

// canonicalURLQueries are tried in order; the first non-empty value wins.
var canonicalURLQueries = []*xpath.Expr{
	xpath.MustCompile(`//link[@rel="canonical"]/@href`),
	xpath.MustCompile(`//meta[@property="og:url"]/@content`),
}

type compiledField struct {
	Field
	xpath *xpath.Expr
	css   cascadia.Selector
	err   error
}

// Extractor turns page markup into a Record using a fixed selector table.
type Extractor struct {
	fields []compiledField
	log    *slog.Logger
}

// NewExtractor compiles every selector up front. A selector that does not
// compile is reported once here and yields "" for every page.
func NewExtractor(table SelectorTable, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Extractor{log: logger}
	for _, f := range table.fields {
		cf := compileField(f)
		if cf.err != nil {
			logger.Warn("invalid selector, field will stay empty", "field", f.Name, "selector", f.Selector, "err", cf.err)
		}
		e.fields = append(e.fields, cf)
	}
	return e
}

func compileField(f Field) compiledField {
	cf := compiledField{Field: f}
	sel := strings.TrimSpace(f.Selector)
	if strings.HasPrefix(sel, cssPrefix) {
		cf.css, cf.err = cascadia.Compile(strings.TrimSpace(strings.TrimPrefix(sel, cssPrefix)))
		return cf
	}
	cf.xpath, cf.err = xpath.Compile(strings.TrimSpace(strings.TrimPrefix(sel, xpathPrefix)))
	return cf
}

// Extract never fails: unparseable pages and unmatched selectors give empty
// values, and product_url falls back to inputURL.
func (e *Extractor) Extract(markup, inputURL string) Record {
	rec := make(Record, len(e.fields)+2)
	rec[ColumnURL] = inputURL
	rec[ColumnProductURL] = inputURL
	for _, f := range e.fields {
		rec[f.Name] = ""
	}

	root, err := htmlquery.Parse(strings.NewReader(markup))
	if err != nil {
		e.log.Warn("could not parse page", "url", inputURL, "err", err)
		return rec
	}
	p := &page{root: root, doc: goquery.NewDocumentFromNode(root)}

	rec[ColumnProductURL] = p.canonicalURL(inputURL)
	for _, f := range e.fields {
		rec[f.Name] = e.value(p, f)
	}
	return rec
}

func (e *Extractor) value(p *page, f compiledField) (v string) {
	if f.err != nil {
		return ""
	}
	defer func() {
		if r := recover(); r != nil {
			e.log.Debug("selector evaluation failed", "field", f.Name, "panic", r)
			v = ""
		}
	}()

	var m match
	var ok bool
	if f.css != nil {
		m, ok = p.firstCSS(f.css)
	} else {
		m, ok = p.firstXPath(f.xpath)
	}
	if !ok {
		return ""
	}
	return m.value(f.Raw)
}

type page struct {
	root *html.Node
	doc  *goquery.Document
}

func (p *page) canonicalURL(fallback string) string {
	for _, q := range canonicalURLQueries {
		if m, ok := p.firstXPath(q); ok {
			if v := m.value(false); v != "" {
				return v
			}
		}
	}
	return fallback
}

// firstXPath returns the first result of expr in document order. Expressions
// that evaluate to a scalar (string(), count(), ...) yield that scalar.
func (p *page) firstXPath(expr *xpath.Expr) (match, bool) {
	switch v := expr.Evaluate(htmlquery.CreateXPathNavigator(p.root)).(type) {
	case string:
		return match{text: v}, true
	case float64:
		return match{text: strconv.FormatFloat(v, 'f', -1, 64)}, true
	case bool:
		return match{text: strconv.FormatBool(v)}, true
	case *xpath.NodeIterator:
		if !v.MoveNext() {
			return match{}, false
		}
		nav, ok := v.Current().(*htmlquery.NodeNavigator)
		if !ok {
			return match{}, false
		}
		switch nav.NodeType() {
		case xpath.ElementNode, xpath.RootNode:
			return match{node: nav.Current()}, true
		default:
			// attribute, text and comment nodes are plain strings
			return match{text: nav.Value()}, true
		}
	}
	return match{}, false
}

func (p *page) firstCSS(sel cascadia.Selector) (match, bool) {
	s := p.doc.FindMatcher(goquery.SingleMatcher(sel))
	if s.Length() == 0 {
		return match{}, false
	}
	return match{node: s.Get(0)}, true
}

// match is either an element (node != nil) or a plain string.
type match struct {
	node *html.Node
	text string
}

// value applies the result dispatch: raw markup, plain string, src attribute,
// url(...) in an inline style, then text content.
func (m match) value(raw bool) string {
	if m.node == nil {
		return strings.TrimSpace(m.text)
	}
	if raw {
		return strings.TrimSpace(htmlquery.OutputHTML(m.node, true))
	}
	if src := attr(m.node, "src"); src != "" {
		return strings.TrimSpace(src)
	}
	if sm := styleURLRegex.FindStringSubmatch(attr(m.node, "style")); sm != nil {
		return strings.TrimSpace(sm[1])
	}
	return strings.TrimSpace(htmlquery.InnerText(m.node))
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
