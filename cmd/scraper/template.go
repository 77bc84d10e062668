package main

import (
	"text/template"

	"github.com/geniass/xpath-scraper/pkg/scraper"
)

type summary struct {
	Stats    scraper.Stats
	CSVPath  string
	XLSXPath string
}

var summaryTemplate = template.Must(template.New("summaryTemplate").Parse(
	`Scraped {{ .Stats.Saved }} of {{ .Stats.Total }} pages
{{- if gt .Stats.Failed 0 }} ({{ .Stats.Failed }} failed){{ end }}
CSV: {{ .CSVPath }}
Done! Excel saved to {{ .XLSXPath }}
`,
))
