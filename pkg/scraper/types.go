package scraper

import (
	"log/slog"
	"time"
)

// Config holds the knobs for a scrape run. The zero value is not usable, start
// from DefaultConfig.
type Config struct {
	// Timeout bounds a single request, including reading the body.
	Timeout time.Duration

	// Delay and RandomDelay are slept after every request, whatever its outcome.
	Delay       time.Duration
	RandomDelay time.Duration

	// UserAgents is sampled uniformly for each request.
	UserAgents []string

	Table  SelectorTable
	Logger *slog.Logger
}

var defaultUserAgents = []string{
	"Mozilla/5.0 (compatible; XpathScraper/5.0; +https://example.com)",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
}

func DefaultConfig() Config {
	return Config{
		Timeout:     20 * time.Second,
		Delay:       1 * time.Second,
		RandomDelay: 4 * time.Second,
		UserAgents:  append([]string(nil), defaultUserAgents...),
		Table:       DefaultSelectorTable(),
		Logger:      slog.Default(),
	}
}

// Record is one scraped page: url, product_url and one value per selector
// table field. Missing values are empty strings, never absent keys.
type Record map[string]string

// Row returns the record's values in column order.
func (r Record) Row(columns []string) []string {
	row := make([]string, len(columns))
	for i, c := range columns {
		row[i] = r[c]
	}
	return row
}

type RecordCallbackFunc func(r Record) error

// Stats summarises a run.
type Stats struct {
	Total  int
	Saved  int
	Failed int
}

type Scraper struct {
	fetcher   *Fetcher
	extractor *Extractor
	callback  RecordCallbackFunc
	log       *slog.Logger
}
