package scraper

import (
	"errors"
	"fmt"
	"log/slog"
)

var ErrNoCallback = errors.New("record callback is nil")

// NewScraper wires a Fetcher and an Extractor together. callback receives
// every successfully scraped record, in input order.
func NewScraper(cfg Config, callback RecordCallbackFunc) (*Scraper, error) {
	if callback == nil {
		return nil, ErrNoCallback
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Table.Len() == 0 {
		return nil, ErrNoColumns
	}

	fetcher, err := NewFetcher(cfg)
	if err != nil {
		return nil, err
	}

	return &Scraper{
		fetcher:   fetcher,
		extractor: NewExtractor(cfg.Table, cfg.Logger),
		callback:  callback,
		log:       cfg.Logger,
	}, nil
}

// Run scrapes urls sequentially. A page that cannot be fetched is logged and
// skipped. An error from the callback stops the run and is returned.
func (s *Scraper) Run(urls []string) (Stats, error) {
	stats := Stats{Total: len(urls)}

	for i, url := range urls {
		progress := fmt.Sprintf("%d/%d", i+1, len(urls))
		s.log.Info("scraping", "progress", progress, "url", url)

		markup, err := s.fetcher.Fetch(url)
		if err != nil {
			stats.Failed++
			s.log.Error("skipping page", "progress", progress, "url", url, "err", err)
			continue
		}

		rec := s.extractor.Extract(markup, url)
		if err := s.callback(rec); err != nil {
			return stats, fmt.Errorf("saving record for %s: %w", url, err)
		}
		stats.Saved++
		s.log.Info("saved", "progress", progress, "product_url", rec[ColumnProductURL])
	}

	return stats, nil
}
