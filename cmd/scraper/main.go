package main

import (
	"flag"
	"io"
	"log/slog"
	"os"
	"time"

	cli "github.com/jawher/mow.cli"
	"github.com/lmittmann/tint"

	xio "github.com/geniass/xpath-scraper/pkg/io"
	"github.com/geniass/xpath-scraper/pkg/scraper"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: time.Kitchen,
	})))

	os.Exit(run(os.Args, os.Stdout, scraper.DefaultConfig()))
}

// run parses args (program name first) and returns the process exit code.
func run(args []string, stdout io.Writer, cfg scraper.Config) int {
	app := cli.App("xpath-scraper", "Scrape product pages into a CSV file, then convert it to a spreadsheet")
	app.ErrorHandling = flag.ContinueOnError
	app.Spec = "URLS OUTPUT"

	urlsPath := app.StringArg("URLS", "", "text file with one product URL per line")
	outPath := app.StringArg("OUTPUT", "", "CSV file to append to; the .xlsx is written next to it")

	code := exitOK
	app.Action = func() {
		code = scrape(*urlsPath, *outPath, stdout, cfg)
	}

	if err := app.Run(args); err != nil {
		return exitUsage
	}
	return code
}

func scrape(urlsPath, outPath string, stdout io.Writer, cfg scraper.Config) int {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	log := cfg.Logger

	if _, err := xio.SpreadsheetPath(outPath); err != nil {
		log.Error("invalid output path", "err", err)
		return exitError
	}

	urls, err := xio.LoadURLs(urlsPath)
	if err != nil {
		log.Error("could not load URLs", "path", urlsPath, "err", err)
		return exitError
	}
	if len(urls) == 0 {
		log.Info("no URLs to scrape", "path", urlsPath)
		return exitOK
	}

	table, err := xio.OpenTable(outPath, cfg.Table.Columns())
	if err != nil {
		log.Error("could not open output", "path", outPath, "err", err)
		return exitError
	}

	s, err := scraper.NewScraper(cfg, table.Append)
	if err != nil {
		table.Close()
		log.Error("could not create scraper", "err", err)
		return exitError
	}

	stats, runErr := s.Run(urls)
	if err := table.Close(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		log.Error("scrape aborted", "saved", stats.Saved, "err", runErr)
		return exitError
	}

	log.Info("converting CSV to XLSX", "path", outPath)
	xlsxPath, err := xio.ExportXLSX(outPath)
	if err != nil {
		log.Error("could not export spreadsheet", "path", outPath, "err", err)
		return exitError
	}

	if err := summaryTemplate.Execute(stdout, summary{
		Stats:    stats,
		CSVPath:  outPath,
		XLSXPath: xlsxPath,
	}); err != nil {
		log.Error("could not print summary", "err", err)
	}
	return exitOK
}
