package io

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"

	"github.com/geniass/xpath-scraper/pkg/scraper"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Table appends records to a CSV file. Rows are on disk when Append returns.
type Table struct {
	path    string
	f       *os.File
	bom     *transform.Writer // set when this Table started the file
	w       *csv.Writer
	columns []string
}

// OpenTable opens path for appending, creating it if needed. A new or empty
// file gets a UTF-8 byte-order mark and the header row; an existing one is
// appended to as is.
func OpenTable(path string, columns []string) (*Table, error) {
	if len(columns) == 0 {
		return nil, scraper.ErrNoColumns
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	t := &Table{
		path:    path,
		f:       f,
		columns: append([]string(nil), columns...),
	}
	fresh := info.Size() == 0
	if fresh {
		t.bom = transform.NewWriter(f, unicode.UTF8BOM.NewEncoder())
		t.w = csv.NewWriter(t.bom)
	} else {
		t.w = csv.NewWriter(f)
	}
	t.w.UseCRLF = true

	if fresh {
		if err := t.writeRow(t.columns); err != nil {
			f.Close()
			return nil, fmt.Errorf("writing header to %s: %w", path, err)
		}
	}
	return t, nil
}

func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Append writes r in column order and syncs the file.
func (t *Table) Append(r scraper.Record) error {
	if err := t.writeRow(r.Row(t.columns)); err != nil {
		return fmt.Errorf("appending to %s: %w", t.path, err)
	}
	return nil
}

func (t *Table) writeRow(row []string) error {
	if err := t.w.Write(row); err != nil {
		return err
	}
	t.w.Flush()
	if err := t.w.Error(); err != nil {
		return err
	}
	return t.f.Sync()
}

func (t *Table) Close() error {
	var errs []error
	if t.bom != nil {
		errs = append(errs, t.bom.Close())
	}
	errs = append(errs, t.f.Close())
	return errors.Join(errs...)
}
