package io

import (
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const sheetName = "Sheet1"

var (
	ErrSpreadsheetPath = errors.New("csv path already has the .xlsx extension")
	ErrEmptyCSV        = errors.New("csv has no header row")
)

// SpreadsheetPath is csvPath with its extension replaced by .xlsx.
func SpreadsheetPath(csvPath string) (string, error) {
	ext := filepath.Ext(csvPath)
	if strings.EqualFold(ext, ".xlsx") {
		return "", fmt.Errorf("%w: %s", ErrSpreadsheetPath, csvPath)
	}
	if ext == filepath.Base(csvPath) {
		// dotfile such as ".csv": nothing to replace
		ext = ""
	}
	return strings.TrimSuffix(csvPath, ext) + ".xlsx", nil
}

// ExportXLSX converts the CSV at csvPath into a single-sheet workbook next to
// it and returns the workbook's path. Columns whose non-empty values all parse
// as numbers are written as numbers. The workbook appears atomically; on error
// nothing is left behind.
func ExportXLSX(csvPath string) (string, error) {
	xlsxPath, err := SpreadsheetPath(csvPath)
	if err != nil {
		return "", err
	}

	rows, err := readCSV(csvPath)
	if err != nil {
		return "", err
	}

	wb, err := buildWorkbook(rows)
	if err != nil {
		return "", err
	}
	defer wb.Close()

	if err := writeAtomic(wb, xlsxPath); err != nil {
		return "", err
	}
	return xlsxPath, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(transform.NewReader(f, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyCSV, path)
	}
	return rows, nil
}

func buildWorkbook(rows [][]string) (*excelize.File, error) {
	wb := excelize.NewFile()
	ok := false
	defer func() {
		if !ok {
			wb.Close()
		}
	}()

	sw, err := wb.NewStreamWriter(sheetName)
	if err != nil {
		return nil, err
	}
	headerStyle, err := wb.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	numeric := numericColumns(rows[1:], len(rows[0]))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}

		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = cellValue(v, i > 0 && numeric[j])
		}

		var opts []excelize.RowOpts
		if i == 0 {
			opts = append(opts, excelize.RowOpts{StyleID: headerStyle})
		}
		if err := sw.SetRow(cell, values, opts...); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return nil, err
	}

	ok = true
	return wb, nil
}

// numericColumns reports, per column, whether there is at least one value
// and every non-empty value is a finite number.
func numericColumns(rows [][]string, width int) []bool {
	numeric := make([]bool, width)
	seen := make([]bool, width)
	for j := range numeric {
		numeric[j] = true
	}
	for _, row := range rows {
		for j, v := range row {
			if v == "" || !numeric[j] {
				continue
			}
			seen[j] = true
			if _, ok := parseNumber(v); !ok {
				numeric[j] = false
			}
		}
	}
	for j := range numeric {
		numeric[j] = numeric[j] && seen[j]
	}
	return numeric
}

func cellValue(v string, numeric bool) interface{} {
	if v == "" {
		return nil
	}
	if numeric {
		if n, ok := parseNumber(v); ok {
			return n
		}
	}
	return v
}

func parseNumber(v string) (interface{}, bool) {
	if i, err := strconv.ParseInt(v, 10, 64); err == nil {
		return i, true
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return nil, false
	}
	return f, true
}

func writeAtomic(wb *excelize.File, path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := wb.WriteTo(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("writing workbook: %w", err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
