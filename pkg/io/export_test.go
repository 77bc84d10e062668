package io

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/geniass/xpath-scraper/pkg/scraper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func readSheet(t *testing.T, path string) (*excelize.File, [][]string) {
	t.Helper()
	wb, err := excelize.OpenFile(path)
	require.NoError(t, err)
	t.Cleanup(func() { wb.Close() })

	rows, err := wb.GetRows(sheetName)
	require.NoError(t, err)
	return wb, rows
}

func TestExportXLSX(t *testing.T) {
	csvPath := filepath.Join(t.TempDir(), "results.csv")
	appendRecords(t, csvPath,
		scraper.Record{"url": "u1", "product_url": "p1", "title": "Widget", "price": "19.99"},
		scraper.Record{"url": "u2", "product_url": "p2", "title": "", "price": "20"},
		scraper.Record{"url": "u3", "product_url": "p3", "title": "Gadget", "price": ""},
	)

	xlsxPath, err := ExportXLSX(csvPath)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(csvPath), "results.xlsx"), xlsxPath)

	wb, rows := readSheet(t, xlsxPath)
	require.Len(t, rows, 4)
	assert.Equal(t, testColumns, rows[0])
	assert.Equal(t, []string{"u1", "p1", "Widget", "19.99"}, rows[1])

	typ, err := wb.GetCellType(sheetName, "D2")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeInlineString, typ, "price should be numeric")

	typ, err = wb.GetCellType(sheetName, "C2")
	require.NoError(t, err)
	assert.Equal(t, excelize.CellTypeInlineString, typ)

	empty, err := wb.GetCellValue(sheetName, "C3")
	require.NoError(t, err)
	assert.Empty(t, empty)

	// the CSV is left alone
	b, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Contains(t, string(b), "u3,p3,Gadget,\r\n")
}

func TestExportXLSXOverwrites(t *testing.T) {
	csvPath := filepath.Join(t.TempDir(), "results.csv")
	appendRecords(t, csvPath, scraper.Record{"url": "u1"})
	_, err := ExportXLSX(csvPath)
	require.NoError(t, err)

	appendRecords(t, csvPath, scraper.Record{"url": "u2"})
	xlsxPath, err := ExportXLSX(csvPath)
	require.NoError(t, err)

	_, rows := readSheet(t, xlsxPath)
	assert.Len(t, rows, 3)

	entries, err := os.ReadDir(filepath.Dir(csvPath))
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temporary files left behind")
}

func TestExportXLSXRaggedCSV(t *testing.T) {
	csvPath := writeFile(t, "results.csv", "a,b\r\n1,2\r\n3\r\n")

	_, err := ExportXLSX(csvPath)
	require.Error(t, err)

	_, err = os.Stat(filepath.Join(filepath.Dir(csvPath), "results.xlsx"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestExportXLSXEmptyCSV(t *testing.T) {
	_, err := ExportXLSX(writeFile(t, "results.csv", ""))
	assert.ErrorIs(t, err, ErrEmptyCSV)
}

func TestSpreadsheetPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
		err  error
	}{
		{in: "out/results.csv", want: "out/results.xlsx"},
		{in: "results", want: "results.xlsx"},
		{in: "results.tar.csv", want: "results.tar.xlsx"},
		{in: "dir/.csv", want: "dir/.csv.xlsx"},
		{in: "results.XLSX", err: ErrSpreadsheetPath},
	}
	for _, tt := range tests {
		got, err := SpreadsheetPath(filepath.FromSlash(tt.in))
		if tt.err != nil {
			assert.ErrorIs(t, err, tt.err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, filepath.FromSlash(tt.want), got)
	}
}

func TestNumericColumns(t *testing.T) {
	rows := [][]string{
		{"1", "1.5", "x", "", "NaN"},
		{"", "2", "3", "", "1"},
		{"-4", "1e3", "4", "", "2"},
	}
	assert.Equal(t, []bool{true, true, false, false, false}, numericColumns(rows, 5))
}
