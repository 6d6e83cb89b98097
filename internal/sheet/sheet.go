// Package sheet reads uploaded spreadsheets into header keyed rows.
package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Row is one data row keyed by the header cell of its column.  Blank
// cells are left out so callers can tell absent from empty.
type Row map[string]any

// ErrUnsupportedFormat is returned for files that are neither .xlsx nor .csv.
var ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")

// Read decodes r according to the extension of filename.
func Read(r io.Reader, filename string) ([]Row, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return ReadXLSX(r)
	case ".csv":
		return ReadCSV(r)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
}

// DisplayColumns are read as the text the sheet shows rather than the
// stored value.  A rate cell formatted as a percentage stores 0.17 but
// shows "17%", and only the latter reads as a percent.
var DisplayColumns = map[string]bool{"rate": true}

// ReadXLSX reads the first worksheet.  Cells are read raw, so a date cell
// arrives as its serial day number rather than a display string; columns
// in DisplayColumns are the exception.
func ReadXLSX(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	grid, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	shown, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	useDisplayText(grid, shown)
	return toRows(grid), nil
}

// useDisplayText copies the shown text of DisplayColumns cells into grid.
func useDisplayText(grid, shown [][]string) {
	if len(grid) == 0 {
		return
	}
	for col, h := range grid[0] {
		if !DisplayColumns[strings.TrimSpace(h)] {
			continue
		}
		for r := 1; r < len(grid) && r < len(shown); r++ {
			if col < len(grid[r]) && col < len(shown[r]) {
				grid[r][col] = shown[r][col]
			}
		}
	}
}

// ReadCSV reads comma separated text with a header line.
func ReadCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	grid, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(grid) > 0 && len(grid[0]) > 0 {
		grid[0][0] = strings.TrimPrefix(grid[0][0], "\ufeff")
	}
	return toRows(grid), nil
}

func toRows(grid [][]string) []Row {
	if len(grid) == 0 {
		return nil
	}
	header := make([]string, len(grid[0]))
	for i, h := range grid[0] {
		header[i] = strings.TrimSpace(h)
	}
	var out []Row
	for _, cells := range grid[1:] {
		row := Row{}
		for i, v := range cells {
			if i >= len(header) || header[i] == "" {
				continue
			}
			if strings.TrimSpace(v) == "" {
				continue
			}
			row[header[i]] = v
		}
		if len(row) > 0 {
			out = append(out, row)
		}
	}
	return out
}

// String returns the trimmed text of a cell, or "" when it is absent.
func (r Row) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}
