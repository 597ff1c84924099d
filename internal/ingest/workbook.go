// Package ingest turns uploaded workbooks into header-keyed rows.
package ingest

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/iliyamo/excellense/internal/model"
)

// ErrNoSheets is returned for a workbook without any worksheet.
var ErrNoSheets = errors.New("workbook has no worksheets")

// ParseWorkbook reads an .xlsx workbook from r and converts its first
// worksheet into rows.  The whole file is buffered by excelize before
// parsing starts; other worksheets are ignored.
func ParseWorkbook(r io.Reader) ([]model.Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}
	grid, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return RowsFromGrid(grid), nil
}

// RowsFromGrid converts a sheet, given as rows of formatted cell text,
// into header-keyed rows:
//   - the first line is the header list, each header trimmed;
//   - every later line maps header[i] to its cell i, for the columns
//     that have a header; blank cells and blank headers are left out;
//   - lines with no text at all are skipped;
//   - a repeated header keeps its first position and takes the value
//     of its last column.
//
// A sheet with only a header line (or nothing) yields an empty slice.
func RowsFromGrid(grid [][]string) []model.Row {
	out := []model.Row{}
	if len(grid) == 0 {
		return out
	}
	headers := make([]string, len(grid[0]))
	for i, h := range grid[0] {
		headers[i] = strings.TrimSpace(h)
	}

	for _, line := range grid[1:] {
		if blank(line) {
			continue
		}
		var row model.Row
		for i := 0; i < len(line) && i < len(headers); i++ {
			if headers[i] == "" || line[i] == "" {
				continue
			}
			row.Set(headers[i], line[i])
		}
		out = append(out, row)
	}
	return out
}

func blank(line []string) bool {
	for _, cell := range line {
		if cell != "" {
			return false
		}
	}
	return true
}
