// Package sheet reads tabular source files into header-keyed rows.
package sheet

import (
	"errors"
	"strings"

	"github.com/cleared-dev/ledgerbridge/internal/model"
)

var (
	// ErrSheetNotFound is returned when the named sheet does not exist.
	ErrSheetNotFound = errors.New("sheet not found")
	// ErrNoData is returned when a sheet lacks a header row and a data row.
	ErrNoData = errors.New("sheet must have a header row and at least one data row")
)

// Table is a parsed sheet. Rows are keyed by Headers.
type Table struct {
	Headers []string       `json:"headers"`
	Rows    []model.RawRow `json:"rows"`
}

// Reader lists and parses the sheets of one file format.
type Reader interface {
	Format() string
	ListSheets(data []byte) ([]string, error)
	ParseSheet(data []byte, name string) (*Table, error)
}

// cellValue converts the raw text at grid position (row, col) to a row value.
type cellValue func(row, col int, raw string) any

// build turns grid rows into a Table. The first row is the header row; data
// rows whose cells are all empty are dropped.
func build(grid [][]string, value cellValue) (*Table, error) {
	if len(grid) < 2 {
		return nil, ErrNoData
	}

	headers := make([]string, len(grid[0]))
	for i, h := range grid[0] {
		headers[i] = strings.TrimSpace(h)
	}

	t := &Table{Headers: headers, Rows: []model.RawRow{}}
	for r := 1; r < len(grid); r++ {
		rec := grid[r]
		row := make(model.RawRow, len(headers))
		empty := true
		for c, h := range headers {
			if h == "" {
				continue
			}
			if c >= len(rec) || rec[c] == "" {
				row[h] = nil
				continue
			}
			row[h] = value(r, c, rec[c])
			empty = false
		}
		if !empty {
			t.Rows = append(t.Rows, row)
		}
	}
	return t, nil
}
