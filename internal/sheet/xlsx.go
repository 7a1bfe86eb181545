package sheet

import (
	"bytes"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
)

// XLSX reads Office Open XML workbooks. Numeric cells become float64 so that
// date serials reach the date normalizer as numbers.
type XLSX struct{}

func (XLSX) Format() string { return "xlsx" }

// ListSheets returns the workbook's sheet names in tab order.
func (XLSX) ListSheets(data []byte) ([]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

// ParseSheet reads the named sheet.
func (XLSX) ParseSheet(data []byte, name string) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	if !slices.Contains(f.GetSheetList(), name) {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, name)
	}

	grid, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", name, err)
	}

	return build(grid, func(row, col int, raw string) any {
		ref, err := excelize.CoordinatesToCellName(col+1, row+1)
		if err != nil {
			return raw
		}
		typ, err := f.GetCellType(name, ref)
		if err != nil {
			return raw
		}
		switch typ {
		case excelize.CellTypeUnset, excelize.CellTypeNumber:
			if n, err := strconv.ParseFloat(raw, 64); err == nil {
				return n
			}
		case excelize.CellTypeDate:
			if t, err := time.Parse(time.RFC3339, raw); err == nil {
				return t
			}
			if n, err := strconv.ParseFloat(raw, 64); err == nil {
				return n
			}
		}
		return raw
	})
}
