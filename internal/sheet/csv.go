package sheet

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// CSV reads comma-separated files. A CSV file has one sheet; every cell is text.
type CSV struct{}

// SheetName is the single sheet name a CSV file reports.
const SheetName = "csv"

func (CSV) Format() string { return "csv" }

// ListSheets returns the single sheet name.
func (CSV) ListSheets([]byte) ([]string, error) {
	return []string{SheetName}, nil
}

// ParseSheet reads the file. name must be "" or SheetName.
func (CSV) ParseSheet(data []byte, name string) (*Table, error) {
	if name != "" && name != SheetName {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, name)
	}

	cr := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	grid, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	return build(grid, func(_, _ int, raw string) any { return raw })
}
