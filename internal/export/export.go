// Package export writes ledger entries in the import layout accounting
// packages expect.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/cleared-dev/ledgerbridge/internal/model"
)

// Columns is the fixed column order of every export.
var Columns = []string{
	"Voucher Date",
	"Voucher Type Name",
	"Voucher Number",
	"Ledger Name",
	"Ledger Amount",
	"Dr/Cr",
	"Narration",
}

// Format is an export file format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimPrefix(s, "."))) {
	case FormatXLSX:
		return FormatXLSX, nil
	case FormatCSV:
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// FileName returns a timestamped file name for an export of vt.
func FileName(vt model.VoucherType, format Format, now time.Time) string {
	return fmt.Sprintf("ledger-import-%s-%s.%s", vt.Slug(), now.Format("20060102-150405"), format)
}
