package reconcile

import (
	"github.com/cleared-dev/ledgerbridge/internal/model"
)

// PartyNames returns the distinct non-blank values of column, in row order.
func PartyNames(rows []model.RawRow, column string) []string {
	if column == "" {
		return nil
	}
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		names = append(names, r.Text(column))
	}
	return Dedupe(names)
}

// ApplyCorrections returns a new row slice with column rewritten through
// corrections. Input rows are never modified; rewritten rows are copies.
func ApplyCorrections(rows []model.RawRow, column string, corrections map[string]string) []model.RawRow {
	out := make([]model.RawRow, len(rows))
	for i, r := range rows {
		out[i] = r
		if column == "" || len(corrections) == 0 {
			continue
		}
		corrected, ok := corrections[r.Text(column)]
		if !ok || corrected == "" {
			continue
		}
		c := r.Clone()
		c[column] = corrected
		out[i] = c
	}
	return out
}
