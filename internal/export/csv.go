package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/cleared-dev/ledgerbridge/internal/model"
)

const (
	numFields    = 7
	colDate      = 0
	colTypeName  = 1
	colNumber    = 2
	colLedger    = 3
	colAmount    = 4
	colDrCr      = 5
	colNarration = 6
)

// WriteCSV writes entries with a header row.
func WriteCSV(w io.Writer, entries []model.LedgerEntry) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV reads entries written by WriteCSV.
func ReadCSV(r io.Reader) ([]model.LedgerEntry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading ledger CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	entries := make([]model.LedgerEntry, 0, len(records)-1)
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// MarshalEntry converts an entry to a CSV row.
func MarshalEntry(e model.LedgerEntry) []string {
	row := make([]string, numFields)
	row[colDate] = e.VoucherDate
	row[colTypeName] = e.VoucherTypeName
	row[colNumber] = e.VoucherNumber
	row[colLedger] = e.LedgerName
	row[colAmount] = e.LedgerAmount
	row[colDrCr] = string(e.DrCr)
	row[colNarration] = e.Narration
	return row
}

// UnmarshalEntry converts a CSV row to an entry.
func UnmarshalEntry(record []string) (model.LedgerEntry, error) {
	if len(record) != numFields {
		return model.LedgerEntry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}
	side := model.DrCr(record[colDrCr])
	if side != model.Dr && side != model.Cr {
		return model.LedgerEntry{}, fmt.Errorf("invalid Dr/Cr %q", record[colDrCr])
	}
	return model.LedgerEntry{
		VoucherDate:     record[colDate],
		VoucherTypeName: record[colTypeName],
		VoucherNumber:   record[colNumber],
		LedgerName:      record[colLedger],
		LedgerAmount:    record[colAmount],
		DrCr:            side,
		Narration:       record[colNarration],
	}, nil
}
