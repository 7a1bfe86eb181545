package accounts

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/cleared-dev/ledgerbridge/internal/model"
)

const (
	numFields = 2
	colName   = 0
	colGroup  = 1
)

// ReadAccounts reads chart-of-accounts.csv.
func ReadAccounts(r io.Reader) ([]model.LedgerAccount, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var accounts []model.LedgerAccount
	for i, rec := range records[1:] {
		acct, err := UnmarshalAccount(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		accounts = append(accounts, acct)
	}
	return accounts, nil
}

// WriteAccounts writes chart-of-accounts.csv.
func WriteAccounts(w io.Writer, accounts []model.LedgerAccount) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"ledger_name", "group"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, acct := range accounts {
		if err := cw.Write(MarshalAccount(acct)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalAccount converts a ledger to a CSV row.
func MarshalAccount(acct model.LedgerAccount) []string {
	row := make([]string, numFields)
	row[colName] = acct.Name
	row[colGroup] = acct.Group
	return row
}

// UnmarshalAccount converts a CSV row to a ledger.
func UnmarshalAccount(record []string) (model.LedgerAccount, error) {
	if len(record) != numFields {
		return model.LedgerAccount{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}
	name := strings.TrimSpace(record[colName])
	if name == "" {
		return model.LedgerAccount{}, fmt.Errorf("empty ledger name")
	}
	return model.LedgerAccount{
		Name:  name,
		Group: strings.TrimSpace(record[colGroup]),
	}, nil
}
