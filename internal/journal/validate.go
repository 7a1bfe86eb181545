package journal

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledgerbridge/internal/id"
	"github.com/cleared-dev/ledgerbridge/internal/model"
)

// Invariants checked by Validate.
const (
	InvariantBalanced = iota + 1
	InvariantAmount
	InvariantLedger
	InvariantLayout
	InvariantUnique
)

// ValidationError describes a single invariant violation.
type ValidationError struct {
	Invariant   int
	Voucher     string
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invariant %d [%s]: %s", e.Invariant, e.Voucher, e.Description)
}

// LedgerChecker tests whether a ledger exists in the chart of accounts.
type LedgerChecker interface {
	Exists(name string) bool
}

var hundred = decimal.NewFromInt(100)

// Validate checks grouped vouchers. ledgers may be nil, in which case ledger
// names are only checked for presence.
func Validate(vouchers []model.Voucher, ledgers LedgerChecker) []ValidationError {
	var errs []ValidationError
	seen := make(map[id.VoucherKey]bool)

	for i, v := range vouchers {
		label := v.Number()
		if label == "" {
			label = fmt.Sprintf("#%d", i+1)
		}
		fail := func(inv int, format string, args ...any) {
			errs = append(errs, ValidationError{Invariant: inv, Voucher: label, Description: fmt.Sprintf(format, args...)})
		}

		// Invariant 1: debits equal credits.
		debit, credit := decimal.Zero, decimal.Zero
		for _, e := range v.Entries {
			switch e.DrCr {
			case model.Dr:
				debit = debit.Add(e.Amount())
			case model.Cr:
				credit = credit.Add(e.Amount())
			default:
				fail(InvariantBalanced, "ledger %q has invalid side %q", e.LedgerName, e.DrCr)
			}
		}
		if !debit.Equal(credit) {
			fail(InvariantBalanced, "debits (%s) != credits (%s)", debit.StringFixed(2), credit.StringFixed(2))
		}

		for j, e := range v.Entries {
			// Invariant 2: positive amounts with at most 2 decimal places.
			amt, err := decimal.NewFromString(e.LedgerAmount)
			switch {
			case err != nil:
				fail(InvariantAmount, "line %d: amount %q is not a number", j+1, e.LedgerAmount)
			case !amt.IsPositive():
				fail(InvariantAmount, "line %d: amount %s is not positive", j+1, e.LedgerAmount)
			case !amt.Mul(hundred).Equal(amt.Mul(hundred).Floor()):
				fail(InvariantAmount, "line %d: amount %s has more than 2 decimal places", j+1, e.LedgerAmount)
			}

			// Invariant 3: ledger named and known.
			if e.LedgerName == "" {
				fail(InvariantLedger, "line %d: empty ledger name", j+1)
			} else if ledgers != nil && !ledgers.Exists(e.LedgerName) {
				fail(InvariantLedger, "line %d: unknown ledger %q", j+1, e.LedgerName)
			}

			// Invariant 4: only the head line carries voucher fields.
			if j == 0 {
				if e.VoucherDate == "" || e.VoucherNumber == "" || e.VoucherTypeName == "" {
					fail(InvariantLayout, "head line is missing date, number or type")
				}
			} else if e.VoucherDate != "" || e.VoucherNumber != "" || e.VoucherTypeName != "" || e.Narration != "" {
				fail(InvariantLayout, "line %d: continuation line carries voucher fields", j+1)
			}
		}

		if len(v.Entries) < 2 {
			fail(InvariantLayout, "voucher has %d line(s), need at least 2", len(v.Entries))
		}

		// Invariant 5: date and number identify one voucher.
		key := id.VoucherKey{Date: v.Date(), Number: v.Number()}
		if key.Number != "" {
			if seen[key] {
				fail(InvariantUnique, "duplicate voucher %s", key)
			}
			seen[key] = true
		}
	}
	return errs
}
