// Package convert turns raw rows into ledger entries under a mapping
// configuration. Rows that cannot form a voucher are skipped and reported
// in Result.Rejections; they never fail the run.
package convert

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledgerbridge/internal/dates"
	"github.com/cleared-dev/ledgerbridge/internal/id"
	"github.com/cleared-dev/ledgerbridge/internal/mapping"
	"github.com/cleared-dev/ledgerbridge/internal/model"
)

// ErrConfigMismatch is returned when the configuration variant does not
// belong to the requested voucher type.
var ErrConfigMismatch = errors.New("mapping does not match voucher type")

// Reason explains why a row produced no entries.
type Reason string

const (
	ReasonNoDate        Reason = "no_date"
	ReasonNoParty       Reason = "no_party"
	ReasonZeroTotal     Reason = "zero_total"
	ReasonUnbalanced    Reason = "unbalanced"
	ReasonNoTransaction Reason = "no_transaction"
)

// Rejection records a skipped row by its zero-based position.
type Rejection struct {
	Row    int    `json:"row"`
	Reason Reason `json:"reason"`
}

// Result is the output of one conversion run.
type Result struct {
	Entries    []model.LedgerEntry `json:"entries"`
	Stats      model.Stats         `json:"stats"`
	Rejections []Rejection         `json:"rejections"`
}

// journalPrecision is the number of decimal places at which journal debits
// and credits must agree.
const journalPrecision = 5

// Convert applies cfg to every row. corrections rewrites party names for
// Sales, Purchase and Bank Statement rows. The same input always yields the
// same output.
func Convert(rows []model.RawRow, vt model.VoucherType, cfg mapping.Config, corrections map[string]string) (*Result, error) {
	if cfg == nil || cfg.VoucherType() != vt {
		return nil, fmt.Errorf("%w: %s rows with %T", ErrConfigMismatch, vt, cfg)
	}

	res := &Result{Entries: []model.LedgerEntry{}, Rejections: []Rejection{}}
	total := decimal.Zero

	for i, row := range rows {
		date := dates.Normalize(row.Value(string(cfg.Column(mapping.FieldDate))))
		if date == "" {
			res.Rejections = append(res.Rejections, Rejection{Row: i, Reason: ReasonNoDate})
			continue
		}

		head := model.LedgerEntry{
			VoucherDate:   date,
			VoucherNumber: voucherNumber(row, cfg, i),
			Narration:     narration(row, cfg),
		}

		var (
			entries []model.LedgerEntry
			amount  decimal.Decimal
			reason  Reason
		)
		switch c := cfg.(type) {
		case mapping.SalesPurchase:
			entries, amount, reason = tradeVoucher(row, head, c, corrections)
		case mapping.Journal:
			entries, amount, reason = journalVoucher(row, head, c)
		case mapping.BankStatement:
			entries, amount, reason = bankVoucher(row, head, c, corrections)
		default:
			return nil, fmt.Errorf("%w: unsupported configuration %T", ErrConfigMismatch, cfg)
		}
		if reason != "" {
			res.Rejections = append(res.Rejections, Rejection{Row: i, Reason: reason})
			continue
		}

		res.Entries = append(res.Entries, entries...)
		total = total.Add(amount)
	}

	res.Stats = summarize(res.Entries, total)
	return res, nil
}

func voucherNumber(row model.RawRow, cfg mapping.Config, index int) string {
	if n := row.Text(string(cfg.Column(mapping.FieldVoucherNumber))); n != "" {
		return n
	}
	return id.FallbackVoucherNumber(index)
}

// narration falls back to the party column for trade vouchers only.
func narration(row model.RawRow, cfg mapping.Config) string {
	if n := row.Text(string(cfg.Column(mapping.FieldNarration))); n != "" {
		return n
	}
	if _, trade := cfg.(mapping.SalesPurchase); trade {
		return row.Text(string(cfg.Column(mapping.FieldPartyName)))
	}
	return ""
}

func partyName(row model.RawRow, column mapping.Column, corrections map[string]string) string {
	name := row.Text(string(column))
	if name == "" {
		return ""
	}
	if c, ok := corrections[name]; ok && c != "" {
		return c
	}
	return name
}

func tradeVoucher(row model.RawRow, head model.LedgerEntry, c mapping.SalesPurchase, corrections map[string]string) ([]model.LedgerEntry, decimal.Decimal, Reason) {
	party := partyName(row, c.PartyName, corrections)
	if party == "" {
		return nil, decimal.Zero, ReasonNoParty
	}

	side := model.Dr
	if c.Type == model.VoucherPurchase {
		side = model.Cr
	}

	total := decimal.Zero
	var lines []model.LedgerEntry
	for _, item := range c.LineItems {
		if !item.Column.Mapped() || item.LedgerName == "" {
			continue
		}
		amount := ParseAmount(row.Value(string(item.Column)))
		if amount.IsZero() {
			continue
		}
		total = total.Add(amount)
		lines = append(lines, line(item.LedgerName, amount, side.Opposite()))
	}
	if total.IsZero() {
		return nil, decimal.Zero, ReasonZeroTotal
	}

	head.VoucherTypeName = c.VoucherTypeName
	head.LedgerName = party
	head.LedgerAmount = total.StringFixed(2)
	head.DrCr = side
	return append([]model.LedgerEntry{head}, lines...), total, ""
}

func journalVoucher(row model.RawRow, head model.LedgerEntry, c mapping.Journal) ([]model.LedgerEntry, decimal.Decimal, Reason) {
	debits, totalDebit := journalLines(row, c.DebitItems, model.Dr)
	credits, totalCredit := journalLines(row, c.CreditItems, model.Cr)

	if totalDebit.IsZero() {
		if totalCredit.IsZero() {
			return nil, decimal.Zero, ReasonZeroTotal
		}
		return nil, decimal.Zero, ReasonUnbalanced
	}
	if !totalDebit.Round(journalPrecision).Equal(totalCredit.Round(journalPrecision)) {
		return nil, decimal.Zero, ReasonUnbalanced
	}

	entries := append(debits, credits...)
	entries[0].VoucherDate = head.VoucherDate
	entries[0].VoucherTypeName = string(model.VoucherJournal)
	entries[0].VoucherNumber = head.VoucherNumber
	entries[0].Narration = head.Narration
	return entries, totalDebit, ""
}

func journalLines(row model.RawRow, items []mapping.JournalItem, side model.DrCr) ([]model.LedgerEntry, decimal.Decimal) {
	total := decimal.Zero
	var lines []model.LedgerEntry
	for _, item := range items {
		if !item.AmountColumn.Mapped() || !item.LedgerNameColumn.Mapped() {
			continue
		}
		amount := ParseAmount(row.Value(string(item.AmountColumn)))
		name := strings.TrimSpace(row.Text(string(item.LedgerNameColumn)))
		if !amount.IsPositive() || name == "" {
			continue
		}
		total = total.Add(amount)
		lines = append(lines, line(name, amount, side))
	}
	return lines, total
}

func bankVoucher(row model.RawRow, head model.LedgerEntry, c mapping.BankStatement, corrections map[string]string) ([]model.LedgerEntry, decimal.Decimal, Reason) {
	party := partyName(row, c.PartyName, corrections)
	if party == "" {
		return nil, decimal.Zero, ReasonNoParty
	}

	amount, receipt, ok := bankTransaction(row, c)
	if !ok {
		return nil, decimal.Zero, ReasonNoTransaction
	}

	head.LedgerName = c.BankLedgerName
	head.LedgerAmount = amount.StringFixed(2)
	if receipt {
		head.VoucherTypeName = c.ReceiptVoucherTypeName
		head.DrCr = model.Dr
	} else {
		head.VoucherTypeName = c.PaymentVoucherTypeName
		head.DrCr = model.Cr
	}
	return []model.LedgerEntry{head, line(party, amount, head.DrCr.Opposite())}, amount, ""
}

// bankTransaction returns the positive amount and whether it is a receipt.
// ok is false when the row moves no money.
func bankTransaction(row model.RawRow, c mapping.BankStatement) (amount decimal.Decimal, receipt, ok bool) {
	dep, wd := c.DepositColumn, c.WithdrawalColumn

	if dep.Mapped() && dep == wd {
		signed := ParseAmount(row.Value(string(dep)))
		switch {
		case signed.IsPositive():
			return signed, true, true
		case signed.IsNegative():
			return signed.Abs(), false, true
		}
		return decimal.Zero, false, false
	}

	deposit, withdrawal := decimal.Zero, decimal.Zero
	if dep.Mapped() {
		deposit = ParseAmount(row.Value(string(dep)))
	}
	if wd.Mapped() {
		withdrawal = ParseAmount(row.Value(string(wd))).Abs()
	}
	switch {
	case deposit.IsPositive():
		return deposit, true, true
	case withdrawal.IsPositive():
		return withdrawal, false, true
	}
	return decimal.Zero, false, false
}

func line(ledger string, amount decimal.Decimal, side model.DrCr) model.LedgerEntry {
	return model.LedgerEntry{
		LedgerName:   ledger,
		LedgerAmount: amount.StringFixed(2),
		DrCr:         side,
	}
}

func summarize(entries []model.LedgerEntry, total decimal.Decimal) model.Stats {
	vouchers := make(map[id.VoucherKey]struct{})
	for _, e := range entries {
		if e.StartsVoucher() {
			vouchers[id.VoucherKey{Date: e.VoucherDate, Number: e.VoucherNumber}] = struct{}{}
		}
	}
	return model.Stats{
		TotalVouchers: len(vouchers),
		TotalEntries:  len(entries),
		TotalAmount:   total,
	}
}
