// Package mapping describes which source columns feed which ledger fields,
// one configuration variant per voucher type.
package mapping

import (
	"github.com/cleared-dev/ledgerbridge/internal/model"
)

// Column is a header name in the source dataset. The empty Column is unmapped.
type Column string

// Mapped reports whether the column is bound.
func (c Column) Mapped() bool { return c != "" }

// Field names a voucher-level binding.
type Field string

const (
	FieldDate          Field = "date"
	FieldVoucherNumber Field = "voucherNumber"
	FieldPartyName     Field = "partyName"
	FieldNarration     Field = "narration"
	FieldDeposit       Field = "depositColumn"
	FieldWithdrawal    Field = "withdrawalColumn"
)

// Config is implemented by SalesPurchase, Journal and BankStatement only.
type Config interface {
	// VoucherType is the voucher type this configuration converts.
	VoucherType() model.VoucherType
	// Column returns the binding for f, or "" when the variant has no such field.
	Column(f Field) Column
	// Columns returns every bound column, in configuration order.
	Columns() []Column
	// Resolve returns a copy with bindings to headers outside the set unmapped.
	Resolve(headers []string) Config

	sealed()
}

// LineItem feeds one trade ledger from an amount column.
type LineItem struct {
	Column     Column `yaml:"column" json:"column"`
	LedgerName string `yaml:"ledger_name" json:"ledgerName"`
}

// JournalItem reads both the amount and the ledger name from columns.
type JournalItem struct {
	AmountColumn     Column `yaml:"amount_column" json:"amountColumn"`
	LedgerNameColumn Column `yaml:"ledger_name_column" json:"ledgerNameColumn"`
}

// SalesPurchase configures Sales and Purchase vouchers.
type SalesPurchase struct {
	Type            model.VoucherType `yaml:"-" json:"-"`
	VoucherTypeName string            `yaml:"voucher_type_name" json:"voucherTypeName"`
	Date            Column            `yaml:"date" json:"date"`
	VoucherNumber   Column            `yaml:"voucher_number" json:"voucherNumber"`
	PartyName       Column            `yaml:"party_name" json:"partyName"`
	Narration       Column            `yaml:"narration" json:"narration"`
	LineItems       []LineItem        `yaml:"line_items" json:"lineItems"`
}

// Journal configures compound journal vouchers.
type Journal struct {
	Date          Column        `yaml:"date" json:"date"`
	VoucherNumber Column        `yaml:"voucher_number" json:"voucherNumber"`
	Narration     Column        `yaml:"narration" json:"narration"`
	DebitItems    []JournalItem `yaml:"debit_items" json:"debitItems"`
	CreditItems   []JournalItem `yaml:"credit_items" json:"creditItems"`
}

// BankStatement configures receipt and payment vouchers from a statement.
// DepositColumn and WithdrawalColumn may name the same signed-amount column.
type BankStatement struct {
	Date                   Column `yaml:"date" json:"date"`
	Narration              Column `yaml:"narration" json:"narration"`
	PartyName              Column `yaml:"party_name" json:"partyName"`
	DepositColumn          Column `yaml:"deposit_column" json:"depositColumn"`
	WithdrawalColumn       Column `yaml:"withdrawal_column" json:"withdrawalColumn"`
	BankLedgerName         string `yaml:"bank_ledger_name" json:"bankLedgerName"`
	ReceiptVoucherTypeName string `yaml:"receipt_voucher_type_name" json:"receiptVoucherTypeName"`
	PaymentVoucherTypeName string `yaml:"payment_voucher_type_name" json:"paymentVoucherTypeName"`
}

func (c SalesPurchase) VoucherType() model.VoucherType { return c.Type }
func (Journal) VoucherType() model.VoucherType         { return model.VoucherJournal }
func (BankStatement) VoucherType() model.VoucherType   { return model.VoucherBankStatement }

func (SalesPurchase) sealed() {}
func (Journal) sealed()       {}
func (BankStatement) sealed() {}

func (c SalesPurchase) Column(f Field) Column {
	switch f {
	case FieldDate:
		return c.Date
	case FieldVoucherNumber:
		return c.VoucherNumber
	case FieldPartyName:
		return c.PartyName
	case FieldNarration:
		return c.Narration
	}
	return ""
}

func (c Journal) Column(f Field) Column {
	switch f {
	case FieldDate:
		return c.Date
	case FieldVoucherNumber:
		return c.VoucherNumber
	case FieldNarration:
		return c.Narration
	}
	return ""
}

func (c BankStatement) Column(f Field) Column {
	switch f {
	case FieldDate:
		return c.Date
	case FieldPartyName:
		return c.PartyName
	case FieldNarration:
		return c.Narration
	case FieldDeposit:
		return c.DepositColumn
	case FieldWithdrawal:
		return c.WithdrawalColumn
	}
	return ""
}

func (c SalesPurchase) Columns() []Column {
	cols := bound(c.Date, c.VoucherNumber, c.PartyName, c.Narration)
	for _, li := range c.LineItems {
		cols = append(cols, bound(li.Column)...)
	}
	return cols
}

func (c Journal) Columns() []Column {
	cols := bound(c.Date, c.VoucherNumber, c.Narration)
	for _, items := range [][]JournalItem{c.DebitItems, c.CreditItems} {
		for _, it := range items {
			cols = append(cols, bound(it.AmountColumn, it.LedgerNameColumn)...)
		}
	}
	return cols
}

func (c BankStatement) Columns() []Column {
	return bound(c.Date, c.Narration, c.PartyName, c.DepositColumn, c.WithdrawalColumn)
}

func (c SalesPurchase) Resolve(headers []string) Config {
	h := newHeaderSet(headers)
	out := c
	out.Date = h.keep(c.Date)
	out.VoucherNumber = h.keep(c.VoucherNumber)
	out.PartyName = h.keep(c.PartyName)
	out.Narration = h.keep(c.Narration)
	out.LineItems = make([]LineItem, len(c.LineItems))
	for i, li := range c.LineItems {
		out.LineItems[i] = LineItem{Column: h.keep(li.Column), LedgerName: li.LedgerName}
	}
	return out
}

func (c Journal) Resolve(headers []string) Config {
	h := newHeaderSet(headers)
	out := c
	out.Date = h.keep(c.Date)
	out.VoucherNumber = h.keep(c.VoucherNumber)
	out.Narration = h.keep(c.Narration)
	out.DebitItems = h.keepItems(c.DebitItems)
	out.CreditItems = h.keepItems(c.CreditItems)
	return out
}

func (c BankStatement) Resolve(headers []string) Config {
	h := newHeaderSet(headers)
	out := c
	out.Date = h.keep(c.Date)
	out.Narration = h.keep(c.Narration)
	out.PartyName = h.keep(c.PartyName)
	out.DepositColumn = h.keep(c.DepositColumn)
	out.WithdrawalColumn = h.keep(c.WithdrawalColumn)
	return out
}

// Missing returns the bound columns of cfg that are absent from headers.
func Missing(cfg Config, headers []string) []Column {
	h := newHeaderSet(headers)
	var missing []Column
	seen := make(map[Column]bool)
	for _, c := range cfg.Columns() {
		if h.keep(c) == "" && !seen[c] {
			seen[c] = true
			missing = append(missing, c)
		}
	}
	return missing
}

type headerSet map[string]bool

func newHeaderSet(headers []string) headerSet {
	h := make(headerSet, len(headers))
	for _, name := range headers {
		h[name] = true
	}
	return h
}

func (h headerSet) keep(c Column) Column {
	if h[string(c)] {
		return c
	}
	return ""
}

func (h headerSet) keepItems(items []JournalItem) []JournalItem {
	out := make([]JournalItem, len(items))
	for i, it := range items {
		out[i] = JournalItem{AmountColumn: h.keep(it.AmountColumn), LedgerNameColumn: h.keep(it.LedgerNameColumn)}
	}
	return out
}

func bound(cols ...Column) []Column {
	var out []Column
	for _, c := range cols {
		if c.Mapped() {
			out = append(out, c)
		}
	}
	return out
}
