package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// VoucherType selects the conversion policy for a dataset.
type VoucherType string

const (
	VoucherSales         VoucherType = "Sales"
	VoucherPurchase      VoucherType = "Purchase"
	VoucherJournal       VoucherType = "Journal"
	VoucherBankStatement VoucherType = "Bank Statement"
)

// VoucherTypes lists every supported voucher type in display order.
var VoucherTypes = []VoucherType{VoucherSales, VoucherPurchase, VoucherJournal, VoucherBankStatement}

// ParseVoucherType accepts a display name ("Bank Statement") or a slug ("bank").
func ParseVoucherType(s string) (VoucherType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sales":
		return VoucherSales, nil
	case "purchase", "purchases":
		return VoucherPurchase, nil
	case "journal":
		return VoucherJournal, nil
	case "bank", "bank statement", "bank-statement", "bank_statement":
		return VoucherBankStatement, nil
	}
	return "", fmt.Errorf("unknown voucher type %q", s)
}

// Slug returns the lowercase, hyphenated form used in file names and flags.
func (v VoucherType) Slug() string {
	return strings.ReplaceAll(strings.ToLower(string(v)), " ", "-")
}

// DrCr is the side of a posting.
type DrCr string

const (
	Dr DrCr = "Dr"
	Cr DrCr = "Cr"
)

// Opposite returns the other side.
func (d DrCr) Opposite() DrCr {
	if d == Dr {
		return Cr
	}
	return Dr
}

// LedgerEntry is one posting line. Only the first line of a voucher carries
// VoucherDate, VoucherTypeName, VoucherNumber and Narration.
type LedgerEntry struct {
	VoucherDate     string `json:"voucherDate"`
	VoucherTypeName string `json:"voucherTypeName"`
	VoucherNumber   string `json:"voucherNumber"`
	LedgerName      string `json:"ledgerName"`
	LedgerAmount    string `json:"ledgerAmount"` // fixed to 2 fraction digits
	DrCr            DrCr   `json:"ledgerAmountDrCr"`
	Narration       string `json:"narration"`
}

// StartsVoucher reports whether the entry is the head line of a voucher.
func (e LedgerEntry) StartsVoucher() bool {
	return e.VoucherDate != ""
}

// Amount parses LedgerAmount. Malformed amounts read as zero.
func (e LedgerEntry) Amount() decimal.Decimal {
	d, err := decimal.NewFromString(e.LedgerAmount)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Voucher is a head entry followed by its continuation lines.
type Voucher struct {
	Entries []LedgerEntry `json:"entries"`
}

func (v Voucher) head() LedgerEntry {
	if len(v.Entries) == 0 {
		return LedgerEntry{}
	}
	return v.Entries[0]
}

// Date returns the voucher date from the head line.
func (v Voucher) Date() string { return v.head().VoucherDate }

// Number returns the voucher number from the head line.
func (v Voucher) Number() string { return v.head().VoucherNumber }

// TypeName returns the voucher type label from the head line.
func (v Voucher) TypeName() string { return v.head().VoucherTypeName }

// Narration returns the narration from the head line.
func (v Voucher) Narration() string { return v.head().Narration }

// Stats summarizes one conversion run.
type Stats struct {
	TotalVouchers int             `json:"totalVouchers"`
	TotalEntries  int             `json:"totalEntries"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
}

// MarshalJSON writes TotalAmount as a JSON number rather than a string.
func (s Stats) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		TotalVouchers int         `json:"totalVouchers"`
		TotalEntries  int         `json:"totalEntries"`
		TotalAmount   json.Number `json:"totalAmount"`
	}{s.TotalVouchers, s.TotalEntries, json.Number(s.TotalAmount.String())})
}
