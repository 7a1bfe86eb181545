package mapping

import (
	"fmt"

	"github.com/cleared-dev/ledgerbridge/internal/model"
)

// FieldDefinition labels a voucher-level field for prompts and CLI output.
type FieldDefinition struct {
	Key      Field  `json:"key"`
	Label    string `json:"label"`
	Optional bool   `json:"optional,omitempty"`
}

// Default returns the starting configuration for vt.
func Default(vt model.VoucherType) (Config, error) {
	switch vt {
	case model.VoucherSales, model.VoucherPurchase:
		return defaultSalesPurchase(vt), nil
	case model.VoucherJournal:
		return defaultJournal(), nil
	case model.VoucherBankStatement:
		return defaultBankStatement(), nil
	}
	return nil, fmt.Errorf("unknown voucher type %q", vt)
}

func defaultSalesPurchase(vt model.VoucherType) SalesPurchase {
	if vt == model.VoucherPurchase {
		return SalesPurchase{
			Type:            model.VoucherPurchase,
			VoucherTypeName: "Purchase",
			LineItems: []LineItem{
				{LedgerName: "Purchases"},
				{LedgerName: "Input CGST"},
				{LedgerName: "Input SGST"},
				{LedgerName: "Input IGST"},
			},
		}
	}
	return SalesPurchase{
		Type:            model.VoucherSales,
		VoucherTypeName: "Sales",
		LineItems: []LineItem{
			{LedgerName: "Sales"},
			{LedgerName: "Output CGST"},
			{LedgerName: "Output SGST"},
			{LedgerName: "Output IGST"},
		},
	}
}

func defaultJournal() Journal {
	return Journal{
		DebitItems:  []JournalItem{{}},
		CreditItems: []JournalItem{{}},
	}
}

func defaultBankStatement() BankStatement {
	return BankStatement{
		BankLedgerName:         "Bank Account",
		ReceiptVoucherTypeName: "Receipt",
		PaymentVoucherTypeName: "Payment",
	}
}

// FieldDefinitions returns the voucher-level fields for vt.
func FieldDefinitions(vt model.VoucherType) []FieldDefinition {
	switch vt {
	case model.VoucherSales, model.VoucherPurchase:
		party := "Party Name (Customer)"
		if vt == model.VoucherPurchase {
			party = "Party Name (Supplier)"
		}
		return []FieldDefinition{
			{Key: FieldDate, Label: "Voucher Date"},
			{Key: FieldVoucherNumber, Label: "Voucher Number"},
			{Key: FieldPartyName, Label: party},
			{Key: FieldNarration, Label: "Narration", Optional: true},
		}
	case model.VoucherJournal:
		return []FieldDefinition{
			{Key: FieldDate, Label: "Voucher Date"},
			{Key: FieldVoucherNumber, Label: "Voucher Number"},
			{Key: FieldNarration, Label: "Narration", Optional: true},
		}
	case model.VoucherBankStatement:
		return []FieldDefinition{
			{Key: FieldDate, Label: "Transaction Date"},
			{Key: FieldPartyName, Label: "Particulars / Description"},
			{Key: FieldDeposit, Label: "Deposits (Receipts) Column", Optional: true},
			{Key: FieldWithdrawal, Label: "Withdrawals (Payments) Column", Optional: true},
			{Key: FieldNarration, Label: "Narration", Optional: true},
		}
	}
	return nil
}
