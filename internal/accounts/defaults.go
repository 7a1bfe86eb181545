package accounts

import "github.com/cleared-dev/ledgerbridge/internal/model"

// DefaultChart returns the ledgers referenced by the default mappings, plus
// the usual control accounts.
func DefaultChart() []model.LedgerAccount {
	return []model.LedgerAccount{
		{Name: "Sales", Group: "Sales Accounts"},
		{Name: "Purchases", Group: "Purchase Accounts"},
		{Name: "Output CGST", Group: "Duties & Taxes"},
		{Name: "Output SGST", Group: "Duties & Taxes"},
		{Name: "Output IGST", Group: "Duties & Taxes"},
		{Name: "Input CGST", Group: "Duties & Taxes"},
		{Name: "Input SGST", Group: "Duties & Taxes"},
		{Name: "Input IGST", Group: "Duties & Taxes"},
		{Name: "Bank Account", Group: "Bank Accounts"},
		{Name: "Cash", Group: "Cash-in-Hand"},
		{Name: "Suspense A/c", Group: "Suspense A/c"},
	}
}
