// Package journal groups flat ledger entries back into vouchers and checks
// them before they leave the tool.
package journal

import "github.com/cleared-dev/ledgerbridge/internal/model"

// GroupVouchers splits entries at every head line. Continuation lines that
// appear before any head line form a voucher of their own.
func GroupVouchers(entries []model.LedgerEntry) []model.Voucher {
	var vouchers []model.Voucher
	for _, e := range entries {
		if e.StartsVoucher() || len(vouchers) == 0 {
			vouchers = append(vouchers, model.Voucher{})
		}
		last := &vouchers[len(vouchers)-1]
		last.Entries = append(last.Entries, e)
	}
	return vouchers
}
