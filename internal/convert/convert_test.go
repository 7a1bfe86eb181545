package convert

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/ledgerbridge/internal/mapping"
	"github.com/cleared-dev/ledgerbridge/internal/model"
)

func salesConfig() mapping.SalesPurchase {
	return mapping.SalesPurchase{
		Type:            model.VoucherSales,
		VoucherTypeName: "Sales",
		Date:            "date",
		PartyName:       "party",
		LineItems: []mapping.LineItem{
			{Column: "Taxable", LedgerName: "Sales"},
			{Column: "CGST", LedgerName: "Output CGST"},
			{Column: "SGST", LedgerName: "Output SGST"},
			{Column: "IGST", LedgerName: "Output IGST"},
		},
	}
}

func TestSalesScenario(t *testing.T) {
	rows := []model.RawRow{
		{"date": "15/01/2024", "party": "Acme", "Taxable": 1000.0, "CGST": 90.0, "SGST": 90.0},
	}

	res, err := Convert(rows, model.VoucherSales, salesConfig(), nil)
	require.NoError(t, err)

	want := []model.LedgerEntry{
		{VoucherDate: "15/01/2024", VoucherTypeName: "Sales", VoucherNumber: "VCH-1", LedgerName: "Acme", LedgerAmount: "1180.00", DrCr: model.Dr, Narration: "Acme"},
		{LedgerName: "Sales", LedgerAmount: "1000.00", DrCr: model.Cr},
		{LedgerName: "Output CGST", LedgerAmount: "90.00", DrCr: model.Cr},
		{LedgerName: "Output SGST", LedgerAmount: "90.00", DrCr: model.Cr},
	}
	assert.Equal(t, want, res.Entries)
	assert.Equal(t, 1, res.Stats.TotalVouchers)
	assert.Equal(t, 4, res.Stats.TotalEntries)
	assert.True(t, decimal.NewFromInt(1180).Equal(res.Stats.TotalAmount))
	assert.Empty(t, res.Rejections)
}

func TestPurchasePolarity(t *testing.T) {
	cfg := mapping.SalesPurchase{
		Type:            model.VoucherPurchase,
		VoucherTypeName: "Purchase",
		Date:            "Date",
		VoucherNumber:   "Bill No",
		PartyName:       "Supplier",
		Narration:       "Remarks",
		LineItems: []mapping.LineItem{
			{Column: "Value", LedgerName: "Purchases"},
			{Column: "IGST", LedgerName: "Input IGST"},
		},
	}
	rows := []model.RawRow{
		{"Date": "2024-02-01", "Bill No": "B-17", "Supplier": "Widget Co", "Remarks": "Feb stock", "Value": "2,500.50", "IGST": "450.09"},
	}

	res, err := Convert(rows, model.VoucherPurchase, cfg, nil)
	require.NoError(t, err)
	require.Len(t, res.Entries, 3)

	head := res.Entries[0]
	assert.Equal(t, "01/02/2024", head.VoucherDate)
	assert.Equal(t, "B-17", head.VoucherNumber)
	assert.Equal(t, "Purchase", head.VoucherTypeName)
	assert.Equal(t, "Feb stock", head.Narration)
	assert.Equal(t, model.Cr, head.DrCr)
	assert.Equal(t, "2950.59", head.LedgerAmount)

	for _, e := range res.Entries[1:] {
		assert.Equal(t, model.Dr, e.DrCr)
		assert.Empty(t, e.VoucherDate)
		assert.Empty(t, e.VoucherTypeName)
		assert.Empty(t, e.VoucherNumber)
		assert.Empty(t, e.Narration)
	}
}

func TestTradeHeadEqualsLines(t *testing.T) {
	rows := []model.RawRow{
		{"date": "01/04/2024", "party": "A", "Taxable": 100.1, "CGST": 9.01, "SGST": 9.01},
		{"date": "02/04/2024", "party": "B", "Taxable": "0.1", "IGST": "0.2"},
		{"date": "03/04/2024", "party": "C", "Taxable": 333.333, "CGST": 0.004},
	}
	res, err := Convert(rows, model.VoucherSales, salesConfig(), nil)
	require.NoError(t, err)

	var head model.LedgerEntry
	sum := decimal.Zero
	check := func() {
		if head.LedgerName != "" {
			assert.True(t, head.Amount().Sub(sum).Abs().LessThanOrEqual(decimal.RequireFromString("0.01")),
				"voucher %s: head %s vs lines %s", head.VoucherNumber, head.LedgerAmount, sum)
		}
	}
	for _, e := range res.Entries {
		if e.StartsVoucher() {
			check()
			head, sum = e, decimal.Zero
			continue
		}
		sum = sum.Add(e.Amount())
	}
	check()
	assert.Equal(t, 3, res.Stats.TotalVouchers)
}

func TestSkippedRows(t *testing.T) {
	rows := []model.RawRow{
		{"party": "No Date", "Taxable": 100.0},
		{"date": "", "party": "Blank Date", "Taxable": 100.0},
		{"date": "01/01/2024", "party": "", "Taxable": 100.0},
		{"date": "01/01/2024", "party": "Zero", "Taxable": 0.0, "CGST": "abc"},
		{"date": "01/01/2024", "party": "Offsetting", "Taxable": 100.0, "CGST": -100.0},
	}
	res, err := Convert(rows, model.VoucherSales, salesConfig(), nil)
	require.NoError(t, err)

	assert.Empty(t, res.Entries)
	assert.Equal(t, 0, res.Stats.TotalEntries)
	assert.Equal(t, 0, res.Stats.TotalVouchers)
	assert.True(t, res.Stats.TotalAmount.IsZero())
	assert.Equal(t, []Rejection{
		{Row: 0, Reason: ReasonNoDate},
		{Row: 1, Reason: ReasonNoDate},
		{Row: 2, Reason: ReasonNoParty},
		{Row: 3, Reason: ReasonZeroTotal},
		{Row: 4, Reason: ReasonZeroTotal},
	}, res.Rejections)
}

func TestLineItemsNeedColumnAndLedger(t *testing.T) {
	cfg := salesConfig()
	cfg.LineItems = []mapping.LineItem{
		{Column: "Taxable", LedgerName: ""},
		{Column: "", LedgerName: "Sales"},
		{Column: "CGST", LedgerName: "Output CGST"},
	}
	rows := []model.RawRow{{"date": "01/01/2024", "party": "Acme", "Taxable": 1000.0, "CGST": 90.0}}

	res, err := Convert(rows, model.VoucherSales, cfg, nil)
	require.NoError(t, err)
	require.Len(t, res.Entries, 2)
	assert.Equal(t, "90.00", res.Entries[0].LedgerAmount)
	assert.Equal(t, "Output CGST", res.Entries[1].LedgerName)
}

func TestCorrectionsAndFallbackVoucherNumber(t *testing.T) {
	rows := []model.RawRow{
		{"date": "01/01/2024", "party": "Acme Co", "Taxable": 10.0},
		{"date": "01/01/2024", "party": "Beta", "Taxable": 20.0},
		{"date": "01/01/2024", "party": "Gamma", "Taxable": 30.0},
	}
	corrections := map[string]string{"Acme Co": "Acme Corporation", "Gamma": ""}

	res, err := Convert(rows, model.VoucherSales, salesConfig(), corrections)
	require.NoError(t, err)
	require.Len(t, res.Entries, 6)

	assert.Equal(t, "Acme Corporation", res.Entries[0].LedgerName)
	assert.Equal(t, "Acme Co", res.Entries[0].Narration)
	assert.Equal(t, "VCH-1", res.Entries[0].VoucherNumber)
	assert.Equal(t, "Beta", res.Entries[2].LedgerName)
	assert.Equal(t, "VCH-2", res.Entries[2].VoucherNumber)
	assert.Equal(t, "Gamma", res.Entries[4].LedgerName)
	assert.Equal(t, "VCH-3", res.Entries[4].VoucherNumber)
	assert.Equal(t, 3, res.Stats.TotalVouchers)
}

func TestNumericVoucherNumber(t *testing.T) {
	cfg := salesConfig()
	cfg.VoucherNumber = "no"
	rows := []model.RawRow{
		{"date": "01/01/2024", "party": "A", "no": 116.0, "Taxable": 1.0},
		{"date": "01/01/2024", "party": "B", "no": 0.0, "Taxable": 1.0},
	}
	res, err := Convert(rows, model.VoucherSales, cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "116", res.Entries[0].VoucherNumber)
	assert.Equal(t, "VCH-2", res.Entries[2].VoucherNumber)
}

func TestTotalVouchersCountsDistinctPairs(t *testing.T) {
	cfg := salesConfig()
	cfg.VoucherNumber = "no"
	rows := []model.RawRow{
		{"date": "01/01/2024", "no": "1", "party": "A", "Taxable": 1.0},
		{"date": "01/01/2024", "no": "1", "party": "B", "Taxable": 2.0},
		{"date": "02/01/2024", "no": "1", "party": "C", "Taxable": 3.0},
	}
	res, err := Convert(rows, model.VoucherSales, cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Stats.TotalVouchers)
	assert.Equal(t, 6, res.Stats.TotalEntries)
	assert.True(t, decimal.NewFromInt(6).Equal(res.Stats.TotalAmount))
}

func journalConfig() mapping.Journal {
	return mapping.Journal{
		Date:          "Date",
		VoucherNumber: "JV",
		Narration:     "Narration",
		DebitItems: []mapping.JournalItem{
			{AmountColumn: "Dr1 Amt", LedgerNameColumn: "Dr1 Ledger"},
			{AmountColumn: "Dr2 Amt", LedgerNameColumn: "Dr2 Ledger"},
		},
		CreditItems: []mapping.JournalItem{
			{AmountColumn: "Cr1 Amt", LedgerNameColumn: "Cr1 Ledger"},
		},
	}
}

func TestJournalBalanced(t *testing.T) {
	rows := []model.RawRow{{
		"Date": "2024-03-31", "JV": "JV-9", "Narration": "Year end",
		"Dr1 Amt": 300.0, "Dr1 Ledger": " Rent ",
		"Dr2 Amt": "200", "Dr2 Ledger": "Electricity",
		"Cr1 Amt": 500.0, "Cr1 Ledger": "Outstanding Expenses",
	}}

	res, err := Convert(rows, model.VoucherJournal, journalConfig(), nil)
	require.NoError(t, err)

	want := []model.LedgerEntry{
		{VoucherDate: "31/03/2024", VoucherTypeName: "Journal", VoucherNumber: "JV-9", LedgerName: "Rent", LedgerAmount: "300.00", DrCr: model.Dr, Narration: "Year end"},
		{LedgerName: "Electricity", LedgerAmount: "200.00", DrCr: model.Dr},
		{LedgerName: "Outstanding Expenses", LedgerAmount: "500.00", DrCr: model.Cr},
	}
	assert.Equal(t, want, res.Entries)
	assert.True(t, decimal.NewFromInt(500).Equal(res.Stats.TotalAmount))
}

func TestJournalUnbalancedYieldsNothing(t *testing.T) {
	rows := []model.RawRow{
		{"Date": "01/01/2024", "Dr1 Amt": 500.0, "Dr1 Ledger": "Rent", "Cr1 Amt": 400.0, "Cr1 Ledger": "Cash"},
		{"Date": "01/01/2024", "Cr1 Amt": 400.0, "Cr1 Ledger": "Cash"},
		{"Date": "01/01/2024", "Dr1 Amt": 0.0, "Dr1 Ledger": "Rent"},
	}
	res, err := Convert(rows, model.VoucherJournal, journalConfig(), nil)
	require.NoError(t, err)
	assert.Empty(t, res.Entries)
	assert.Equal(t, []Rejection{
		{Row: 0, Reason: ReasonUnbalanced},
		{Row: 1, Reason: ReasonUnbalanced},
		{Row: 2, Reason: ReasonZeroTotal},
	}, res.Rejections)
}

func TestJournalIgnoresIncompletePairs(t *testing.T) {
	rows := []model.RawRow{{
		"Date": "01/01/2024", "Narration": "n",
		"Dr1 Amt": 100.0, "Dr1 Ledger": "Rent",
		"Dr2 Amt": 50.0, "Dr2 Ledger": "   ",
		"Cr1 Amt": 100.0, "Cr1 Ledger": "Cash",
	}}
	res, err := Convert(rows, model.VoucherJournal, journalConfig(), nil)
	require.NoError(t, err)
	require.Len(t, res.Entries, 2)
	assert.Equal(t, "VCH-1", res.Entries[0].VoucherNumber)
}

func TestJournalNegativeAmountsDoNotContribute(t *testing.T) {
	rows := []model.RawRow{{
		"Date": "01/01/2024",
		"Dr1 Amt": 100.0, "Dr1 Ledger": "Rent",
		"Dr2 Amt": -20.0, "Dr2 Ledger": "Refund",
		"Cr1 Amt": 100.0, "Cr1 Ledger": "Cash",
	}}
	res, err := Convert(rows, model.VoucherJournal, journalConfig(), nil)
	require.NoError(t, err)
	assert.Len(t, res.Entries, 2)
}

func TestJournalToleratesSubCentDrift(t *testing.T) {
	cfg := journalConfig()
	rows := []model.RawRow{{
		"Date": "01/01/2024",
		"Dr1 Amt": 0.1, "Dr1 Ledger": "A",
		"Dr2 Amt": 0.2, "Dr2 Ledger": "B",
		"Cr1 Amt": 0.3, "Cr1 Ledger": "C",
	}}
	res, err := Convert(rows, model.VoucherJournal, cfg, nil)
	require.NoError(t, err)
	assert.Len(t, res.Entries, 3)
}

func TestJournalNarrationHasNoFallback(t *testing.T) {
	cfg := journalConfig()
	cfg.Narration = ""
	rows := []model.RawRow{{"Date": "01/01/2024", "Dr1 Amt": 1.0, "Dr1 Ledger": "A", "Cr1 Amt": 1.0, "Cr1 Ledger": "B"}}
	res, err := Convert(rows, model.VoucherJournal, cfg, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Entries[0].Narration)
}

func bankConfig(deposit, withdrawal mapping.Column) mapping.BankStatement {
	return mapping.BankStatement{
		Date:                   "Date",
		PartyName:              "Particulars",
		DepositColumn:          deposit,
		WithdrawalColumn:       withdrawal,
		BankLedgerName:         "HDFC Bank",
		ReceiptVoucherTypeName: "Receipt",
		PaymentVoucherTypeName: "Payment",
	}
}

func TestBankSignedColumn(t *testing.T) {
	rows := []model.RawRow{
		{"Date": "01/05/2024", "Particulars": "Acme", "Amount": 1500.0},
		{"Date": "02/05/2024", "Particulars": "Landlord", "Amount": "-20,000"},
		{"Date": "03/05/2024", "Particulars": "Nothing", "Amount": 0.0},
	}
	res, err := Convert(rows, model.VoucherBankStatement, bankConfig("Amount", "Amount"), nil)
	require.NoError(t, err)

	want := []model.LedgerEntry{
		{VoucherDate: "01/05/2024", VoucherTypeName: "Receipt", VoucherNumber: "VCH-1", LedgerName: "HDFC Bank", LedgerAmount: "1500.00", DrCr: model.Dr},
		{LedgerName: "Acme", LedgerAmount: "1500.00", DrCr: model.Cr},
		{VoucherDate: "02/05/2024", VoucherTypeName: "Payment", VoucherNumber: "VCH-2", LedgerName: "HDFC Bank", LedgerAmount: "20000.00", DrCr: model.Cr},
		{LedgerName: "Landlord", LedgerAmount: "20000.00", DrCr: model.Dr},
	}
	assert.Equal(t, want, res.Entries)
	assert.Equal(t, []Rejection{{Row: 2, Reason: ReasonNoTransaction}}, res.Rejections)
	assert.True(t, decimal.NewFromInt(21500).Equal(res.Stats.TotalAmount))
	assert.Equal(t, 2, res.Stats.TotalVouchers)
}

func TestBankSeparateColumns(t *testing.T) {
	rows := []model.RawRow{
		{"Date": "01/05/2024", "Particulars": "Acme Co", "Deposit": "250.5", "Withdrawal": ""},
		{"Date": "02/05/2024", "Particulars": "Power", "Deposit": nil, "Withdrawal": -75.0},
		{"Date": "03/05/2024", "Particulars": "Both", "Deposit": 10.0, "Withdrawal": 5.0},
		{"Date": "04/05/2024", "Particulars": "", "Deposit": 10.0},
	}
	corrections := map[string]string{"Acme Co": "Acme Corporation"}
	res, err := Convert(rows, model.VoucherBankStatement, bankConfig("Deposit", "Withdrawal"), corrections)
	require.NoError(t, err)
	require.Len(t, res.Entries, 6)

	assert.Equal(t, "Receipt", res.Entries[0].VoucherTypeName)
	assert.Equal(t, "Acme Corporation", res.Entries[1].LedgerName)
	assert.Equal(t, "250.50", res.Entries[1].LedgerAmount)

	assert.Equal(t, "Payment", res.Entries[2].VoucherTypeName)
	assert.Equal(t, model.Cr, res.Entries[2].DrCr)
	assert.Equal(t, "75.00", res.Entries[3].LedgerAmount)
	assert.Equal(t, model.Dr, res.Entries[3].DrCr)

	// A deposit wins over a withdrawal on the same row.
	assert.Equal(t, "Receipt", res.Entries[4].VoucherTypeName)
	assert.Equal(t, "10.00", res.Entries[4].LedgerAmount)

	assert.Equal(t, []Rejection{{Row: 3, Reason: ReasonNoParty}}, res.Rejections)
}

func TestBankPairProperty(t *testing.T) {
	rows := []model.RawRow{
		{"Date": "01/05/2024", "Particulars": "A", "Amount": 1.0},
		{"Date": "02/05/2024", "Particulars": "B", "Amount": -2.5},
		{"Date": "03/05/2024", "Particulars": "C", "Amount": 99999.999},
	}
	res, err := Convert(rows, model.VoucherBankStatement, bankConfig("Amount", "Amount"), nil)
	require.NoError(t, err)
	require.Len(t, res.Entries, 6)
	for i := 0; i < len(res.Entries); i += 2 {
		bank, party := res.Entries[i], res.Entries[i+1]
		assert.Equal(t, "HDFC Bank", bank.LedgerName)
		assert.Equal(t, bank.LedgerAmount, party.LedgerAmount)
		assert.Equal(t, bank.DrCr.Opposite(), party.DrCr)
	}
}

func TestBankNarrationHasNoFallback(t *testing.T) {
	rows := []model.RawRow{{"Date": "01/05/2024", "Particulars": "A", "Amount": 1.0}}
	res, err := Convert(rows, model.VoucherBankStatement, bankConfig("Amount", "Amount"), nil)
	require.NoError(t, err)
	assert.Empty(t, res.Entries[0].Narration)
}

func TestIdempotent(t *testing.T) {
	rows := []model.RawRow{
		{"date": "15/01/2024", "party": "Acme", "Taxable": 1000.0, "CGST": 90.0, "SGST": 90.0},
		{"date": 45000.0, "party": "Beta", "Taxable": "12.345"},
	}
	a, err := Convert(rows, model.VoucherSales, salesConfig(), nil)
	require.NoError(t, err)
	b, err := Convert(rows, model.VoucherSales, salesConfig(), nil)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestConfigMismatch(t *testing.T) {
	_, err := Convert(nil, model.VoucherJournal, salesConfig(), nil)
	assert.ErrorIs(t, err, ErrConfigMismatch)

	_, err = Convert(nil, model.VoucherSales, nil, nil)
	assert.ErrorIs(t, err, ErrConfigMismatch)

	_, err = Convert(nil, model.VoucherPurchase, salesConfig(), nil)
	assert.ErrorIs(t, err, ErrConfigMismatch)
}

func TestEmptyInput(t *testing.T) {
	res, err := Convert(nil, model.VoucherSales, salesConfig(), nil)
	require.NoError(t, err)
	assert.NotNil(t, res.Entries)
	assert.Equal(t, 0, res.Stats.TotalEntries)
}
