package oracle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/ledgerbridge/internal/mapping"
	"github.com/cleared-dev/ledgerbridge/internal/model"
)

type fakeGenerator struct {
	response string
	err      error
	requests []Request
}

func (f *fakeGenerator) Generate(_ context.Context, req Request) (string, error) {
	f.requests = append(f.requests, req)
	return f.response, f.err
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n[1,2]\n```\n", `[1,2]`},
		{"padded", "  \n{\"a\":1}\n ", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripFences(tt.in))
		})
	}
}

func TestDecodeKeepsRawOnFailure(t *testing.T) {
	var v map[string]any
	err := Decode("Sorry, I can't help with that.", &v)
	require.Error(t, err)

	var ce *ContractError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "Sorry, I can't help with that.", ce.Raw)
	assert.Contains(t, err.Error(), "raw response: Sorry")

	assert.Error(t, Decode("```json\n```", &v))
}

func TestNameMatcher(t *testing.T) {
	gen := &fakeGenerator{response: "```json\n" + `{
		"corrections": [{"originalName": "Acme Co", "correctedName": "Acme Corporation"}],
		"newLedgers": [{"name": "Zeta Traders", "group": "Sundry Debtors"}, {"name": " ", "group": "x"}]
	}` + "\n```"}
	m := NewNameMatcher(gen)

	got, err := m.MatchBatch(context.Background(), []string{"Acme Co", "Zeta Traders"}, []string{"Acme Corporation"}, model.VoucherSales)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"Acme Co": "Acme Corporation"}, got.Corrections)
	assert.Equal(t, []model.LedgerAccount{{Name: "Zeta Traders", Group: "Sundry Debtors"}}, got.NewLedgers)

	require.Len(t, gen.requests, 1)
	req := gen.requests[0]
	assert.Contains(t, req.Instruction, `["Acme Co","Zeta Traders"]`)
	assert.Contains(t, req.Instruction, `["Acme Corporation"]`)
	assert.Contains(t, req.Instruction, "Sundry Debtors")
	assert.Nil(t, req.Attachment)
	require.NotNil(t, req.Schema)
	assert.ElementsMatch(t, []string{"corrections", "newLedgers"}, req.Schema.Required)
}

func TestNameMatcherContractViolations(t *testing.T) {
	tests := []struct {
		name     string
		response string
		missing  string
	}{
		{"no corrections", `{"newLedgers": []}`, "corrections"},
		{"null new ledgers", `{"corrections": [], "newLedgers": null}`, "newLedgers"},
		{"not json", `corrections: none`, ""},
		{"array", `[]`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewNameMatcher(&fakeGenerator{response: tt.response})
			_, err := m.MatchBatch(context.Background(), []string{"A"}, nil, model.VoucherPurchase)

			var ce *ContractError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.response, ce.Raw)
			if tt.missing != "" {
				assert.Contains(t, err.Error(), tt.missing)
			}
		})
	}
}

func TestNameMatcherTransportError(t *testing.T) {
	m := NewNameMatcher(&fakeGenerator{err: errors.New("quota exceeded")})
	_, err := m.MatchBatch(context.Background(), []string{"A"}, nil, model.VoucherJournal)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestGroupHint(t *testing.T) {
	assert.Contains(t, GroupHint(model.VoucherSales), "Sundry Debtors")
	assert.Contains(t, GroupHint(model.VoucherPurchase), "Sundry Creditors")
	assert.Contains(t, GroupHint(model.VoucherJournal), "Suspense A/c")
}

func TestSuggestSalesPurchase(t *testing.T) {
	gen := &fakeGenerator{response: `{
		"baseFields": {"date": "Inv Date", "voucherNumber": "Inv No", "partyName": "Customer", "narration": "Not A Header"},
		"lineItems": [
			{"column": "Taxable", "ledgerName": "Sales"},
			{"column": "CGST 9%", "ledgerName": "Output CGST"},
			{"column": "Ghost", "ledgerName": "Output SGST"},
			{"column": "Freight", "ledgerName": ""}
		]
	}`}
	current, err := mapping.Default(model.VoucherSales)
	require.NoError(t, err)

	headers := []string{"Inv Date", "Inv No", "Customer", "Taxable", "CGST 9%", "Freight"}
	got, err := NewSuggester(gen).Suggest(context.Background(), headers, current)
	require.NoError(t, err)

	sp := got.(mapping.SalesPurchase)
	assert.Equal(t, model.VoucherSales, sp.Type)
	assert.Equal(t, "Sales", sp.VoucherTypeName)
	assert.Equal(t, mapping.Column("Inv Date"), sp.Date)
	assert.Equal(t, mapping.Column("Customer"), sp.PartyName)
	assert.Equal(t, mapping.Column(""), sp.Narration)
	assert.Equal(t, []mapping.LineItem{
		{Column: "Taxable", LedgerName: "Sales"},
		{Column: "CGST 9%", LedgerName: "Output CGST"},
	}, sp.LineItems)
	assert.Contains(t, gen.requests[0].Instruction, `"Inv Date"`)
}

func TestSuggestKeepsLineItemsWhenOmitted(t *testing.T) {
	gen := &fakeGenerator{response: `{"baseFields": {"date": "Date"}}`}
	current, _ := mapping.Default(model.VoucherPurchase)

	got, err := NewSuggester(gen).Suggest(context.Background(), []string{"Date"}, current)
	require.NoError(t, err)
	assert.Len(t, got.(mapping.SalesPurchase).LineItems, 4)
	assert.Equal(t, mapping.Column("Date"), got.Column(mapping.FieldDate))
}

func TestSuggestJournal(t *testing.T) {
	gen := &fakeGenerator{response: `{
		"baseFields": {"date": "Date", "voucherNumber": null, "narration": "Notes"},
		"debitItems": [{"amountColumn": "Dr Amt", "ledgerNameColumn": "Dr Ledger"}],
		"creditItems": [{"amountColumn": "Cr Amt", "ledgerNameColumn": "Missing"}]
	}`}
	current, _ := mapping.Default(model.VoucherJournal)
	headers := []string{"Date", "Notes", "Dr Amt", "Dr Ledger", "Cr Amt", "Cr Ledger"}

	got, err := NewSuggester(gen).Suggest(context.Background(), headers, current)
	require.NoError(t, err)

	j := got.(mapping.Journal)
	assert.Equal(t, mapping.Column(""), j.VoucherNumber)
	assert.Equal(t, []mapping.JournalItem{{AmountColumn: "Dr Amt", LedgerNameColumn: "Dr Ledger"}}, j.DebitItems)
	assert.Empty(t, j.CreditItems)
}

func TestSuggestBankStatement(t *testing.T) {
	gen := &fakeGenerator{response: `{"date": "Txn Date", "partyName": "Particulars", "narration": "Particulars", "depositColumn": "Amount", "withdrawalColumn": "Amount"}`}
	current, _ := mapping.Default(model.VoucherBankStatement)

	got, err := NewSuggester(gen).Suggest(context.Background(), []string{"Txn Date", "Particulars", "Amount"}, current)
	require.NoError(t, err)

	b := got.(mapping.BankStatement)
	assert.Equal(t, mapping.Column("Amount"), b.DepositColumn)
	assert.Equal(t, mapping.Column("Amount"), b.WithdrawalColumn)
	assert.Equal(t, "Bank Account", b.BankLedgerName)
}

func TestSuggestContractError(t *testing.T) {
	current, _ := mapping.Default(model.VoucherBankStatement)
	_, err := NewSuggester(&fakeGenerator{response: "[1,2]"}).Suggest(context.Background(), nil, current)
	var ce *ContractError
	assert.ErrorAs(t, err, &ce)
}
