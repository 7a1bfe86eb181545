package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/cleared-dev/ledgerbridge/internal/mapping"
)

// Suggester proposes a mapping configuration from dataset headers.
type Suggester struct {
	gen Generator
}

// NewSuggester returns a Suggester using gen.
func NewSuggester(gen Generator) *Suggester {
	return &Suggester{gen: gen}
}

type lineItemSuggestion struct {
	Column     string `json:"column"`
	LedgerName string `json:"ledgerName"`
}

type journalItemSuggestion struct {
	AmountColumn     string `json:"amountColumn"`
	LedgerNameColumn string `json:"ledgerNameColumn"`
}

type tradeSuggestion struct {
	BaseFields map[string]*string    `json:"baseFields"`
	LineItems  *[]lineItemSuggestion `json:"lineItems"`
}

type journalSuggestion struct {
	BaseFields  map[string]*string       `json:"baseFields"`
	DebitItems  *[]journalItemSuggestion `json:"debitItems"`
	CreditItems *[]journalItemSuggestion `json:"creditItems"`
}

// Suggest asks the model to map headers onto current's fields. Only headers
// present in the dataset are accepted; every base field the model leaves
// out becomes unmapped. Line items and journal pairs are replaced only when
// the response includes them. Free-text labels in current are kept.
func (s *Suggester) Suggest(ctx context.Context, headers []string, current mapping.Config) (mapping.Config, error) {
	fields := mapping.FieldDefinitions(current.VoucherType())
	h := make(map[string]bool, len(headers))
	for _, name := range headers {
		h[name] = true
	}
	pick := func(v *string) mapping.Column {
		if v == nil || !h[*v] {
			return ""
		}
		return mapping.Column(*v)
	}

	switch c := current.(type) {
	case mapping.SalesPurchase:
		raw, err := s.generate(ctx, tradePrompt(headers, fields), tradeSchema(fields))
		if err != nil {
			return nil, err
		}
		var resp tradeSuggestion
		if err := Decode(raw, &resp); err != nil {
			return nil, err
		}
		c.Date = pick(resp.BaseFields[string(mapping.FieldDate)])
		c.VoucherNumber = pick(resp.BaseFields[string(mapping.FieldVoucherNumber)])
		c.PartyName = pick(resp.BaseFields[string(mapping.FieldPartyName)])
		c.Narration = pick(resp.BaseFields[string(mapping.FieldNarration)])
		if resp.LineItems != nil {
			c.LineItems = nil
			for _, li := range *resp.LineItems {
				col := pick(&li.Column)
				name := strings.TrimSpace(li.LedgerName)
				if col == "" || name == "" {
					continue
				}
				c.LineItems = append(c.LineItems, mapping.LineItem{Column: col, LedgerName: name})
			}
		}
		return c, nil

	case mapping.Journal:
		raw, err := s.generate(ctx, journalPrompt(headers, fields), journalSchema(fields))
		if err != nil {
			return nil, err
		}
		var resp journalSuggestion
		if err := Decode(raw, &resp); err != nil {
			return nil, err
		}
		c.Date = pick(resp.BaseFields[string(mapping.FieldDate)])
		c.VoucherNumber = pick(resp.BaseFields[string(mapping.FieldVoucherNumber)])
		c.Narration = pick(resp.BaseFields[string(mapping.FieldNarration)])
		pairs := func(items *[]journalItemSuggestion) []mapping.JournalItem {
			var out []mapping.JournalItem
			for _, it := range *items {
				amount, ledger := pick(&it.AmountColumn), pick(&it.LedgerNameColumn)
				if amount == "" || ledger == "" {
					continue
				}
				out = append(out, mapping.JournalItem{AmountColumn: amount, LedgerNameColumn: ledger})
			}
			return out
		}
		if resp.DebitItems != nil {
			c.DebitItems = pairs(resp.DebitItems)
		}
		if resp.CreditItems != nil {
			c.CreditItems = pairs(resp.CreditItems)
		}
		return c, nil

	case mapping.BankStatement:
		raw, err := s.generate(ctx, bankPrompt(headers, fields), bankSchema(fields))
		if err != nil {
			return nil, err
		}
		var resp map[string]*string
		if err := Decode(raw, &resp); err != nil {
			return nil, err
		}
		c.Date = pick(resp[string(mapping.FieldDate)])
		c.PartyName = pick(resp[string(mapping.FieldPartyName)])
		c.Narration = pick(resp[string(mapping.FieldNarration)])
		c.DepositColumn = pick(resp[string(mapping.FieldDeposit)])
		c.WithdrawalColumn = pick(resp[string(mapping.FieldWithdrawal)])
		return c, nil
	}
	return nil, fmt.Errorf("suggesting mapping: unsupported configuration %T", current)
}

func (s *Suggester) generate(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	raw, err := s.gen.Generate(ctx, Request{Instruction: prompt, Schema: schema})
	if err != nil {
		return "", fmt.Errorf("suggesting mapping: %w", err)
	}
	return raw, nil
}

func baseFieldsSchema(fields []mapping.FieldDefinition) *genai.Schema {
	props := make(map[string]*genai.Schema, len(fields))
	for _, f := range fields {
		props[string(f.Key)] = &genai.Schema{Type: genai.TypeString, Nullable: genai.Ptr(true), Description: f.Label}
	}
	return &genai.Schema{Type: genai.TypeObject, Properties: props}
}

func tradeSchema(fields []mapping.FieldDefinition) *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"baseFields": baseFieldsSchema(fields),
			"lineItems": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"column":     {Type: genai.TypeString},
						"ledgerName": {Type: genai.TypeString},
					},
					Required: []string{"column", "ledgerName"},
				},
			},
		},
		Required: []string{"baseFields", "lineItems"},
	}
}

func journalSchema(fields []mapping.FieldDefinition) *genai.Schema {
	pair := &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"amountColumn":     {Type: genai.TypeString},
				"ledgerNameColumn": {Type: genai.TypeString},
			},
			Required: []string{"amountColumn", "ledgerNameColumn"},
		},
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"baseFields":  baseFieldsSchema(fields),
			"debitItems":  pair,
			"creditItems": pair,
		},
		Required: []string{"baseFields", "debitItems", "creditItems"},
	}
}

func bankSchema(fields []mapping.FieldDefinition) *genai.Schema {
	return baseFieldsSchema(fields)
}

func header(headers []string, fields []mapping.FieldDefinition) string {
	h, _ := json.Marshal(headers)
	f, _ := json.Marshal(fields)
	return fmt.Sprintf("Spreadsheet headers: %s\nFields: %s\n\n", h, f)
}

func tradePrompt(headers []string, fields []mapping.FieldDefinition) string {
	return "Map the spreadsheet headers of a sales or purchase register onto voucher fields.\n\n" +
		header(headers, fields) +
		"Also list every column that holds a financial line item, such as the taxable value, each tax, discounts or freight. " +
		"Leave out the invoice total column.\n\n" +
		`Respond with a JSON object: "baseFields" maps each field key to a header or null; ` +
		`"lineItems" is an array of {"column", "ledgerName"} with a short ledger name such as "Sales", "Output CGST" or "Discount Allowed". ` +
		"Respond with JSON only."
}

func journalPrompt(headers []string, fields []mapping.FieldDefinition) string {
	return "Map the spreadsheet headers of a compound journal register onto voucher fields. " +
		"Amounts and ledger names sit in paired columns.\n\n" +
		header(headers, fields) +
		`Respond with a JSON object: "baseFields" maps each field key to a header or null; ` +
		`"debitItems" and "creditItems" are arrays of {"amountColumn", "ledgerNameColumn"} naming the paired headers. ` +
		"Respond with JSON only."
}

func bankPrompt(headers []string, fields []mapping.FieldDefinition) string {
	return "Map the spreadsheet headers of a bank statement onto voucher fields.\n\n" +
		header(headers, fields) +
		"The party name usually lives in a Description or Particulars column. Deposits are credits to the account and withdrawals are debits. " +
		"If one signed amount column holds both, map depositColumn and withdrawalColumn to it. " +
		"Use the party column for narration when there is no better one.\n\n" +
		"Respond with a JSON object mapping each field key to a header or null. Respond with JSON only."
}
