package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/cleared-dev/ledgerbridge/internal/model"
)

// NameMatcher asks the model to map party names onto chart-of-accounts names.
// It satisfies reconcile.Matcher.
type NameMatcher struct {
	gen Generator
}

// NewNameMatcher returns a NameMatcher using gen.
func NewNameMatcher(gen Generator) *NameMatcher {
	return &NameMatcher{gen: gen}
}

var nameMatchSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"corrections": {
			Type:        genai.TypeArray,
			Description: "Party names mapped to the matching chart-of-accounts name.",
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"originalName":  {Type: genai.TypeString},
					"correctedName": {Type: genai.TypeString},
				},
				Required: []string{"originalName", "correctedName"},
			},
		},
		"newLedgers": {
			Type:  genai.TypeArray,
			Items: ledgerSchema,
		},
	},
	Required: []string{"corrections", "newLedgers"},
}

var ledgerSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"name":  {Type: genai.TypeString},
		"group": {Type: genai.TypeString},
	},
	Required: []string{"name", "group"},
}

type correction struct {
	OriginalName  string `json:"originalName"`
	CorrectedName string `json:"correctedName"`
}

type nameMatchResponse struct {
	Corrections *[]correction          `json:"corrections"`
	NewLedgers  *[]model.LedgerAccount `json:"newLedgers"`
}

// MatchBatch matches one batch of names.
func (m *NameMatcher) MatchBatch(ctx context.Context, names, chart []string, vt model.VoucherType) (model.NameMapping, error) {
	raw, err := m.gen.Generate(ctx, Request{
		Instruction: nameMatchPrompt(names, chart, vt),
		Schema:      nameMatchSchema,
	})
	if err != nil {
		return model.NameMapping{}, fmt.Errorf("matching names: %w", err)
	}

	var resp nameMatchResponse
	if err := Decode(raw, &resp); err != nil {
		return model.NameMapping{}, err
	}
	if resp.Corrections == nil {
		return model.NameMapping{}, missingKey(raw, "corrections")
	}
	if resp.NewLedgers == nil {
		return model.NameMapping{}, missingKey(raw, "newLedgers")
	}

	out := model.NameMapping{
		Corrections: make(map[string]string, len(*resp.Corrections)),
		NewLedgers:  make([]model.LedgerAccount, 0, len(*resp.NewLedgers)),
	}
	for _, c := range *resp.Corrections {
		if c.OriginalName == "" {
			continue
		}
		out.Corrections[c.OriginalName] = c.CorrectedName
	}
	for _, l := range *resp.NewLedgers {
		l.Name = strings.TrimSpace(l.Name)
		if l.Name == "" {
			continue
		}
		out.NewLedgers = append(out.NewLedgers, l)
	}
	return out, nil
}

// GroupHint is the suggested accounting group guidance for unmatched names.
func GroupHint(vt model.VoucherType) string {
	switch vt {
	case model.VoucherSales:
		return `These are customers: suggest "Sundry Debtors".`
	case model.VoucherPurchase:
		return `These are suppliers: suggest "Sundry Creditors".`
	case model.VoucherBankStatement:
		return `Parties paying in are usually "Sundry Debtors"; parties paid out are usually "Sundry Creditors".`
	}
	return `Any group is possible: make a best guess from the name, or use "Suspense A/c".`
}

func nameMatchPrompt(names, chart []string, vt model.VoucherType) string {
	namesJSON, _ := json.Marshal(names)
	chartJSON, _ := json.Marshal(chart)

	var b strings.Builder
	b.WriteString("You reconcile party names from accounting records against a chart of accounts.\n\n")
	b.WriteString("For each party name, find the chart-of-accounts ledger it refers to. Accept minor spelling mistakes, ")
	b.WriteString("missing or extra suffixes such as Co, Ltd or Pvt, and a different word order. ")
	b.WriteString("Only report a correction when you are confident and the corrected name differs from the original.\n\n")
	b.WriteString("Names you cannot match are new ledgers. Suggest an accounting group for each one. ")
	fmt.Fprintf(&b, "The voucher type is %q. %s\n\n", vt, GroupHint(vt))
	fmt.Fprintf(&b, "Party names: %s\n", namesJSON)
	fmt.Fprintf(&b, "Chart of accounts: %s\n\n", chartJSON)
	b.WriteString(`Respond with one JSON object with exactly two keys: "corrections", an array of {"originalName", "correctedName"}, `)
	b.WriteString(`and "newLedgers", an array of {"name", "group"} where name is the original party name. Respond with JSON only.`)
	return b.String()
}
