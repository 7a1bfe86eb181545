package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/cleared-dev/ledgerbridge/internal/model"
	"github.com/cleared-dev/ledgerbridge/internal/sheet"
)

// Document is a file handed to the model, such as a PDF or a scanned image.
type Document struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Extractor reads accounting documents into rows or ledger lists.
type Extractor struct {
	gen Generator
}

// NewExtractor returns an Extractor using gen.
func NewExtractor(gen Generator) *Extractor {
	return &Extractor{gen: gen}
}

var (
	bankColumns    = []string{"Date", "Party Name", "Narration", "Deposit", "Withdrawal"}
	journalColumns = []string{"Date", "Voucher Number", "Narration", "Debit Ledger", "Debit Amount", "Credit Ledger", "Credit Amount"}
)

// ExtractRows turns a document into a table for vt. Bank statements and
// journals use fixed column names; invoices use whatever keys the model
// found, in first-seen order.
func (e *Extractor) ExtractRows(ctx context.Context, doc Document, vt model.VoucherType) (*sheet.Table, error) {
	var (
		prompt string
		schema *genai.Schema
	)
	switch vt {
	case model.VoucherBankStatement:
		prompt, schema = bankExtractPrompt, tabularSchema(bankColumns, 3)
	case model.VoucherJournal:
		prompt, schema = journalExtractPrompt, tabularSchema(journalColumns, 3)
	case model.VoucherSales, model.VoucherPurchase:
		prompt, schema = invoiceExtractPrompt(vt), invoiceSchema
	default:
		return nil, fmt.Errorf("extracting rows: unsupported voucher type %q", vt)
	}

	raw, err := e.gen.Generate(ctx, Request{
		Instruction: prompt,
		Schema:      schema,
		Attachment:  &Attachment{MIMEType: doc.MIMEType, Data: doc.Data},
	})
	if err != nil {
		return nil, fmt.Errorf("extracting rows from %s: %w", doc.Name, err)
	}

	if vt == model.VoucherSales || vt == model.VoucherPurchase {
		return decodeInvoices(raw)
	}
	if vt == model.VoucherBankStatement {
		return decodeTabular(raw, bankColumns)
	}
	return decodeTabular(raw, journalColumns)
}

// ExtractChart reads a chart of accounts or list of ledgers.
func (e *Extractor) ExtractChart(ctx context.Context, doc Document) ([]model.LedgerAccount, error) {
	raw, err := e.gen.Generate(ctx, Request{
		Instruction: chartExtractPrompt,
		Schema:      &genai.Schema{Type: genai.TypeArray, Items: ledgerSchema},
		Attachment:  &Attachment{MIMEType: doc.MIMEType, Data: doc.Data},
	})
	if err != nil {
		return nil, fmt.Errorf("extracting ledgers from %s: %w", doc.Name, err)
	}

	var accounts []model.LedgerAccount
	if err := Decode(raw, &accounts); err != nil {
		return nil, err
	}
	out := make([]model.LedgerAccount, 0, len(accounts))
	for _, a := range accounts {
		a.Name = strings.TrimSpace(a.Name)
		a.Group = strings.TrimSpace(a.Group)
		if a.Name != "" {
			out = append(out, a)
		}
	}
	return out, nil
}

func decodeTabular(raw string, columns []string) (*sheet.Table, error) {
	var records []map[string]any
	if err := Decode(raw, &records); err != nil {
		return nil, err
	}
	t := &sheet.Table{Headers: columns, Rows: make([]model.RawRow, 0, len(records))}
	for i, rec := range records {
		row := make(model.RawRow, len(columns))
		for _, c := range columns {
			switch v := rec[c].(type) {
			case nil, string, float64:
				row[c] = v
			default:
				return nil, &ContractError{Raw: raw, Err: fmt.Errorf("record %d: %q is %T", i, c, v)}
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

type keyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func decodeInvoices(raw string) (*sheet.Table, error) {
	var invoices []json.RawMessage
	if err := Decode(raw, &invoices); err != nil {
		return nil, err
	}
	t := &sheet.Table{Headers: []string{}, Rows: []model.RawRow{}}
	seen := make(map[string]bool)
	for i, inv := range invoices {
		var pairs []keyValue
		if err := json.Unmarshal(inv, &pairs); err != nil {
			return nil, &ContractError{Raw: raw, Err: fmt.Errorf("invoice %d: %w", i, err)}
		}
		row := model.RawRow{}
		for _, kv := range pairs {
			if kv.Key == "" || kv.Value == "" {
				continue
			}
			row[kv.Key] = kv.Value
			if !seen[kv.Key] {
				seen[kv.Key] = true
				t.Headers = append(t.Headers, kv.Key)
			}
		}
		if len(row) > 0 {
			t.Rows = append(t.Rows, row)
		}
	}
	return t, nil
}

// tabularSchema makes every column a string; the first required columns are
// mandatory and the rest nullable.
func tabularSchema(columns []string, required int) *genai.Schema {
	props := make(map[string]*genai.Schema, len(columns))
	for i, c := range columns {
		s := &genai.Schema{Type: genai.TypeString}
		if i >= required {
			s.Nullable = genai.Ptr(true)
		}
		props[c] = s
	}
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type:             genai.TypeObject,
			Properties:       props,
			PropertyOrdering: columns,
			Required:         columns[:required],
		},
	}
}

var invoiceSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"key":   {Type: genai.TypeString},
				"value": {Type: genai.TypeString},
			},
			Required: []string{"key", "value"},
		},
	},
}

const bankExtractPrompt = "Read every transaction in the attached bank statement. For each one give the Date, the Narration as printed, " +
	"the Deposit or the Withdrawal amount, and the most likely Party Name taken from the narration. " +
	`Return a JSON array of objects with the keys "Date", "Party Name", "Narration", "Deposit" and "Withdrawal". ` +
	"Each transaction has either a Deposit or a Withdrawal. Respond with JSON only."

const journalExtractPrompt = "Read the attached journal voucher and list every debit and credit line. " +
	`Return a JSON array of objects with the keys "Date", "Voucher Number", "Narration", "Debit Ledger", "Debit Amount", "Credit Ledger" and "Credit Amount". ` +
	"A debit line leaves the credit keys null and a credit line leaves the debit keys null. Respond with JSON only."

const chartExtractPrompt = "The attached document is a chart of accounts or a list of ledgers. " +
	"List every leaf ledger with the group it sits directly under, for example a customer listed under Sundry Debtors. " +
	"Skip totals and headings such as Assets or Current Liabilities unless a ledger sits directly under them. " +
	`Return a JSON array of {"name", "group"} objects. Respond with JSON only.`

func invoiceExtractPrompt(vt model.VoucherType) string {
	party := "customer"
	if vt == model.VoucherPurchase {
		party = "supplier"
	}
	return fmt.Sprintf("The attached document may hold several %s invoices across many pages. Find every invoice, first page to last. "+
		"For each invoice record the invoice date, the invoice number and the %s name, then every financial line: "+
		"taxable value, each tax such as CGST, SGST or IGST, discounts, freight and any other charge. "+
		`Describe each invoice as an array of {"key", "value"} pairs, where key is a short header such as "Date", "Invoice No.", "Party Name", "Taxable Value" or "SGST @ 9%%". `+
		"Return a JSON array with one such array per invoice. Do not skip any invoice. Respond with JSON only.", vt, party)
}
