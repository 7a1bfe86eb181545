package mapping

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/ledgerbridge/internal/model"
)

// FileName is the project-relative location of the saved mappings.
const FileName = "mappings.yaml"

// Set holds one configuration per voucher type.
type Set struct {
	Sales         SalesPurchase `yaml:"sales"`
	Purchase      SalesPurchase `yaml:"purchase"`
	Journal       Journal       `yaml:"journal"`
	BankStatement BankStatement `yaml:"bank_statement"`
}

// DefaultSet returns a Set of default configurations.
func DefaultSet() *Set {
	return &Set{
		Sales:         defaultSalesPurchase(model.VoucherSales),
		Purchase:      defaultSalesPurchase(model.VoucherPurchase),
		Journal:       defaultJournal(),
		BankStatement: defaultBankStatement(),
	}
}

// For returns the configuration for vt.
func (s *Set) For(vt model.VoucherType) (Config, error) {
	switch vt {
	case model.VoucherSales:
		return s.Sales, nil
	case model.VoucherPurchase:
		return s.Purchase, nil
	case model.VoucherJournal:
		return s.Journal, nil
	case model.VoucherBankStatement:
		return s.BankStatement, nil
	}
	return nil, fmt.Errorf("unknown voucher type %q", vt)
}

// Put replaces the configuration for cfg's voucher type.
func (s *Set) Put(cfg Config) error {
	switch c := cfg.(type) {
	case SalesPurchase:
		switch c.Type {
		case model.VoucherSales:
			s.Sales = c
		case model.VoucherPurchase:
			s.Purchase = c
		default:
			return fmt.Errorf("trade configuration has voucher type %q", c.Type)
		}
	case Journal:
		s.Journal = c
	case BankStatement:
		s.BankStatement = c
	default:
		return fmt.Errorf("unsupported configuration %T", cfg)
	}
	return nil
}

// LoadSet reads <repoRoot>/mappings.yaml. A missing file yields DefaultSet.
func LoadSet(repoRoot string) (*Set, error) {
	data, err := os.ReadFile(filepath.Join(repoRoot, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSet(), nil
		}
		return nil, fmt.Errorf("reading mappings: %w", err)
	}
	s := DefaultSet()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parsing mappings: %w", err)
	}
	s.Sales.Type = model.VoucherSales
	s.Purchase.Type = model.VoucherPurchase
	return s, nil
}

// SaveSet writes s to <repoRoot>/mappings.yaml.
func SaveSet(repoRoot string, s *Set) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling mappings: %w", err)
	}
	if err := os.WriteFile(filepath.Join(repoRoot, FileName), data, 0o644); err != nil {
		return fmt.Errorf("writing mappings: %w", err)
	}
	return nil
}

// DecodeJSON decodes the JSON form of the configuration variant for vt.
func DecodeJSON(vt model.VoucherType, data []byte) (Config, error) {
	switch vt {
	case model.VoucherSales, model.VoucherPurchase:
		var c SalesPurchase
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("decoding %s mapping: %w", vt, err)
		}
		c.Type = vt
		return c, nil
	case model.VoucherJournal:
		var c Journal
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("decoding %s mapping: %w", vt, err)
		}
		return c, nil
	case model.VoucherBankStatement:
		var c BankStatement
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("decoding %s mapping: %w", vt, err)
		}
		return c, nil
	}
	return nil, fmt.Errorf("unknown voucher type %q", vt)
}
