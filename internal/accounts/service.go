package accounts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cleared-dev/ledgerbridge/internal/model"
)

// File is the chart of accounts path relative to the repository root.
const File = "accounts/chart-of-accounts.csv"

// Service provides in-memory lookup over the chart of accounts.
type Service struct {
	accounts []model.LedgerAccount
	byName   map[string]model.LedgerAccount
}

// NewService creates a Service from a slice of ledgers. Later duplicates
// of a name are dropped.
func NewService(accounts []model.LedgerAccount) *Service {
	s := &Service{byName: make(map[string]model.LedgerAccount, len(accounts))}
	s.add(accounts)
	return s
}

func (s *Service) add(accounts []model.LedgerAccount) int {
	var added int
	for _, a := range accounts {
		if a.Name == "" {
			continue
		}
		if _, ok := s.byName[a.Name]; ok {
			continue
		}
		s.byName[a.Name] = a
		s.accounts = append(s.accounts, a)
		added++
	}
	return added
}

// Load reads chart-of-accounts.csv from a repo root and returns a Service.
func Load(repoRoot string) (*Service, error) {
	f, err := os.Open(filepath.Join(repoRoot, File))
	if err != nil {
		return nil, fmt.Errorf("opening chart of accounts: %w", err)
	}
	defer f.Close()

	accts, err := ReadAccounts(f)
	if err != nil {
		return nil, fmt.Errorf("reading chart of accounts: %w", err)
	}
	return NewService(accts), nil
}

// All returns all ledgers in chart order.
func (s *Service) All() []model.LedgerAccount {
	return s.accounts
}

// Names returns every ledger name in chart order.
func (s *Service) Names() []string {
	names := make([]string, len(s.accounts))
	for i, a := range s.accounts {
		names[i] = a.Name
	}
	return names
}

// Get returns a ledger by exact name.
func (s *Service) Get(name string) (model.LedgerAccount, bool) {
	a, ok := s.byName[name]
	return a, ok
}

// Exists reports whether a ledger name exists.
func (s *Service) Exists(name string) bool {
	_, ok := s.byName[name]
	return ok
}

// ByGroup returns all ledgers in the group, compared case-insensitively.
func (s *Service) ByGroup(group string) []model.LedgerAccount {
	var result []model.LedgerAccount
	for _, a := range s.accounts {
		if strings.EqualFold(a.Group, group) {
			result = append(result, a)
		}
	}
	return result
}

// Merge appends ledgers whose names are not yet in the chart and returns how
// many were added.
func (s *Service) Merge(ledgers []model.LedgerAccount) int {
	return s.add(ledgers)
}

// Save writes the chart of accounts to accounts/chart-of-accounts.csv.
func (s *Service) Save(repoRoot string) error {
	path := filepath.Join(repoRoot, File)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating accounts dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating chart of accounts file: %w", err)
	}
	defer f.Close()

	if err := WriteAccounts(f, s.accounts); err != nil {
		return fmt.Errorf("writing chart of accounts: %w", err)
	}
	return nil
}
