package model

// LedgerAccount is one row of the chart of accounts.
type LedgerAccount struct {
	Name  string `json:"name" yaml:"name"`
	Group string `json:"group" yaml:"group"`
}

// NameMapping is the outcome of reconciling party names against the chart.
// Corrections holds only names that were actually rewritten.
type NameMapping struct {
	Corrections map[string]string `json:"corrections"`
	NewLedgers  []LedgerAccount   `json:"newLedgers"`
}

// Correct returns the canonical name for name, or name itself.
func (m NameMapping) Correct(name string) string {
	if c, ok := m.Corrections[name]; ok && c != "" {
		return c
	}
	return name
}
