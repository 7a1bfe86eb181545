package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file at the repository root.
const FileName = "ledgerbridge.yaml"

// Config represents the top-level ledgerbridge.yaml configuration.
type Config struct {
	Company CompanyConfig `yaml:"company"`
	Oracle  OracleConfig  `yaml:"oracle"`
	Export  ExportConfig  `yaml:"export"`
	Store   StoreConfig   `yaml:"store"`
	Log     LogConfig     `yaml:"log"`
	Git     GitConfig     `yaml:"git"`
}

// CompanyConfig identifies the books being converted.
type CompanyConfig struct {
	Name string `yaml:"name"`
}

// OracleConfig controls the language-model service.
type OracleConfig struct {
	Model      string        `yaml:"model"`
	APIKeyEnv  string        `yaml:"api_key_env"`
	BatchSize  int           `yaml:"batch_size"`
	BatchDelay time.Duration `yaml:"batch_delay"`
}

// ExportConfig controls where and how ledger imports are written.
type ExportConfig struct {
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"` // "xlsx" or "csv"
}

// StoreConfig selects the voucher persistence backend.
type StoreConfig struct {
	Backend string        `yaml:"backend"` // "sqlite" or "remote"
	Path    string        `yaml:"path,omitempty"`
	URL     string        `yaml:"url,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" or "json"
}

// GitConfig controls git integration.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Load reads a ledgerbridge.yaml file from disk. Unset fields keep their
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default("")
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// LoadRepo reads the config at the root of a project.
func LoadRepo(repoRoot string) (*Config, error) {
	return Load(filepath.Join(repoRoot, FileName))
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default(companyName string) *Config {
	return &Config{
		Company: CompanyConfig{Name: companyName},
		Oracle: OracleConfig{
			Model:      "gemini-2.5-flash",
			APIKeyEnv:  "GEMINI_API_KEY",
			BatchSize:  100,
			BatchDelay: 200 * time.Millisecond,
		},
		Export: ExportConfig{
			Dir:    "exports",
			Format: "xlsx",
		},
		Store: StoreConfig{
			Backend: "sqlite",
			Path:    "data/vouchers.db",
			Timeout: 30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Git: GitConfig{
			AutoCommit:  true,
			AuthorName:  "Ledgerbridge",
			AuthorEmail: "ledgerbridge@localhost",
		},
	}
}

// LoadEnv loads repoRoot/.env into the process environment. Variables that
// are already set win. A missing file is not an error.
func LoadEnv(repoRoot string) error {
	path := filepath.Join(repoRoot, ".env")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// APIKey returns the oracle key from the configured environment variable.
func (c *Config) APIKey() (string, error) {
	name := c.Oracle.APIKeyEnv
	if name == "" {
		name = "GEMINI_API_KEY"
	}
	key := os.Getenv(name)
	if key == "" {
		return "", fmt.Errorf("%s is not set (add it to the environment or .env)", name)
	}
	return key, nil
}

// Resolve returns p joined to repoRoot unless it is already absolute.
func Resolve(repoRoot, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(repoRoot, p)
}
