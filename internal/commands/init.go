package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgerbridge/internal/accounts"
	"github.com/cleared-dev/ledgerbridge/internal/config"
	"github.com/cleared-dev/ledgerbridge/internal/gitops"
	"github.com/cleared-dev/ledgerbridge/internal/importer"
	"github.com/cleared-dev/ledgerbridge/internal/mapping"
)

func newInitCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new ledgerbridge project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd, absDir, name)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "company name (required)")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func runInit(cmd *cobra.Command, dir, name string) error {
	cfg := config.Default(name)

	dirs := []string{
		"accounts",
		"logs",
		"data",
		importer.Dir,
		importer.ProcessedDir,
		cfg.Export.Dir,
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	if err := config.Save(filepath.Join(dir, config.FileName), cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	if err := mapping.SaveSet(dir, mapping.DefaultSet()); err != nil {
		return fmt.Errorf("writing mappings: %w", err)
	}

	if err := accounts.NewService(accounts.DefaultChart()).Save(dir); err != nil {
		return fmt.Errorf("writing chart of accounts: %w", err)
	}

	gitignore := ".env\ndata/\nexports/\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, importer.Dir, ".gitkeep"), []byte{}, 0o644); err != nil {
		return fmt.Errorf("writing .gitkeep: %w", err)
	}

	ctx := cmd.Context()
	if err := gitops.Init(ctx, dir); err != nil {
		return fmt.Errorf("git init: %w", err)
	}
	hash, err := gitops.CommitAll(ctx, dir, "init: Initialize "+name, gitops.Author{Name: cfg.Git.AuthorName, Email: cfg.Git.AuthorEmail})
	if err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized ledgerbridge project at %s (%s)\n", dir, hash)
	return nil
}
