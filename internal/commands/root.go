package commands

import (
	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgerbridge/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "ledgerbridge",
		Short:   "Convert spreadsheets and documents into accounting ledger imports",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("repo", ".", "project directory")
	rootCmd.PersistentFlags().String("log-level", "", "log level (overrides config)")

	rootCmd.AddCommand(
		newInitCommand(),
		newSheetsCommand(),
		newAutomapCommand(),
		newConvertCommand(),
		newValidateCommand(),
		newCoaCommand(),
		newFetchCommand(),
		newServeCommand(),
	)

	return rootCmd
}
