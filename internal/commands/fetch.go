package commands

import (
	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgerbridge/internal/export"
)

func newFetchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <voucher-number>",
		Short: "Print a saved voucher as ledger import CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(cmd)
			if err != nil {
				return err
			}
			backend, err := p.store()
			if err != nil {
				return err
			}
			defer backend.Close()

			v, err := backend.Fetch(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return export.WriteCSV(cmd.OutOrStdout(), v.Entries)
		},
	}
}
