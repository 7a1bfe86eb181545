package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgerbridge/internal/accounts"
	"github.com/cleared-dev/ledgerbridge/internal/export"
	"github.com/cleared-dev/ledgerbridge/internal/journal"
)

func newValidateCommand() *cobra.Command {
	var checkChart bool

	cmd := &cobra.Command{
		Use:   "validate <ledger.csv>",
		Short: "Check an exported ledger CSV for unbalanced or malformed vouchers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer f.Close()

			entries, err := export.ReadCSV(f)
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}

			var ledgers journal.LedgerChecker
			if checkChart {
				p, err := loadProject(cmd)
				if err != nil {
					return err
				}
				chart, err := accounts.Load(p.root)
				if err != nil {
					return err
				}
				ledgers = chart
			}

			vouchers := journal.GroupVouchers(entries)
			problems := journal.Validate(vouchers, ledgers)
			out := cmd.OutOrStdout()
			for _, v := range problems {
				fmt.Fprintf(out, "%v\n", v)
			}
			if len(problems) > 0 {
				return fmt.Errorf("%d problems in %d vouchers", len(problems), len(vouchers))
			}
			fmt.Fprintf(out, "OK: %d vouchers, %d entries\n", len(vouchers), len(entries))
			return nil
		},
	}

	cmd.Flags().BoolVar(&checkChart, "chart", false, "also require every ledger to exist in the chart of accounts")
	return cmd
}
