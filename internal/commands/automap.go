package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgerbridge/internal/mapping"
	"github.com/cleared-dev/ledgerbridge/internal/model"
	"github.com/cleared-dev/ledgerbridge/internal/oracle"
)

func newAutomapCommand() *cobra.Command {
	var (
		typeName  string
		sheetName string
	)

	cmd := &cobra.Command{
		Use:   "automap <file>",
		Short: "Ask the oracle to map spreadsheet columns and save the mapping",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vt, err := model.ParseVoucherType(typeName)
			if err != nil {
				return err
			}
			p, err := loadProject(cmd)
			if err != nil {
				return err
			}
			table, _, err := loadTable(args[0], sheetName)
			if err != nil {
				return err
			}

			set, err := mapping.LoadSet(p.root)
			if err != nil {
				return err
			}
			current, err := set.For(vt)
			if err != nil {
				return err
			}

			gen, err := p.generator(cmd.Context())
			if err != nil {
				return err
			}
			suggested, err := oracle.NewSuggester(gen).Suggest(cmd.Context(), table.Headers, current)
			if err != nil {
				return fmt.Errorf("suggesting mapping: %w", err)
			}

			if err := set.Put(suggested); err != nil {
				return err
			}
			if err := mapping.SaveSet(p.root, set); err != nil {
				return err
			}
			printMapping(cmd, suggested)

			if _, err := p.commit(cmd.Context(), fmt.Sprintf("automap: %s mapping from %s", vt, args[0])); err != nil {
				return fmt.Errorf("committing: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&typeName, "type", "", "voucher type: sales, purchase, journal or bank (required)")
	cmd.Flags().StringVar(&sheetName, "sheet", "", "sheet name (default: first sheet)")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

func printMapping(cmd *cobra.Command, cfg mapping.Config) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s mapping:\n", cfg.VoucherType())
	for _, f := range mapping.FieldDefinitions(cfg.VoucherType()) {
		col := cfg.Column(f.Key)
		if !col.Mapped() {
			col = "-"
		}
		fmt.Fprintf(out, "  %-24s %s\n", f.Label, col)
	}
	switch c := cfg.(type) {
	case mapping.SalesPurchase:
		for _, li := range c.LineItems {
			if li.Column.Mapped() {
				fmt.Fprintf(out, "  %-24s %s\n", li.LedgerName, li.Column)
			}
		}
	case mapping.Journal:
		for _, it := range c.DebitItems {
			fmt.Fprintf(out, "  Dr %-21s %s\n", it.LedgerNameColumn, it.AmountColumn)
		}
		for _, it := range c.CreditItems {
			fmt.Fprintf(out, "  Cr %-21s %s\n", it.LedgerNameColumn, it.AmountColumn)
		}
	}
	if cols := cfg.Columns(); len(cols) == 0 {
		fmt.Fprintln(out, "  (no columns mapped)")
	} else {
		names := make([]string, len(cols))
		for i, c := range cols {
			names[i] = string(c)
		}
		fmt.Fprintf(out, "  columns used: %s\n", strings.Join(names, ", "))
	}
}
