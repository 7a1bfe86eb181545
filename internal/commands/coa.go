package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgerbridge/internal/accounts"
	"github.com/cleared-dev/ledgerbridge/internal/importer"
	"github.com/cleared-dev/ledgerbridge/internal/oracle"
)

func newCoaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coa",
		Short: "Manage the chart of accounts",
	}
	cmd.AddCommand(newCoaListCommand(), newCoaExtractCommand())
	return cmd
}

func newCoaListCommand() *cobra.Command {
	var group string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List ledgers in the chart of accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(cmd)
			if err != nil {
				return err
			}
			chart, err := accounts.Load(p.root)
			if err != nil {
				return err
			}

			ledgers := chart.All()
			if group != "" {
				ledgers = chart.ByGroup(group)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "LEDGER\tGROUP")
			for _, l := range ledgers {
				fmt.Fprintf(w, "%s\t%s\n", l.Name, l.Group)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&group, "group", "", "only list ledgers in this group")
	return cmd
}

func newCoaExtractCommand() *cobra.Command {
	var replace bool

	cmd := &cobra.Command{
		Use:   "extract <document>",
		Short: "Read ledgers from a chart-of-accounts document into the project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(cmd)
			if err != nil {
				return err
			}
			path := args[0]
			if importer.DefaultRegistry().Kind(path) != importer.KindDocument {
				return fmt.Errorf("%s: expected a PDF or image", path)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}

			ctx := cmd.Context()
			gen, err := p.generator(ctx)
			if err != nil {
				return err
			}
			ledgers, err := oracle.NewExtractor(gen).ExtractChart(ctx, oracle.Document{
				Name:     filepath.Base(path),
				MIMEType: importer.MIMEType(path),
				Data:     data,
			})
			if err != nil {
				return err
			}

			chart := accounts.NewService(nil)
			if !replace {
				if chart, err = accounts.Load(p.root); err != nil {
					return err
				}
			}
			added := chart.Merge(ledgers)
			if err := chart.Save(p.root); err != nil {
				return err
			}
			p.log.Info().Int("extracted", len(ledgers)).Int("added", added).Msg("chart of accounts updated")
			fmt.Fprintf(cmd.OutOrStdout(), "Added %d of %d ledgers to %s\n", added, len(ledgers), accounts.File)

			_, err = p.commit(ctx, fmt.Sprintf("coa: Import %d ledgers from %s", added, filepath.Base(path)))
			return err
		},
	}

	cmd.Flags().BoolVar(&replace, "replace", false, "replace the chart instead of merging into it")
	return cmd
}
