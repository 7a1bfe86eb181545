package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgerbridge/internal/importer"
	"github.com/cleared-dev/ledgerbridge/internal/sheet"
)

func newSheetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sheets <file>",
		Short: "List the sheets of a spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reader, data, err := readSheetFile(args[0])
			if err != nil {
				return err
			}
			names, err := reader.ListSheets(data)
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
}

func readSheetFile(path string) (sheet.Reader, []byte, error) {
	reader, err := importer.DefaultRegistry().ForFile(path)
	if err != nil {
		return nil, nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return reader, data, nil
}

// loadTable parses sheetName from a spreadsheet, or its first sheet when
// sheetName is empty.
func loadTable(path, sheetName string) (*sheet.Table, string, error) {
	reader, data, err := readSheetFile(path)
	if err != nil {
		return nil, "", err
	}
	if sheetName == "" {
		names, err := reader.ListSheets(data)
		if err != nil {
			return nil, "", err
		}
		if len(names) == 0 {
			return nil, "", fmt.Errorf("%s: %w", path, sheet.ErrNoData)
		}
		sheetName = names[0]
	}
	table, err := reader.ParseSheet(data, sheetName)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}
	return table, sheetName, nil
}
