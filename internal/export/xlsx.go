package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/cleared-dev/ledgerbridge/internal/model"
)

// SheetName is the worksheet that holds the entries.
const SheetName = "LedgerImport"

var columnWidths = []float64{12, 20, 15, 35, 15, 10, 40}

// WriteXLSX writes entries as a workbook. Ledger Amount is a numeric cell.
func WriteXLSX(w io.Writer, entries []model.LedgerEntry) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	header := Columns
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	last, _ := excelize.ColumnNumberToName(len(Columns))
	if err := f.SetCellStyle(SheetName, "A1", last+"1", bold); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}

	for i, e := range entries {
		ref, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("row %d: %w", i+2, err)
		}
		row := []any{
			e.VoucherDate,
			e.VoucherTypeName,
			e.VoucherNumber,
			e.LedgerName,
			e.Amount().InexactFloat64(),
			string(e.DrCr),
			e.Narration,
		}
		if err := f.SetSheetRow(SheetName, ref, &row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	for i, width := range columnWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return fmt.Errorf("setting width of column %s: %w", col, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
