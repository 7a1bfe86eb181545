package runlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntry(runID string) Entry {
	return Entry{
		Timestamp:   time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		RunID:       runID,
		VoucherType: "Sales",
		Source:      "import/sales-jan.xlsx",
		Vouchers:    12,
		Entries:     48,
		Rejected:    1,
		TotalAmount: decimal.RequireFromString("14160.50"),
		Output:      "exports/ledger-import-sales-20240115-103000.xlsx",
		Status:      StatusExported,
	}
}

func TestAppendAndRead(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, Append(dir, []Entry{sampleEntry("run-1")}))
	require.NoError(t, Append(dir, []Entry{sampleEntry("run-2")}))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "run-1", entries[0].RunID)
	assert.Equal(t, "run-2", entries[1].RunID)
	assert.Equal(t, 48, entries[0].Entries)
	assert.True(t, decimal.RequireFromString("14160.50").Equal(entries[0].TotalAmount))
	assert.True(t, sampleEntry("").Timestamp.Equal(entries[0].Timestamp))

	data, err := os.ReadFile(filepath.Join(dir, File))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), Header))
}

func TestReadMissing(t *testing.T) {
	entries, err := Read(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUnmarshalEntry_Errors(t *testing.T) {
	row := MarshalEntry(sampleEntry("run-1"))

	_, err := UnmarshalEntry(row[:3])
	assert.Error(t, err)

	bad := append([]string(nil), row...)
	bad[colTimestamp] = "yesterday"
	_, err = UnmarshalEntry(bad)
	assert.Error(t, err)

	bad = append([]string(nil), row...)
	bad[colVouchers] = "many"
	_, err = UnmarshalEntry(bad)
	assert.Error(t, err)

	bad = append([]string(nil), row...)
	bad[colTotal] = "n/a"
	_, err = UnmarshalEntry(bad)
	assert.Error(t, err)
}

func TestReadCorrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "logs"), 0o755))
	content := Header + "\nnot-a-time,r,Sales,s,1,2,0,1.00,o,exported\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, File), []byte(content), 0o644))

	_, err := Read(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}
