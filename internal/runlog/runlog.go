// Package runlog keeps an append-only CSV history of conversion runs.
package runlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Run statuses.
const (
	StatusExported = "exported"
	StatusInvalid  = "invalid"
	StatusFailed   = "failed"
)

// Entry records one conversion run.
type Entry struct {
	Timestamp   time.Time
	RunID       string
	VoucherType string
	Source      string
	Vouchers    int
	Entries     int
	Rejected    int
	TotalAmount decimal.Decimal
	Output      string
	Status      string
}

// Header is the CSV header for conversion-log.csv.
const Header = "timestamp,run_id,voucher_type,source,vouchers,entries,rejected,total_amount,output,status"

// File is the log path relative to the repository root.
const File = "logs/conversion-log.csv"

const (
	numFields      = 10
	colTimestamp   = 0
	colRunID       = 1
	colVoucherType = 2
	colSource      = 3
	colVouchers    = 4
	colEntries     = 5
	colRejected    = 6
	colTotal       = 7
	colOutput      = 8
	colStatus      = 9
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.UTC().Format(time.RFC3339)
	row[colRunID] = e.RunID
	row[colVoucherType] = e.VoucherType
	row[colSource] = e.Source
	row[colVouchers] = strconv.Itoa(e.Vouchers)
	row[colEntries] = strconv.Itoa(e.Entries)
	row[colRejected] = strconv.Itoa(e.Rejected)
	row[colTotal] = e.TotalAmount.StringFixed(2)
	row[colOutput] = e.Output
	row[colStatus] = e.Status
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}

	counts := make([]int, 3)
	for i, col := range []int{colVouchers, colEntries, colRejected} {
		n, err := strconv.Atoi(record[col])
		if err != nil {
			return Entry{}, fmt.Errorf("parsing count %q: %w", record[col], err)
		}
		counts[i] = n
	}

	total, err := decimal.NewFromString(record[colTotal])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing total %q: %w", record[colTotal], err)
	}

	return Entry{
		Timestamp:   ts,
		RunID:       record[colRunID],
		VoucherType: record[colVoucherType],
		Source:      record[colSource],
		Vouchers:    counts[0],
		Entries:     counts[1],
		Rejected:    counts[2],
		TotalAmount: total,
		Output:      record[colOutput],
		Status:      record[colStatus],
	}, nil
}

// Append writes entries to <repoRoot>/logs/conversion-log.csv, creating the
// file and header if needed.
func Append(repoRoot string, entries []Entry) error {
	path := filepath.Join(repoRoot, File)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening conversion log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read returns all entries from <repoRoot>/logs/conversion-log.csv, or nil
// if the file does not exist.
func Read(repoRoot string) ([]Entry, error) {
	f, err := os.Open(filepath.Join(repoRoot, File))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening conversion log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading conversion log CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
