package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-sqlite3"

	"github.com/cleared-dev/ledgerbridge/internal/model"
)

// Vouchers are identified by date and number together, so fallback numbers
// that restart per file do not collide across dates.
const schema = `
CREATE TABLE IF NOT EXISTS vouchers (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	number     TEXT NOT NULL,
	date       TEXT NOT NULL,
	type_name  TEXT NOT NULL,
	narration  TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL DEFAULT (datetime('now')),
	UNIQUE (date, number)
);

CREATE INDEX IF NOT EXISTS vouchers_number ON vouchers (number);

CREATE TABLE IF NOT EXISTS voucher_lines (
	voucher_id  INTEGER NOT NULL REFERENCES vouchers(id) ON DELETE CASCADE,
	position    INTEGER NOT NULL,
	ledger_name TEXT NOT NULL,
	amount      TEXT NOT NULL,
	dr_cr       TEXT NOT NULL CHECK (dr_cr IN ('Dr', 'Cr')),
	PRIMARY KEY (voucher_id, position)
);
`

// SQLite stores vouchers in a local database file.
type SQLite struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite store requires a path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL", path))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return &SQLite{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *SQLite) Path() string { return s.path }

// Close closes the database.
func (s *SQLite) Close() error { return s.db.Close() }

// Save inserts the voucher and its lines in one transaction. A voucher with
// the same date and number is rejected.
func (s *SQLite) Save(ctx context.Context, v model.Voucher) error {
	if v.Number() == "" {
		return &RejectedError{Message: "voucher has no number"}
	}
	return s.transaction(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO vouchers (number, date, type_name, narration) VALUES (?, ?, ?, ?)`,
			v.Number(), v.Date(), v.TypeName(), v.Narration())
		if err != nil {
			var se sqlite3.Error
			if errors.As(err, &se) && se.Code == sqlite3.ErrConstraint {
				return &RejectedError{Message: fmt.Sprintf("voucher %s dated %s already exists", v.Number(), v.Date())}
			}
			return fmt.Errorf("inserting voucher %s: %w", v.Number(), err)
		}
		voucherID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading id of voucher %s: %w", v.Number(), err)
		}
		for i, e := range v.Entries {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO voucher_lines (voucher_id, position, ledger_name, amount, dr_cr) VALUES (?, ?, ?, ?, ?)`,
				voucherID, i, e.LedgerName, e.LedgerAmount, string(e.DrCr))
			if err != nil {
				return fmt.Errorf("inserting line %d of voucher %s: %w", i+1, v.Number(), err)
			}
		}
		return nil
	})
}

// Fetch rebuilds a voucher from its stored lines. When several dates share
// the number, the most recently saved voucher is returned.
func (s *SQLite) Fetch(ctx context.Context, voucherNumber string) (model.Voucher, error) {
	var (
		voucherID int64
		head      model.LedgerEntry
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, number, date, type_name, narration FROM vouchers WHERE number = ? ORDER BY id DESC LIMIT 1`, voucherNumber).
		Scan(&voucherID, &head.VoucherNumber, &head.VoucherDate, &head.VoucherTypeName, &head.Narration)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Voucher{}, &RejectedError{Message: fmt.Sprintf("voucher %s not found", voucherNumber)}
	}
	if err != nil {
		return model.Voucher{}, fmt.Errorf("querying voucher %s: %w", voucherNumber, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT ledger_name, amount, dr_cr FROM voucher_lines WHERE voucher_id = ? ORDER BY position`, voucherID)
	if err != nil {
		return model.Voucher{}, fmt.Errorf("querying lines of voucher %s: %w", voucherNumber, err)
	}
	defer rows.Close()

	var v model.Voucher
	for rows.Next() {
		var (
			e    model.LedgerEntry
			side string
		)
		if err := rows.Scan(&e.LedgerName, &e.LedgerAmount, &side); err != nil {
			return model.Voucher{}, fmt.Errorf("scanning line: %w", err)
		}
		e.DrCr = model.DrCr(side)
		if len(v.Entries) == 0 {
			e.VoucherDate = head.VoucherDate
			e.VoucherTypeName = head.VoucherTypeName
			e.VoucherNumber = head.VoucherNumber
			e.Narration = head.Narration
		}
		v.Entries = append(v.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return model.Voucher{}, fmt.Errorf("reading lines: %w", err)
	}
	return v, nil
}

func (s *SQLite) transaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
