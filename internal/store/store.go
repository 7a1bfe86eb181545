// Package store persists finished vouchers to a remote script endpoint or a
// local SQLite database.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/ledgerbridge/internal/model"
)

// Backend saves and fetches vouchers by number.
type Backend interface {
	Save(ctx context.Context, v model.Voucher) error
	Fetch(ctx context.Context, voucherNumber string) (model.Voucher, error)
	Close() error
}

// NetworkError means the backend could not be reached or answered with
// something other than a well-formed reply.
type NetworkError struct {
	Action string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network request failed (check the connection and the backend deployment): %v", e.Action, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// RejectedError carries a refusal reported by the backend itself.
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string {
	return e.Message
}

// Backend kinds accepted by Open.
const (
	KindSQLite = "sqlite"
	KindRemote = "remote"
)

// Config selects and configures a backend.
type Config struct {
	Backend string
	Path    string
	URL     string
	Timeout time.Duration
}

// Open returns the backend named by cfg.Backend.
func Open(cfg Config, log zerolog.Logger) (Backend, error) {
	switch cfg.Backend {
	case KindSQLite, "":
		return OpenSQLite(cfg.Path)
	case KindRemote:
		if cfg.URL == "" {
			return nil, fmt.Errorf("remote store requires a url")
		}
		return NewRemote(cfg.URL, cfg.Timeout, log), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
}
