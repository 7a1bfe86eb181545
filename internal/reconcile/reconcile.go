// Package reconcile matches free-text party names against the chart of
// accounts in bounded, sequential batches.
package reconcile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/ledgerbridge/internal/model"
)

const (
	DefaultBatchSize  = 100
	DefaultBatchDelay = 200 * time.Millisecond
)

// Matcher resolves one batch of names against the chart's ledger names.
type Matcher interface {
	MatchBatch(ctx context.Context, names, chart []string, vt model.VoucherType) (model.NameMapping, error)
}

// BatchError aborts a reconciliation. Results from earlier batches are dropped.
type BatchError struct {
	Offset int
	Size   int
	Err    error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("matching party names in batch at offset %d (%d names): %v", e.Offset, e.Size, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// Batcher runs a Matcher over deduplicated names.
type Batcher struct {
	matcher Matcher
	size    int
	delay   time.Duration
	sleep   func(context.Context, time.Duration) error
	log     zerolog.Logger
}

// Option configures a Batcher.
type Option func(*Batcher)

// WithBatchSize sets the number of names per matcher call.
func WithBatchSize(n int) Option {
	return func(b *Batcher) {
		if n > 0 {
			b.size = n
		}
	}
}

// WithDelay sets the pause before every batch after the first.
func WithDelay(d time.Duration) Option {
	return func(b *Batcher) {
		if d >= 0 {
			b.delay = d
		}
	}
}

// WithSleep replaces the pause implementation. Tests use it to record delays.
func WithSleep(fn func(context.Context, time.Duration) error) Option {
	return func(b *Batcher) { b.sleep = fn }
}

// WithLogger sets the logger used for per-batch progress.
func WithLogger(l zerolog.Logger) Option {
	return func(b *Batcher) { b.log = l }
}

// NewBatcher returns a Batcher with the default size and delay.
func NewBatcher(m Matcher, opts ...Option) *Batcher {
	b := &Batcher{
		matcher: m,
		size:    DefaultBatchSize,
		delay:   DefaultBatchDelay,
		sleep:   sleepContext,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Reconcile matches names against chart. Names are deduplicated exactly and
// blank names are dropped before batching. Batches run strictly in order; the
// first failure aborts the whole run with a *BatchError.
func (b *Batcher) Reconcile(ctx context.Context, names []string, chart []model.LedgerAccount, vt model.VoucherType) (model.NameMapping, error) {
	result := model.NameMapping{Corrections: map[string]string{}, NewLedgers: []model.LedgerAccount{}}

	unique := Dedupe(names)
	if len(unique) == 0 {
		return result, nil
	}

	chartNames := make([]string, 0, len(chart))
	for _, a := range chart {
		chartNames = append(chartNames, a.Name)
	}

	seenLedger := make(map[string]bool)
	for offset := 0; offset < len(unique); offset += b.size {
		end := min(offset+b.size, len(unique))
		batch := unique[offset:end]

		if offset > 0 && b.delay > 0 {
			if err := b.sleep(ctx, b.delay); err != nil {
				return model.NameMapping{}, &BatchError{Offset: offset, Size: len(batch), Err: err}
			}
		}

		b.log.Debug().Int("offset", offset).Int("size", len(batch)).Str("voucher_type", string(vt)).Msg("matching party names")

		got, err := b.matcher.MatchBatch(ctx, batch, chartNames, vt)
		if err != nil {
			b.log.Warn().Err(err).Int("offset", offset).Msg("party name batch failed")
			return model.NameMapping{}, &BatchError{Offset: offset, Size: len(batch), Err: err}
		}

		for original, corrected := range got.Corrections {
			if corrected == "" || corrected == original {
				continue
			}
			result.Corrections[original] = corrected
		}
		for _, l := range got.NewLedgers {
			if l.Name == "" || seenLedger[l.Name] {
				continue
			}
			seenLedger[l.Name] = true
			result.NewLedgers = append(result.NewLedgers, l)
		}
	}

	b.log.Info().
		Int("names", len(unique)).
		Int("corrections", len(result.Corrections)).
		Int("new_ledgers", len(result.NewLedgers)).
		Msg("party names reconciled")
	return result, nil
}

// Dedupe drops blank names and exact duplicates, keeping first-seen order.
func Dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	var out []string
	for _, n := range names {
		if strings.TrimSpace(n) == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
