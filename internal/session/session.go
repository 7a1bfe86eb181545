// Package session runs conversions against immutable snapshots of a user's
// rows, mapping and chart, discarding results that a newer run superseded.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/ledgerbridge/internal/convert"
	"github.com/cleared-dev/ledgerbridge/internal/mapping"
	"github.com/cleared-dev/ledgerbridge/internal/model"
	"github.com/cleared-dev/ledgerbridge/internal/reconcile"
)

// Reconciler matches party names against a chart of accounts.
// *reconcile.Batcher satisfies it.
type Reconciler interface {
	Reconcile(ctx context.Context, names []string, chart []model.LedgerAccount, vt model.VoucherType) (model.NameMapping, error)
}

// Snapshot is the read-only input of one run.
type Snapshot struct {
	Source  string
	Headers []string
	Rows    []model.RawRow
	Config  mapping.Config
	Chart   []model.LedgerAccount
}

// Outcome is the result of one run.
type Outcome struct {
	Generation   uint64            `json:"generation"`
	VoucherType  model.VoucherType `json:"voucherType"`
	Config       mapping.Config    `json:"config"`
	Missing      []mapping.Column  `json:"missingColumns"`
	Mapping      model.NameMapping `json:"mapping"`
	Result       *convert.Result   `json:"result,omitempty"`
	ReconcileErr error             `json:"-"`
	Err          error             `json:"-"`
	Finished     time.Time         `json:"finished"`
}

// Session holds the latest snapshot and outcome for one user.
type Session struct {
	ID string

	reconciler Reconciler
	log        zerolog.Logger

	mu     sync.Mutex
	gen    uint64
	snap   Snapshot
	latest *Outcome
}

// New creates a session. reconciler may be nil, in which case party names
// are never reconciled.
func New(id string, reconciler Reconciler, log zerolog.Logger) *Session {
	return &Session{
		ID:         id,
		reconciler: reconciler,
		log:        log.With().Str("session", id).Logger(),
	}
}

// Run converts snap. It reports false, and the outcome must be ignored, when
// another run started before this one finished.
func (s *Session) Run(ctx context.Context, snap Snapshot) (Outcome, bool) {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.snap = snap
	s.mu.Unlock()

	out := s.convert(ctx, gen, snap)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		s.log.Debug().Uint64("generation", gen).Uint64("current", s.gen).Msg("discarding superseded run")
		return out, false
	}
	s.latest = &out
	return out, true
}

// UpdateMapping starts a fresh run over the last snapshot with cfg as its
// mapping.
func (s *Session) UpdateMapping(ctx context.Context, cfg mapping.Config) (Outcome, bool) {
	s.mu.Lock()
	snap := s.snap
	s.mu.Unlock()

	snap.Config = cfg
	return s.Run(ctx, snap)
}

// Latest returns the newest completed outcome.
func (s *Session) Latest() (Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil {
		return Outcome{}, false
	}
	return *s.latest, true
}

// Snapshot returns the input of the most recent run.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

func (s *Session) convert(ctx context.Context, gen uint64, snap Snapshot) Outcome {
	cfg := snap.Config.Resolve(snap.Headers)
	vt := cfg.VoucherType()
	out := Outcome{
		Generation:  gen,
		VoucherType: vt,
		Config:      cfg,
		Missing:     mapping.Missing(snap.Config, snap.Headers),
	}

	rows := snap.Rows
	party := string(cfg.Column(mapping.FieldPartyName))
	if s.reconciler != nil && len(snap.Chart) > 0 && party != "" {
		names := reconcile.PartyNames(rows, party)
		m, err := s.reconciler.Reconcile(ctx, names, snap.Chart, vt)
		if err != nil {
			s.log.Warn().Err(err).Msg("reconciliation failed, converting uncorrected rows")
			out.ReconcileErr = err
		} else {
			out.Mapping = m
			rows = reconcile.ApplyCorrections(rows, party, m.Corrections)
		}
	}

	res, err := convert.Convert(rows, vt, cfg, nil)
	out.Result = res
	out.Err = err
	out.Finished = time.Now()
	if err == nil {
		s.log.Info().
			Uint64("generation", gen).
			Str("voucher_type", string(vt)).
			Int("vouchers", res.Stats.TotalVouchers).
			Int("rejected", len(res.Rejections)).
			Msg("conversion finished")
	}
	return out
}

// Registry limits. A session is dropped once idle for DefaultTTL, and the
// least recently used session is evicted to admit one past DefaultMaxSessions.
const (
	DefaultMaxSessions = 1000
	DefaultTTL         = time.Hour
)

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithMaxSessions caps the number of live sessions.
func WithMaxSessions(n int) RegistryOption {
	return func(r *Registry) {
		if n > 0 {
			r.max = n
		}
	}
}

// WithTTL sets how long an unused session is kept.
func WithTTL(d time.Duration) RegistryOption {
	return func(r *Registry) {
		if d > 0 {
			r.ttl = d
		}
	}
}

// WithClock replaces time.Now. Tests use it to age sessions.
func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) { r.now = now }
}

type entry struct {
	session *Session
	used    time.Time
}

// Registry holds live sessions by id.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*entry
	max      int
	ttl      time.Duration
	now      func() time.Time
}

// NewRegistry creates an empty session registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		sessions: make(map[string]*entry),
		max:      DefaultMaxSessions,
		ttl:      DefaultTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Add stores s under its id, first dropping expired sessions and then the
// least recently used ones until there is room.
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.expire(now)
	for len(r.sessions) >= r.max {
		r.evictOldest()
	}
	r.sessions[s.ID] = &entry{session: s, used: now}
}

// Get returns the session with id and marks it used.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	e, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	if now.Sub(e.used) > r.ttl {
		delete(r.sessions, id)
		return nil, false
	}
	e.used = now
	return e.session, true
}

// Remove drops the session with id and reports whether it existed.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	return ok
}

// Len returns the number of sessions held, expired ones included.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) expire(now time.Time) {
	for id, e := range r.sessions {
		if now.Sub(e.used) > r.ttl {
			delete(r.sessions, id)
		}
	}
}

func (r *Registry) evictOldest() {
	var (
		oldest string
		at     time.Time
	)
	for id, e := range r.sessions {
		if oldest == "" || e.used.Before(at) {
			oldest, at = id, e.used
		}
	}
	delete(r.sessions, oldest)
}
