// Package api serves conversion, reconciliation and conversion sessions over
// HTTP.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/cleared-dev/ledgerbridge/internal/buildinfo"
	"github.com/cleared-dev/ledgerbridge/internal/convert"
	"github.com/cleared-dev/ledgerbridge/internal/export"
	"github.com/cleared-dev/ledgerbridge/internal/id"
	"github.com/cleared-dev/ledgerbridge/internal/logger"
	"github.com/cleared-dev/ledgerbridge/internal/mapping"
	"github.com/cleared-dev/ledgerbridge/internal/model"
	"github.com/cleared-dev/ledgerbridge/internal/reconcile"
	"github.com/cleared-dev/ledgerbridge/internal/session"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 32 << 20

// Server holds the HTTP handlers' dependencies.
type Server struct {
	reconciler session.Reconciler
	sessions   *session.Registry
	log        zerolog.Logger
}

// NewServer creates a Server. reconciler may be nil when no oracle is
// configured; reconciliation endpoints then answer 503.
func NewServer(reconciler session.Reconciler, log zerolog.Logger, opts ...session.RegistryOption) *Server {
	return &Server{
		reconciler: reconciler,
		sessions:   session.NewRegistry(opts...),
		log:        log,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))

	r.Get("/healthz", s.health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/convert", s.convert)
		r.Post("/reconcile", s.reconcile)
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.createSession)
			r.Get("/{id}", s.getSession)
			r.Put("/{id}/mapping", s.updateMapping)
			r.Delete("/{id}", s.deleteSession)
		})
	})
	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": buildinfo.String(),
		"oracle":  s.reconciler != nil,
	})
}

type datasetRequest struct {
	VoucherType string                `json:"voucherType"`
	Headers     []string              `json:"headers"`
	Rows        []model.RawRow        `json:"rows"`
	Config      json.RawMessage       `json:"config"`
	Chart       []model.LedgerAccount `json:"chart"`
	Corrections map[string]string     `json:"corrections"`
}

// resolve returns the voucher type, headers and mapping of a request.
// Headers default to the union of row keys; the mapping to the defaults.
func (d *datasetRequest) resolve() (model.VoucherType, []string, mapping.Config, error) {
	vt, err := model.ParseVoucherType(d.VoucherType)
	if err != nil {
		return "", nil, nil, err
	}
	headers := d.Headers
	if len(headers) == 0 {
		headers = rowKeys(d.Rows)
	}
	var cfg mapping.Config
	if len(d.Config) == 0 || string(d.Config) == "null" {
		cfg, err = mapping.Default(vt)
	} else {
		cfg, err = mapping.DecodeJSON(vt, d.Config)
	}
	if err != nil {
		return "", nil, nil, err
	}
	return vt, headers, cfg, nil
}

func rowKeys(rows []model.RawRow) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, r := range rows {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return keys
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// convert handles POST /api/v1/convert. ?format=xlsx or ?format=csv returns
// the import file instead of JSON.
func (s *Server) convert(w http.ResponseWriter, r *http.Request) {
	var req datasetRequest
	if !decode(w, r, &req) {
		return
	}
	vt, headers, cfg, err := req.resolve()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := convert.Convert(req.Rows, vt, cfg.Resolve(headers), req.Corrections)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		writeJSON(w, http.StatusOK, map[string]any{
			"entries":        res.Entries,
			"stats":          res.Stats,
			"rejections":     res.Rejections,
			"missingColumns": mapping.Missing(cfg, headers),
		})
		return
	}

	f, err := export.ParseFormat(format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	name := export.FileName(vt, f, time.Now())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	switch f {
	case export.FormatXLSX:
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		err = export.WriteXLSX(w, res.Entries)
	case export.FormatCSV:
		w.Header().Set("Content-Type", "text/csv")
		err = export.WriteCSV(w, res.Entries)
	}
	if err != nil {
		logger.FromContext(r.Context()).Error().Err(err).Msg("Failed to write export")
	}
}

// reconcile handles POST /api/v1/reconcile.
func (s *Server) reconcile(w http.ResponseWriter, r *http.Request) {
	if s.reconciler == nil {
		writeError(w, http.StatusServiceUnavailable, "No oracle configured")
		return
	}
	var req struct {
		VoucherType string                `json:"voucherType"`
		Names       []string              `json:"names"`
		Chart       []model.LedgerAccount `json:"chart"`
	}
	if !decode(w, r, &req) {
		return
	}
	vt, err := model.ParseVoucherType(req.VoucherType)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	m, err := s.reconciler.Reconcile(r.Context(), req.Names, req.Chart, vt)
	if err != nil {
		logger.FromContext(r.Context()).Warn().Err(err).Int("names", len(req.Names)).Msg("Reconciliation failed")
		var be *reconcile.BatchError
		if errors.As(err, &be) {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, m)
}

type outcomeResponse struct {
	SessionID      string              `json:"sessionId"`
	Generation     uint64              `json:"generation"`
	VoucherType    model.VoucherType   `json:"voucherType"`
	Config         mapping.Config      `json:"config"`
	MissingColumns []mapping.Column    `json:"missingColumns"`
	Mapping        model.NameMapping   `json:"mapping"`
	Entries        []model.LedgerEntry `json:"entries"`
	Stats          model.Stats         `json:"stats"`
	Rejections     []convert.Rejection `json:"rejections"`
	ReconcileError string              `json:"reconcileError,omitempty"`
	Error          string              `json:"error,omitempty"`
}

func newOutcomeResponse(id string, out session.Outcome) outcomeResponse {
	resp := outcomeResponse{
		SessionID:      id,
		Generation:     out.Generation,
		VoucherType:    out.VoucherType,
		Config:         out.Config,
		MissingColumns: out.Missing,
		Mapping:        out.Mapping,
	}
	if out.Result != nil {
		resp.Entries = out.Result.Entries
		resp.Stats = out.Result.Stats
		resp.Rejections = out.Result.Rejections
	}
	if out.ReconcileErr != nil {
		resp.ReconcileError = out.ReconcileErr.Error()
	}
	if out.Err != nil {
		resp.Error = out.Err.Error()
	}
	return resp
}

// createSession handles POST /api/v1/sessions.
func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req datasetRequest
	if !decode(w, r, &req) {
		return
	}
	_, headers, cfg, err := req.resolve()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess := session.New(id.NewSessionID(), s.reconciler, s.log)
	s.sessions.Add(sess)

	out, _ := sess.Run(r.Context(), session.Snapshot{
		Headers: headers,
		Rows:    req.Rows,
		Config:  cfg,
		Chart:   req.Chart,
	})
	writeJSON(w, http.StatusCreated, newOutcomeResponse(sess.ID, out))
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sid := chi.URLParam(r, "id")
	if !id.ValidSessionID(sid) {
		writeError(w, http.StatusBadRequest, "Invalid session ID")
		return nil, false
	}
	sess, ok := s.sessions.Get(sid)
	if !ok {
		writeError(w, http.StatusNotFound, "Session not found")
		return nil, false
	}
	return sess, true
}

// getSession handles GET /api/v1/sessions/{id}.
func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	out, ok := sess.Latest()
	if !ok {
		writeError(w, http.StatusNotFound, "Session has no completed run")
		return
	}
	writeJSON(w, http.StatusOK, newOutcomeResponse(sess.ID, out))
}

// deleteSession handles DELETE /api/v1/sessions/{id}.
func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "id")
	if !id.ValidSessionID(sid) {
		writeError(w, http.StatusBadRequest, "Invalid session ID")
		return
	}
	if !s.sessions.Remove(sid) {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// updateMapping handles PUT /api/v1/sessions/{id}/mapping. The body is the
// mapping for the session's voucher type.
func (s *Server) updateMapping(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var raw json.RawMessage
	if !decode(w, r, &raw) {
		return
	}
	vt := sess.Snapshot().Config.VoucherType()
	cfg, err := mapping.DecodeJSON(vt, raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out, current := sess.UpdateMapping(r.Context(), cfg)
	if !current {
		writeError(w, http.StatusConflict, "Superseded by a newer run")
		return
	}
	writeJSON(w, http.StatusOK, newOutcomeResponse(sess.ID, out))
}
