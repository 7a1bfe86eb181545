package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/cleared-dev/ledgerbridge/internal/export"
	"github.com/cleared-dev/ledgerbridge/internal/model"
	"github.com/cleared-dev/ledgerbridge/internal/reconcile"
	"github.com/cleared-dev/ledgerbridge/internal/session"
)

type stubReconciler struct {
	mapping model.NameMapping
	err     error
}

func (s stubReconciler) Reconcile(ctx context.Context, names []string, chart []model.LedgerAccount, vt model.VoucherType) (model.NameMapping, error) {
	return s.mapping, s.err
}

const salesBody = `{
	"voucherType": "sales",
	"headers": ["Date", "Customer", "Taxable", "CGST"],
	"rows": [
		{"Date": "15/01/2024", "Customer": "Acme Trdrs", "Taxable": 1000, "CGST": 90},
		{"Date": "", "Customer": "Nobody", "Taxable": 5}
	],
	"config": {
		"voucherTypeName": "Sales",
		"date": "Date",
		"partyName": "Customer",
		"lineItems": [
			{"column": "Taxable", "ledgerName": "Sales"},
			{"column": "CGST", "ledgerName": "Output CGST"},
			{"column": "SGST", "ledgerName": "Output SGST"}
		]
	},
	"chart": [{"name": "Acme Traders", "group": "Sundry Debtors"}]
}`

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	h := NewServer(nil, zerolog.Nop()).Handler()
	rec := do(t, h, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["oracle"])
	assert.NotEmpty(t, rec.Header().Get("Content-Type"))
}

func TestConvert_JSON(t *testing.T) {
	h := NewServer(nil, zerolog.Nop()).Handler()
	rec := do(t, h, http.MethodPost, "/api/v1/convert", salesBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Entries        []model.LedgerEntry `json:"entries"`
		Rejections     []map[string]any    `json:"rejections"`
		MissingColumns []string            `json:"missingColumns"`
		Stats          struct {
			TotalAmount any `json:"totalAmount"`
		} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1090.0, body.Stats.TotalAmount, "totals are JSON numbers")
	require.Len(t, body.Entries, 3)
	assert.Equal(t, "Acme Trdrs", body.Entries[0].LedgerName)
	assert.Equal(t, "1090.00", body.Entries[0].LedgerAmount)
	require.Len(t, body.Rejections, 1)
	assert.Equal(t, "no_date", body.Rejections[0]["reason"])
	assert.Equal(t, []string{"SGST"}, body.MissingColumns)
}

func TestConvert_Corrections(t *testing.T) {
	h := NewServer(nil, zerolog.Nop()).Handler()
	body := strings.Replace(salesBody, `"chart"`, `"corrections": {"Acme Trdrs": "Acme Traders"}, "chart"`, 1)
	rec := do(t, h, http.MethodPost, "/api/v1/convert", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ledgerName":"Acme Traders"`)
}

func TestConvert_XLSX(t *testing.T) {
	h := NewServer(nil, zerolog.Nop()).Handler()
	rec := do(t, h, http.MethodPost, "/api/v1/convert?format=xlsx", salesBody)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "ledger-import-sales-")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(export.SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

func TestConvert_BadRequests(t *testing.T) {
	h := NewServer(nil, zerolog.Nop()).Handler()

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/v1/convert", "{").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/v1/convert", `{"voucherType":"receipt"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/v1/convert?format=pdf", salesBody).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/v1/convert", `{"voucherType":"journal","config":[1]}`).Code)
}

func TestReconcile(t *testing.T) {
	h := NewServer(nil, zerolog.Nop()).Handler()
	rec := do(t, h, http.MethodPost, "/api/v1/reconcile", `{"voucherType":"Sales","names":["a"]}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	stub := stubReconciler{mapping: model.NameMapping{Corrections: map[string]string{"Acme Trdrs": "Acme Traders"}}}
	h = NewServer(stub, zerolog.Nop()).Handler()
	rec = do(t, h, http.MethodPost, "/api/v1/reconcile", `{"voucherType":"Sales","names":["Acme Trdrs"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Acme Trdrs":"Acme Traders"`)

	failing := stubReconciler{err: &reconcile.BatchError{Offset: 0, Size: 1, Err: errors.New("boom")}}
	h = NewServer(failing, zerolog.Nop()).Handler()
	rec = do(t, h, http.MethodPost, "/api/v1/reconcile", `{"voucherType":"Sales","names":["x"]}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestSessions(t *testing.T) {
	stub := stubReconciler{mapping: model.NameMapping{Corrections: map[string]string{"Acme Trdrs": "Acme Traders"}}}
	h := NewServer(stub, zerolog.Nop()).Handler()

	rec := do(t, h, http.MethodPost, "/api/v1/sessions", salesBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody(t, rec)
	sid, _ := created["sessionId"].(string)
	require.NotEmpty(t, sid)
	assert.EqualValues(t, 1, created["generation"])
	assert.Contains(t, rec.Body.String(), `"ledgerName":"Acme Traders"`)

	rec = do(t, h, http.MethodGet, "/api/v1/sessions/"+sid, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decodeBody(t, rec)["generation"])

	mappingBody := `{"voucherTypeName":"Sales","date":"Date","partyName":"Customer","lineItems":[{"column":"Taxable","ledgerName":"Sales"}]}`
	rec = do(t, h, http.MethodPut, "/api/v1/sessions/"+sid+"/mapping", mappingBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeBody(t, rec)
	assert.EqualValues(t, 2, updated["generation"])
	assert.Contains(t, rec.Body.String(), `"ledgerAmount":"1000.00"`)

	rec = do(t, h, http.MethodGet, "/api/v1/sessions/"+sid, "")
	assert.EqualValues(t, 2, decodeBody(t, rec)["generation"])
}

func TestSessions_NotFound(t *testing.T) {
	h := NewServer(nil, zerolog.Nop()).Handler()

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/v1/sessions/not-a-uuid", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/v1/sessions/6f1c1c3e-7f57-4a53-9d6e-0d5d8b2a4c11", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPut, "/api/v1/sessions/6f1c1c3e-7f57-4a53-9d6e-0d5d8b2a4c11/mapping", "{}").Code)
}

func TestSessions_Delete(t *testing.T) {
	h := NewServer(nil, zerolog.Nop()).Handler()

	rec := do(t, h, http.MethodPost, "/api/v1/sessions", salesBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sid, _ := decodeBody(t, rec)["sessionId"].(string)
	require.NotEmpty(t, sid)

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/api/v1/sessions/"+sid, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/v1/sessions/"+sid, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/api/v1/sessions/"+sid, "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodDelete, "/api/v1/sessions/nope", "").Code)
}

func TestSessions_Evicted(t *testing.T) {
	h := NewServer(nil, zerolog.Nop(), session.WithMaxSessions(1)).Handler()

	create := func() string {
		rec := do(t, h, http.MethodPost, "/api/v1/sessions", salesBody)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		sid, _ := decodeBody(t, rec)["sessionId"].(string)
		return sid
	}
	first := create()
	second := create()

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/v1/sessions/"+first, "").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/v1/sessions/"+second, "").Code)
}

func TestRecoversFromPanic(t *testing.T) {
	mux, ok := NewServer(nil, zerolog.Nop()).Handler().(*chi.Mux)
	require.True(t, ok)
	mux.Get("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })

	rec := do(t, mux, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
