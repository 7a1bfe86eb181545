package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/ledgerbridge/internal/model"
)

// DefaultTimeout bounds one remote call when the config sets none.
const DefaultTimeout = 30 * time.Second

const (
	actionSave  = "saveVoucher"
	actionFetch = "fetchVoucher"
)

type request struct {
	Action string `json:"action"`
	Data   any    `json:"data"`
}

type reply struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Remote talks to a script endpoint that accepts {action, data} posts.
type Remote struct {
	url    string
	client *http.Client
	log    zerolog.Logger
}

// NewRemote returns a Remote posting to url.
func NewRemote(url string, timeout time.Duration, log zerolog.Logger) *Remote {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Remote{url: url, client: &http.Client{Timeout: timeout}, log: log}
}

// Save posts the voucher.
func (r *Remote) Save(ctx context.Context, v model.Voucher) error {
	_, err := r.post(ctx, actionSave, v)
	return err
}

// Fetch asks the endpoint for a voucher by number.
func (r *Remote) Fetch(ctx context.Context, voucherNumber string) (model.Voucher, error) {
	data, err := r.post(ctx, actionFetch, map[string]string{"voucherNumber": voucherNumber})
	if err != nil {
		return model.Voucher{}, err
	}
	var v model.Voucher
	if err := json.Unmarshal(data, &v); err != nil {
		return model.Voucher{}, &NetworkError{Action: actionFetch, Err: fmt.Errorf("decoding voucher: %w", err)}
	}
	return v, nil
}

// Close is a no-op.
func (r *Remote) Close() error { return nil }

func (r *Remote) post(ctx context.Context, action string, data any) (json.RawMessage, error) {
	body, err := json.Marshal(request{Action: action, Data: data})
	if err != nil {
		return nil, fmt.Errorf("encoding %s request: %w", action, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", action, err)
	}
	// text/plain keeps script endpoints from demanding a CORS preflight.
	req.Header.Set("Content-Type", "text/plain;charset=UTF-8")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &NetworkError{Action: action, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Action: action, Err: fmt.Errorf("reading response: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &NetworkError{Action: action, Err: fmt.Errorf("server error (%d)", resp.StatusCode)}
	}

	var rep reply
	if err := json.Unmarshal(raw, &rep); err != nil {
		return nil, &NetworkError{Action: action, Err: fmt.Errorf("unparseable response %q: %w", raw, err)}
	}
	if !rep.Success {
		msg := rep.Message
		if msg == "" {
			msg = "the backend reported an unknown error"
		}
		r.log.Warn().Str("action", action).Str("message", msg).Msg("backend rejected request")
		return nil, &RejectedError{Message: msg}
	}
	return rep.Data, nil
}
