package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/noahxzhu/lighthouse/internal/model"
)

// StatusError is a non-2xx answer from the Lighthouse API.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s failed: status %d, body %s", e.Op, e.StatusCode, e.Body)
}

// DecodeError means the API answered but its document could not be read.
// The remote copy exists and must not be overwritten from a fallback.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "remote load: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Remote talks to the /api/data and /api/alert endpoints.
type Remote struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func NewRemote(baseURL, token string) *Remote {
	return &Remote{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (r *Remote) do(ctx context.Context, op, method, path string, in any) ([]byte, error) {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("%s: marshal: %w", op, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.Token != "" {
		req.Header.Set("Authorization", "Bearer "+r.Token)
	}

	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Op: op, StatusCode: resp.StatusCode, Body: string(out)}
	}
	return out, nil
}

func (r *Remote) Load(ctx context.Context) (*model.AppData, error) {
	raw, err := r.do(ctx, "remote load", http.MethodGet, "/api/data", nil)
	if err != nil {
		return nil, err
	}
	data, err := model.DecodeAppData(raw)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	return data, nil
}

func (r *Remote) Save(ctx context.Context, data *model.AppData) error {
	_, err := r.do(ctx, "remote save", http.MethodPut, "/api/data", data)
	return err
}

// SendAlert asks the server to mail the alert to the request's contacts.
func (r *Remote) SendAlert(ctx context.Context, req *model.AlertRequest) error {
	_, err := r.do(ctx, "send alert", http.MethodPost, "/api/alert", req)
	return err
}
