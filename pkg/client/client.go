// Package client talks to a running `boardpack serve`.
//
// Transient failures (connection errors, 5xx answers) are retried with
// backoff; everything else is returned at once. Responses that the server
// marks as failed are converted back into coded errors, so callers can use
// errors.Is on them just like with a local run.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/matzehuels/boardpack/pkg/board"
	"github.com/matzehuels/boardpack/pkg/buildinfo"
	"github.com/matzehuels/boardpack/pkg/cache"
	"github.com/matzehuels/boardpack/pkg/errors"
)

const httpTimeout = 5 * time.Minute

// ErrNetwork is returned for transport failures and unexpected answers.
var ErrNetwork = stderrors.New("network error")

// Client calls the boardpack HTTP API at a base URL.
type Client struct {
	base    string
	http    *http.Client
	headers map[string]string
}

// New creates a client for baseURL (e.g. "http://localhost:8080"). Headers
// are sent with every request; pass nil when none are needed.
func New(baseURL string, headers map[string]string) *Client {
	return &Client{
		base:    strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: httpTimeout},
		headers: headers,
	}
}

// Health checks that the server answers /healthz.
func (c *Client) Health(ctx context.Context) error {
	var out map[string]string
	return c.do(ctx, http.MethodGet, "/healthz", nil, &out)
}

// Version returns the server's build information.
func (c *Client) Version(ctx context.Context) (buildinfo.Info, error) {
	var info buildinfo.Info
	err := c.do(ctx, http.MethodGet, "/v1/version", nil, &info)
	return info, err
}

// Pack solves a flat pack request remotely. A failed solve is returned both
// as the response and as a coded error.
func (c *Client) Pack(ctx context.Context, req board.PackRequest) (board.PackResponse, error) {
	var resp board.PackResponse
	err := c.do(ctx, http.MethodPost, "/v1/pack", req, &resp)
	var se *statusError
	if stderrors.As(err, &se) {
		// The pack route answers a PackResponse even on failure.
		if json.Unmarshal(se.body, &resp) == nil && resp.Code != "" {
			return resp, errors.New(errors.Code(resp.Code), "%s", resp.Error)
		}
	}
	return resp, err
}

// LayoutRequest mirrors the body of POST /v1/layout.
type LayoutRequest struct {
	Board        *board.Board `json:"board"`
	Formats      []string     `json:"formats,omitempty"`
	Padding      *float64     `json:"padding,omitempty"`
	EdgePatterns []string     `json:"edge_patterns,omitempty"`
	Orphans      string       `json:"orphans,omitempty"`
	Refresh      bool         `json:"refresh,omitempty"`
}

// LayoutResponse mirrors the answer of POST /v1/layout.
type LayoutResponse struct {
	RunID     string            `json:"run_id"`
	Cached    bool              `json:"cached"`
	Layout    *board.Layout     `json:"layout"`
	Artifacts map[string][]byte `json:"artifacts,omitempty"`
}

// Layout places a board remotely.
func (c *Client) Layout(ctx context.Context, req LayoutRequest) (*LayoutResponse, error) {
	var resp LayoutResponse
	if err := c.do(ctx, http.MethodPost, "/v1/layout", req, &resp); err != nil {
		var se *statusError
		if stderrors.As(err, &se) {
			return nil, se.coded()
		}
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	var body []byte
	err := cache.RetryWithBackoff(ctx, func() error {
		var err error
		body, err = c.roundTrip(ctx, method, path, payload)
		return err
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

func (c *Client) roundTrip(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, cache.Retryable(fmt.Errorf("%w: %v", ErrNetwork, err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, cache.Retryable(fmt.Errorf("%w: read body: %v", ErrNetwork, err))
	}
	if err := checkStatus(resp.StatusCode, data); err != nil {
		return nil, err
	}
	return data, nil
}

// statusError is a non-2xx answer.
type statusError struct {
	status int
	body   []byte
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%v: status %d", ErrNetwork, e.status)
}

func (e *statusError) Unwrap() error { return ErrNetwork }

// coded decodes the server's {"error", "code"} body.
func (e *statusError) coded() error {
	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if json.Unmarshal(e.body, &body) != nil || body.Code == "" {
		return e
	}
	return errors.New(errors.Code(body.Code), "%s", body.Error)
}

// checkStatus classifies an HTTP status. 5xx answers other than 501 are
// worth retrying.
func checkStatus(code int, body []byte) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code >= 500 && code != http.StatusNotImplemented && code != http.StatusGatewayTimeout:
		return cache.Retryable(&statusError{status: code, body: body})
	default:
		return &statusError{status: code, body: body}
	}
}
