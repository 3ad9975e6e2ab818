// Package remote talks to the spreadsheet-backed web app that stores washes.
//
// The endpoint accepts a registration POST whose plain-text body is a JSON
// object {"note": "..."} and a history GET with action=getHistory. Both reply
// with a JSON envelope whose status is "success" on success.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/microcosm-cc/bluemonday"

	"washlog/internal/config"
	"washlog/internal/core"
	"washlog/internal/washapi"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// maxBodyBytes caps how much of a response is read.
const maxBodyBytes = 4 << 20

// snippetRunes caps the body excerpt carried by a DecodeError.
const snippetRunes = 120

// textPolicy reduces an HTML error page to its text.
var textPolicy = bluemonday.StrictPolicy()

// contentType avoids a CORS preflight on the web app side.
const contentType = "text/plain;charset=utf-8"

var _ washapi.Backend = (*Client)(nil)

type Client struct {
	httpClient *http.Client
	endpoint   string
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets an overall request timeout. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.httpClient
		hc.Timeout = d
		c.httpClient = &hc
	}
}

// New creates a client for endpoint. Requests are never retried.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		endpoint:   strings.TrimSpace(endpoint),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the configured endpoint URL.
func (c *Client) Endpoint() string { return c.endpoint }

func (c *Client) configured() bool {
	return c.endpoint != "" && !strings.Contains(c.endpoint, config.PlaceholderEndpoint)
}

type registerRequest struct {
	Note string `json:"note"`
}

// Register posts note and returns the running count reported by the endpoint.
func (c *Client) Register(ctx context.Context, note string) (int, error) {
	if !c.configured() {
		return 0, washapi.ErrNotConfigured
	}
	payload, err := json.Marshal(registerRequest{Note: note})
	if err != nil {
		return 0, fmt.Errorf("encode register request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return 0, &washapi.TransportError{Op: "register", Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	var res core.RegistrationResult
	if err := c.do(req, "register", &res); err != nil {
		return 0, err
	}
	if !res.OK() {
		return 0, &washapi.StatusError{Status: res.Status, Message: res.Message}
	}
	return res.Data.Count, nil
}

// History fetches every recorded wash.
func (c *Client) History(ctx context.Context) ([]core.WashRecord, error) {
	if !c.configured() {
		return nil, washapi.ErrNotConfigured
	}
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, &washapi.TransportError{Op: "history", Err: err}
	}
	q := u.Query()
	q.Set("action", "getHistory")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &washapi.TransportError{Op: "history", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	var res core.HistoryResponse
	if err := c.do(req, "history", &res); err != nil {
		return nil, err
	}
	if !res.OK() {
		return nil, &washapi.StatusError{Status: res.Status, Message: res.Message}
	}
	if res.Data == nil {
		return []core.WashRecord{}, nil
	}
	return res.Data, nil
}

// do executes req and decodes the JSON body into out. The HTTP status is
// only reported when the body does not decode: the web app signals failures
// in the envelope.
func (c *Client) do(req *http.Request, op string, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &washapi.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &washapi.TransportError{Op: op, Err: fmt.Errorf("read body: %w", err)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		if resp.StatusCode >= 300 {
			err = fmt.Errorf("status %s: %w", resp.Status, err)
		}
		return &washapi.DecodeError{Op: op, Err: err, Snippet: snippet(body)}
	}
	return nil
}

// snippet returns the leading text of a body that failed to decode. Web app
// deployment errors arrive as HTML pages; only their text is kept.
func snippet(body []byte) string {
	text := html.UnescapeString(string(textPolicy.SanitizeBytes(body)))
	text = strings.Join(strings.Fields(text), " ")
	if r := []rune(text); len(r) > snippetRunes {
		text = string(r[:snippetRunes]) + "…"
	}
	return text
}
