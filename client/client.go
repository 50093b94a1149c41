// Package client talks to the pagetrail API over HTTP+JSON. Client satisfies
// tracker.Remote.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pagetrail/api/models"
)

const (
	apiKeyHeader   = "X-API-KEY"
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 4 << 10
)

// ErrNotFound is returned for 404 responses, e.g. an unknown page view.
var ErrNotFound = errors.New("resource not found")

// StatusError carries a non-2xx response.
type StatusError struct {
	Op      string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.Code, e.Message)
}

func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusNotFound {
		return ErrNotFound
	}
	return nil
}

type Client struct {
	base   *url.URL
	apiKey string
	http   *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New builds a client for the API rooted at baseURL, e.g.
// "http://localhost:8080/api/v1".
func New(baseURL, apiKey string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", baseURL)
	}
	c := &Client{base: u, apiKey: apiKey, http: &http.Client{Timeout: defaultTimeout}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) GetOrCreateVisitor(ctx context.Context, req models.VisitorRequest) (string, error) {
	var resp models.VisitorResponse
	if err := c.do(ctx, "get_or_create_visitor", http.MethodPost, "/visitors", req, &resp); err != nil {
		return "", err
	}
	return resp.SessionID, nil
}

func (c *Client) TrackPageView(ctx context.Context, req models.PageViewRequest) (string, error) {
	var resp models.PageViewResponse
	if err := c.do(ctx, "track_page_view", http.MethodPost, "/page-views", req, &resp); err != nil {
		return "", err
	}
	if resp.PageViewID == "" {
		return "", errors.New("track_page_view: response carried no page_view_id")
	}
	return resp.PageViewID, nil
}

func (c *Client) UpdatePageView(ctx context.Context, pageViewID string, upd models.PageViewUpdate) error {
	return c.do(ctx, "update_page_view", http.MethodPatch, "/page-views/"+url.PathEscape(pageViewID), upd, nil)
}

func (c *Client) TrackBehavior(ctx context.Context, req models.BehaviorRequest) error {
	return c.do(ctx, "track_behavior", http.MethodPost, "/behaviors", req, nil)
}

func (c *Client) TrackSearch(ctx context.Context, req models.SearchRequest) error {
	return c.do(ctx, "track_search", http.MethodPost, "/searches", req, nil)
}

func (c *Client) UpsertPreference(ctx context.Context, req models.PreferenceRequest) error {
	return c.do(ctx, "upsert_preference", http.MethodPut, "/preferences", req, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: failed to encode request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: failed to build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Op: op, Code: resp.StatusCode, Message: errorMessage(resp.Body)}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", op, err)
	}
	return nil
}

// errorMessage extracts the {"error": "..."} body the API writes on failure.
func errorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		return body.Error
	}
	return strings.TrimSpace(string(raw))
}
