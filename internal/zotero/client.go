// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package zotero files papers into a Zotero library through the Zotero
// Web API v3: collections, journal article items and PDF attachments.
package zotero

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/paperflow/internal/errs"
	"github.com/pdiddy/paperflow/internal/httputil"
	"github.com/pdiddy/paperflow/internal/logger"
	"github.com/pdiddy/paperflow/pkg/types"
)

// zoteroAPIBase is the Zotero Web API root. Declared as a var so tests can
// substitute an httptest server.
var zoteroAPIBase = "https://api.zotero.org"

const (
	serviceName    = "zotero"
	apiVersion     = "3"
	defaultTimeout = 60 * time.Second
	pageLimit      = 100
)

// Client is a Zotero Web API client bound to one library. It caches
// collection keys by name for the lifetime of the Client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	library    types.Library
	apiKey     string
	userAgent  string
	log        *logger.Logger

	mu          sync.Mutex
	collections map[string]string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithBaseURL overrides the API root.
func WithBaseURL(u string) Option {
	return func(cl *Client) { cl.baseURL = strings.TrimRight(u, "/") }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(cl *Client) { cl.userAgent = ua }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *logger.Logger) Option {
	return func(cl *Client) { cl.log = l }
}

// NewClient returns a client for library authenticated by apiKey. A missing
// library id or key, or an unknown library type, is a configuration error.
// An empty library type means a user library.
func NewClient(library types.Library, apiKey string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(library.ID) == "" {
		return nil, errs.Configf("zotero library_id is not set")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, errs.Configf("zotero API key is not set")
	}
	if library.Type == "" {
		library.Type = types.LibraryUser
	}
	if !library.Type.Valid() {
		return nil, errs.Configf("zotero library_type %q must be %q or %q", library.Type, types.LibraryUser, types.LibraryGroup)
	}

	c := &Client{
		httpClient:  &http.Client{Timeout: defaultTimeout},
		baseURL:     zoteroAPIBase,
		library:     library,
		apiKey:      apiKey,
		userAgent:   httputil.DefaultUserAgent,
		collections: make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = logger.OrNop(c.log).With("service", "zotero", "library", c.libraryPath())
	return c, nil
}

// libraryPath returns "/users/{id}" or "/groups/{id}".
func (c *Client) libraryPath() string {
	if c.library.Type == types.LibraryGroup {
		return "/groups/" + url.PathEscape(c.library.ID)
	}
	return "/users/" + url.PathEscape(c.library.ID)
}

// request describes one call against the library.
type request struct {
	op          string
	method      string
	path        string // relative to the library root
	query       url.Values
	body        []byte
	contentType string
	header      map[string]string
	writeToken  bool
}

// newWriteToken returns a fresh Zotero-Write-Token: 32 hex characters.
func newWriteToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// send executes r and returns the response for a 2xx status. Other statuses
// are classified into a RemoteError carrying the response body. HTTP 429
// is retried, honoring Retry-After and Backoff; the write token makes a
// retried create safe.
func (c *Client) send(ctx context.Context, r request) (*http.Response, error) {
	u := c.baseURL + c.libraryPath() + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Zotero-API-Key", c.apiKey)
	req.Header.Set("Zotero-API-Version", apiVersion)
	req.Header.Set("User-Agent", c.userAgent)
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if r.writeToken {
		req.Header.Set("Zotero-Write-Token", newWriteToken())
	}
	for k, v := range r.header {
		req.Header.Set(k, v)
	}

	resp, err := httputil.Do(ctx, c.httpClient, req, httputil.Policy{MaxRetries: httputil.DefaultMaxRetries, Log: c.log})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errs.Unavailable(serviceName, r.op, 0, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, errs.FromStatus(serviceName, r.op, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return resp, nil
}

// sendJSON executes r and decodes a JSON response body into out (when out
// is non-nil). It returns the response headers.
func (c *Client) sendJSON(ctx context.Context, r request, out any) (http.Header, error) {
	resp, err := c.send(ctx, r)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return resp.Header, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return nil, errs.Unavailable(serviceName, r.op, resp.StatusCode, fmt.Errorf("decoding response: %w", err))
	}
	return resp.Header, nil
}

// write posts objects to a collection endpoint ("/items", "/collections")
// and decodes the first result.
func (c *Client) write(ctx context.Context, op, path string, objects []any) (WriteResult, error) {
	payload, err := json.Marshal(objects)
	if err != nil {
		return WriteResult{}, fmt.Errorf("encoding %s: %w", op, err)
	}

	resp, err := c.send(ctx, request{
		op:          op,
		method:      http.MethodPost,
		path:        path,
		body:        payload,
		contentType: "application/json",
		writeToken:  true,
	})
	if err != nil {
		return WriteResult{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return WriteResult{}, errs.Unavailable(serviceName, op, resp.StatusCode, fmt.Errorf("reading response: %w", err))
	}
	res, err := decodeWriteResult(body)
	if err != nil {
		return WriteResult{}, errs.Unavailable(serviceName, op, resp.StatusCode, err)
	}
	if !res.Succeeded() {
		return res, errs.Rejected(serviceName, op, res.Code, res.Message)
	}
	return res, nil
}
