// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries the arXiv API and maps its Atom feed onto
// PaperRecord values. It also downloads paper PDFs and formats results
// for display.
package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/paperflow/internal/acquire"
	"github.com/pdiddy/paperflow/internal/errs"
	"github.com/pdiddy/paperflow/internal/httputil"
	"github.com/pdiddy/paperflow/internal/logger"
	"github.com/pdiddy/paperflow/pkg/types"
)

const (
	serviceName = "arxiv"

	defaultDelay      = 3 * time.Second
	defaultPageSize   = 100
	defaultMaxResults = 10
	defaultTimeout    = 60 * time.Second
)

// ErrEmptyQuery is returned when a search has no text, category or date clause.
var ErrEmptyQuery = errors.New("search query is empty")

// ErrInvalidDate is returned when a date bound is not YYYY-MM-DD.
var ErrInvalidDate = errors.New("invalid date, want YYYY-MM-DD")

// SortBy selects the result ordering. Results are always descending.
type SortBy string

const (
	SortRelevance     SortBy = "relevance"
	SortSubmittedDate SortBy = "submitted_date"
	SortLastUpdated   SortBy = "last_updated"
)

// ParseSortBy maps a user-supplied value onto a SortBy. Unrecognized values
// fall back to relevance.
func ParseSortBy(s string) SortBy {
	switch SortBy(strings.ToLower(strings.TrimSpace(s))) {
	case SortSubmittedDate:
		return SortSubmittedDate
	case SortLastUpdated:
		return SortLastUpdated
	default:
		return SortRelevance
	}
}

// apiValue returns the arXiv sortBy parameter.
func (s SortBy) apiValue() string {
	switch s {
	case SortSubmittedDate:
		return "submittedDate"
	case SortLastUpdated:
		return "lastUpdatedDate"
	default:
		return "relevance"
	}
}

// Query holds the search parameters. Text is passed through in arXiv's own
// grammar (ti:, au:, abs:, cat: prefixes); it is never parsed here.
type Query struct {
	Text       string
	MaxResults int
	SortBy     SortBy
	Category   string
	DateFrom   string // YYYY-MM-DD, optional
	DateTo     string // YYYY-MM-DD, optional
}

// BuildQuery composes the search_query parameter:
// "(text) AND cat:X AND submittedDate:[from TO to]". Each clause appears
// only when set; an omitted date bound becomes "*".
func BuildQuery(q Query) (string, error) {
	var parts []string
	if text := strings.TrimSpace(q.Text); text != "" {
		parts = append(parts, "("+text+")")
	}
	if cat := strings.TrimSpace(q.Category); cat != "" {
		parts = append(parts, "cat:"+cat)
	}
	if q.DateFrom != "" || q.DateTo != "" {
		from, err := compactDate(q.DateFrom)
		if err != nil {
			return "", err
		}
		to, err := compactDate(q.DateTo)
		if err != nil {
			return "", err
		}
		parts = append(parts, fmt.Sprintf("submittedDate:[%s TO %s]", from, to))
	}
	if len(parts) == 0 {
		return "", ErrEmptyQuery
	}
	return strings.Join(parts, " AND "), nil
}

// compactDate turns "2024-01-31" into "20240131", and "" into "*".
func compactDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "*", nil
	}
	if _, err := time.Parse(time.DateOnly, s); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return strings.ReplaceAll(s, "-", ""), nil
}

// Client talks to the arXiv API. Consecutive requests are spaced by the
// configured delay; a Client is safe for sequential use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	pageSize   int
	maxResults int
	maxRetries int
	limiter    *rate.Limiter
	log        *logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for API and PDF requests.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithBaseURL overrides the API endpoint.
func WithBaseURL(u string) Option {
	return func(cl *Client) { cl.baseURL = u }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(cl *Client) { cl.userAgent = ua }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *logger.Logger) Option {
	return func(cl *Client) { cl.log = l }
}

// NewClient builds a Client from cfg. Zero delay and page size take the
// arXiv fair-use defaults (3s between requests, pages of 100). MaxRetries
// is used as given, so zero disables retries; a negative value means 3.
func NewClient(cfg types.ArxivConfig, opts ...Option) *Client {
	delay := cfg.Delay
	if delay < 0 {
		delay = 0
	} else if delay == 0 {
		delay = defaultDelay
	}

	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    arxivAPIBase,
		userAgent:  httputil.DefaultUserAgent,
		pageSize:   cfg.PageSize,
		maxResults: cfg.DefaultMaxResults,
		maxRetries: cfg.MaxRetries,
		limiter:    rate.NewLimiter(rate.Every(delay), 1),
	}
	if c.pageSize <= 0 {
		c.pageSize = defaultPageSize
	}
	if c.maxResults <= 0 {
		c.maxResults = defaultMaxResults
	}
	if c.maxRetries < 0 {
		c.maxRetries = httputil.DefaultMaxRetries
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = logger.OrNop(c.log).With("service", serviceName)
	return c
}

// Search runs q and returns up to q.MaxResults records in the order arXiv
// returns them. Pages are fetched sequentially until enough entries are
// collected or a page comes back short. No results is an empty slice.
func (c *Client) Search(ctx context.Context, q Query) ([]types.PaperRecord, error) {
	query, err := BuildQuery(q)
	if err != nil {
		return nil, err
	}

	limit := q.MaxResults
	if limit <= 0 {
		limit = c.maxResults
	}

	results := make([]types.PaperRecord, 0, min(limit, c.pageSize))
	for start := 0; len(results) < limit; {
		want := min(c.pageSize, limit-len(results))
		params := map[string]string{
			"search_query": query,
			"start":        fmt.Sprint(start),
			"max_results":  fmt.Sprint(want),
			"sortBy":       q.SortBy.apiValue(),
			"sortOrder":    "descending",
		}
		c.log.Debug("arxiv search page", "query", query, "start", start, "max_results", want)

		entries, err := c.fetch(ctx, "search", params)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if rec, ok := e.toRecord(); ok && len(results) < limit {
				results = append(results, rec)
			}
		}
		if len(entries) < want {
			break
		}
		start += len(entries)
	}
	return results, nil
}

// GetPaper fetches one paper by identifier. It returns nil, nil when arXiv
// has no such paper.
func (c *Client) GetPaper(ctx context.Context, id string) (*types.PaperRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, types.ErrEmptyID
	}
	if _, norm := acquire.Classify(id); norm != "" {
		id = norm
	}

	entries, err := c.fetch(ctx, "get paper", map[string]string{
		"id_list":     id,
		"max_results": "1",
	})
	if errors.Is(err, errErrorEntry) {
		c.log.Debug("arxiv reported an error entry", "id", id, "error", err)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if rec, ok := e.toRecord(); ok {
			return &rec, nil
		}
	}
	return nil, nil
}

// DownloadPDF fetches the paper's PDF into targetDir and returns the file
// path. The file is named after the paper's canonical identifier (see
// acquire.PDFFilename) unless filename is set. A missing paper is an error wrapping
// errs.ErrNotFound.
func (c *Client) DownloadPDF(ctx context.Context, id, targetDir, filename string) (string, error) {
	paper, err := c.GetPaper(ctx, id)
	if err != nil {
		return "", err
	}
	if paper == nil {
		return "", fmt.Errorf("arxiv paper %s: %w", id, errs.ErrNotFound)
	}

	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return "", fmt.Errorf("creating download directory: %w", err)
	}
	if filename == "" {
		filename = acquire.PDFFilename(paper.ID)
	}
	dest := filepath.Join(targetDir, filename)

	pdfURL := paper.PDFURL
	if pdfURL == "" {
		pdfURL = paper.PDFPageURL()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	c.log.Debug("downloading pdf", "url", pdfURL, "dest", dest)

	err = acquire.Download(ctx, c.httpClient, pdfURL, dest, c.userAgent)
	var se *acquire.StatusError
	switch {
	case err == nil:
		return dest, nil
	case errors.As(err, &se):
		return "", errs.FromStatus(serviceName, "download pdf", se.StatusCode, se.Error())
	case errors.Is(err, acquire.ErrNotPDF):
		return "", errs.Unavailable(serviceName, "download pdf", http.StatusOK, err)
	case ctx.Err() != nil:
		return "", ctx.Err()
	default:
		return "", errs.Unavailable(serviceName, "download pdf", 0, err)
	}
}
