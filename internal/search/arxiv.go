// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/paperflow/internal/acquire"
	"github.com/pdiddy/paperflow/internal/errs"
	"github.com/pdiddy/paperflow/internal/httputil"
	"github.com/pdiddy/paperflow/pkg/types"
)

// arxivAPIBase is the arXiv query endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// errErrorEntry marks a feed whose only entry is an arXiv error report
// (malformed query or identifier).
var errErrorEntry = errors.New("arxiv error entry")

// fetch issues one API request and decodes the feed. Transport errors,
// 429 and 5xx are retried up to the client's retry bound.
func (c *Client) fetch(ctx context.Context, op string, params map[string]string) ([]arxivEntry, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	v := url.Values{}
	for k, val := range params {
		v.Set(k, val)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+v.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := httputil.Do(ctx, c.httpClient, req, httputil.Policy{
		MaxRetries:        c.maxRetries,
		RetryServerErrors: true,
		Log:               c.log,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errs.Unavailable(serviceName, op, 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Unavailable(serviceName, op, resp.StatusCode, fmt.Errorf("reading response: %w", err))
	}

	var feed arxivFeed
	decodeErr := xml.Unmarshal(body, &feed)
	if decodeErr == nil {
		if msg, ok := feed.errorMessage(); ok {
			e := errs.Rejected(serviceName, op, resp.StatusCode, msg)
			e.Cause = errErrorEntry
			return nil, e
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errs.FromStatus(serviceName, op, resp.StatusCode, snippet(body))
	}
	if decodeErr != nil {
		return nil, errs.Unavailable(serviceName, op, resp.StatusCode, fmt.Errorf("parsing response: %w", decodeErr))
	}
	return feed.Entries, nil
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID         string          `xml:"id"`
	Title      string          `xml:"title"`
	Summary    string          `xml:"summary"`
	Published  string          `xml:"published"`
	Updated    string          `xml:"updated"`
	Authors    []arxivAuthor   `xml:"author"`
	Links      []arxivLink     `xml:"link"`
	Categories []arxivCategory `xml:"category"`
	DOI        string          `xml:"http://arxiv.org/schemas/atom doi"`
	JournalRef string          `xml:"http://arxiv.org/schemas/atom journal_ref"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

type arxivLink struct {
	Href  string `xml:"href,attr"`
	Rel   string `xml:"rel,attr"`
	Title string `xml:"title,attr"`
	Type  string `xml:"type,attr"`
}

type arxivCategory struct {
	Term string `xml:"term,attr"`
}

// errorMessage reports the text of an arXiv error entry, if the feed is one.
func (f arxivFeed) errorMessage() (string, bool) {
	for _, e := range f.Entries {
		if strings.Contains(e.ID, "/api/errors") {
			msg := collapse(e.Summary)
			if msg == "" {
				msg = collapse(e.Title)
			}
			return msg, true
		}
	}
	return "", false
}

// toRecord maps a feed entry onto a PaperRecord. Entries without a
// recognizable arXiv identifier are skipped.
func (e arxivEntry) toRecord() (types.PaperRecord, bool) {
	id := extractArxivID(e.ID)
	if id == "" {
		return types.PaperRecord{}, false
	}

	rec := types.PaperRecord{
		ID:         id,
		Title:      collapse(e.Title),
		Abstract:   collapse(e.Summary),
		Authors:    make([]string, 0, len(e.Authors)),
		Categories: make([]string, 0, len(e.Categories)),
		DOI:        strings.TrimSpace(e.DOI),
		JournalRef: collapse(e.JournalRef),
	}
	for _, a := range e.Authors {
		if name := collapse(a.Name); name != "" {
			rec.Authors = append(rec.Authors, name)
		}
	}
	for _, cat := range e.Categories {
		if cat.Term != "" {
			rec.Categories = append(rec.Categories, cat.Term)
		}
	}
	if t, err := time.Parse(time.RFC3339, strings.TrimSpace(e.Published)); err == nil {
		rec.Published = t
	}
	if t, err := time.Parse(time.RFC3339, strings.TrimSpace(e.Updated)); err == nil {
		rec.Updated = t
	}

	for _, l := range e.Links {
		if l.Title == "pdf" || l.Type == "application/pdf" {
			rec.PDFURL = l.Href
			break
		}
	}
	if rec.PDFURL == "" {
		rec.PDFURL = rec.PDFPageURL()
	}
	return rec, true
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" → "2301.07041"). Old-style
// identifiers such as "hep-th/9901001" keep their archive prefix.
func extractArxivID(idURL string) string {
	typ, norm := acquire.Classify(idURL)
	if typ == acquire.TypeUnknown {
		return ""
	}
	return acquire.StripVersion(norm)
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func snippet(body []byte) string {
	s := collapse(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
