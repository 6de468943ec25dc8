// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paperflow/internal/errs"
	"github.com/pdiddy/paperflow/internal/httputil"
	"github.com/pdiddy/paperflow/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

const feedHeader = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:arxiv="http://arxiv.org/schemas/atom">
  <title>arXiv Query</title>
`

const feedFooter = `</feed>`

func entryXML(id, title, pdfBase string) string {
	return fmt.Sprintf(`  <entry>
    <id>http://arxiv.org/abs/%[1]sv2</id>
    <updated>2023-02-01T10:00:00Z</updated>
    <published>2023-01-17T18:59:59Z</published>
    <title>%[2]s</title>
    <summary>  An abstract
      spanning lines.  </summary>
    <author><name>Ada Lovelace</name></author>
    <author><name>Alan Turing</name></author>
    <arxiv:doi>10.1000/xyz</arxiv:doi>
    <arxiv:journal_ref>J. Test 1 (2023)</arxiv:journal_ref>
    <link href="http://arxiv.org/abs/%[1]sv2" rel="alternate" type="text/html"/>
    <link title="pdf" href="%[3]s/pdf/%[1]sv2" rel="related" type="application/pdf"/>
    <arxiv:primary_category term="cs.CL" scheme="http://arxiv.org/schemas/atom"/>
    <category term="cs.CL" scheme="http://arxiv.org/schemas/atom"/>
    <category term="cs.LG" scheme="http://arxiv.org/schemas/atom"/>
  </entry>
`, id, title, pdfBase)
}

const errorFeed = feedHeader + `  <entry>
    <id>http://arxiv.org/api/errors#incorrect_id_format_for_bogus</id>
    <title>Error</title>
    <summary>incorrect id format for bogus</summary>
  </entry>
` + feedFooter

func testClient(t *testing.T, ts *httptest.Server, cfg types.ArxivConfig) *Client {
	t.Helper()
	if cfg.Delay == 0 {
		cfg.Delay = -1
	}
	return NewClient(cfg, WithBaseURL(ts.URL+"/api/query"), WithHTTPClient(ts.Client()), WithUserAgent("test/0.1"))
}

// --- Query building ---

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		want  string
	}{
		{"text only", Query{Text: "ti:transformer"}, "(ti:transformer)"},
		{"category", Query{Text: "llm", Category: "cs.AI"}, "(llm) AND cat:cs.AI"},
		{"full range", Query{Text: "llm", DateFrom: "2024-01-01", DateTo: "2024-06-30"},
			"(llm) AND submittedDate:[20240101 TO 20240630]"},
		{"open end", Query{Text: "llm", DateFrom: "2024-01-01"}, "(llm) AND submittedDate:[20240101 TO *]"},
		{"open start", Query{Text: "llm", DateTo: "2024-06-30"}, "(llm) AND submittedDate:[* TO 20240630]"},
		{"all clauses", Query{Text: "au:smith", Category: "cs.CL", DateFrom: "2023-05-01", DateTo: "2023-05-31"},
			"(au:smith) AND cat:cs.CL AND submittedDate:[20230501 TO 20230531]"},
		{"category only", Query{Category: "hep-th"}, "cat:hep-th"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildQuery(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildQueryErrors(t *testing.T) {
	_, err := BuildQuery(Query{})
	assert.ErrorIs(t, err, ErrEmptyQuery)

	_, err = BuildQuery(Query{Text: "x", DateFrom: "2024/01/01"})
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = BuildQuery(Query{Text: "x", DateTo: "2024-13-01"})
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestParseSortBy(t *testing.T) {
	assert.Equal(t, SortRelevance, ParseSortBy("relevance"))
	assert.Equal(t, SortSubmittedDate, ParseSortBy("submitted_date"))
	assert.Equal(t, SortLastUpdated, ParseSortBy(" LAST_UPDATED "))
	assert.Equal(t, SortRelevance, ParseSortBy("popularity"))
	assert.Equal(t, SortRelevance, ParseSortBy(""))

	assert.Equal(t, "submittedDate", SortSubmittedDate.apiValue())
	assert.Equal(t, "lastUpdatedDate", SortLastUpdated.apiValue())
	assert.Equal(t, "relevance", SortBy("").apiValue())
}

// --- Search ---

func TestSearchMapsEntries(t *testing.T) {
	var gotQuery, gotSort, gotOrder, gotUA string
	var ts *httptest.Server
	ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("search_query")
		gotSort = r.URL.Query().Get("sortBy")
		gotOrder = r.URL.Query().Get("sortOrder")
		gotUA = r.Header.Get("User-Agent")
		fmt.Fprint(w, feedHeader+entryXML("2301.07041", "Attention\n    Is All You Need", ts.URL)+
			entryXML("2301.00001", "Second Paper", ts.URL)+feedFooter)
	}))
	defer ts.Close()

	c := testClient(t, ts, types.ArxivConfig{})
	results, err := c.Search(context.Background(), Query{
		Text: "ti:attention", MaxResults: 5, SortBy: SortSubmittedDate, Category: "cs.CL",
	})
	require.NoError(t, err)

	assert.Equal(t, "(ti:attention) AND cat:cs.CL", gotQuery)
	assert.Equal(t, "submittedDate", gotSort)
	assert.Equal(t, "descending", gotOrder)
	assert.Equal(t, "test/0.1", gotUA)

	require.Len(t, results, 2)
	r := results[0]
	assert.Equal(t, "2301.07041", r.ID)
	assert.Equal(t, "Attention Is All You Need", r.Title)
	assert.Equal(t, "An abstract spanning lines.", r.Abstract)
	assert.Equal(t, []string{"Ada Lovelace", "Alan Turing"}, r.Authors)
	assert.Equal(t, []string{"cs.CL", "cs.LG"}, r.Categories)
	assert.Equal(t, ts.URL+"/pdf/2301.07041v2", r.PDFURL)
	assert.Equal(t, "10.1000/xyz", r.DOI)
	assert.Equal(t, "J. Test 1 (2023)", r.JournalRef)
	assert.Equal(t, time.Date(2023, 1, 17, 18, 59, 59, 0, time.UTC), r.Published)
	assert.Equal(t, time.Date(2023, 2, 1, 10, 0, 0, 0, time.UTC), r.Updated)

	// Remote order is preserved.
	assert.Equal(t, "2301.00001", results[1].ID)
}

func TestSearchEmptyResults(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, feedHeader+feedFooter)
	}))
	defer ts.Close()

	results, err := testClient(t, ts, types.ArxivConfig{}).Search(context.Background(), Query{Text: "nothing"})
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestSearchPaginates(t *testing.T) {
	var calls int32
	var mu sync.Mutex
	var starts []string
	var ts *httptest.Server
	ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		start, _ := strconv.Atoi(r.URL.Query().Get("start"))
		n, _ := strconv.Atoi(r.URL.Query().Get("max_results"))
		mu.Lock()
		starts = append(starts, r.URL.Query().Get("start"))
		mu.Unlock()

		var b strings.Builder
		b.WriteString(feedHeader)
		// The remote holds 5 papers in total.
		for i := start; i < start+n && i < 5; i++ {
			b.WriteString(entryXML(fmt.Sprintf("2301.0000%d", i), fmt.Sprintf("Paper %d", i), ts.URL))
		}
		b.WriteString(feedFooter)
		fmt.Fprint(w, b.String())
	}))
	defer ts.Close()

	c := testClient(t, ts, types.ArxivConfig{PageSize: 2})
	results, err := c.Search(context.Background(), Query{Text: "x", MaxResults: 10})
	require.NoError(t, err)

	require.Len(t, results, 5)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, []string{"0", "2", "4"}, starts)
	for i, r := range results {
		assert.Equal(t, fmt.Sprintf("2301.0000%d", i), r.ID)
	}
}

func TestSearchStopsAtMaxResults(t *testing.T) {
	var calls int32
	var ts *httptest.Server
	ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		n, _ := strconv.Atoi(r.URL.Query().Get("max_results"))
		var b strings.Builder
		b.WriteString(feedHeader)
		for i := 0; i < n; i++ {
			b.WriteString(entryXML(fmt.Sprintf("2302.1000%d", i), "P", ts.URL))
		}
		b.WriteString(feedFooter)
		fmt.Fprint(w, b.String())
	}))
	defer ts.Close()

	c := testClient(t, ts, types.ArxivConfig{PageSize: 100})
	results, err := c.Search(context.Background(), Query{Text: "x", MaxResults: 3})
	require.NoError(t, err)
	assert.Len(t, results, 3)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSearchRetriesServerErrors(t *testing.T) {
	var calls int32
	var ts *httptest.Server
	ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, feedHeader+entryXML("2301.07041", "T", ts.URL)+feedFooter)
	}))
	defer ts.Close()

	results, err := testClient(t, ts, types.ArxivConfig{MaxRetries: 3}).Search(context.Background(), Query{Text: "x"})
	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestSearchRetriesExhausted(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	_, err := testClient(t, ts, types.ArxivConfig{MaxRetries: 2}).Search(context.Background(), Query{Text: "x"})
	require.Error(t, err)
	assert.True(t, errs.IsUnavailable(err))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestSearchRetryBudget(t *testing.T) {
	tests := []struct {
		name       string
		maxRetries int
		wantCalls  int32
	}{
		{"zero disables retries", 0, 1},
		{"explicit budget", 1, 2},
		{"negative takes the default", -1, 4},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var calls int32
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(http.StatusBadGateway)
			}))
			defer ts.Close()

			_, err := testClient(t, ts, types.ArxivConfig{MaxRetries: tc.maxRetries}).Search(context.Background(), Query{Text: "x"})
			assert.True(t, errs.IsUnavailable(err))
			assert.Equal(t, tc.wantCalls, atomic.LoadInt32(&calls))
		})
	}
}

func TestSearchMalformedXML(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "<feed><entry>")
	}))
	defer ts.Close()

	_, err := testClient(t, ts, types.ArxivConfig{}).Search(context.Background(), Query{Text: "x"})
	require.Error(t, err)
	assert.True(t, errs.IsUnavailable(err))
}

func TestSearchRejectedQuery(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, errorFeed)
	}))
	defer ts.Close()

	_, err := testClient(t, ts, types.ArxivConfig{}).Search(context.Background(), Query{Text: "x"})
	require.Error(t, err)
	assert.True(t, errs.IsRejected(err))
	assert.Contains(t, err.Error(), "incorrect id format")
}

func TestSearchInvalidDateMakesNoRequest(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer ts.Close()

	_, err := testClient(t, ts, types.ArxivConfig{}).Search(context.Background(), Query{Text: "x", DateFrom: "yesterday"})
	assert.ErrorIs(t, err, ErrInvalidDate)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

// --- GetPaper ---

func TestGetPaper(t *testing.T) {
	var gotIDList string
	var ts *httptest.Server
	ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIDList = r.URL.Query().Get("id_list")
		fmt.Fprint(w, feedHeader+entryXML("2301.07041", "Found", ts.URL)+feedFooter)
	}))
	defer ts.Close()

	p, err := testClient(t, ts, types.ArxivConfig{}).GetPaper(context.Background(), "arXiv:2301.07041")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "2301.07041", gotIDList)
	assert.Equal(t, "Found", p.Title)
}

func TestGetPaperNotFound(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"empty feed", http.StatusOK, feedHeader + feedFooter},
		{"error entry", http.StatusOK, errorFeed},
		{"error entry with 400", http.StatusBadRequest, errorFeed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer ts.Close()

			p, err := testClient(t, ts, types.ArxivConfig{}).GetPaper(context.Background(), "bogus")
			assert.NoError(t, err)
			assert.Nil(t, p)
		})
	}
}

func TestGetPaperEmptyID(t *testing.T) {
	c := NewClient(types.ArxivConfig{})
	_, err := c.GetPaper(context.Background(), "  ")
	assert.ErrorIs(t, err, types.ErrEmptyID)
}

// --- DownloadPDF ---

func TestDownloadPDF(t *testing.T) {
	var ts *httptest.Server
	ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/pdf/") {
			w.Header().Set("Content-Type", "application/pdf")
			io.WriteString(w, "%PDF-1.5 body")
			return
		}
		fmt.Fprint(w, feedHeader+entryXML("2301.07041", "T", ts.URL)+feedFooter)
	}))
	defer ts.Close()

	dir := filepath.Join(t.TempDir(), "downloads")
	path, err := testClient(t, ts, types.ArxivConfig{}).DownloadPDF(context.Background(), "2301.07041", dir, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "2301.07041.pdf"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.5 body", string(data))
}

func TestDownloadPDFNamesFileAfterCanonicalID(t *testing.T) {
	var ts *httptest.Server
	ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/pdf/") {
			io.WriteString(w, "%PDF-1.5")
			return
		}
		assert.Equal(t, "2301.07041", r.URL.Query().Get("id_list"))
		fmt.Fprint(w, feedHeader+entryXML("2301.07041", "T", ts.URL)+feedFooter)
	}))
	defer ts.Close()

	for _, id := range []string{"arXiv:2301.07041", "https://arxiv.org/abs/2301.07041", " 2301.07041 "} {
		t.Run(id, func(t *testing.T) {
			dir := t.TempDir()
			path, err := testClient(t, ts, types.ArxivConfig{}).DownloadPDF(context.Background(), id, dir, "")
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(dir, "2301.07041.pdf"), path)
			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Len(t, entries, 1)
		})
	}
}

func TestDownloadPDFCustomFilename(t *testing.T) {
	var ts *httptest.Server
	ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/pdf/") {
			io.WriteString(w, "%PDF-1.5")
			return
		}
		fmt.Fprint(w, feedHeader+entryXML("2301.07041", "T", ts.URL)+feedFooter)
	}))
	defer ts.Close()

	dir := t.TempDir()
	path, err := testClient(t, ts, types.ArxivConfig{}).DownloadPDF(context.Background(), "2301.07041", dir, "attention.pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "attention.pdf"), path)
}

func TestDownloadPDFNotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, feedHeader+feedFooter)
	}))
	defer ts.Close()

	_, err := testClient(t, ts, types.ArxivConfig{}).DownloadPDF(context.Background(), "2301.99999", t.TempDir(), "")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestDownloadPDFNotAPDF(t *testing.T) {
	var ts *httptest.Server
	ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/pdf/") {
			fmt.Fprint(w, "<html>not yet</html>")
			return
		}
		fmt.Fprint(w, feedHeader+entryXML("2301.07041", "T", ts.URL)+feedFooter)
	}))
	defer ts.Close()

	dir := t.TempDir()
	_, err := testClient(t, ts, types.ArxivConfig{}).DownloadPDF(context.Background(), "2301.07041", dir, "")
	require.Error(t, err)
	assert.True(t, errs.IsUnavailable(err))
	assert.NoFileExists(t, filepath.Join(dir, "2301.07041.pdf"))
}

// --- Formatting ---

func sampleRecords() []types.PaperRecord {
	return []types.PaperRecord{{
		ID:         "2301.07041",
		Title:      "Attention Is All You Need",
		Authors:    []string{"A", "B", "C", "D", "E"},
		Abstract:   strings.Repeat("x", 250),
		Published:  time.Date(2017, 6, 12, 0, 0, 0, 0, time.UTC),
		Categories: []string{"cs.CL", "cs.LG"},
		PDFURL:     "https://arxiv.org/pdf/2301.07041",
	}}
}

func TestFormatText(t *testing.T) {
	var buf bytes.Buffer
	FormatText(sampleRecords(), &buf)
	s := buf.String()

	assert.Contains(t, s, "Found 1 papers:")
	assert.Contains(t, s, "[1] Attention Is All You Need")
	assert.Contains(t, s, "A, B, C (+2 more)")
	assert.Contains(t, s, "Published : 2017-06-12")
	assert.Contains(t, s, "Categories: cs.CL, cs.LG")
	assert.Contains(t, s, strings.Repeat("x", 200)+"...")
	assert.NotContains(t, s, strings.Repeat("x", 201))
}

func TestFormatTextEmpty(t *testing.T) {
	var buf bytes.Buffer
	FormatText(nil, &buf)
	assert.Equal(t, "No papers found matching your query.\n", buf.String())
}

func TestFormatJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatJSON(sampleRecords(), &buf))

	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "2301.07041", got[0]["arxiv_id"])
	assert.Equal(t, "2017-06-12T00:00:00Z", got[0]["published"])
	assert.Nil(t, got[0]["doi"])
	assert.Contains(t, got[0], "journal_ref")
}

func TestFormatCSL(t *testing.T) {
	recs := sampleRecords()
	recs[0].Authors = []string{"Ashish Vaswani", "Plato"}
	recs[0].JournalRef = "NeurIPS 2017"

	var buf bytes.Buffer
	require.NoError(t, FormatCSL(recs, &buf))
	s := buf.String()

	assert.Contains(t, s, "arxiv:2301.07041")
	assert.Contains(t, s, "type: article-journal")
	assert.Contains(t, s, "container-title: NeurIPS 2017")
	assert.Contains(t, s, "family: Vaswani")
	assert.Contains(t, s, "literal: Plato")
	assert.Contains(t, s, "URL: https://arxiv.org/abs/2301.07041")
}

// --- Query file ---

func TestQueryFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.yaml")
	q := Query{Text: "ti:attention", MaxResults: 5, SortBy: SortLastUpdated, Category: "cs.CL", DateFrom: "2017-01-01"}
	recs := sampleRecords()
	recs[0].DOI = "10.1/abc"

	require.NoError(t, WriteQueryFile(path, q, recs))

	qf, err := ReadQueryFile(path)
	require.NoError(t, err)
	assert.Equal(t, q, qf.Query.ToQuery())
	assert.Equal(t, 1, qf.Summary.Total)

	got, err := qf.Records()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, recs[0].ID, got[0].ID)
	assert.Equal(t, "10.1/abc", got[0].DOI)
	assert.True(t, recs[0].Published.Equal(got[0].Published))

	one, err := qf.Record(1)
	require.NoError(t, err)
	assert.Equal(t, "2301.07041", one.ID)

	_, err = qf.Record(2)
	assert.Error(t, err)
}
