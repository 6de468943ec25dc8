// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package summarize asks a language model for a structured summary of a
// paper and parses the marker-delimited reply into a SummaryRecord.
package summarize

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/pdiddy/paperflow/internal/errs"
	"github.com/pdiddy/paperflow/internal/logger"
	"github.com/pdiddy/paperflow/pkg/types"
)

const (
	// DefaultModel is used when the configuration names no model.
	DefaultModel = "claude-sonnet-4-20250514"

	// DefaultMaxTokens caps the reply length.
	DefaultMaxTokens = 2000

	// APIKeyEnv is consulted when the configuration carries no key.
	APIKeyEnv = "ANTHROPIC_API_KEY"

	defaultTimeout = 120 * time.Second
)

// Language selects the summary language.
type Language string

const (
	Korean  Language = "ko"
	English Language = "en"
)

// ParseLanguage maps a user-supplied value onto a Language. Anything other
// than English selects Korean.
func ParseLanguage(s string) Language {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "en", "english":
		return English
	default:
		return Korean
	}
}

func (l Language) instruction() string {
	if l == English {
		return "in English"
	}
	return "in Korean (한국어로)"
}

// Backend completes a single prompt. ClaudeBackend is the production
// implementation; tests supply a stub.
type Backend interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Summarizer produces SummaryRecords through a Backend.
type Summarizer struct {
	backend Backend
	model   string
	log     *logger.Logger
}

// Option configures a Summarizer.
type Option func(*options)

type options struct {
	backend    Backend
	httpClient *http.Client
	url        string
	log        *logger.Logger
}

// WithBackend replaces the Claude backend.
func WithBackend(b Backend) Option {
	return func(o *options) { o.backend = b }
}

// WithHTTPClient sets the HTTP client used by the Claude backend.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithURL overrides the Messages API endpoint.
func WithURL(u string) Option {
	return func(o *options) { o.url = u }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// New builds a Summarizer. The API key comes from cfg.APIKey, falling back
// to the ANTHROPIC_API_KEY environment variable; without one New returns a
// configuration error.
func New(cfg types.AIConfig, opts ...Option) (*Summarizer, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		key = strings.TrimSpace(os.Getenv(APIKeyEnv))
	}
	if key == "" {
		return nil, errs.Configf("Anthropic API key required: set %s or ai.api_key", APIKeyEnv)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	backend := o.backend
	if backend == nil {
		client := o.httpClient
		if client == nil {
			client = &http.Client{Timeout: defaultTimeout}
		}
		backend = &ClaudeBackend{APIKey: key, Model: model, MaxTokens: maxTokens, URL: o.url, Client: client}
	}
	return &Summarizer{backend: backend, model: model, log: logger.OrNop(o.log)}, nil
}

// Summarize asks the model for a summary of the paper in lang and parses
// the reply. Backend failures are returned as is; there is no retry.
func (s *Summarizer) Summarize(ctx context.Context, title string, authors []string, abstract string, lang Language) (types.SummaryRecord, error) {
	prompt, err := renderPrompt(title, authors, abstract, lang)
	if err != nil {
		return types.SummaryRecord{}, err
	}

	s.log.Debug("requesting summary", "model", s.model, "title", title, "language", string(lang))
	reply, err := s.backend.Complete(ctx, prompt)
	if err != nil {
		return types.SummaryRecord{}, err
	}

	rec := Parse(reply)
	if rec.IsEmpty() {
		s.log.Warn("model reply contained no recognizable sections", "title", title)
	}
	return rec, nil
}

// summaryPromptTmpl asks for the six sections in a fixed order, each
// introduced by its marker on its own line.
var summaryPromptTmpl = template.Must(template.New("summary").Parse(`Summarize the following academic paper {{.Instruction}}.

## Paper
- Title: {{.Title}}
- Authors: {{.Authors}}
- Abstract: {{.Abstract}}

## Sections
1. Summary (3-5 sentences): the core of the paper
2. Key findings (3-5 items): the most important results, as bullet points
3. Methodology (2-3 sentences): the research methods used
4. Contributions (2-3 sentences): the paper's scholarly contribution
5. Limitations (1-2 sentences): limitations or constraints
6. Future work (1-2 sentences): proposed follow-up research

## Output format (use exactly these markers, each on its own line):
[SUMMARY]
summary text

[KEY_FINDINGS]
- finding 1
- finding 2
- finding 3

[METHODOLOGY]
methodology text

[CONTRIBUTIONS]
contributions text

[LIMITATIONS]
limitations text

[FUTURE_WORK]
future work text
`))

// renderPrompt executes the summary prompt template.
func renderPrompt(title string, authors []string, abstract string, lang Language) (string, error) {
	var buf bytes.Buffer
	err := summaryPromptTmpl.Execute(&buf, struct {
		Instruction, Title, Authors, Abstract string
	}{
		Instruction: lang.instruction(),
		Title:       title,
		Authors:     strings.Join(authors, ", "),
		Abstract:    abstract,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
