// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pdiddy/paperflow/internal/errs"
	"github.com/pdiddy/paperflow/internal/logger"
	"github.com/pdiddy/paperflow/internal/summarize"
	"github.com/pdiddy/paperflow/pkg/types"
)

// Policy decides what happens when a note for the paper already exists.
type Policy string

const (
	PolicyUnset     Policy = ""
	PolicySkip      Policy = "skip"
	PolicyOverwrite Policy = "overwrite"
)

// ErrPolicyRequired is returned when no existing-note policy was chosen.
var ErrPolicyRequired = fmt.Errorf("%w: existing-note policy must be %q or %q",
	errs.ErrConfiguration, PolicySkip, PolicyOverwrite)

// ParsePolicy validates a user-supplied policy name.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicySkip, PolicyOverwrite:
		return p, nil
	default:
		return PolicyUnset, ErrPolicyRequired
	}
}

// NoteRequest configures Notes.Write.
type NoteRequest struct {
	// Summary holds caller-supplied fields. They take precedence over
	// generated ones.
	Summary types.SummaryRecord
	Extras  types.NoteExtras

	// Summarize asks the summarizer to fill the fields Summary leaves empty.
	Summarize bool
	Language  summarize.Language

	Policy Policy
}

// NoteResult reports what Notes.Write did.
type NoteResult struct {
	Path    string `json:"path"`
	Skipped bool   `json:"skipped"`

	// Replaced lists the existing notes for the paper removed under
	// PolicyOverwrite, other than Path itself.
	Replaced []string `json:"replaced,omitempty"`

	// SummaryError explains why an automatic summary is missing.
	SummaryError string `json:"summary_error,omitempty"`
}

// Notes writes vault notes.
type Notes struct {
	Writer     NoteWriter
	Summarizer Summarizer // nil when no summarizer is configured
	Log        *logger.Logger
}

// Write creates the note for record according to req. With PolicySkip an
// existing note is left alone and reported; with PolicyOverwrite the new
// note is written and every older note for the same paper removed. A
// summarizer failure does not fail the call: the note is written with
// whatever fields the caller supplied and SummaryError says what went wrong.
func (n *Notes) Write(ctx context.Context, record types.PaperRecord, req NoteRequest) (*NoteResult, error) {
	log := logger.OrNop(n.Log)
	if req.Policy != PolicySkip && req.Policy != PolicyOverwrite {
		return nil, AtStage(StageConfig, ErrPolicyRequired)
	}

	existing, err := n.Writer.NoteExists(record.ID)
	if err != nil {
		return nil, AtStage(StageVault, err)
	}
	if existing != "" && req.Policy == PolicySkip {
		log.Info("note already exists", "arxiv_id", record.ID, "path", existing)
		return &NoteResult{Path: existing, Skipped: true}, nil
	}

	res := &NoteResult{}
	summary := req.Summary
	if req.Summarize {
		generated, err := n.generate(ctx, record, req.Language)
		if err != nil {
			log.Warn("summary generation failed, writing note for manual entry", "arxiv_id", record.ID, "error", err)
			res.SummaryError = err.Error()
		} else {
			summary = summary.Merge(generated)
		}
	}

	path, err := n.Writer.CreateSummary(record, &summary, req.Extras)
	if err != nil {
		return nil, AtStage(StageVault, err)
	}
	res.Path = path

	if existing == "" {
		return res, nil
	}
	stale, err := n.Writer.FindNotes(record.ID)
	if err != nil {
		return nil, AtStage(StageVault, err)
	}
	for _, old := range stale {
		if old == path {
			continue
		}
		if err := os.Remove(old); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, AtStage(StageVault, fmt.Errorf("removing replaced note: %w", err))
		}
		log.Debug("removed replaced note", "arxiv_id", record.ID, "path", old)
		res.Replaced = append(res.Replaced, old)
	}
	return res, nil
}

func (n *Notes) generate(ctx context.Context, record types.PaperRecord, lang summarize.Language) (types.SummaryRecord, error) {
	if n.Summarizer == nil {
		return types.SummaryRecord{}, errors.New("no summarizer configured")
	}
	if lang == "" {
		lang = summarize.Korean
	}
	return n.Summarizer.Summarize(ctx, record.Title, record.Authors, record.Abstract, lang)
}
