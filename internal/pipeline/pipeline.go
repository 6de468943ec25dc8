// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline wires the search, Zotero, summarization and vault stages
// into the paper workflows and applies the policies that sit between them:
// collection and PDF failures are downgraded to warnings, summarizer
// failures fall back to a manual-entry note, and an existing note is
// skipped or overwritten only as the caller asks.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/pdiddy/paperflow/internal/errs"
	"github.com/pdiddy/paperflow/internal/logger"
	"github.com/pdiddy/paperflow/internal/summarize"
	"github.com/pdiddy/paperflow/internal/zotero"
	"github.com/pdiddy/paperflow/pkg/types"
)

// Stage names the part of the workflow an error came from.
type Stage string

const (
	StageConfig    Stage = "config"
	StageSearch    Stage = "search"
	StageZotero    Stage = "zotero"
	StageSummarize Stage = "summarize"
	StageVault     Stage = "vault"
)

// StageError attributes err to a workflow stage.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return string(e.Stage) + ": " + e.Err.Error() }

func (e *StageError) Unwrap() error { return e.Err }

// AtStage attributes err to stage. Errors already attributed keep their
// original stage.
func AtStage(stage Stage, err error) error {
	var se *StageError
	if err == nil || errors.As(err, &se) {
		return err
	}
	return &StageError{Stage: stage, Err: err}
}

// Papers is the subset of the search client the workflows need.
type Papers interface {
	GetPaper(ctx context.Context, id string) (*types.PaperRecord, error)
	DownloadPDF(ctx context.Context, id, targetDir, filename string) (string, error)
}

// Library is the subset of the Zotero client the workflows need.
type Library interface {
	FindOrCreateCollection(ctx context.Context, name string) (string, error)
	CreatePaperItem(ctx context.Context, record types.PaperRecord, opts zotero.ItemOptions) (string, error)
	AttachPDF(ctx context.Context, parentKey, pdfPath string) zotero.AttachResult
}

// Summarizer produces a SummaryRecord for a paper.
type Summarizer interface {
	Summarize(ctx context.Context, title string, authors []string, abstract string, lang summarize.Language) (types.SummaryRecord, error)
}

// NoteWriter creates notes and finds existing ones.
type NoteWriter interface {
	NoteExists(id string) (string, error)
	FindNotes(id string) ([]string, error)
	CreateSummary(record types.PaperRecord, summary *types.SummaryRecord, extras types.NoteExtras) (string, error)
}

// Pipeline runs the full import workflow for one paper.
type Pipeline struct {
	Papers Papers
	Filer  *Filer
	Notes  *Notes // nil disables the note step
	Log    *logger.Logger
}

// ImportOptions configures Import.
type ImportOptions struct {
	File FileOptions
	Note NoteRequest
}

// ImportResult collects the outcome of each step of Import.
type ImportResult struct {
	Record types.PaperRecord `json:"-"`
	File   FileResult        `json:"zotero"`
	Note   *NoteResult       `json:"note,omitempty"`
}

// Import fetches the paper id, files it into Zotero and, when Notes is
// set, writes its vault note linked to the new item.
func (p *Pipeline) Import(ctx context.Context, id string, opts ImportOptions) (*ImportResult, error) {
	record, err := Lookup(ctx, p.Papers, id)
	if err != nil {
		return nil, err
	}
	return p.ImportRecord(ctx, *record, opts)
}

// ImportRecord runs Import for a record the caller already holds, such as
// an entry from a saved search. When the note step fails after filing, the
// result describing the committed Zotero item is returned with the error.
func (p *Pipeline) ImportRecord(ctx context.Context, record types.PaperRecord, opts ImportOptions) (*ImportResult, error) {
	fr, err := p.Filer.File(ctx, record, opts.File)
	if err != nil {
		return nil, err
	}
	res := &ImportResult{Record: record, File: *fr}

	if p.Notes == nil {
		return res, nil
	}
	req := opts.Note
	if req.Extras.ZoteroKey == "" {
		req.Extras.ZoteroKey = fr.ItemKey
	}
	nr, err := p.Notes.Write(ctx, record, req)
	if err != nil {
		logger.OrNop(p.Log).Error("note failed after filing, zotero item kept",
			"arxiv_id", record.ID, "item_key", fr.ItemKey, "error", err)
		return res, err
	}
	res.Note = nr
	return res, nil
}

// Lookup fetches one paper and turns "no such paper" into an error
// wrapping errs.ErrNotFound, for workflows that cannot continue without it.
func Lookup(ctx context.Context, papers Papers, id string) (*types.PaperRecord, error) {
	record, err := papers.GetPaper(ctx, id)
	if err != nil {
		return nil, AtStage(StageSearch, err)
	}
	if record == nil {
		return nil, AtStage(StageSearch, fmt.Errorf("arxiv paper %s: %w", id, errs.ErrNotFound))
	}
	return record, nil
}
