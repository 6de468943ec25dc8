// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the paperflow pipeline:
// the paper record produced by search, the summary record produced by the
// summarizer or by hand, and the configuration each stage consumes.
package types

import (
	"errors"
	"time"
)

const (
	arxivAbsBase = "https://arxiv.org/abs/"
	arxivPDFBase = "https://arxiv.org/pdf/"
)

// PaperRecord identifies one paper. It is built by the search stage from a
// remote response and carried by value through filing and note generation.
type PaperRecord struct {
	// ID is the canonical arXiv short identifier (e.g. "2301.07041").
	// It is the join key between the search service, Zotero and the vault.
	ID string `json:"arxiv_id" yaml:"arxiv_id"`

	// Title is the paper title with whitespace runs collapsed.
	Title string `json:"title" yaml:"title"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Abstract is the paper abstract.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Published is the first submission time.
	Published time.Time `json:"published" yaml:"published"`

	// Updated is the time of the latest revision.
	Updated time.Time `json:"updated" yaml:"updated"`

	// Categories lists the arXiv taxonomy tags (e.g. "cs.CL").
	Categories []string `json:"categories" yaml:"categories"`

	// PDFURL is the remote PDF location or a local path.
	PDFURL string `json:"pdf_url" yaml:"pdf_url"`

	// DOI is the optional Digital Object Identifier. Empty when absent.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// JournalRef is the optional journal reference. Empty when absent.
	JournalRef string `json:"journal_ref,omitempty" yaml:"journal_ref,omitempty"`
}

// ErrEmptyID is returned by Validate for a record without an identifier.
var ErrEmptyID = errors.New("paper record has no identifier")

// Validate checks the record invariant: the identifier must be set.
func (p PaperRecord) Validate() error {
	if p.ID == "" {
		return ErrEmptyID
	}
	return nil
}

// AbsURL returns the canonical abstract page URL.
func (p PaperRecord) AbsURL() string { return arxivAbsBase + p.ID }

// PDFPageURL returns the canonical PDF URL derived from the identifier.
func (p PaperRecord) PDFPageURL() string { return arxivPDFBase + p.ID }

// PublishedDate returns the publication date as YYYY-MM-DD, or "" when unset.
func (p PaperRecord) PublishedDate() string {
	if p.Published.IsZero() {
		return ""
	}
	return p.Published.Format(time.DateOnly)
}

// RecordDict is the serialised form of a PaperRecord used for JSON output.
// Timestamps are RFC 3339 strings and absent identifiers are null.
type RecordDict struct {
	ArxivID    string   `json:"arxiv_id" yaml:"arxiv_id"`
	Title      string   `json:"title" yaml:"title"`
	Authors    []string `json:"authors" yaml:"authors"`
	Abstract   string   `json:"abstract" yaml:"abstract"`
	Published  string   `json:"published" yaml:"published"`
	Updated    string   `json:"updated" yaml:"updated"`
	PDFURL     string   `json:"pdf_url" yaml:"pdf_url"`
	Categories []string `json:"categories" yaml:"categories"`
	DOI        *string  `json:"doi" yaml:"doi"`
	JournalRef *string  `json:"journal_ref" yaml:"journal_ref"`
}

// ToDict converts the record to its serialised form.
func (p PaperRecord) ToDict() RecordDict {
	d := RecordDict{
		ArxivID:    p.ID,
		Title:      p.Title,
		Authors:    nonNil(p.Authors),
		Abstract:   p.Abstract,
		Published:  formatTime(p.Published),
		Updated:    formatTime(p.Updated),
		PDFURL:     p.PDFURL,
		Categories: nonNil(p.Categories),
	}
	if p.DOI != "" {
		doi := p.DOI
		d.DOI = &doi
	}
	if p.JournalRef != "" {
		ref := p.JournalRef
		d.JournalRef = &ref
	}
	return d
}

// FromDict reconstructs a PaperRecord from its serialised form.
func FromDict(d RecordDict) (PaperRecord, error) {
	published, err := parseTime(d.Published)
	if err != nil {
		return PaperRecord{}, err
	}
	updated, err := parseTime(d.Updated)
	if err != nil {
		return PaperRecord{}, err
	}
	p := PaperRecord{
		ID:         d.ArxivID,
		Title:      d.Title,
		Authors:    d.Authors,
		Abstract:   d.Abstract,
		Published:  published,
		Updated:    updated,
		Categories: d.Categories,
		PDFURL:     d.PDFURL,
	}
	if d.DOI != nil {
		p.DOI = *d.DOI
	}
	if d.JournalRef != nil {
		p.JournalRef = *d.JournalRef
	}
	return p, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
