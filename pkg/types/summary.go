// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// SummaryRecord is a structured annotation of a paper. The zero value of
// every field (empty string, nil slice) means the field is absent; note
// rendering substitutes a placeholder for absent fields.
type SummaryRecord struct {
	Summary       string   `json:"summary" yaml:"summary"`
	KeyFindings   []string `json:"key_findings" yaml:"key_findings"`
	Methodology   string   `json:"methodology" yaml:"methodology"`
	Contributions string   `json:"contributions" yaml:"contributions"`
	Limitations   string   `json:"limitations" yaml:"limitations"`
	FutureWork    string   `json:"future_work" yaml:"future_work"`
}

// IsEmpty reports whether every field is absent.
func (s SummaryRecord) IsEmpty() bool {
	return s.Summary == "" && len(s.KeyFindings) == 0 && s.Methodology == "" &&
		s.Contributions == "" && s.Limitations == "" && s.FutureWork == ""
}

// Merge returns s with every absent field filled from other. Fields already
// set in s win.
func (s SummaryRecord) Merge(other SummaryRecord) SummaryRecord {
	out := s
	if out.Summary == "" {
		out.Summary = other.Summary
	}
	if len(out.KeyFindings) == 0 {
		out.KeyFindings = other.KeyFindings
	}
	if out.Methodology == "" {
		out.Methodology = other.Methodology
	}
	if out.Contributions == "" {
		out.Contributions = other.Contributions
	}
	if out.Limitations == "" {
		out.Limitations = other.Limitations
	}
	if out.FutureWork == "" {
		out.FutureWork = other.FutureWork
	}
	return out
}

// NoteExtras carries note-only fields that are not part of the paper or
// its summary.
type NoteExtras struct {
	// ZoteroKey links the note back to the Zotero item. Empty when not filed.
	ZoteroKey string `json:"zotero_key,omitempty" yaml:"zotero_key,omitempty"`

	// PersonalNotes is free text for the reader's own thoughts.
	PersonalNotes string `json:"personal_notes,omitempty" yaml:"personal_notes,omitempty"`

	// Tags are written to the note frontmatter.
	Tags []string `json:"tags,omitempty" yaml:"tags,omitempty"`

	// Published overrides the record's publication date in the note.
	Published string `json:"published,omitempty" yaml:"published,omitempty"`
}
