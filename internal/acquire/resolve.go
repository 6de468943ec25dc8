// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"regexp"
	"strings"
)

// IdentifierType classifies an input identifier.
type IdentifierType int

const (
	TypeUnknown IdentifierType = iota
	TypeArxiv
	TypeArxivLegacy
)

func (t IdentifierType) String() string {
	switch t {
	case TypeArxiv:
		return "arxiv"
	case TypeArxivLegacy:
		return "arxiv-legacy"
	default:
		return "unknown"
	}
}

var (
	// arxivPattern matches new-style arXiv IDs: "2301.07041", "arXiv:2301.07041v2".
	arxivPattern = regexp.MustCompile(`^(?i:arxiv:)?(\d{4}\.\d{4,5})(v\d+)?$`)

	// legacyPattern matches pre-2007 IDs: "hep-th/9901001", "math.GT/0309136v1".
	legacyPattern = regexp.MustCompile(`^(?i:arxiv:)?([a-z\-]+(?:\.[A-Z]{2})?/\d{7})(v\d+)?$`)

	// absURLPattern matches abstract and PDF page URLs.
	absURLPattern = regexp.MustCompile(`^https?://(?:export\.)?arxiv\.org/(?:abs|pdf)/(.+?)(?:\.pdf)?$`)
)

// Classify determines the identifier type and returns the normalized form.
// It accepts bare IDs, "arXiv:" prefixed IDs and arxiv.org abs/pdf URLs.
// The version suffix is kept when present, so "2301.07041v2" stays pinned.
func Classify(identifier string) (IdentifierType, string) {
	identifier = strings.TrimSpace(identifier)
	if m := absURLPattern.FindStringSubmatch(identifier); m != nil {
		identifier = m[1]
	}

	if m := arxivPattern.FindStringSubmatch(identifier); m != nil {
		return TypeArxiv, m[1] + m[2]
	}
	if m := legacyPattern.FindStringSubmatch(identifier); m != nil {
		return TypeArxivLegacy, m[1] + m[2]
	}
	return TypeUnknown, identifier
}

// StripVersion removes a trailing "vN" version suffix from an arXiv ID.
func StripVersion(id string) string {
	if m := arxivPattern.FindStringSubmatch(id); m != nil {
		return m[1]
	}
	if m := legacyPattern.FindStringSubmatch(id); m != nil {
		return m[1]
	}
	return id
}

// PDFFilename returns the default filename for an identifier's PDF.
// Path separators and colons become underscores, so legacy IDs such as
// "hep-th/9901001" stay in one directory.
func PDFFilename(id string) string {
	return filenameReplacer.Replace(strings.TrimSpace(id)) + ".pdf"
}

var filenameReplacer = strings.NewReplacer("/", "_", "\\", "_", ":", "_")
