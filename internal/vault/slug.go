// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package vault

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxSlugLength bounds the slug part of a note filename, in bytes.
const MaxSlugLength = 50

var (
	// slugStrip removes everything that is not a letter, digit, space,
	// underscore or hyphen.
	slugStrip = regexp.MustCompile(`[^\p{L}\p{N}\s_-]`)

	// slugSeparators matches runs of whitespace, underscores and hyphens.
	slugSeparators = regexp.MustCompile(`[\s_-]+`)
)

// Slugify turns a title into a filename-safe slug: lowercase, punctuation
// dropped, separator runs collapsed to one hyphen, no leading or trailing
// hyphen, at most MaxSlugLength bytes. Letters outside ASCII are kept.
func Slugify(title string) string {
	s := strings.ToLower(title)
	s = slugStrip.ReplaceAllString(s, "")
	s = slugSeparators.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > MaxSlugLength {
		cut := MaxSlugLength
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = strings.TrimRight(s[:cut], "-")
	}
	return s
}

// sanitizeID makes an arXiv identifier safe for use in a filename.
func sanitizeID(id string) string {
	return strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(id)
}
