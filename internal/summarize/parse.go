// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package summarize

import (
	"strings"

	"github.com/pdiddy/paperflow/pkg/types"
)

// section identifies which SummaryRecord field the parser is filling.
type section int

const (
	sectionNone section = iota
	sectionSummary
	sectionKeyFindings
	sectionMethodology
	sectionContributions
	sectionLimitations
	sectionFutureWork
)

// markers lists the section markers in the order the prompt requests them.
var markers = []struct {
	text string
	sec  section
}{
	{"[SUMMARY]", sectionSummary},
	{"[KEY_FINDINGS]", sectionKeyFindings},
	{"[METHODOLOGY]", sectionMethodology},
	{"[CONTRIBUTIONS]", sectionContributions},
	{"[LIMITATIONS]", sectionLimitations},
	{"[FUTURE_WORK]", sectionFutureWork},
}

// parser accumulates lines for the open section and flushes them into the
// record when the next marker (or the end of input) is reached.
type parser struct {
	rec   types.SummaryRecord
	cur   section
	lines []string
}

// Parse turns a marker-delimited model reply into a SummaryRecord.
//
// Lines are trimmed and blank lines dropped. Text before the first marker
// is ignored, and unknown bracketed markers are ordinary text. A section
// that appears twice keeps the later non-empty body. Key findings keep
// only bullet lines ("-", "*", "•") with the bullet removed; the other
// fields join their lines with "\n". Sections that never appear stay
// absent.
func Parse(text string) types.SummaryRecord {
	var p parser
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if sec, rest, ok := matchMarker(line); ok {
			p.flush()
			p.cur = sec
			line = rest
		}
		if line == "" || p.cur == sectionNone {
			continue
		}
		p.lines = append(p.lines, line)
	}
	p.flush()
	return p.rec
}

// matchMarker reports whether line starts with a known marker and returns
// the section and any text following the marker on the same line.
func matchMarker(line string) (section, string, bool) {
	for _, m := range markers {
		if strings.HasPrefix(line, m.text) {
			return m.sec, strings.TrimSpace(line[len(m.text):]), true
		}
	}
	return sectionNone, "", false
}

func (p *parser) flush() {
	defer func() { p.lines = nil }()
	if len(p.lines) == 0 {
		return
	}

	body := strings.Join(p.lines, "\n")
	switch p.cur {
	case sectionSummary:
		p.rec.Summary = body
	case sectionKeyFindings:
		if items := bullets(p.lines); len(items) > 0 {
			p.rec.KeyFindings = items
		}
	case sectionMethodology:
		p.rec.Methodology = body
	case sectionContributions:
		p.rec.Contributions = body
	case sectionLimitations:
		p.rec.Limitations = body
	case sectionFutureWork:
		p.rec.FutureWork = body
	}
}

// bullets keeps the bullet lines and strips their markers.
func bullets(lines []string) []string {
	var out []string
	for _, l := range lines {
		if item, ok := stripBullet(l); ok && item != "" {
			out = append(out, item)
		}
	}
	return out
}

func stripBullet(line string) (string, bool) {
	switch {
	case strings.HasPrefix(line, "**"):
		// Bold text, not a bullet.
		return "", false
	case strings.HasPrefix(line, "-"), strings.HasPrefix(line, "*"):
		return strings.TrimSpace(line[1:]), true
	case strings.HasPrefix(line, "•"):
		return strings.TrimSpace(strings.TrimPrefix(line, "•")), true
	}
	return "", false
}
