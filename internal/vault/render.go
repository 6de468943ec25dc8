// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package vault

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paperflow/pkg/types"
)

// Placeholders shown for absent note fields.
const (
	placeholderSummary       = "*Add your summary here*"
	placeholderKeyFindings   = "- *Add key findings*"
	placeholderMethodology   = "*Describe the methodology*"
	placeholderContributions = "*List main contributions*"
	placeholderLimitations   = "*Identify limitations*"
	placeholderFutureWork    = "*Potential future directions*"
	placeholderPersonal      = "*Your thoughts and insights*"
	placeholderRelated       = "*Link to related paper notes here*"
)

// noteData is the view passed to noteTmpl.
type noteData struct {
	Title         string
	Authors       string
	ID            string
	AbsURL        string
	PDFURL        string
	ZoteroLink    string
	Published     string
	Abstract      string
	Summary       string
	KeyFindings   string
	Methodology   string
	Contributions string
	Limitations   string
	FutureWork    string
	PersonalNotes string
	Related       string
	Created       string
}

var noteTmpl = template.Must(template.New("note").Parse(`# {{.Title}}

> [!info] Paper Overview
> - **Authors**: {{.Authors}}
> - **arXiv**: [{{.ID}}]({{.AbsURL}})
> - **PDF**: [Download]({{.PDFURL}})
> - **Zotero**: {{.ZoteroLink}}
> - **Published**: {{.Published}}

## Abstract

{{.Abstract}}

## Summary

{{.Summary}}

## Key Findings

{{.KeyFindings}}

## Methodology

{{.Methodology}}

## Contributions

{{.Contributions}}

## Limitations & Future Work

### Limitations
{{.Limitations}}

### Future Work
{{.FutureWork}}

## Personal Notes

{{.PersonalNotes}}

## Related Papers

{{.Related}}

---
*Created: {{.Created}}*
`))

// render writes the complete note (frontmatter and body) to w.
func render(w io.Writer, record types.PaperRecord, sum types.SummaryRecord, extras types.NoteExtras, today string) error {
	published := extras.Published
	if published == "" {
		published = record.PublishedDate()
	}

	fm, err := frontmatter(record, extras, published, today)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, fm); err != nil {
		return err
	}

	zotero := "Not linked"
	if extras.ZoteroKey != "" {
		zotero = fmt.Sprintf("[Open in Zotero](zotero://select/items/%s)", extras.ZoteroKey)
	}
	shownPublished := published
	if shownPublished == "" {
		shownPublished = "N/A"
	}

	return noteTmpl.Execute(w, noteData{
		Title:         record.Title,
		Authors:       strings.Join(record.Authors, ", "),
		ID:            record.ID,
		AbsURL:        record.AbsURL(),
		PDFURL:        record.PDFPageURL(),
		ZoteroLink:    zotero,
		Published:     shownPublished,
		Abstract:      record.Abstract,
		Summary:       orPlaceholder(sum.Summary, placeholderSummary),
		KeyFindings:   bulletList(sum.KeyFindings),
		Methodology:   orPlaceholder(sum.Methodology, placeholderMethodology),
		Contributions: orPlaceholder(sum.Contributions, placeholderContributions),
		Limitations:   orPlaceholder(sum.Limitations, placeholderLimitations),
		FutureWork:    orPlaceholder(sum.FutureWork, placeholderFutureWork),
		PersonalNotes: orPlaceholder(extras.PersonalNotes, placeholderPersonal),
		Related:       placeholderRelated,
		Created:       today,
	})
}

// frontmatter encodes the note header. arxiv_id comes first so it always
// falls inside the bytes NoteExists reads, however long the title and
// author list are.
func frontmatter(record types.PaperRecord, extras types.NoteExtras, published, today string) (string, error) {
	doc := &yaml.Node{Kind: yaml.MappingNode}
	add := func(key string, value *yaml.Node) {
		doc.Content = append(doc.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: key}, value)
	}

	add("arxiv_id", quoted(record.ID))
	add("title", quoted(record.Title))
	add("authors", flowList(record.Authors))
	add("date_added", quoted(today))
	add("published", quoted(published))
	add("tags", flowList(extras.Tags))
	add("zotero_key", quoted(extras.ZoteroKey))
	add("arxiv_url", quoted(record.AbsURL()))
	add("pdf_url", quoted(record.PDFPageURL()))
	add("status", quoted("unread"))

	out, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encoding frontmatter: %w", err)
	}
	return "---\n" + string(out) + "---\n\n", nil
}

func quoted(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Style: yaml.DoubleQuotedStyle, Value: s}
}

func flowList(items []string) *yaml.Node {
	n := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, it := range items {
		n.Content = append(n.Content, quoted(it))
	}
	return n
}

func orPlaceholder(s, placeholder string) string {
	if strings.TrimSpace(s) == "" {
		return placeholder
	}
	return s
}

func bulletList(items []string) string {
	if len(items) == 0 {
		return placeholderKeyFindings
	}
	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = "- " + it
	}
	return strings.Join(lines, "\n")
}
