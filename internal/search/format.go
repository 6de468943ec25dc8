// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paperflow/pkg/types"
)

const abstractPreview = 200

// FormatText writes results as numbered human-readable blocks to w.
func FormatText(records []types.PaperRecord, w io.Writer) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No papers found matching your query.")
		return
	}

	fmt.Fprintf(w, "\nFound %d papers:\n\n", len(records))
	fmt.Fprintln(w, strings.Repeat("=", 70))

	for i, r := range records {
		fmt.Fprintf(w, "[%d] %s\n", i+1, r.Title)
		fmt.Fprintf(w, "    arXiv ID  : %s\n", r.ID)
		fmt.Fprintf(w, "    Authors   : %s\n", formatAuthors(r.Authors))
		fmt.Fprintf(w, "    Published : %s\n", r.PublishedDate())
		fmt.Fprintf(w, "    Categories: %s\n", strings.Join(r.Categories, ", "))
		fmt.Fprintf(w, "    Abstract  : %s\n", truncate(strings.ReplaceAll(r.Abstract, "\n", " "), abstractPreview))
		fmt.Fprintf(w, "    PDF       : %s\n", r.PDFURL)
		fmt.Fprintln(w, strings.Repeat("-", 70))
	}
}

// FormatJSON writes results as an indented JSON array of RecordDict to w.
func FormatJSON(records []types.PaperRecord, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(toDicts(records))
}

// FormatYAML writes results as a YAML list of RecordDict to w.
func FormatYAML(records []types.PaperRecord, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(toDicts(records))
}

func toDicts(records []types.PaperRecord) []types.RecordDict {
	out := make([]types.RecordDict, len(records))
	for i, r := range records {
		out[i] = r.ToDict()
	}
	return out
}

// formatAuthors lists the first three authors and counts the rest.
func formatAuthors(authors []string) string {
	if len(authors) <= 3 {
		return strings.Join(authors, ", ")
	}
	return fmt.Sprintf("%s (+%d more)", strings.Join(authors[:3], ", "), len(authors)-3)
}

// truncate cuts s to max runes and marks the cut with "...".
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
