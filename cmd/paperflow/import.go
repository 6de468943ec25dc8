// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperflow/internal/pipeline"
	"github.com/pdiddy/paperflow/pkg/types"
)

var importCmd = &cobra.Command{
	Use:   "import <arxiv-id>",
	Short: "Fetch a paper, file it into Zotero, and write its note",
	Long: `Import runs the whole workflow for one paper: look it up on arXiv (or take
it from a saved search with --from), file it into Zotero with its PDF, and
write a vault note linked to the new Zotero item. Use --no-note to stop
after filing. The result is printed as JSON. If the note step fails after
the paper was filed, the JSON is still printed with success false so the
new Zotero item key is not lost.`,
	Args: requireArgsOrFrom,
	RunE: runImport,
}

func init() {
	addFileFlags(importCmd)
	addNoteFlags(importCmd, "note-tags")
	addRecordFlags(importCmd)
	importCmd.Flags().Bool("no-note", false, "file into Zotero only")
	rootCmd.AddCommand(importCmd)
}

// importOutput is the JSON printed by import.
type importOutput struct {
	Success bool   `json:"success"`
	ArxivID string `json:"arxiv_id"`
	Title   string `json:"title"`
	Error   string `json:"error,omitempty"`
	*pipeline.ImportResult
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	noNote, _ := cmd.Flags().GetBool("no-note")

	var opts pipeline.ImportOptions
	opts.File = fileOptions(cmd)

	lib, err := newZoteroClient()
	if err != nil {
		return err
	}
	papers := newSearchClient()
	p := &pipeline.Pipeline{
		Papers: papers,
		Filer:  &pipeline.Filer{Papers: papers, Library: lib, Log: log},
		Log:    log,
	}
	if !noNote {
		if opts.Note, err = noteRequest(cmd); err != nil {
			return err
		}
		if p.Notes, err = newNotes(cmd, opts.Note.Summarize); err != nil {
			return err
		}
	}

	record, err := resolveRecord(ctx, cmd, args, papers)
	if err != nil {
		return err
	}
	printRecordLine(cmd, record.ID, record.Title)

	res, err := p.ImportRecord(ctx, *record, opts)
	return reportImport(cmd.OutOrStdout(), *record, res, err)
}

// reportImport prints the import outcome and returns err unchanged. A
// failure that still produced a result (the item was filed, the note was
// not) is printed as partial output before the error surfaces.
func reportImport(w io.Writer, record types.PaperRecord, res *pipeline.ImportResult, err error) error {
	if res == nil {
		return err
	}
	out := importOutput{
		Success:      err == nil,
		ArxivID:      record.ID,
		Title:        record.Title,
		ImportResult: res,
	}
	if err != nil {
		out.Error = err.Error()
	}
	if werr := writeJSON(w, out); werr != nil && err == nil {
		return werr
	}
	return err
}
