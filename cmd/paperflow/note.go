// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperflow/internal/pipeline"
	"github.com/pdiddy/paperflow/internal/summarize"
	"github.com/pdiddy/paperflow/pkg/types"
)

var noteCmd = &cobra.Command{
	Use:   "note <arxiv-id>",
	Short: "Write a summary note into the Obsidian vault",
	Long: `Note writes a markdown note for an arXiv paper into the vault's papers
folder. Summary sections come from the flags below; with --auto-summarize
a language model fills the sections the flags leave empty. If the model
cannot be reached the note is still written, with placeholders to fill in.

--on-existing is required: "skip" leaves an existing note for the paper
untouched, "overwrite" replaces it. Writes are not atomic; an interrupted
write can leave a partial note.`,
	Args: requireArgsOrFrom,
	RunE: runNote,
}

func init() {
	noteCmd.Flags().String("summary", "", "summary text")
	noteCmd.Flags().String("key-findings", "", "key findings separated by |")
	noteCmd.Flags().String("methodology", "", "methodology text")
	noteCmd.Flags().String("contributions", "", "contributions text")
	noteCmd.Flags().String("limitations", "", "limitations text")
	noteCmd.Flags().String("future-work", "", "future work text")
	noteCmd.Flags().String("personal-notes", "", "your own notes")
	noteCmd.Flags().String("published", "", "publication date shown in the note (default from arXiv)")
	noteCmd.Flags().String("zotero-key", "", "Zotero item key to link")
	addNoteFlags(noteCmd, "tags")
	addRecordFlags(noteCmd)
	rootCmd.AddCommand(noteCmd)
}

// addNoteFlags registers the note flags shared by note and import. tagFlag
// names the frontmatter tags flag, since import already uses --tags for
// Zotero.
func addNoteFlags(cmd *cobra.Command, tagFlag string) {
	cmd.Flags().String(tagFlag, "", "comma-separated tags for the note frontmatter")
	cmd.Flags().Bool("auto-summarize", false, "generate the summary with the language model")
	cmd.Flags().String("language", "", "summary language: ko or en (default ai.language)")
	cmd.Flags().String("on-existing", "", "what to do when a note exists: skip or overwrite (required)")
}

func noteRequest(cmd *cobra.Command) (pipeline.NoteRequest, error) {
	onExisting, _ := cmd.Flags().GetString("on-existing")
	policy, err := pipeline.ParsePolicy(onExisting)
	if err != nil {
		return pipeline.NoteRequest{}, pipeline.AtStage(pipeline.StageConfig, fmt.Errorf("--on-existing: %w", err))
	}
	auto, _ := cmd.Flags().GetBool("auto-summarize")
	lang, _ := cmd.Flags().GetString("language")
	tagFlag := "tags"
	if cmd.Flags().Lookup("note-tags") != nil {
		tagFlag = "note-tags"
	}
	tags, _ := cmd.Flags().GetString(tagFlag)
	if lang == "" {
		lang = cfg.AI.Language
	}

	req := pipeline.NoteRequest{
		Summarize: auto,
		Language:  summarize.ParseLanguage(lang),
		Policy:    policy,
		Extras:    types.NoteExtras{Tags: splitList(tags, ",")},
	}

	// The summary flags exist only on the note command.
	str := func(name string) string {
		if cmd.Flags().Lookup(name) == nil {
			return ""
		}
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	req.Summary = types.SummaryRecord{
		Summary:       str("summary"),
		KeyFindings:   splitList(str("key-findings"), "|"),
		Methodology:   str("methodology"),
		Contributions: str("contributions"),
		Limitations:   str("limitations"),
		FutureWork:    str("future-work"),
	}
	req.Extras.PersonalNotes = str("personal-notes")
	req.Extras.Published = str("published")
	req.Extras.ZoteroKey = str("zotero-key")
	return req, nil
}

func newNotes(cmd *cobra.Command, auto bool) (*pipeline.Notes, error) {
	w, err := newVaultWriter()
	if err != nil {
		return nil, err
	}
	notes := &pipeline.Notes{Writer: w, Log: log}
	if auto {
		notes.Summarizer = newSummarizer(cmd)
	}
	return notes, nil
}

func printNoteResult(cmd *cobra.Command, res *pipeline.NoteResult) {
	out := cmd.OutOrStdout()
	if res.Skipped {
		fmt.Fprintf(out, "Note already exists: %s\n", res.Path)
		return
	}
	if res.SummaryError != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: summary not generated: %s\n", res.SummaryError)
	}
	for _, old := range res.Replaced {
		fmt.Fprintf(out, "Replaced: %s\n", old)
	}
	fmt.Fprintf(out, "Created: %s\n", res.Path)
}

func runNote(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	req, err := noteRequest(cmd)
	if err != nil {
		return err
	}
	notes, err := newNotes(cmd, req.Summarize)
	if err != nil {
		return err
	}

	record, err := resolveRecord(ctx, cmd, args, newSearchClient())
	if err != nil {
		return err
	}
	printRecordLine(cmd, record.ID, record.Title)

	res, err := notes.Write(ctx, *record, req)
	if err != nil {
		return err
	}
	printNoteResult(cmd, res)
	return nil
}
