// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"

	"github.com/pdiddy/paperflow/internal/pipeline"
)

var addCmd = &cobra.Command{
	Use:   "add <arxiv-id>",
	Short: "File a paper into Zotero and attach its PDF",
	Long: `Add creates a journal article item for an arXiv paper in the configured
Zotero library, inside --collection (created when missing; default
zotero.default_collection). The PDF is downloaded and uploaded to Zotero;
when the upload fails a linked-file attachment is created instead.

A collection or PDF problem is reported but does not fail the command; a
rejected item does. The result is printed as JSON.`,
	Args: requireArgsOrFrom,
	RunE: runAdd,
}

func init() {
	addFileFlags(addCmd)
	addRecordFlags(addCmd)
	rootCmd.AddCommand(addCmd)
}

// addFileFlags registers the Zotero filing flags shared by add and import.
func addFileFlags(cmd *cobra.Command) {
	cmd.Flags().String("collection", "", "Zotero collection name (default zotero.default_collection)")
	cmd.Flags().String("tags", "", "comma-separated Zotero tags")
	cmd.Flags().String("doi", "", "DOI to record instead of arXiv's")
	cmd.Flags().Bool("skip-pdf", false, "do not download or attach the PDF")
	cmd.Flags().String("download-dir", "", "PDF download directory (default arxiv.download_dir)")
}

func fileOptions(cmd *cobra.Command) pipeline.FileOptions {
	collection, _ := cmd.Flags().GetString("collection")
	tags, _ := cmd.Flags().GetString("tags")
	doi, _ := cmd.Flags().GetString("doi")
	skipPDF, _ := cmd.Flags().GetBool("skip-pdf")
	dir, _ := cmd.Flags().GetString("download-dir")

	if collection == "" {
		collection = cfg.Zotero.DefaultCollection
	}
	if dir == "" {
		dir = cfg.Arxiv.DownloadDir
	}
	return pipeline.FileOptions{
		Collection:  collection,
		Tags:        splitList(tags, ","),
		DOI:         doi,
		SkipPDF:     skipPDF,
		DownloadDir: dir,
	}
}

// addResult is the JSON printed by add.
type addResult struct {
	Success bool   `json:"success"`
	ArxivID string `json:"arxiv_id"`
	pipeline.FileResult
}

func runAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	lib, err := newZoteroClient()
	if err != nil {
		return err
	}
	papers := newSearchClient()

	record, err := resolveRecord(ctx, cmd, args, papers)
	if err != nil {
		return err
	}
	printRecordLine(cmd, record.ID, record.Title)

	filer := &pipeline.Filer{Papers: papers, Library: lib, Log: log}
	res, err := filer.File(ctx, *record, fileOptions(cmd))
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), addResult{Success: true, ArxivID: record.ID, FileResult: *res})
}
