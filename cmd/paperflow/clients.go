// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperflow/internal/config"
	"github.com/pdiddy/paperflow/internal/errs"
	"github.com/pdiddy/paperflow/internal/pipeline"
	"github.com/pdiddy/paperflow/internal/search"
	"github.com/pdiddy/paperflow/internal/summarize"
	"github.com/pdiddy/paperflow/internal/vault"
	"github.com/pdiddy/paperflow/internal/zotero"
	"github.com/pdiddy/paperflow/pkg/types"
)

func httpClient() *http.Client {
	return &http.Client{Timeout: cfg.HTTP.Timeout}
}

func newSearchClient() *search.Client {
	return search.NewClient(cfg.Arxiv,
		search.WithHTTPClient(httpClient()),
		search.WithUserAgent(cfg.HTTP.UserAgent),
		search.WithLogger(log))
}

func newZoteroClient() (*zotero.Client, error) {
	if err := config.RequireZotero(cfg); err != nil {
		return nil, pipeline.AtStage(pipeline.StageConfig, err)
	}
	c, err := zotero.NewClient(cfg.Zotero.Library, cfg.Zotero.APIKey,
		zotero.WithHTTPClient(httpClient()),
		zotero.WithUserAgent(cfg.HTTP.UserAgent),
		zotero.WithLogger(log))
	if err != nil {
		return nil, pipeline.AtStage(pipeline.StageConfig, err)
	}
	return c, nil
}

func newVaultWriter() (*vault.Writer, error) {
	if err := config.RequireVault(cfg); err != nil {
		return nil, pipeline.AtStage(pipeline.StageConfig, err)
	}
	w, err := vault.NewWriter(cfg.Obsidian.VaultPath, cfg.Obsidian.PapersFolder)
	if err != nil {
		return nil, pipeline.AtStage(pipeline.StageVault, err)
	}
	w.DisambiguateFilenames = cfg.Obsidian.UniqueFilenames
	return w, nil
}

// newSummarizer returns nil when the summarizer cannot be configured; the
// note step then falls back to manual entry and reports why.
func newSummarizer(cmd *cobra.Command) pipeline.Summarizer {
	s, err := summarize.New(cfg.AI, summarize.WithHTTPClient(httpClient()), summarize.WithLogger(log))
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
		return nil
	}
	return s
}

// addRecordFlags registers the flags that pick a paper from a saved search
// instead of looking it up on arXiv.
func addRecordFlags(cmd *cobra.Command) {
	cmd.Flags().String("from", "", "saved search file (written by search --save) to take the paper from")
	cmd.Flags().Int("index", 1, "1-based result number in the --from file")
}

// resolveRecord returns the paper named by args[0], or the --index entry of
// a --from saved search.
func resolveRecord(ctx context.Context, cmd *cobra.Command, args []string, papers pipeline.Papers) (*types.PaperRecord, error) {
	from, _ := cmd.Flags().GetString("from")
	if from != "" {
		index, _ := cmd.Flags().GetInt("index")
		qf, err := search.ReadQueryFile(from)
		if err != nil {
			return nil, pipeline.AtStage(pipeline.StageSearch, err)
		}
		rec, err := qf.Record(index)
		if err != nil {
			return nil, pipeline.AtStage(pipeline.StageSearch, err)
		}
		return &rec, nil
	}
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return nil, pipeline.AtStage(pipeline.StageSearch, types.ErrEmptyID)
	}
	return pipeline.Lookup(ctx, papers, args[0])
}

// splitList splits s on sep, trimming entries and dropping empty ones.
func splitList(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}

// requireArgsOrFrom accepts one positional identifier unless --from is set.
func requireArgsOrFrom(cmd *cobra.Command, args []string) error {
	if from, _ := cmd.Flags().GetString("from"); from != "" {
		return cobra.MaximumNArgs(0)(cmd, args)
	}
	if err := cobra.ExactArgs(1)(cmd, args); err != nil {
		return errs.Configf("%v", err)
	}
	return nil
}
