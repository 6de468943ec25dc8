// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperflow/internal/errs"
	"github.com/pdiddy/paperflow/internal/pipeline"
	"github.com/pdiddy/paperflow/internal/search"
	"github.com/pdiddy/paperflow/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search arXiv for papers",
	Long: `Search queries the arXiv API. The query accepts arXiv field prefixes
(ti:, au:, abs:, cat:) and boolean operators; --category and --from/--to
narrow it further. Results are printed in arXiv's order.

Use --save to keep the results in a YAML file; add, note and import can then
pick a paper from it with --from and --index.`,
	Example: `  paperflow search "ti:transformer AND au:vaswani" -n 5
  paperflow search "large language models" --category cs.CL --from 2024-01-01 --format json`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntP("max-results", "n", 0, "maximum number of results (default arxiv.default_max_results)")
	searchCmd.Flags().String("sort", "relevance", "sort order: relevance, submitted_date, last_updated")
	searchCmd.Flags().String("category", "", "restrict to an arXiv category, e.g. cs.AI")
	searchCmd.Flags().String("from", "", "earliest submission date (YYYY-MM-DD)")
	searchCmd.Flags().String("to", "", "latest submission date (YYYY-MM-DD)")
	searchCmd.Flags().StringP("format", "f", "text", "output format: text, json, yaml, csl")
	searchCmd.Flags().String("save", "", "also write the results to this YAML file")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	maxResults, _ := cmd.Flags().GetInt("max-results")
	sortBy, _ := cmd.Flags().GetString("sort")
	category, _ := cmd.Flags().GetString("category")
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	format, _ := cmd.Flags().GetString("format")
	save, _ := cmd.Flags().GetString("save")

	write, ok := formatters[strings.ToLower(format)]
	if !ok {
		return pipeline.AtStage(pipeline.StageConfig, errs.Configf("unknown format %q (want text, json, yaml or csl)", format))
	}

	q := search.Query{
		Text:       strings.Join(args, " "),
		MaxResults: maxResults,
		SortBy:     search.ParseSortBy(sortBy),
		Category:   category,
		DateFrom:   from,
		DateTo:     to,
	}
	records, err := newSearchClient().Search(cmd.Context(), q)
	if err != nil {
		return pipeline.AtStage(pipeline.StageSearch, err)
	}

	if save != "" {
		if err := search.WriteQueryFile(save, q, records); err != nil {
			return pipeline.AtStage(pipeline.StageSearch, err)
		}
		log.Info("saved search results", "path", save, "count", len(records))
	}

	if err := write(cmd, records); err != nil {
		return pipeline.AtStage(pipeline.StageSearch, err)
	}
	return nil
}

var formatters = map[string]func(*cobra.Command, []types.PaperRecord) error{
	"text": func(cmd *cobra.Command, r []types.PaperRecord) error {
		search.FormatText(r, cmd.OutOrStdout())
		return nil
	},
	"json": func(cmd *cobra.Command, r []types.PaperRecord) error { return search.FormatJSON(r, cmd.OutOrStdout()) },
	"yaml": func(cmd *cobra.Command, r []types.PaperRecord) error { return search.FormatYAML(r, cmd.OutOrStdout()) },
	"csl":  func(cmd *cobra.Command, r []types.PaperRecord) error { return search.FormatCSL(r, cmd.OutOrStdout()) },
}

// printRecordLine writes a one-line description of a paper to stderr.
func printRecordLine(cmd *cobra.Command, id, title string) {
	fmt.Fprintf(cmd.ErrOrStderr(), "%s  %s\n", id, title)
}
