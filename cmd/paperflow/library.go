// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperflow/internal/pipeline"
)

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "List the Zotero library's collections",
	Args:  cobra.NoArgs,
	RunE:  runCollections,
}

var itemsCmd = &cobra.Command{
	Use:   "items <query>",
	Short: "Quick-search Zotero items by title, creator or year",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runItems,
}

func init() {
	collectionsCmd.Flags().Bool("json", false, "print JSON")
	itemsCmd.Flags().Bool("json", false, "print JSON")
	rootCmd.AddCommand(collectionsCmd, itemsCmd)
}

func runCollections(cmd *cobra.Command, args []string) error {
	lib, err := newZoteroClient()
	if err != nil {
		return err
	}
	cols, err := lib.ListCollections(cmd.Context())
	if err != nil {
		return pipeline.AtStage(pipeline.StageZotero, err)
	}
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return writeJSON(cmd.OutOrStdout(), cols)
	}
	out := cmd.OutOrStdout()
	for _, c := range cols {
		if c.ParentKey != "" {
			fmt.Fprintf(out, "%s  %s (in %s)\n", c.Key, c.Name, c.ParentKey)
			continue
		}
		fmt.Fprintf(out, "%s  %s\n", c.Key, c.Name)
	}
	return nil
}

func runItems(cmd *cobra.Command, args []string) error {
	lib, err := newZoteroClient()
	if err != nil {
		return err
	}
	items, err := lib.SearchItems(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return pipeline.AtStage(pipeline.StageZotero, err)
	}
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return writeJSON(cmd.OutOrStdout(), items)
	}
	out := cmd.OutOrStdout()
	if len(items) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "No items found.")
		return nil
	}
	for _, it := range items {
		fmt.Fprintln(out, it.String())
	}
	return nil
}
