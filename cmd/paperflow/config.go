// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paperflow/internal/config"
	"github.com/pdiddy/paperflow/internal/errs"
	"github.com/pdiddy/paperflow/internal/pipeline"
	"github.com/pdiddy/paperflow/pkg/types"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Create or inspect the paperflow configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file from the current settings and the flags below",
	Long: `Init writes the effective configuration, with the flags below applied, to
--path (default: the file that was loaded, else config/config.json). The
format follows the file extension. API keys are never written; the file
refers to ${ZOTERO_API_KEY} and ${ANTHROPIC_API_KEY} instead.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration with secrets masked",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

func init() {
	f := configInitCmd.Flags()
	f.String("library-id", "", "Zotero library ID")
	f.String("library-type", "", "Zotero library type: user or group")
	f.String("vault-path", "", "Obsidian vault directory")
	f.String("papers-folder", "", "folder inside the vault for paper notes")
	f.String("collection", "", "default Zotero collection")
	f.String("path", "", "file to write")

	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	out := *cfg
	set := func(flag string, dst *string) {
		if v, _ := cmd.Flags().GetString(flag); v != "" {
			*dst = v
		}
	}
	set("library-id", &out.Zotero.ID)
	libType := string(out.Zotero.Type)
	set("library-type", &libType)
	out.Zotero.Type = types.LibraryType(libType)
	set("vault-path", &out.Obsidian.VaultPath)
	set("papers-folder", &out.Obsidian.PapersFolder)
	set("collection", &out.Zotero.DefaultCollection)

	if out.Zotero.Type != "" && !out.Zotero.Type.Valid() {
		return pipeline.AtStage(pipeline.StageConfig,
			errs.Configf("library type %q must be %q or %q", out.Zotero.Type, types.LibraryUser, types.LibraryGroup))
	}

	path, _ := cmd.Flags().GetString("path")
	if path == "" {
		path = cfgUsed
	}
	if path == "" {
		path = config.DefaultPath
	}
	if err := config.Save(out, path); err != nil {
		return pipeline.AtStage(pipeline.StageConfig, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	source := cfgUsed
	if source == "" {
		source = "(defaults and environment only)"
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "# config file: %s\n", source)

	data, err := yaml.Marshal(config.Redacted(*cfg))
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
