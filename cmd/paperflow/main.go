// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the paperflow CLI: search arXiv, file
// papers into Zotero, and write summary notes into an Obsidian vault.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperflow/internal/config"
	"github.com/pdiddy/paperflow/internal/errs"
	"github.com/pdiddy/paperflow/internal/logger"
	"github.com/pdiddy/paperflow/internal/pipeline"
	"github.com/pdiddy/paperflow/internal/search"
	"github.com/pdiddy/paperflow/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// Exit codes.
const (
	exitGeneral     = 1
	exitConfig      = 2
	exitRejected    = 3
	exitUnavailable = 4
)

var (
	// cfg and log are set by the root command before any subcommand runs.
	cfg     *types.Config
	cfgFile string // --config flag
	cfgUsed string // file actually read, "" when none
	log     = logger.Nop()
)

// rootCmd is the base command for the paperflow CLI.
var rootCmd = &cobra.Command{
	Use:   "paperflow",
	Short: "Search arXiv, file papers in Zotero, and write Obsidian notes",
	Long: `paperflow connects three services into one reading workflow:

  search       query arXiv
  add          file a paper into a Zotero collection and attach its PDF
  note         write a summary note into an Obsidian vault
  import       do all of the above for one paper

Settings come from config/config.json (or ~/.config/paperflow/), a .env
file, the environment (ZOTERO_API_KEY, OBSIDIAN_VAULT_PATH,
ANTHROPIC_API_KEY, PAPERFLOW_*), and the .secrets/ directory.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, _ := cmd.Flags().GetString("log-level")
		l, err := logger.New(level)
		if err != nil {
			return pipeline.AtStage(pipeline.StageConfig, errs.Configf("%v", err))
		}
		log = l

		loaded, used, err := config.Load(cfgFile, log)
		if err != nil {
			return pipeline.AtStage(pipeline.StageConfig, err)
		}
		cfg = loaded
		cfgUsed = used
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		log.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $PAPERFLOW_CONFIG, ./config/config.json or ~/.config/paperflow/config.json)")
	rootCmd.PersistentFlags().String("log-level", "warn", "diagnostic log level: debug, info, warn, error")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorLine(err))
		os.Exit(exitCode(err))
	}
}

// errorLine renders err as "error: <stage>: <message>".
func errorLine(err error) string {
	var se *pipeline.StageError
	if errors.As(err, &se) {
		return "error: " + se.Error()
	}
	if errs.IsConfiguration(err) {
		return "error: " + string(pipeline.StageConfig) + ": " + err.Error()
	}
	return "error: cli: " + err.Error()
}

// exitCode maps err onto the process exit status.
func exitCode(err error) int {
	switch {
	case errs.IsConfiguration(err), isUsageError(err):
		return exitConfig
	case errs.IsRejected(err):
		return exitRejected
	case errs.IsUnavailable(err):
		return exitUnavailable
	case errs.IsNotFound(err):
		// A paper or item that does not exist is a plain failure, not a
		// usage error, even when the lookup came from a flag.
		return exitGeneral
	default:
		return exitGeneral
	}
}

func isUsageError(err error) bool {
	return errors.Is(err, search.ErrInvalidDate) || errors.Is(err, search.ErrEmptyQuery) ||
		errors.Is(err, types.ErrEmptyID)
}
