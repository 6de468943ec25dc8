// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config loads and saves paperflow settings. Values come, lowest
// priority first, from built-in defaults, a JSON or YAML config file, a
// .env file, and the environment. String values of the form ${NAME} are
// replaced with the named environment variable, and empty API keys fall
// back to the .secrets directory.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/pdiddy/paperflow/internal/errs"
	"github.com/pdiddy/paperflow/internal/logger"
	"github.com/pdiddy/paperflow/internal/secrets"
	"github.com/pdiddy/paperflow/pkg/types"
)

const (
	// EnvConfig names an explicit config file.
	EnvConfig = "PAPERFLOW_CONFIG"

	// EnvPrefix prefixes environment overrides, e.g. PAPERFLOW_ARXIV_DELAY.
	EnvPrefix = "PAPERFLOW"

	// Bare environment names accepted for the common settings.
	EnvZoteroAPIKey    = "ZOTERO_API_KEY"
	EnvVaultPath       = "OBSIDIAN_VAULT_PATH"
	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"

	configName = "config"
	appDir     = "paperflow"
)

// DefaultPath is where `config init` writes when no path is given.
var DefaultPath = filepath.Join("config", "config.json")

// envRef matches a whole-value environment reference such as ${ZOTERO_API_KEY}.
var envRef = regexp.MustCompile(`^\$\{([A-Za-z_][A-Za-z0-9_]*)\}$`)

// Defaults returns the built-in configuration.
func Defaults() types.Config {
	return types.Config{
		HTTP: types.HTTPConfig{Timeout: 60 * time.Second, UserAgent: "paperflow/0.1"},
		Arxiv: types.ArxivConfig{
			Delay:             3 * time.Second,
			MaxRetries:        3,
			PageSize:          100,
			DefaultMaxResults: 10,
			DownloadDir:       "./downloads",
		},
		Zotero: types.ZoteroConfig{
			Library:           types.Library{Type: types.LibraryUser},
			DefaultCollection: "arXiv Papers",
		},
		Obsidian: types.ObsidianConfig{PapersFolder: "Papers"},
		AI:       types.AIConfig{Model: "claude-sonnet-4-20250514", MaxTokens: 2000, Language: "ko"},
	}
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("http.timeout", d.HTTP.Timeout)
	v.SetDefault("http.user_agent", d.HTTP.UserAgent)
	v.SetDefault("arxiv.delay", d.Arxiv.Delay)
	v.SetDefault("arxiv.max_retries", d.Arxiv.MaxRetries)
	v.SetDefault("arxiv.page_size", d.Arxiv.PageSize)
	v.SetDefault("arxiv.default_max_results", d.Arxiv.DefaultMaxResults)
	v.SetDefault("arxiv.download_dir", d.Arxiv.DownloadDir)
	v.SetDefault("zotero.library_id", "")
	v.SetDefault("zotero.library_type", string(d.Zotero.Type))
	v.SetDefault("zotero.api_key", "")
	v.SetDefault("zotero.default_collection", d.Zotero.DefaultCollection)
	v.SetDefault("obsidian.vault_path", "")
	v.SetDefault("obsidian.papers_folder", d.Obsidian.PapersFolder)
	v.SetDefault("obsidian.unique_filenames", false)
	v.SetDefault("ai.model", d.AI.Model)
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.max_tokens", d.AI.MaxTokens)
	v.SetDefault("ai.language", d.AI.Language)
}

// Load builds the configuration. path selects the config file; when empty,
// $PAPERFLOW_CONFIG is used, and failing that ./config/config.{json,yaml}
// then ~/.config/paperflow/config.{json,yaml} are searched. A missing file
// is not an error. Load returns the file it read ("" when none).
func Load(path string, log *logger.Logger) (*types.Config, string, error) {
	log = logger.OrNop(log)

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, "", fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath("config")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", appDir))
		}
	}

	used := ""
	err := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	switch {
	case err == nil:
		used = v.ConfigFileUsed()
		log.Debug("using config file", "path", used)
	case errors.As(err, &notFound), errors.Is(err, fs.ErrNotExist):
		log.Debug("no config file found, using defaults")
	default:
		return nil, "", errs.Configf("reading config %s: %v", path, err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("zotero.api_key", EnvPrefix+"_ZOTERO_API_KEY", EnvZoteroAPIKey)
	_ = v.BindEnv("obsidian.vault_path", EnvPrefix+"_OBSIDIAN_VAULT_PATH", EnvVaultPath)
	_ = v.BindEnv("ai.api_key", EnvPrefix+"_AI_API_KEY", EnvAnthropicAPIKey)

	expandRefs(v)

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", errs.Configf("decoding config: %v", err)
	}
	if v.IsSet("arxiv.delay_seconds") && !v.InConfig("arxiv.delay") {
		cfg.Arxiv.Delay = time.Duration(v.GetFloat64("arxiv.delay_seconds") * float64(time.Second))
	}

	if err := applySecrets(&cfg, secrets.DefaultDir, log); err != nil {
		return nil, "", err
	}
	return &cfg, used, nil
}

// expandRefs replaces every string value of the form ${NAME} with the
// value of NAME in the environment, or "" when it is unset.
func expandRefs(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		s, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if m := envRef.FindStringSubmatch(strings.TrimSpace(s)); m != nil {
			v.Set(key, os.Getenv(m[1]))
		}
	}
}

// applySecrets fills empty API keys from the secrets directory.
func applySecrets(cfg *types.Config, dir string, log *logger.Logger) error {
	if cfg.Zotero.APIKey != "" && cfg.AI.APIKey != "" {
		return nil
	}
	set, err := secrets.Load(dir, log)
	if err != nil {
		return err
	}
	if len(set) > 0 {
		log.Debug("loaded secrets", "dir", dir, "names", set.Names())
	}
	if cfg.Zotero.APIKey == "" {
		cfg.Zotero.APIKey = set.Get(secrets.ZoteroAPIKey)
	}
	if cfg.AI.APIKey == "" {
		cfg.AI.APIKey = set.Get(secrets.AnthropicAPIKey)
	}
	return nil
}

// Save writes cfg to path; the format follows the file extension (.json or
// .yaml). API keys are never written: the file refers to the environment
// instead.
func Save(cfg types.Config, path string) error {
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.Set("http.timeout", cfg.HTTP.Timeout.String())
	v.Set("http.user_agent", cfg.HTTP.UserAgent)
	v.Set("arxiv.delay", cfg.Arxiv.Delay.String())
	v.Set("arxiv.max_retries", cfg.Arxiv.MaxRetries)
	v.Set("arxiv.page_size", cfg.Arxiv.PageSize)
	v.Set("arxiv.default_max_results", cfg.Arxiv.DefaultMaxResults)
	v.Set("arxiv.download_dir", cfg.Arxiv.DownloadDir)
	v.Set("zotero.library_id", cfg.Zotero.ID)
	v.Set("zotero.library_type", string(cfg.Zotero.Type))
	v.Set("zotero.api_key", "${"+EnvZoteroAPIKey+"}")
	v.Set("zotero.default_collection", cfg.Zotero.DefaultCollection)
	v.Set("obsidian.vault_path", cfg.Obsidian.VaultPath)
	v.Set("obsidian.papers_folder", cfg.Obsidian.PapersFolder)
	v.Set("obsidian.unique_filenames", cfg.Obsidian.UniqueFilenames)
	v.Set("ai.model", cfg.AI.Model)
	v.Set("ai.api_key", "${"+EnvAnthropicAPIKey+"}")
	v.Set("ai.max_tokens", cfg.AI.MaxTokens)
	v.Set("ai.language", cfg.AI.Language)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Redacted returns a copy of cfg with API keys masked, for display.
func Redacted(cfg types.Config) types.Config {
	cfg.Zotero.APIKey = logger.Mask(cfg.Zotero.APIKey)
	cfg.AI.APIKey = logger.Mask(cfg.AI.APIKey)
	return cfg
}

// RequireZotero checks the settings the Zotero client needs.
func RequireZotero(cfg *types.Config) error {
	if cfg.Zotero.APIKey == "" {
		return errs.Configf("Zotero API key not configured: set %s or zotero.api_key", EnvZoteroAPIKey)
	}
	if cfg.Zotero.ID == "" {
		return errs.Configf("Zotero library_id not configured")
	}
	if !cfg.Zotero.Type.Valid() {
		return errs.Configf("Zotero library_type must be user or group, got %q", cfg.Zotero.Type)
	}
	return nil
}

// RequireVault checks that a vault path is configured.
func RequireVault(cfg *types.Config) error {
	if cfg.Obsidian.VaultPath == "" {
		return errs.Configf("Obsidian vault_path not configured: set %s or obsidian.vault_path", EnvVaultPath)
	}
	return nil
}
