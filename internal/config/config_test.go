// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paperflow/internal/errs"
	"github.com/pdiddy/paperflow/internal/secrets"
	"github.com/pdiddy/paperflow/pkg/types"
)

// isolate runs the test in an empty working directory with a fresh HOME
// and none of the recognised environment variables set.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())
	for _, name := range []string{
		EnvConfig, EnvZoteroAPIKey, EnvVaultPath, EnvAnthropicAPIKey,
		"PAPERFLOW_ZOTERO_API_KEY", "PAPERFLOW_OBSIDIAN_VAULT_PATH", "PAPERFLOW_AI_API_KEY",
		"PAPERFLOW_ARXIV_DELAY", "PAPERFLOW_ZOTERO_LIBRARY_ID", "MY_VAULT",
	} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, used, err := Load("", nil)
	require.NoError(t, err)
	assert.Empty(t, used)
	assert.Equal(t, Defaults(), *cfg)
}

func TestLoadSearchesConfigDir(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config", "config.json"), `{
  "arxiv": {"delay": "5s", "default_max_results": 25},
  "zotero": {"library_id": "12345", "library_type": "group", "default_collection": "ML"},
  "obsidian": {"vault_path": "/vault", "papers_folder": "Reading"}
}`)

	cfg, used, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "config.json", filepath.Base(used))
	assert.Equal(t, 5*time.Second, cfg.Arxiv.Delay)
	assert.Equal(t, 25, cfg.Arxiv.DefaultMaxResults)
	assert.Equal(t, 3, cfg.Arxiv.MaxRetries)
	assert.Equal(t, types.Library{ID: "12345", Type: types.LibraryGroup}, cfg.Zotero.Library)
	assert.Equal(t, "ML", cfg.Zotero.DefaultCollection)
	assert.Equal(t, "/vault", cfg.Obsidian.VaultPath)
	assert.Equal(t, "Reading", cfg.Obsidian.PapersFolder)
}

func TestLoadHomeConfigYAML(t *testing.T) {
	isolate(t)
	home := os.Getenv("HOME")
	writeFile(t, filepath.Join(home, ".config", "paperflow", "config.yaml"), "ai:\n  language: en\n  max_tokens: 500\n")

	cfg, used, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "config.yaml", filepath.Base(used))
	assert.Equal(t, "en", cfg.AI.Language)
	assert.Equal(t, 500, cfg.AI.MaxTokens)
}

func TestLoadExplicitPathAndEnvPath(t *testing.T) {
	dir := isolate(t)
	a := filepath.Join(dir, "a.json")
	b := filepath.Join(dir, "b.json")
	writeFile(t, a, `{"zotero": {"library_id": "from-a"}}`)
	writeFile(t, b, `{"zotero": {"library_id": "from-b"}}`)

	t.Setenv(EnvConfig, b)
	cfg, used, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, b, used)
	assert.Equal(t, "from-b", cfg.Zotero.ID)

	cfg, used, err = Load(a, nil)
	require.NoError(t, err)
	assert.Equal(t, a, used)
	assert.Equal(t, "from-a", cfg.Zotero.ID)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	dir := isolate(t)
	cfg, used, err := Load(filepath.Join(dir, "nope.json"), nil)
	require.NoError(t, err)
	assert.Empty(t, used)
	assert.Equal(t, Defaults(), *cfg)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "bad.json")
	writeFile(t, path, `{"arxiv": `)

	_, _, err := Load(path, nil)
	assert.True(t, errs.IsConfiguration(err))
}

func TestLoadEnvReferenceAndOverrides(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.json")
	writeFile(t, path, `{
  "zotero": {"library_id": "1", "api_key": "${ZOTERO_API_KEY}"},
  "obsidian": {"vault_path": "${MY_VAULT}"},
  "ai": {"api_key": "${UNSET_PAPERFLOW_TEST_VAR}"}
}`)
	t.Setenv(EnvZoteroAPIKey, "zk-from-env")
	t.Setenv("MY_VAULT", "/home/me/vault")
	t.Setenv("PAPERFLOW_ARXIV_DELAY", "7s")

	cfg, _, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "zk-from-env", cfg.Zotero.APIKey)
	assert.Equal(t, "/home/me/vault", cfg.Obsidian.VaultPath)
	assert.Empty(t, cfg.AI.APIKey)
	assert.Equal(t, 7*time.Second, cfg.Arxiv.Delay)
}

func TestLoadBareEnvNames(t *testing.T) {
	isolate(t)
	t.Setenv(EnvVaultPath, "/env/vault")
	t.Setenv(EnvAnthropicAPIKey, "sk-ant-env")

	cfg, _, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "/env/vault", cfg.Obsidian.VaultPath)
	assert.Equal(t, "sk-ant-env", cfg.AI.APIKey)
}

func TestLoadDotEnv(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, ".env"), "OBSIDIAN_VAULT_PATH=/dotenv/vault\nZOTERO_API_KEY=from-dotenv\n")
	t.Setenv(EnvZoteroAPIKey, "already-set")
	t.Cleanup(func() { os.Unsetenv(EnvVaultPath) })

	cfg, _, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "/dotenv/vault", cfg.Obsidian.VaultPath)
	assert.Equal(t, "already-set", cfg.Zotero.APIKey)
}

func TestLoadSecretsFallback(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, secrets.DefaultDir, secrets.ZoteroAPIKey), "zk-secret\n")
	writeFile(t, filepath.Join(dir, secrets.DefaultDir, secrets.AnthropicAPIKey), "sk-secret\n")
	t.Setenv(EnvAnthropicAPIKey, "sk-env")

	cfg, _, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "zk-secret", cfg.Zotero.APIKey)
	assert.Equal(t, "sk-env", cfg.AI.APIKey)
}

func TestLoadLegacyDelaySeconds(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.json")
	writeFile(t, path, `{"arxiv": {"delay_seconds": 1.5}}`)

	cfg, _, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, cfg.Arxiv.Delay)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "out", "config.json")

	cfg := Defaults()
	cfg.Zotero.ID = "999"
	cfg.Zotero.APIKey = "real-zotero-key"
	cfg.AI.APIKey = "real-anthropic-key"
	cfg.Obsidian.VaultPath = "/vault"
	cfg.Arxiv.Delay = 4 * time.Second
	require.NoError(t, Save(cfg, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "real-zotero-key")
	assert.NotContains(t, string(data), "real-anthropic-key")

	var raw map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "${ZOTERO_API_KEY}", raw["zotero"]["api_key"])
	assert.Equal(t, "${ANTHROPIC_API_KEY}", raw["ai"]["api_key"])
	assert.Equal(t, "4s", raw["arxiv"]["delay"])

	t.Setenv(EnvZoteroAPIKey, "env-key")
	loaded, _, err := Load(path, nil)
	require.NoError(t, err)
	want := cfg
	want.Zotero.APIKey = "env-key"
	want.AI.APIKey = ""
	assert.Equal(t, want, *loaded)
}

func TestRedacted(t *testing.T) {
	cfg := Defaults()
	cfg.Zotero.APIKey = "abcdefgh1234"
	r := Redacted(cfg)
	assert.Equal(t, "********1234", r.Zotero.APIKey)
	assert.Empty(t, r.AI.APIKey)
	assert.Equal(t, "abcdefgh1234", cfg.Zotero.APIKey)
}

func TestRequire(t *testing.T) {
	cfg := Defaults()
	assert.True(t, errs.IsConfiguration(RequireZotero(&cfg)))
	cfg.Zotero.APIKey = "k"
	assert.True(t, errs.IsConfiguration(RequireZotero(&cfg)))
	cfg.Zotero.ID = "1"
	assert.NoError(t, RequireZotero(&cfg))
	cfg.Zotero.Type = "team"
	assert.True(t, errs.IsConfiguration(RequireZotero(&cfg)))

	assert.True(t, errs.IsConfiguration(RequireVault(&cfg)))
	cfg.Obsidian.VaultPath = "/v"
	assert.NoError(t, RequireVault(&cfg))
}
