// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paperflow/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// ArxivConfig holds settings for the search stage. Delay and MaxRetries
// implement the arXiv fair-use policy.
type ArxivConfig struct {
	// Delay is the minimum pause between consecutive API requests (default 3s).
	Delay time.Duration `json:"delay" yaml:"delay" mapstructure:"delay"`

	// MaxRetries bounds retries of a failed request (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// PageSize is the number of entries requested per API page (default 100).
	PageSize int `json:"page_size" yaml:"page_size" mapstructure:"page_size"`

	// DefaultMaxResults is used when a search does not specify a count (default 10).
	DefaultMaxResults int `json:"default_max_results" yaml:"default_max_results" mapstructure:"default_max_results"`

	// DownloadDir is where PDFs are saved (default "./downloads").
	DownloadDir string `json:"download_dir" yaml:"download_dir" mapstructure:"download_dir"`
}

// LibraryType distinguishes a personal Zotero library from a group library.
type LibraryType string

const (
	LibraryUser  LibraryType = "user"
	LibraryGroup LibraryType = "group"
)

// Valid reports whether t is a known library type.
func (t LibraryType) Valid() bool {
	return t == LibraryUser || t == LibraryGroup
}

// Library identifies one Zotero library.
type Library struct {
	ID   string      `json:"library_id" yaml:"library_id" mapstructure:"library_id"`
	Type LibraryType `json:"library_type" yaml:"library_type" mapstructure:"library_type"`
}

// ZoteroConfig holds settings for the filing stage.
type ZoteroConfig struct {
	Library `yaml:",inline" mapstructure:",squash"`

	// APIKey authenticates against the Zotero Web API. Config files should
	// hold a "${ZOTERO_API_KEY}" reference rather than the key itself.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// DefaultCollection is used when no collection is given (default "arXiv Papers").
	DefaultCollection string `json:"default_collection" yaml:"default_collection" mapstructure:"default_collection"`
}

// ObsidianConfig holds settings for the note stage.
type ObsidianConfig struct {
	// VaultPath is the root directory of the Obsidian vault.
	VaultPath string `json:"vault_path" yaml:"vault_path" mapstructure:"vault_path"`

	// PapersFolder is the vault subfolder for paper notes (default "Papers").
	PapersFolder string `json:"papers_folder" yaml:"papers_folder" mapstructure:"papers_folder"`

	// UniqueFilenames appends the paper identifier to note filenames so two
	// papers with the same title slug on the same day do not collide.
	UniqueFilenames bool `json:"unique_filenames,omitempty" yaml:"unique_filenames,omitempty" mapstructure:"unique_filenames"`
}

// AIConfig holds settings for the summarization stage.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "claude-sonnet-4-20250514").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// MaxTokens caps the response length (default 2000).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens"`

	// Language selects the summary language: "ko" or "en" (default "ko").
	Language string `json:"language" yaml:"language" mapstructure:"language"`
}

// Config groups all stage configurations.
type Config struct {
	HTTP     HTTPConfig     `json:"http" yaml:"http" mapstructure:"http"`
	Arxiv    ArxivConfig    `json:"arxiv" yaml:"arxiv" mapstructure:"arxiv"`
	Zotero   ZoteroConfig   `json:"zotero" yaml:"zotero" mapstructure:"zotero"`
	Obsidian ObsidianConfig `json:"obsidian" yaml:"obsidian" mapstructure:"obsidian"`
	AI       AIConfig       `json:"ai" yaml:"ai" mapstructure:"ai"`
}
