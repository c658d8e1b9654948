// Package config handles incuchat configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config is the root configuration structure for incuchat.
type Config struct {
	// Portal settings (REST backend).
	Portal PortalConfig `yaml:"portal" mapstructure:"portal"`

	// Session identifies the local user against the portal.
	Session SessionConfig `yaml:"session" mapstructure:"session"`

	// Poll settings for the sync engine.
	Poll PollConfig `yaml:"poll" mapstructure:"poll"`

	// Cache settings for the local snapshot store.
	Cache CacheConfig `yaml:"cache" mapstructure:"cache"`

	// Logging settings.
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`

	// TUI settings.
	TUI TUIConfig `yaml:"tui" mapstructure:"tui"`
}

// PortalConfig contains REST backend settings.
type PortalConfig struct {
	// BaseURL is the portal resources root, e.g. https://portal.example.com/itelinc/resources.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// TokenFile is where the bearer token is stored (written by `incuchat auth`).
	TokenFile string `yaml:"token_file" mapstructure:"token_file"`

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// AuditModule is the X-Module header value attached to every call.
	AuditModule string `yaml:"audit_module" mapstructure:"audit_module"`
}

// SessionConfig identifies the local user.
type SessionConfig struct {
	// UserID is the portal user record ID.
	UserID int64 `yaml:"user_id" mapstructure:"user_id"`

	// IncUserID is the incubator-scoped user ID, zero when not applicable.
	IncUserID int64 `yaml:"inc_user_id" mapstructure:"inc_user_id"`

	// RoleID is the portal role (1-3 incubator side, 4-6 incubatee side).
	RoleID int `yaml:"role_id" mapstructure:"role_id"`

	// DisplayName is shown in the TUI header.
	DisplayName string `yaml:"display_name" mapstructure:"display_name"`
}

// PollConfig contains sync engine intervals.
type PollConfig struct {
	// ListInterval is how often the conversation list is refreshed.
	ListInterval time.Duration `yaml:"list_interval" mapstructure:"list_interval"`

	// MessageInterval is how often the selected conversation is refreshed.
	MessageInterval time.Duration `yaml:"message_interval" mapstructure:"message_interval"`

	// ReconcileDelay is the delay before the post-send reconciling refresh.
	ReconcileDelay time.Duration `yaml:"reconcile_delay" mapstructure:"reconcile_delay"`
}

// CacheConfig contains local snapshot cache settings.
type CacheConfig struct {
	// Path is the SQLite cache file path.
	Path string `yaml:"path" mapstructure:"path"`

	// BusyTimeout is how long to wait for a locked database (milliseconds).
	BusyTimeoutMs int `yaml:"busy_timeout_ms" mapstructure:"busy_timeout_ms"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `yaml:"format" mapstructure:"format"`

	// File is an optional log file path.
	File string `yaml:"file" mapstructure:"file"`

	// EnableCaller adds caller information to logs.
	EnableCaller bool `yaml:"enable_caller" mapstructure:"enable_caller"`
}

// TUIConfig contains TUI settings.
type TUIConfig struct {
	// Theme is the color theme (default, high-contrast).
	Theme string `yaml:"theme" mapstructure:"theme"`

	// ShowTimestamps shows timestamps next to messages.
	ShowTimestamps bool `yaml:"show_timestamps" mapstructure:"show_timestamps"`

	// CompactMode uses a more compact list layout.
	CompactMode bool `yaml:"compact_mode" mapstructure:"compact_mode"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".local", "share", "incuchat")
	configDir := filepath.Join(homeDir, ".config", "incuchat")

	return &Config{
		Portal: PortalConfig{
			BaseURL:     "",
			TokenFile:   filepath.Join(configDir, "token"),
			Timeout:     10 * time.Second,
			AuditModule: "Chat",
		},
		Session: SessionConfig{},
		Poll: PollConfig{
			ListInterval:    3 * time.Second,
			MessageInterval: 1 * time.Second,
			ReconcileDelay:  1 * time.Second,
		},
		Cache: CacheConfig{
			Path:          filepath.Join(dataDir, "incuchat.db"),
			BusyTimeoutMs: 5000,
		},
		Logging: LoggingConfig{
			Level:        "info",
			Format:       "console",
			EnableCaller: false,
		},
		TUI: TUIConfig{
			Theme:          "default",
			ShowTimestamps: true,
			CompactMode:    false,
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Poll.ListInterval < 100*time.Millisecond {
		return fmt.Errorf("poll.list_interval must be at least 100ms")
	}
	if c.Poll.MessageInterval < 100*time.Millisecond {
		return fmt.Errorf("poll.message_interval must be at least 100ms")
	}
	if c.Portal.Timeout <= 0 {
		return fmt.Errorf("portal.timeout must be positive")
	}
	if c.Cache.BusyTimeoutMs < 0 {
		return fmt.Errorf("cache.busy_timeout_ms must not be negative")
	}
	if c.Session.RoleID < 0 {
		return fmt.Errorf("session.role_id must not be negative")
	}
	return nil
}

// EnsureDirectories creates the directories config paths point into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		filepath.Dir(c.Cache.Path),
		filepath.Dir(c.Portal.TokenFile),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// Token reads the bearer token from the configured token file.
// INCUCHAT_PORTAL_TOKEN overrides the file when set.
func (c *Config) Token() (string, error) {
	if tok := os.Getenv("INCUCHAT_PORTAL_TOKEN"); tok != "" {
		return tok, nil
	}
	data, err := os.ReadFile(c.Portal.TokenFile)
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}
	tok := string(data)
	for len(tok) > 0 && (tok[len(tok)-1] == '\n' || tok[len(tok)-1] == '\r') {
		tok = tok[:len(tok)-1]
	}
	if tok == "" {
		return "", fmt.Errorf("token file %s is empty", c.Portal.TokenFile)
	}
	return tok, nil
}
