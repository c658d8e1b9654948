package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 3*time.Second, cfg.Poll.ListInterval)
	assert.Equal(t, 1*time.Second, cfg.Poll.MessageInterval)
}

func TestValidateRejectsTinyIntervals(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Poll.MessageInterval = 10 * time.Millisecond
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Poll.ListInterval = 0
	assert.Error(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
portal:
  base_url: https://portal.example.com/itelinc/resources
  timeout: 5s
session:
  user_id: 42
  role_id: 2
poll:
  list_interval: 4s
  message_interval: 2s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://portal.example.com/itelinc/resources", cfg.Portal.BaseURL)
	assert.Equal(t, int64(42), cfg.Session.UserID)
	assert.Equal(t, 2, cfg.Session.RoleID)
	assert.Equal(t, 4*time.Second, cfg.Poll.ListInterval)
	assert.Equal(t, 2*time.Second, cfg.Poll.MessageInterval)
	// Unset keys keep defaults.
	assert.Equal(t, 1*time.Second, cfg.Poll.ReconcileDelay)
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestTokenFromEnvOverridesFile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Portal.TokenFile = filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(cfg.Portal.TokenFile, []byte("file-token\n"), 0o600))

	tok, err := cfg.Token()
	require.NoError(t, err)
	assert.Equal(t, "file-token", tok)

	t.Setenv("INCUCHAT_PORTAL_TOKEN", "env-token")
	tok, err = cfg.Token()
	require.NoError(t, err)
	assert.Equal(t, "env-token", tok)
}
