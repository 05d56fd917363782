package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, 4, cfg.Order)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "127.0.0.1", cfg.Bind)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.DataDir = "/var/lib/yggdrasil"
	cfg.Order = 8
	cfg.Security.APIKey = "secret"

	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.DataDir, loaded.DataDir)
	assert.Equal(t, cfg.Order, loaded.Order)
	assert.Equal(t, cfg.Security.APIKey, loaded.Security.APIKey)

	// Config files carry the API key; they must not be world-readable.
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_RejectsBadOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("order: 2\n"), 0600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestBootstrapConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := BootstrapConfig(path, "./testdata", 5)
	require.NoError(t, err)

	assert.Equal(t, "./testdata", cfg.DataDir)
	assert.Equal(t, 5, cfg.Order)
	assert.Len(t, cfg.Security.APIKey, 64) // 32 random bytes hex-encoded
	assert.True(t, ConfigExists(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Security.APIKey, loaded.Security.APIKey)
}

func TestBootstrapConfig_RejectsBadOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	_, err := BootstrapConfig(path, "", 2)
	assert.Error(t, err)
	assert.False(t, ConfigExists(path))
}

func TestGenerateSecureKey(t *testing.T) {
	a, err := GenerateSecureKey(16)
	require.NoError(t, err)
	b, err := GenerateSecureKey(16)
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}
