package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoaderLoad(t *testing.T) {
	t.Run("returns defaults when the file does not exist", func(t *testing.T) {
		loader := NewLoader(filepath.Join(t.TempDir(), "missing.json"))

		cfg, err := loader.Load()
		require.NoError(t, err)
		assert.Equal(t, "openai", cfg.Inference.Provider)
		assert.NotEmpty(t, cfg.DataDir)
		assert.NotEmpty(t, cfg.Logging.File)
	})

	t.Run("loads values from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "underwriter.json")
		content := `{"inference": {"provider": "anthropic", "api_key": "sk-ant-test", "model": "claude-sonnet-4-5"}, "server": {"port": 9090}}`
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		cfg, err := NewLoader(path).Load()
		require.NoError(t, err)
		assert.Equal(t, "anthropic", cfg.Inference.Provider)
		assert.Equal(t, "claude-sonnet-4-5", cfg.Inference.Model)
		assert.Equal(t, 9090, cfg.Server.Port)
		// Unset sections keep their defaults.
		assert.Equal(t, "info", cfg.Logging.Level)
	})

	t.Run("environment overrides file values", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "underwriter.json")
		content := `{"inference": {"provider": "openai", "api_key": "sk-from-file"}}`
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		t.Setenv("UNDERWRITER_INFERENCE_API_KEY", "sk-from-env")

		cfg, err := NewLoader(path).Load()
		require.NoError(t, err)
		assert.Equal(t, "sk-from-env", cfg.Inference.APIKey)
	})

	t.Run("rejects malformed files", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "underwriter.json")
		require.NoError(t, os.WriteFile(path, []byte("{broken"), 0644))

		_, err := NewLoader(path).Load()
		assert.Error(t, err)
	})
}

func TestLoaderSave(t *testing.T) {
	t.Run("round-trips the config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "underwriter.json")
		loader := NewLoader(path)

		cfg := DefaultConfig()
		cfg.Inference.APIKey = "sk-saved"
		cfg.Server.Port = 9191
		require.NoError(t, loader.Save(cfg))

		loaded, err := loader.Load()
		require.NoError(t, err)
		assert.Equal(t, "sk-saved", loaded.Inference.APIKey)
		assert.Equal(t, 9191, loaded.Server.Port)
	})
}
