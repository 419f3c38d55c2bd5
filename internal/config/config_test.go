package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("DefaultsWithSecretFromEnv", func(t *testing.T) {
		t.Setenv("GLPITRACK_JWT_SECRET", "env-secret")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.Addr)
		assert.Equal(t, "glpitrack.db", cfg.DBPath)
		assert.Equal(t, "* * * * *", cfg.ReminderCron)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, "env-secret", cfg.JWTSecret)
	})

	t.Run("MissingSecret", func(t *testing.T) {
		_, err := Load("")
		assert.Error(t, err)
	})

	t.Run("FileValues", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(
			"addr: \":9090\"\njwt_secret: file-secret\nlog_level: debug\n",
		), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, ":9090", cfg.Addr)
		assert.Equal(t, "file-secret", cfg.JWTSecret)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("EnvOverridesFile", func(t *testing.T) {
		t.Setenv("GLPITRACK_ADDR", ":7070")
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(
			"addr: \":9090\"\njwt_secret: file-secret\n",
		), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, ":7070", cfg.Addr)
	})

	t.Run("MissingFile", func(t *testing.T) {
		t.Setenv("GLPITRACK_JWT_SECRET", "env-secret")
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}
