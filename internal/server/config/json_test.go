package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJSON(t *testing.T) {
	dir := t.TempDir()

	t.Run("overlays present keys", func(t *testing.T) {
		path := writeTempJSON(t, dir, "cfg.json", map[string]any{
			"listen_addr":        ":9999",
			"backend":            "postgres",
			"postgres_dsn":       "postgres://u:p@db/x",
			"badger_sync_writes": false,
		})
		cfg := &Config{}
		cfg.LoadDefaults()
		require.NoError(t, parseJSON(cfg, path))

		assert.Equal(t, ":9999", cfg.ListenAddr)
		assert.Equal(t, "postgres", cfg.Backend)
		assert.Equal(t, "postgres://u:p@db/x", cfg.PostgresDSN)
		assert.False(t, cfg.BadgerSyncWrites)
		assert.Equal(t, "ledger.db", cfg.SQLiteDSN)
		assert.Equal(t, "admin", cfg.S3AccessKey)
	})

	t.Run("empty path leaves config alone", func(t *testing.T) {
		cfg := &Config{ListenAddr: ":1"}
		require.NoError(t, parseJSON(cfg, ""))
		assert.Equal(t, ":1", cfg.ListenAddr)
	})

	t.Run("unreadable file", func(t *testing.T) {
		err := parseJSON(&Config{}, filepath.Join(dir, "missing.json"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "read config")
	})

	t.Run("invalid JSON", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ nope`), 0o600))
		err := parseJSON(&Config{}, bad)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decode config")
	})
}
