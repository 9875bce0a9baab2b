package config

import (
	"errors"
	"testing"

	"github.com/dmitrijs2005/fhegame/internal/ledger/storage"
	"github.com/dmitrijs2005/fhegame/internal/logging"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":50061", c.ListenAddr)
	assert.Equal(t, storage.BackendSQLite, c.Backend)
	assert.Equal(t, "ledger.db", c.SQLiteDSN)
	assert.Equal(t, "fhegame-ledger", c.S3Bucket)
	assert.Equal(t, "us-east-1", c.S3Region)
	assert.Equal(t, "http://127.0.0.1:9000/", c.S3BaseEndpoint)
	assert.True(t, c.BadgerSyncWrites)
	assert.False(t, c.StartUnavailable)
	require.NoError(t, c.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "memory", mutate: func(c *Config) { c.Backend = storage.BackendMemory }},
		{name: "in-memory badger", mutate: func(c *Config) { c.Backend = storage.BackendBadger; c.BadgerDir = "" }},
		{name: "sqlite without dsn", mutate: func(c *Config) { c.SQLiteDSN = "" }, wantErr: true},
		{name: "postgres without dsn", mutate: func(c *Config) { c.Backend = storage.BackendPostgres; c.PostgresDSN = "" }, wantErr: true},
		{name: "s3 without bucket", mutate: func(c *Config) { c.Backend = storage.BackendS3; c.S3Bucket = "" }, wantErr: true},
		{name: "no listen addr", mutate: func(c *Config) { c.ListenAddr = "" }, wantErr: true},
		{name: "bad log format", mutate: func(c *Config) { c.LogFormat = "xml" }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Config
			c.LoadDefaults()
			tt.mutate(&c)
			if tt.wantErr {
				require.Error(t, c.Validate())
				return
			}
			require.NoError(t, c.Validate())
		})
	}
}

func TestConfig_ValidateUnknownBackend(t *testing.T) {
	var c Config
	c.LoadDefaults()
	c.Backend = "etcd"
	assert.True(t, errors.Is(c.Validate(), storage.ErrUnknownBackend))
}

func TestConfig_StorageOptions(t *testing.T) {
	var c Config
	c.LoadDefaults()
	c.Backend = storage.BackendS3
	l := logging.Nop()

	opts := c.StorageOptions(l)
	assert.Equal(t, storage.BackendS3, opts.Backend)
	assert.Equal(t, "fhegame-ledger", opts.S3.Bucket)
	assert.Equal(t, "admin", opts.S3.AccessKey)
	assert.Equal(t, "ledger-badger", opts.Badger.Dir)
	assert.Same(t, l, opts.Logger)
}

func parseFlags(t *testing.T, args ...string) *Flags {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f := BindFlags(fs)
	require.NoError(t, fs.Parse(args))
	return f
}

func TestLoad_Precedence(t *testing.T) {
	path := writeTempJSON(t, "", "", map[string]any{
		"listen_addr":       ":7000",
		"backend":           "badger",
		"badger_dir":        "/json/badger",
		"start_unavailable": true,
	})
	t.Setenv("FHEGAME_LEDGER_LISTEN_ADDR", ":8000")
	t.Setenv("FHEGAME_LEDGER_LOG_LEVEL", "debug")

	cfg, err := Load(parseFlags(t, "-c", path, "--badger-dir", "/flag/badger"))
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.ListenAddr)
	assert.Equal(t, storage.BackendBadger, cfg.Backend)
	assert.Equal(t, "/flag/badger", cfg.BadgerDir)
	assert.True(t, cfg.StartUnavailable)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_InvalidBackendFlag(t *testing.T) {
	_, err := Load(parseFlags(t, "--backend", "etcd"))
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrUnknownBackend)
}
