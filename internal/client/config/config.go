package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalScheme prefixes LedgerAddr when the client should run an in-process
// ledger backed by a sqlite file instead of dialing a ledger node.
const LocalScheme = "local://"

// Config holds runtime settings for the fhegame client.
//
// Fields:
//   - LedgerAddr: host:port of a ledger node, or local://<sqlite path>.
//   - WalletDir: directory holding encrypted account key files.
//   - JournalDSN: sqlite file for the selected account and orphan journal.
//   - DialTimeout: how long to wait for the ledger node to report healthy.
//   - ConfirmWrites: prompt before every signed write.
//   - OTelEndpoint: OTLP/HTTP collector URL; empty disables tracing.
type Config struct {
	LedgerAddr    string        `env:"LEDGER_ADDR"`
	WalletDir     string        `env:"WALLET_DIR"`
	JournalDSN    string        `env:"JOURNAL_DSN"`
	DialTimeout   time.Duration `env:"DIAL_TIMEOUT"`
	ConfirmWrites bool          `env:"CONFIRM_WRITES"`
	LogLevel      string        `env:"LOG_LEVEL"`
	LogFormat     string        `env:"LOG_FORMAT"`
	OTelEndpoint  string        `env:"OTEL_ENDPOINT"`
}

// LoadDefaults populates c with development defaults rooted at ~/.fhegame.
func (c *Config) LoadDefaults() {
	home := homeDir()
	c.LedgerAddr = "127.0.0.1:50061"
	c.WalletDir = filepath.Join(home, "wallet")
	c.JournalDSN = filepath.Join(home, "journal.db")
	c.DialTimeout = 5 * time.Second
	c.ConfirmWrites = false
	c.LogLevel = "warn"
	c.LogFormat = "text"
	c.OTelEndpoint = ""
}

// IsLocal reports whether the ledger runs in-process.
func (c *Config) IsLocal() bool {
	return strings.HasPrefix(c.LedgerAddr, LocalScheme)
}

// LocalPath returns the sqlite path of an in-process ledger.
func (c *Config) LocalPath() string {
	return strings.TrimPrefix(c.LedgerAddr, LocalScheme)
}

// Validate rejects settings the client cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.LedgerAddr == "" || (c.IsLocal() && c.LocalPath() == "") {
		errs = append(errs, errors.New("ledger address is empty"))
	}
	if c.WalletDir == "" {
		errs = append(errs, errors.New("wallet dir is empty"))
	}
	if c.JournalDSN == "" {
		errs = append(errs, errors.New("journal dsn is empty"))
	}
	if c.DialTimeout <= 0 {
		errs = append(errs, fmt.Errorf("dial timeout must be positive, got %s", c.DialTimeout))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

// Load builds a Config by applying defaults, then the JSON file named by
// --config, then FHEGAME_* environment variables and finally the flags the
// user actually set. Later sources take precedence.
func Load(f *Flags) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJSON(cfg, f.ConfigFile()); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	f.apply(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func homeDir() string {
	if h, err := os.UserHomeDir(); err == nil && h != "" {
		return filepath.Join(h, ".fhegame")
	}
	return ".fhegame"
}
