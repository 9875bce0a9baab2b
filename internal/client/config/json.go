package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/fhegame/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Durations
// accept "5s" style strings or integer nanoseconds. Absent keys keep the
// value from the previous layer.
type JsonConfig struct {
	LedgerAddr    string         `json:"ledger_addr"`
	WalletDir     string         `json:"wallet_dir"`
	JournalDSN    string         `json:"journal_dsn"`
	DialTimeout   timex.Duration `json:"dial_timeout"`
	ConfirmWrites *bool          `json:"confirm_writes"`
	LogLevel      string         `json:"log_level"`
	LogFormat     string         `json:"log_format"`
	OTelEndpoint  string         `json:"otel_endpoint"`
}

// parseJSON overlays cfg with the file at path. An empty path is a no-op.
func parseJSON(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}

	setString(&cfg.LedgerAddr, jc.LedgerAddr)
	setString(&cfg.WalletDir, jc.WalletDir)
	setString(&cfg.JournalDSN, jc.JournalDSN)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFormat, jc.LogFormat)
	setString(&cfg.OTelEndpoint, jc.OTelEndpoint)
	if jc.DialTimeout.Duration > 0 {
		cfg.DialTimeout = jc.DialTimeout.Duration
	}
	if jc.ConfirmWrites != nil {
		cfg.ConfirmWrites = *jc.ConfirmWrites
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
