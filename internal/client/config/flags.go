package config

import (
	"github.com/spf13/pflag"
)

// Flags binds client settings to a pflag.FlagSet. Parsed values land in a
// shadow Config and only flags the user set are copied over by Load, so
// flag defaults never mask the JSON or environment layers.
type Flags struct {
	fs         *pflag.FlagSet
	v          Config
	configFile string
}

// BindFlags registers the client flags on fs, typically a cobra command's
// PersistentFlags.
func BindFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	var d Config
	d.LoadDefaults()

	fs.StringVarP(&f.configFile, "config", "c", "", "path to a JSON config file")
	fs.StringVarP(&f.v.LedgerAddr, "ledger", "a", d.LedgerAddr, "ledger node address, or local://<sqlite path>")
	fs.StringVar(&f.v.WalletDir, "wallet-dir", d.WalletDir, "directory with encrypted account keys")
	fs.StringVar(&f.v.JournalDSN, "journal", d.JournalDSN, "sqlite file for the local journal")
	fs.DurationVar(&f.v.DialTimeout, "dial-timeout", d.DialTimeout, "how long to wait for the ledger to become healthy")
	fs.BoolVar(&f.v.ConfirmWrites, "confirm", d.ConfirmWrites, "ask for confirmation before signing writes")
	fs.StringVar(&f.v.LogLevel, "log-level", d.LogLevel, "log level: debug, info, warn, error")
	fs.StringVar(&f.v.LogFormat, "log-format", d.LogFormat, "log format: text or json")
	fs.StringVar(&f.v.OTelEndpoint, "otel-endpoint", d.OTelEndpoint, "OTLP/HTTP endpoint for traces")
	return f
}

// ConfigFile returns the --config value.
func (f *Flags) ConfigFile() string {
	if f == nil {
		return ""
	}
	return f.configFile
}

func (f *Flags) apply(cfg *Config) {
	if f == nil {
		return
	}
	changed := f.fs.Changed
	if changed("ledger") {
		cfg.LedgerAddr = f.v.LedgerAddr
	}
	if changed("wallet-dir") {
		cfg.WalletDir = f.v.WalletDir
	}
	if changed("journal") {
		cfg.JournalDSN = f.v.JournalDSN
	}
	if changed("dial-timeout") {
		cfg.DialTimeout = f.v.DialTimeout
	}
	if changed("confirm") {
		cfg.ConfirmWrites = f.v.ConfirmWrites
	}
	if changed("log-level") {
		cfg.LogLevel = f.v.LogLevel
	}
	if changed("log-format") {
		cfg.LogFormat = f.v.LogFormat
	}
	if changed("otel-endpoint") {
		cfg.OTelEndpoint = f.v.OTelEndpoint
	}
}
