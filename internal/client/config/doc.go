// Package config loads runtime configuration for the fhegame client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c/--config.
//  3. FHEGAME_* environment variables, e.g. FHEGAME_LEDGER_ADDR.
//  4. Command-line flags the user explicitly set.
//
// # JSON schema
//
//	{
//	  "ledger_addr": "127.0.0.1:50061",
//	  "wallet_dir": "/home/me/.fhegame/wallet",
//	  "journal_dsn": "/home/me/.fhegame/journal.db",
//	  "dial_timeout": "5s",
//	  "confirm_writes": true,
//	  "log_level": "info",
//	  "log_format": "json",
//	  "otel_endpoint": ""
//	}
//
// Setting ledger_addr to local:///path/ledger.db runs the ledger in-process
// on a sqlite file, which is handy for single-player use and demos.
package config
