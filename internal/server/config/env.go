package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to the env tag of every Config field, e.g.
// FHEGAME_LEDGER_BACKEND.
const EnvPrefix = "FHEGAME_LEDGER_"

func parseEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
