package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every variable named in Config's env tags.
const EnvPrefix = "FHEGAME_"

// parseEnv overlays cfg with FHEGAME_* variables. Unset variables leave the
// current value in place.
func parseEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
