package storage

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/fhegame/internal/logging"
)

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendBadger   = "badger"
	BackendS3       = "s3"
)

// Options selects and configures a backend.
type Options struct {
	Backend     string
	SQLiteDSN   string
	PostgresDSN string
	Badger      BadgerConfig
	S3          S3Config
	Logger      logging.Logger
}

// Open builds the backend named by opts.Backend.
func Open(ctx context.Context, opts Options) (Storage, error) {
	switch opts.Backend {
	case "", BackendMemory:
		return NewMemory(), nil
	case BackendSQLite:
		return nonNil(OpenSQLite(ctx, opts.SQLiteDSN))
	case BackendPostgres:
		return nonNil(OpenPostgres(ctx, opts.PostgresDSN))
	case BackendBadger:
		cfg := opts.Badger
		if cfg.Logger == nil {
			cfg.Logger = opts.Logger
		}
		return nonNil(OpenBadger(cfg))
	case BackendS3:
		return nonNil(OpenS3(ctx, opts.S3))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}

// nonNil keeps a typed nil pointer out of the Storage interface.
func nonNil[T Storage](s T, err error) (Storage, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}
