// Package logging defines the structured-logging interface shared by the
// fhegame client, record store and ledger node. The default implementation
// wraps log/slog.
package logging

import "context"

// Logger takes a message plus alternating key/value pairs:
//
//	log.Warn(ctx, "index write failed", "key", common.IndexKey, "error", err)
//
// Components tag their logger once with With("module", name).
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger carrying args on every entry.
	With(args ...any) Logger
}
