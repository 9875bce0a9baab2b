// Package migrations embeds the goose SQL migrations for the ledger node
// backends and the client journal.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed ledger/sqlite/*.sql ledger/postgres/*.sql journal/*.sql
var Migrations embed.FS

// Migration sets; Dir is relative to Migrations.
var (
	LedgerSQLite   = Set{Dialect: "sqlite3", Dir: "ledger/sqlite"}
	LedgerPostgres = Set{Dialect: "pgx", Dir: "ledger/postgres"}
	Journal        = Set{Dialect: "sqlite3", Dir: "journal"}
)

// Set is one directory of migrations for one goose dialect.
type Set struct {
	Dialect string
	Dir     string
}

// goose keeps its base FS and dialect in package globals.
var gooseMu sync.Mutex

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Up applies every pending migration of s to db.
func Up(ctx context.Context, db *sql.DB, s Set) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(Migrations)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(s.Dialect); err != nil {
		return fmt.Errorf("goose dialect %s: %w", s.Dialect, err)
	}
	if err := gooseUpContext(ctx, db, s.Dir); err != nil {
		return fmt.Errorf("migrate %s: %w", s.Dir, err)
	}
	return nil
}
