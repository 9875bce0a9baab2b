package migrations

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "m.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&n)
	require.NoError(t, err)
	return n > 0
}

func TestUp_LedgerSQLite_CreatesTablesAndIsIdempotent(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	require.NoError(t, Up(ctx, db, LedgerSQLite))
	require.NoError(t, Up(ctx, db, LedgerSQLite))

	require.True(t, tableExists(t, db, "ledger_entries"))
	require.True(t, tableExists(t, db, "ledger_transactions"))
	require.True(t, tableExists(t, db, "goose_db_version"))
}

func TestUp_Journal(t *testing.T) {
	db := openSQLite(t)

	require.NoError(t, Up(context.Background(), db, Journal))
	require.True(t, tableExists(t, db, "metadata"))
	require.True(t, tableExists(t, db, "orphans"))
}

func TestUp_PostgresFilesAreEmbedded(t *testing.T) {
	entries, err := Migrations.ReadDir(LedgerPostgres.Dir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
}

func TestUp_PropagatesGooseError(t *testing.T) {
	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("locked")
	}

	err := Up(context.Background(), openSQLite(t), LedgerSQLite)
	require.ErrorContains(t, err, "migrate ledger/sqlite: locked")
}

func TestUp_UnknownDialect(t *testing.T) {
	err := Up(context.Background(), openSQLite(t), Set{Dialect: "oracle-ish", Dir: "journal"})
	require.Error(t, err)
}
