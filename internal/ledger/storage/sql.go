package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/fhegame/internal/common"
	"github.com/dmitrijs2005/fhegame/internal/dbx"
	"github.com/dmitrijs2005/fhegame/internal/migrations"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// sqlDialect holds the statements that differ between sqlite and postgres.
type sqlDialect struct {
	name       string
	get        string
	upsert     string
	insertNew  string
	updateIfV  string
	insertTxn  string
	migrations migrations.Set
}

var sqliteDialect = sqlDialect{
	name: "sqlite",
	get:  `SELECT value, version FROM ledger_entries WHERE key = ?`,
	upsert: `INSERT INTO ledger_entries (key, value, version) VALUES (?, ?, 1)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, version = ledger_entries.version + 1
		RETURNING version`,
	insertNew: `INSERT INTO ledger_entries (key, value, version) VALUES (?, ?, 1)
		ON CONFLICT(key) DO NOTHING`,
	updateIfV:  `UPDATE ledger_entries SET value = ?, version = version + 1 WHERE key = ? AND version = ?`,
	insertTxn:  `INSERT INTO ledger_transactions (tx_id, key, signer, version) VALUES (?, ?, ?, ?)`,
	migrations: migrations.LedgerSQLite,
}

var postgresDialect = sqlDialect{
	name: "postgres",
	get:  `SELECT value, version FROM ledger_entries WHERE key = $1`,
	upsert: `INSERT INTO ledger_entries (key, value, version) VALUES ($1, $2, 1)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, version = ledger_entries.version + 1
		RETURNING version`,
	insertNew: `INSERT INTO ledger_entries (key, value, version) VALUES ($1, $2, 1)
		ON CONFLICT (key) DO NOTHING`,
	updateIfV:  `UPDATE ledger_entries SET value = $1, version = version + 1 WHERE key = $2 AND version = $3`,
	insertTxn:  `INSERT INTO ledger_transactions (tx_id, key, signer, version) VALUES ($1, $2, $3, $4)`,
	migrations: migrations.LedgerPostgres,
}

// SQL is a Storage over database/sql. Every write also appends a row to
// ledger_transactions inside the same transaction.
type SQL struct {
	db      *sql.DB
	dialect sqlDialect
}

// NewSQLite wraps an already migrated sqlite database.
func NewSQLite(db *sql.DB) *SQL {
	return &SQL{db: db, dialect: sqliteDialect}
}

// NewPostgres wraps an already migrated postgres database.
func NewPostgres(db *sql.DB) *SQL {
	return &SQL{db: db, dialect: postgresDialect}
}

// OpenSQLite opens the sqlite file at dsn and applies ledger migrations.
func OpenSQLite(ctx context.Context, dsn string) (*SQL, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// sqlite serialises writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	return migrate(ctx, NewSQLite(db))
}

// OpenPostgres connects through pgx and applies ledger migrations.
func OpenPostgres(ctx context.Context, dsn string) (*SQL, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return migrate(ctx, NewPostgres(db))
}

func migrate(ctx context.Context, s *SQL) (*SQL, error) {
	if err := migrations.Up(ctx, s.db, s.dialect.migrations); err != nil {
		_ = s.db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQL) Get(ctx context.Context, key string) (Entry, error) {
	var e Entry
	err := s.db.QueryRowContext(ctx, s.dialect.get, key).Scan(&e.Value, &e.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, nil
	}
	if err != nil {
		return Entry{}, fmt.Errorf("failed to get entry[%s]: %w", key, err)
	}
	return e, nil
}

func (s *SQL) Put(ctx context.Context, m Mutation) (uint64, error) {
	var version uint64
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := tx.QueryRowContext(ctx, s.dialect.upsert, m.Key, m.Value).Scan(&version); err != nil {
			return err
		}
		return s.logTxn(ctx, tx, m, version)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to put entry[%s]: %w", m.Key, err)
	}
	return version, nil
}

func (s *SQL) PutIfVersion(ctx context.Context, m Mutation, expected uint64) (uint64, error) {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var (
			res sql.Result
			err error
		)
		if expected == 0 {
			res, err = tx.ExecContext(ctx, s.dialect.insertNew, m.Key, m.Value)
		} else {
			res, err = tx.ExecContext(ctx, s.dialect.updateIfV, m.Value, m.Key, expected)
		}
		if err != nil {
			return err
		}
		if err := dbx.AffectedOne(res); err != nil {
			if errors.Is(err, dbx.ErrNoRowsAffected) {
				return common.ErrVersionConflict
			}
			return err
		}
		return s.logTxn(ctx, tx, m, expected+1)
	})
	if errors.Is(err, common.ErrVersionConflict) {
		return 0, err
	}
	if err != nil {
		return 0, fmt.Errorf("failed to put entry[%s]: %w", m.Key, err)
	}
	return expected + 1, nil
}

func (s *SQL) logTxn(ctx context.Context, tx dbx.DBTX, m Mutation, version uint64) error {
	_, err := tx.ExecContext(ctx, s.dialect.insertTxn, m.TxID, m.Key, m.Signer, version)
	return err
}

func (s *SQL) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQL) Close() error {
	return s.db.Close()
}
