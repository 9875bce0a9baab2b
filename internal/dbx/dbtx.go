// Package dbx holds the small database/sql helpers shared by the SQL ledger
// backends and the client journal: a handle interface satisfied by both
// *sql.DB and *sql.Tx, a transaction runner, and a rows-affected check used
// by compare-and-set statements.
package dbx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNoRowsAffected is returned by AffectedOne when a statement matched nothing.
var ErrNoRowsAffected = errors.New("no rows affected")

// DBTX is the subset of database/sql used by repositories.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn inside a transaction. It commits when fn returns nil and
// rolls back on error or panic; panics are re-raised after rollback.
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    _, err := tx.ExecContext(ctx, "UPDATE ledger_entries ...")
//	    return err
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = fmt.Errorf("commit tx: %w", cerr)
		}
	}()

	err = fn(ctx, tx)
	return err
}

// AffectedOne checks that res touched exactly one row.
func AffectedOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return ErrNoRowsAffected
	default:
		return fmt.Errorf("expected 1 row affected, got %d", n)
	}
}
