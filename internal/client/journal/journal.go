// Package journal is the client's local sqlite database. It remembers the
// selected account between runs and keeps the orphaned-record journal that
// the repair command works from.
package journal

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/fhegame/internal/migrations"

	_ "modernc.org/sqlite"
)

// Repositories groups the journal tables over one connection.
type Repositories struct {
	db       *sql.DB
	Metadata *MetadataRepository
	Orphans  *OrphanRepository
}

// Open opens (creating if needed) the sqlite file at dsn and applies the
// journal migrations.
func Open(ctx context.Context, dsn string) (*Repositories, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := migrations.Up(ctx, db, migrations.Journal); err != nil {
		_ = db.Close()
		return nil, err
	}

	return New(db), nil
}

// New wraps an already migrated database.
func New(db *sql.DB) *Repositories {
	return &Repositories{
		db:       db,
		Metadata: NewMetadataRepository(db),
		Orphans:  NewOrphanRepository(db),
	}
}

func (r *Repositories) Close() error {
	return r.db.Close()
}
