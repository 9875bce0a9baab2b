package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/fhegame/internal/dbx"
	"github.com/dmitrijs2005/fhegame/internal/store"
)

// OrphanRepository persists record ids whose index append failed. It
// implements store.OrphanJournal.
type OrphanRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewOrphanRepository(db dbx.DBTX) *OrphanRepository {
	return &OrphanRepository{db: db, now: time.Now}
}

// RecordOrphan stores o. Recording the same id again refreshes its cause.
func (r *OrphanRepository) RecordOrphan(ctx context.Context, o store.Orphan) error {
	created := o.CreatedAt
	if created.IsZero() {
		created = r.now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO orphans (id, owner, cause, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET cause = excluded.cause
	`, o.ID, o.Owner, o.Cause, created.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to record orphan %s: %w", o.ID, err)
	}
	return nil
}

// Orphans lists journal entries oldest first.
func (r *OrphanRepository) Orphans(ctx context.Context) ([]store.Orphan, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, owner, cause, created_at FROM orphans ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list orphans: %w", err)
	}
	defer rows.Close()

	var out []store.Orphan
	for rows.Next() {
		var (
			o       store.Orphan
			created string
		)
		if err := rows.Scan(&o.ID, &o.Owner, &o.Cause, &created); err != nil {
			return nil, fmt.Errorf("failed to scan orphan row: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
			o.CreatedAt = t
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orphan rows: %w", err)
	}
	return out, nil
}

// ResolveOrphan removes id; resolving an unknown id is not an error.
func (r *OrphanRepository) ResolveOrphan(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM orphans WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to resolve orphan %s: %w", id, err)
	}
	return nil
}
