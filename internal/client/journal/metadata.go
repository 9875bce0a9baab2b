package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/fhegame/internal/dbx"
)

const selectedAccountKey = "selected_account"

// MetadataRepository is a small key/value table. It also implements
// identity.SelectionStore.
type MetadataRepository struct {
	db dbx.DBTX
}

func NewMetadataRepository(db dbx.DBTX) *MetadataRepository {
	return &MetadataRepository{db: db}
}

// Get returns (nil, nil) when key is absent.
func (r *MetadataRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata[%s]: %w", key, err)
	}
	return value, nil
}

func (r *MetadataRepository) Set(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set metadata[%s]: %w", key, err)
	}
	return nil
}

func (r *MetadataRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM metadata WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete metadata[%s]: %w", key, err)
	}
	return nil
}

// SelectedAccount returns the remembered address, or "" if none.
func (r *MetadataRepository) SelectedAccount(ctx context.Context) (string, error) {
	v, err := r.Get(ctx, selectedAccountKey)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// SetSelectedAccount remembers address; an empty address forgets it.
func (r *MetadataRepository) SetSelectedAccount(ctx context.Context, address string) error {
	if address == "" {
		return r.Delete(ctx, selectedAccountKey)
	}
	return r.Set(ctx, selectedAccountKey, []byte(address))
}
