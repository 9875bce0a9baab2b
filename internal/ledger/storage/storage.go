// Package storage provides the durable key/value backends behind a ledger
// node. Every backend keeps a monotonically increasing version per key so
// the node can offer compare-and-set writes on top of plain overwrites.
//
// Backends: Memory (tests and demos), SQL (sqlite or postgres through
// database/sql), Badger (embedded) and S3 (object per key).
package storage

import (
	"context"
	"errors"
)

// ErrUnknownBackend is returned by Open for an unsupported backend name.
var ErrUnknownBackend = errors.New("unknown storage backend")

// Entry is a stored value and its version. A zero Version means the key is
// absent.
type Entry struct {
	Value   []byte
	Version uint64
}

// Mutation is one signed write.
type Mutation struct {
	TxID   string
	Key    string
	Value  []byte
	Signer string
}

// Storage is implemented by every backend.
type Storage interface {
	// Get returns the entry under key; an absent key is Entry{} and nil.
	Get(ctx context.Context, key string) (Entry, error)

	// Put overwrites key unconditionally and returns the new version.
	Put(ctx context.Context, m Mutation) (uint64, error)

	// PutIfVersion writes only when the stored version equals expected
	// (0 = key must be absent). It returns common.ErrVersionConflict otherwise.
	PutIfVersion(ctx context.Context, m Mutation, expected uint64) (uint64, error)

	Ping(ctx context.Context) error
	Close() error
}
