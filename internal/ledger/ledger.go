// Package ledger defines the capabilities the record store needs from the
// external key/value ledger and provides the ledger-side node logic shared
// by the in-process client and the gRPC server.
//
// Reading and writing are separate capability levels: anyone holding a
// Reader can enumerate records, while a Writer is bound to a Signer.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/fhegame/internal/common"
	"github.com/dmitrijs2005/fhegame/internal/models"
)

// Reader is the read-only ledger capability.
type Reader interface {
	// IsAvailable is the liveness probe checked before any read sequence.
	IsAvailable(ctx context.Context) (bool, error)

	// Read returns the bytes under key. An absent key reads as empty bytes
	// and a nil error, indistinguishable from a stored empty value.
	Read(ctx context.Context, key string) ([]byte, error)
}

// Writer is the signed-write ledger capability.
type Writer interface {
	Write(ctx context.Context, key string, value []byte) (models.Commit, error)
}

// VersionedReader is implemented by readers that expose per-key versions.
// Version 0 means the key is absent.
type VersionedReader interface {
	ReadVersioned(ctx context.Context, key string) ([]byte, uint64, error)
}

// VersionedWriter is implemented by writers that support compare-and-set.
// WriteIfVersion returns common.ErrVersionConflict when the stored version
// differs from expected.
type VersionedWriter interface {
	WriteIfVersion(ctx context.Context, key string, value []byte, expected uint64) (models.Commit, error)
}

// Signer produces write authorization for one account.
type Signer interface {
	Address() string

	// SignWrite authorizes writing value under key. It returns an error
	// matching common.ErrUserRejected when the user declines.
	SignWrite(ctx context.Context, key string, value []byte) (string, error)
}

// Authorizer checks a write token on the ledger side and returns the
// address of the signer.
type Authorizer interface {
	Authorize(key string, value []byte, token string) (string, error)
}

// SignError normalises a Signer failure into the write error taxonomy.
func SignError(err error) error {
	if errors.Is(err, common.ErrWriteRejected) {
		return err
	}
	if errors.Is(err, common.ErrUserRejected) {
		return common.UserRejected()
	}
	return fmt.Errorf("%w: sign: %w", common.ErrWriteRejected, err)
}
