package common

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable is returned when the ledger liveness probe fails; the
	// whole read path is aborted and no partial snapshot is produced.
	ErrUnavailable = errors.New("ledger unavailable")

	// ErrDecode marks malformed bytes stored under a single key.
	ErrDecode = errors.New("decode error")

	// ErrWriteRejected is returned when the signer or the ledger refuses a write.
	ErrWriteRejected = errors.New("write rejected")

	// ErrUserRejected is the write rejection caused by the user declining to sign.
	ErrUserRejected = errors.New("user rejected transaction")

	ErrNotFound        = errors.New("not found")
	ErrUnauthenticated = errors.New("no connected signer")

	// ErrOrphanedRecord is returned when a record body was written but the
	// index append failed, leaving the record unreachable by enumeration.
	ErrOrphanedRecord = errors.New("orphaned record")

	// ErrVersionConflict is returned by compare-and-set writes whose expected
	// version no longer matches the stored one.
	ErrVersionConflict = errors.New("version conflict")

	ErrInvalidSignature = errors.New("invalid signature")
	ErrInvalidArgument  = errors.New("invalid argument")
)

// DecodeError describes a value under Key that could not be decoded.
// errors.Is(err, ErrDecode) reports true for any *DecodeError.
type DecodeError struct {
	Key string
	Err error
}

func (e *DecodeError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("decode error: %v", e.Err)
	}
	return fmt.Sprintf("decode error at %q: %v", e.Key, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// UserRejected builds the error a signer returns when the user declines.
func UserRejected() error {
	return fmt.Errorf("%w: %w", ErrWriteRejected, ErrUserRejected)
}
