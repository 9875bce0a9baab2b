package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordKey(t *testing.T) {
	assert.Equal(t, "game_abc", RecordKey("abc"))
	assert.Equal(t, "game_", RecordKey(""))
}

func TestDecodeError_IsAndUnwrap(t *testing.T) {
	cause := errors.New("unexpected end of JSON input")
	var err error = &DecodeError{Key: "game_a", Err: cause}

	require.ErrorIs(t, err, ErrDecode)
	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), `"game_a"`)

	wrapped := fmt.Errorf("list: %w", err)
	var de *DecodeError
	require.ErrorAs(t, wrapped, &de)
	assert.Equal(t, "game_a", de.Key)
}

func TestDecodeError_NoKey(t *testing.T) {
	err := &DecodeError{Err: errors.New("x")}
	assert.Equal(t, "decode error: x", err.Error())
}

func TestUserRejected_MatchesBothSentinels(t *testing.T) {
	err := UserRejected()
	require.ErrorIs(t, err, ErrWriteRejected)
	require.ErrorIs(t, err, ErrUserRejected)
	assert.NotErrorIs(t, err, ErrUnauthenticated)
}
