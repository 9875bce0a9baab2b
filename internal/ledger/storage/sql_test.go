package storage

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/fhegame/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestSQLite(t *testing.T) *SQL {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLite_PutAndGet(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)

	e, err := s.Get(ctx, "game_keys")
	require.NoError(t, err)
	assert.Equal(t, Entry{}, e)

	v, err := s.Put(ctx, Mutation{TxID: "tx-1", Key: "game_keys", Value: []byte(`["a"]`), Signer: "0xabc"})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v)

	v, err = s.Put(ctx, Mutation{TxID: "tx-2", Key: "game_keys", Value: []byte(`["a","b"]`), Signer: "0xabc"})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), v)

	e, err = s.Get(ctx, "game_keys")
	require.NoError(t, err)
	assert.Equal(t, []byte(`["a","b"]`), e.Value)
	assert.Equal(t, uint64(2), e.Version)

	var n int
	require.NoError(t, s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ledger_transactions`).Scan(&n))
	assert.Equal(t, 2, n)
}

func TestSQLite_PutIfVersion(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)

	v, err := s.PutIfVersion(ctx, Mutation{TxID: "tx-1", Key: "k", Value: []byte("a")}, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v)

	_, err = s.PutIfVersion(ctx, Mutation{TxID: "tx-2", Key: "k", Value: []byte("b")}, 0)
	require.ErrorIs(t, err, common.ErrVersionConflict)

	_, err = s.PutIfVersion(ctx, Mutation{TxID: "tx-3", Key: "k", Value: []byte("b")}, 5)
	require.ErrorIs(t, err, common.ErrVersionConflict)

	v, err = s.PutIfVersion(ctx, Mutation{TxID: "tx-4", Key: "k", Value: []byte("b")}, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), v)

	e, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), e.Value)

	// rejected writes leave no transaction row behind
	var n int
	require.NoError(t, s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ledger_transactions`).Scan(&n))
	assert.Equal(t, 2, n)
}

func TestSQLite_Ping(t *testing.T) {
	s := openTestSQLite(t)
	require.NoError(t, s.Ping(context.Background()))
}

func newMockPostgres(t *testing.T) (*SQL, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgres(db), mock
}

func TestPostgres_Put(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO ledger_entries (key, value, version) VALUES ($1, $2, 1)`)).
		WithArgs("game_1", []byte("{}")).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(4))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO ledger_transactions`)).
		WithArgs("tx-1", "game_1", "0xabc", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	v, err := s.Put(context.Background(), Mutation{TxID: "tx-1", Key: "game_1", Value: []byte("{}"), Signer: "0xabc"})
	require.NoError(t, err)
	assert.Equal(t, uint64(4), v)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_PutIfVersion_Conflict(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE ledger_entries SET value = $1`)).
		WithArgs([]byte("[]"), "game_keys", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := s.PutIfVersion(context.Background(), Mutation{TxID: "tx-1", Key: "game_keys", Value: []byte("[]")}, 3)
	require.ErrorIs(t, err, common.ErrVersionConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Get_Error(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value, version FROM ledger_entries`)).
		WithArgs("game_keys").
		WillReturnError(errors.New("connection reset"))

	_, err := s.Get(context.Background(), "game_keys")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "game_keys")
	require.NoError(t, mock.ExpectationsWereMet())
}
