package ledger_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/fhegame/internal/common"
	"github.com/dmitrijs2005/fhegame/internal/ledger"
	"github.com/dmitrijs2005/fhegame/internal/ledger/ledgertest"
	"github.com/dmitrijs2005/fhegame/internal/ledger/storage"
	"github.com/dmitrijs2005/fhegame/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNode_ReadAbsentKeyIsEmpty(t *testing.T) {
	_, node, _ := ledgertest.NewLocal()

	v, ver, err := node.GetVersioned(context.Background(), common.IndexKey)
	require.NoError(t, err)
	assert.Equal(t, []byte{}, v)
	assert.Zero(t, ver)
}

func TestNode_EmptyKey(t *testing.T) {
	_, node, _ := ledgertest.NewLocal()

	_, err := node.Get(context.Background(), "")
	require.ErrorIs(t, err, common.ErrInvalidArgument)

	_, err = node.Set(context.Background(), "", []byte("x"), "0x1|")
	require.ErrorIs(t, err, common.ErrInvalidArgument)
}

func TestNode_Availability(t *testing.T) {
	ctx := context.Background()
	_, node, _ := ledgertest.NewLocal()

	assert.True(t, node.IsAvailable(ctx))

	node.SetAvailable(false)
	assert.False(t, node.IsAvailable(ctx))

	_, err := node.Get(ctx, "k")
	require.ErrorIs(t, err, common.ErrUnavailable)

	_, err = node.Set(ctx, "k", []byte("v"), "0x1|k")
	require.ErrorIs(t, err, common.ErrUnavailable)
}

func TestNode_SetRequiresToken(t *testing.T) {
	ctx := context.Background()
	_, node, mem := ledgertest.NewLocal()

	_, err := node.Set(ctx, "k", []byte("v"), "")
	require.ErrorIs(t, err, common.ErrUnauthenticated)

	_, err = node.Set(ctx, "k", []byte("v"), "0x1|other")
	require.ErrorIs(t, err, common.ErrWriteRejected)
	require.ErrorIs(t, err, common.ErrInvalidSignature)

	c, err := node.Set(ctx, "k", []byte("v"), "0x1|k")
	require.NoError(t, err)
	assert.Equal(t, "k", c.Key)
	assert.NotEmpty(t, c.TxID)

	txs := mem.Transactions()
	require.Len(t, txs, 1)
	assert.Equal(t, "0x1", txs[0].Signer)
	assert.Equal(t, c.TxID, txs[0].TxID)
}

func TestNode_NilAuthorizerAcceptsAll(t *testing.T) {
	node := ledger.NewNode(storage.NewMemory(), nil, logging.Nop())

	_, err := node.Set(context.Background(), "k", []byte("v"), "")
	require.NoError(t, err)
}

func TestNode_SetIfVersion(t *testing.T) {
	ctx := context.Background()
	_, node, _ := ledgertest.NewLocal()

	_, err := node.SetIfVersion(ctx, "k", []byte("a"), "0x1|k", 0)
	require.NoError(t, err)

	_, err = node.SetIfVersion(ctx, "k", []byte("b"), "0x1|k", 0)
	require.ErrorIs(t, err, common.ErrVersionConflict)

	v, ver, err := node.GetVersioned(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), v)
	assert.Equal(t, uint64(1), ver)
}

type failingPing struct{ storage.Storage }

func (failingPing) Ping(context.Context) error { return errors.New("disk gone") }

func TestNode_PingFailureIsUnavailable(t *testing.T) {
	node := ledger.NewNode(failingPing{storage.NewMemory()}, nil, logging.Nop())
	assert.False(t, node.IsAvailable(context.Background()))
}
