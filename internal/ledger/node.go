package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/dmitrijs2005/fhegame/internal/common"
	"github.com/dmitrijs2005/fhegame/internal/ledger/storage"
	"github.com/dmitrijs2005/fhegame/internal/logging"
	"github.com/dmitrijs2005/fhegame/internal/models"
	"github.com/google/uuid"
)

// Node is the ledger contract over a storage backend: availability, reads,
// and authorized writes. It is safe for concurrent use.
type Node struct {
	storage   storage.Storage
	auth      Authorizer
	log       logging.Logger
	available atomic.Bool
	newTxID   func() string
}

// NewNode builds a node that starts available. A nil Authorizer accepts
// every write and records an empty signer.
func NewNode(s storage.Storage, auth Authorizer, log logging.Logger) *Node {
	n := &Node{
		storage: s,
		auth:    auth,
		log:     log.With("module", "ledger"),
		newTxID: uuid.NewString,
	}
	n.available.Store(true)
	return n
}

// SetAvailable flips the liveness probe, e.g. while draining.
func (n *Node) SetAvailable(v bool) {
	n.available.Store(v)
}

func (n *Node) IsAvailable(ctx context.Context) bool {
	if !n.available.Load() {
		return false
	}
	if err := n.storage.Ping(ctx); err != nil {
		n.log.Warn(ctx, "storage ping failed", "error", err)
		return false
	}
	return true
}

func (n *Node) Get(ctx context.Context, key string) ([]byte, error) {
	v, _, err := n.GetVersioned(ctx, key)
	return v, err
}

func (n *Node) GetVersioned(ctx context.Context, key string) ([]byte, uint64, error) {
	if key == "" {
		return nil, 0, fmt.Errorf("%w: empty key", common.ErrInvalidArgument)
	}
	if !n.available.Load() {
		return nil, 0, common.ErrUnavailable
	}
	e, err := n.storage.Get(ctx, key)
	if err != nil {
		return nil, 0, err
	}
	if e.Value == nil {
		e.Value = []byte{}
	}
	return e.Value, e.Version, nil
}

// Set overwrites key after authorizing token.
func (n *Node) Set(ctx context.Context, key string, value []byte, token string) (models.Commit, error) {
	return n.write(ctx, key, value, token, func(m storage.Mutation) (uint64, error) {
		return n.storage.Put(ctx, m)
	})
}

// SetIfVersion writes only when the stored version equals expected.
func (n *Node) SetIfVersion(ctx context.Context, key string, value []byte, token string, expected uint64) (models.Commit, error) {
	return n.write(ctx, key, value, token, func(m storage.Mutation) (uint64, error) {
		return n.storage.PutIfVersion(ctx, m, expected)
	})
}

func (n *Node) write(ctx context.Context, key string, value []byte, token string, apply func(storage.Mutation) (uint64, error)) (models.Commit, error) {
	if key == "" {
		return models.Commit{}, fmt.Errorf("%w: empty key", common.ErrInvalidArgument)
	}
	if !n.available.Load() {
		return models.Commit{}, common.ErrUnavailable
	}

	signer, err := n.authorize(key, value, token)
	if err != nil {
		n.log.Warn(ctx, "write refused", "key", key, "error", err)
		return models.Commit{}, err
	}

	m := storage.Mutation{TxID: n.newTxID(), Key: key, Value: value, Signer: signer}
	version, err := apply(m)
	if err != nil {
		if !errors.Is(err, common.ErrVersionConflict) {
			n.log.Error(ctx, "write failed", "key", key, "error", err)
		}
		return models.Commit{}, err
	}

	n.log.Info(ctx, "write committed", "tx", m.TxID, "key", key, "signer", signer, "version", version)
	return models.Commit{TxID: m.TxID, Key: key}, nil
}

func (n *Node) authorize(key string, value []byte, token string) (string, error) {
	if n.auth == nil {
		return "", nil
	}
	if token == "" {
		return "", common.ErrUnauthenticated
	}
	addr, err := n.auth.Authorize(key, value, token)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrWriteRejected, err)
	}
	return addr, nil
}
