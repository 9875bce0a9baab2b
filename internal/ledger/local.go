package ledger

import (
	"context"

	"github.com/dmitrijs2005/fhegame/internal/common"
	"github.com/dmitrijs2005/fhegame/internal/models"
)

// Local is an in-process Reader over a Node.
type Local struct {
	node *Node
}

func NewLocal(n *Node) *Local {
	return &Local{node: n}
}

func (l *Local) IsAvailable(ctx context.Context) (bool, error) {
	return l.node.IsAvailable(ctx), nil
}

func (l *Local) Read(ctx context.Context, key string) ([]byte, error) {
	return l.node.Get(ctx, key)
}

func (l *Local) ReadVersioned(ctx context.Context, key string) ([]byte, uint64, error) {
	return l.node.GetVersioned(ctx, key)
}

// Writer binds the ledger to signer.
func (l *Local) Writer(signer Signer) *LocalWriter {
	return &LocalWriter{node: l.node, signer: signer}
}

// LocalWriter is an in-process Writer that signs every write.
type LocalWriter struct {
	node   *Node
	signer Signer
}

func (w *LocalWriter) Write(ctx context.Context, key string, value []byte) (models.Commit, error) {
	token, err := w.sign(ctx, key, value)
	if err != nil {
		return models.Commit{}, err
	}
	return w.node.Set(ctx, key, value, token)
}

func (w *LocalWriter) WriteIfVersion(ctx context.Context, key string, value []byte, expected uint64) (models.Commit, error) {
	token, err := w.sign(ctx, key, value)
	if err != nil {
		return models.Commit{}, err
	}
	return w.node.SetIfVersion(ctx, key, value, token, expected)
}

func (w *LocalWriter) sign(ctx context.Context, key string, value []byte) (string, error) {
	if w.signer == nil {
		return "", common.ErrUnauthenticated
	}
	token, err := w.signer.SignWrite(ctx, key, value)
	if err != nil {
		return "", SignError(err)
	}
	return token, nil
}
