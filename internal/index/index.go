// Package index maintains the ordered list of record ids stored under the
// reserved ledger key. The list is the only way records are enumerated.
package index

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/dmitrijs2005/fhegame/internal/codec"
	"github.com/dmitrijs2005/fhegame/internal/common"
	"github.com/dmitrijs2005/fhegame/internal/ledger"
	"github.com/dmitrijs2005/fhegame/internal/logging"
	"github.com/dmitrijs2005/fhegame/internal/models"
)

// DefaultMaxAppendAttempts bounds compare-and-set retries of Append.
const DefaultMaxAppendAttempts = 3

type Manager struct {
	reader      ledger.Reader
	logger      logging.Logger
	maxAttempts int
}

type Option func(*Manager)

// WithMaxAppendAttempts overrides DefaultMaxAppendAttempts; n < 1 is
// treated as 1.
func WithMaxAppendAttempts(n int) Option {
	return func(m *Manager) {
		m.maxAttempts = max(n, 1)
	}
}

func NewManager(r ledger.Reader, l logging.Logger, opts ...Option) *Manager {
	m := &Manager{
		reader:      r,
		logger:      l.With("module", "index"),
		maxAttempts: DefaultMaxAppendAttempts,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Load returns the current ids in append order. It never fails: read and
// decode errors are logged and yield an empty list.
func (m *Manager) Load(ctx context.Context) []string {
	ids, _ := m.Snapshot(ctx)
	return ids
}

// Snapshot is Load that also reports whether the list reflects the stored
// index. ok is false when the read or the decode failed.
func (m *Manager) Snapshot(ctx context.Context) (ids []string, ok bool) {
	raw, err := m.reader.Read(ctx, common.IndexKey)
	if err != nil {
		m.logger.Error(ctx, "index read failed", "error", err)
		return []string{}, false
	}
	ids, err = codec.DecodeIndex(raw)
	if err != nil {
		m.logger.Error(ctx, "index decode failed", "error", err)
		return []string{}, false
	}
	return ids, true
}

func (m *Manager) decode(ctx context.Context, raw []byte) []string {
	ids, err := codec.DecodeIndex(raw)
	if err != nil {
		m.logger.Error(ctx, "index decode failed", "error", err)
		return []string{}
	}
	return ids
}

// Append adds id at the end of the index. When the ledger offers versions
// it uses compare-and-set and re-applies the append on conflict; otherwise
// it is a plain read-modify-write where the last writer wins. Appending an
// id that is already present is a no-op.
func (m *Manager) Append(ctx context.Context, w ledger.Writer, id string) (models.Commit, error) {
	if id == "" {
		return models.Commit{}, fmt.Errorf("%w: empty id", common.ErrInvalidArgument)
	}

	vr, readsVersions := m.reader.(ledger.VersionedReader)
	vw, writesVersions := w.(ledger.VersionedWriter)
	if readsVersions && writesVersions {
		return m.appendCAS(ctx, vr, vw, id)
	}
	return m.appendOverwrite(ctx, w, id)
}

func (m *Manager) appendOverwrite(ctx context.Context, w ledger.Writer, id string) (models.Commit, error) {
	raw, err := m.reader.Read(ctx, common.IndexKey)
	if err != nil {
		return models.Commit{}, fmt.Errorf("read index: %w", err)
	}
	ids := m.decode(ctx, raw)
	if slices.Contains(ids, id) {
		return models.Commit{Key: common.IndexKey}, nil
	}

	b, err := codec.EncodeIndex(append(ids, id))
	if err != nil {
		return models.Commit{}, err
	}
	return w.Write(ctx, common.IndexKey, b)
}

func (m *Manager) appendCAS(ctx context.Context, r ledger.VersionedReader, w ledger.VersionedWriter, id string) (models.Commit, error) {
	for attempt := 1; ; attempt++ {
		raw, version, err := r.ReadVersioned(ctx, common.IndexKey)
		if err != nil {
			return models.Commit{}, fmt.Errorf("read index: %w", err)
		}
		ids := m.decode(ctx, raw)
		if slices.Contains(ids, id) {
			return models.Commit{Key: common.IndexKey}, nil
		}

		b, err := codec.EncodeIndex(append(ids, id))
		if err != nil {
			return models.Commit{}, err
		}

		c, err := w.WriteIfVersion(ctx, common.IndexKey, b, version)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, common.ErrVersionConflict) {
			return models.Commit{}, err
		}

		m.logger.Warn(ctx, "index version conflict", "id", id, "attempt", attempt, "version", version)
		if attempt >= m.maxAttempts {
			return models.Commit{}, fmt.Errorf("append %s after %d attempts: %w", id, attempt, err)
		}
	}
}
