package storage

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dmitrijs2005/fhegame/internal/common"
	"github.com/dmitrijs2005/fhegame/internal/logging"
)

const (
	badgerEntryPrefix = "entry/"
	badgerTxPrefix    = "tx/"
	badgerPutAttempts = 3
)

// BadgerConfig configures the embedded badger backend. An empty Dir opens
// an in-memory store.
type BadgerConfig struct {
	Dir        string
	SyncWrites bool
	Logger     logging.Logger
}

// Badger stores each key as "entry/<key>" whose value is an 8-byte
// big-endian version followed by the payload. Applied mutations are kept
// under "tx/<txid>".
type Badger struct {
	db *badger.DB
}

func OpenBadger(cfg BadgerConfig) (*Badger, error) {
	opts := badger.DefaultOptions(cfg.Dir)
	if cfg.Dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.SyncWrites = cfg.SyncWrites
	opts.Logger = nil
	if cfg.Logger != nil {
		opts.Logger = &badgerLogger{log: cfg.Logger.With("module", "badger")}
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Badger{db: db}, nil
}

func (b *Badger) Get(_ context.Context, key string) (Entry, error) {
	var e Entry
	err := b.db.View(func(txn *badger.Txn) error {
		var err error
		e, err = readBadgerEntry(txn, key)
		return err
	})
	if err != nil {
		return Entry{}, fmt.Errorf("failed to get entry[%s]: %w", key, err)
	}
	return e, nil
}

func (b *Badger) Put(_ context.Context, m Mutation) (uint64, error) {
	var (
		version uint64
		err     error
	)
	for range badgerPutAttempts {
		err = b.db.Update(func(txn *badger.Txn) error {
			cur, err := readBadgerEntry(txn, m.Key)
			if err != nil {
				return err
			}
			version = cur.Version + 1
			return writeBadgerEntry(txn, m, version)
		})
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to put entry[%s]: %w", m.Key, err)
	}
	return version, nil
}

func (b *Badger) PutIfVersion(_ context.Context, m Mutation, expected uint64) (uint64, error) {
	err := b.db.Update(func(txn *badger.Txn) error {
		cur, err := readBadgerEntry(txn, m.Key)
		if err != nil {
			return err
		}
		if cur.Version != expected {
			return common.ErrVersionConflict
		}
		return writeBadgerEntry(txn, m, expected+1)
	})
	switch {
	case err == nil:
		return expected + 1, nil
	case errors.Is(err, common.ErrVersionConflict), errors.Is(err, badger.ErrConflict):
		return 0, common.ErrVersionConflict
	default:
		return 0, fmt.Errorf("failed to put entry[%s]: %w", m.Key, err)
	}
}

func (b *Badger) Ping(context.Context) error {
	if b.db.IsClosed() {
		return errors.New("badger is closed")
	}
	return nil
}

func (b *Badger) Close() error {
	return b.db.Close()
}

func readBadgerEntry(txn *badger.Txn, key string) (Entry, error) {
	item, err := txn.Get([]byte(badgerEntryPrefix + key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Entry{}, nil
	}
	if err != nil {
		return Entry{}, err
	}
	raw, err := item.ValueCopy(nil)
	if err != nil {
		return Entry{}, err
	}
	if len(raw) < 8 {
		return Entry{}, fmt.Errorf("corrupt entry %q", key)
	}
	return Entry{Version: binary.BigEndian.Uint64(raw[:8]), Value: raw[8:]}, nil
}

type badgerTxRecord struct {
	Key     string    `json:"key"`
	Signer  string    `json:"signer"`
	Version uint64    `json:"version"`
	At      time.Time `json:"at"`
}

func writeBadgerEntry(txn *badger.Txn, m Mutation, version uint64) error {
	raw := make([]byte, 8+len(m.Value))
	binary.BigEndian.PutUint64(raw[:8], version)
	copy(raw[8:], m.Value)
	if err := txn.Set([]byte(badgerEntryPrefix+m.Key), raw); err != nil {
		return err
	}
	if m.TxID == "" {
		return nil
	}
	rec, err := json.Marshal(badgerTxRecord{Key: m.Key, Signer: m.Signer, Version: version, At: time.Now().UTC()})
	if err != nil {
		return err
	}
	return txn.Set([]byte(badgerTxPrefix+m.TxID), rec)
}

// badgerLogger routes badger's printf-style logging into logging.Logger.
type badgerLogger struct {
	log logging.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.log.Error(context.Background(), fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.log.Warn(context.Background(), fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.log.Debug(context.Background(), fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.log.Debug(context.Background(), fmt.Sprintf(format, args...))
}
