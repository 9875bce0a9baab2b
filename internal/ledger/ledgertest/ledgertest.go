// Package ledgertest provides in-memory ledgers, signers and failure
// injection for tests of packages built on the ledger capabilities.
package ledgertest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/fhegame/internal/common"
	"github.com/dmitrijs2005/fhegame/internal/ledger"
	"github.com/dmitrijs2005/fhegame/internal/ledger/storage"
	"github.com/dmitrijs2005/fhegame/internal/logging"
	"github.com/dmitrijs2005/fhegame/internal/models"
)

// Signer signs with a plain "<address>|<key>" token, or fails with Err.
type Signer struct {
	Addr string
	Err  error
}

func (s Signer) Address() string { return s.Addr }

func (s Signer) SignWrite(_ context.Context, key string, _ []byte) (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	return s.Addr + "|" + key, nil
}

// Authorizer accepts tokens produced by Signer.
type Authorizer struct{}

func (Authorizer) Authorize(key string, _ []byte, token string) (string, error) {
	addr, k, ok := strings.Cut(token, "|")
	if !ok || k != key {
		return "", common.ErrInvalidSignature
	}
	return addr, nil
}

// NewLocal returns an in-process ledger over fresh memory storage.
func NewLocal() (*ledger.Local, *ledger.Node, *storage.Memory) {
	mem := storage.NewMemory()
	node := ledger.NewNode(mem, Authorizer{}, logging.Nop())
	return ledger.NewLocal(node), node, mem
}

// Flaky wraps a Reader and Writer and injects failures per key. It does
// not expose versions, so callers fall back to last-writer-wins.
type Flaky struct {
	R ledger.Reader
	W ledger.Writer

	mu          sync.Mutex
	unavailable bool
	readErr     map[string]error
	writeErr    map[string]error
	writes      []string
}

func NewFlaky(r ledger.Reader, w ledger.Writer) *Flaky {
	return &Flaky{R: r, W: w, readErr: map[string]error{}, writeErr: map[string]error{}}
}

func (f *Flaky) SetUnavailable(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unavailable = v
}

// FailRead makes reads of key fail with err; a nil err clears it.
func (f *Flaky) FailRead(key string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.readErr, key)
		return
	}
	f.readErr[key] = err
}

// FailWrite makes writes of key fail with err; a nil err clears it.
func (f *Flaky) FailWrite(key string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.writeErr, key)
		return
	}
	f.writeErr[key] = err
}

// Writes returns the keys written successfully, in order.
func (f *Flaky) Writes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.writes...)
}

func (f *Flaky) IsAvailable(ctx context.Context) (bool, error) {
	f.mu.Lock()
	down := f.unavailable
	f.mu.Unlock()
	if down {
		return false, nil
	}
	return f.R.IsAvailable(ctx)
}

func (f *Flaky) Read(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	err := f.readErr[key]
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return f.R.Read(ctx, key)
}

func (f *Flaky) Write(ctx context.Context, key string, value []byte) (models.Commit, error) {
	f.mu.Lock()
	err := f.writeErr[key]
	f.mu.Unlock()
	if err != nil {
		return models.Commit{}, err
	}
	c, err := f.W.Write(ctx, key, value)
	if err != nil {
		return c, err
	}
	f.mu.Lock()
	f.writes = append(f.writes, key)
	f.mu.Unlock()
	return c, nil
}

// ReadWriter is a ledger exposing every capability, such as ledger.Local
// paired with its writer.
type ReadWriter interface {
	ledger.Reader
	ledger.VersionedReader
	ledger.Writer
	ledger.VersionedWriter
}

// Pair joins a reader and a writer into a ReadWriter.
func Pair(l *ledger.Local, w *ledger.LocalWriter) ReadWriter {
	return struct {
		*ledger.Local
		*ledger.LocalWriter
	}{l, w}
}

// Stale wraps a ReadWriter so that the first Remaining versioned reads of
// Key return an old snapshot, simulating a concurrent writer that got in
// between read and compare-and-set.
type Stale struct {
	L ReadWriter

	mu        sync.Mutex
	Key       string
	Value     []byte
	Version   uint64
	Remaining int
}

func (s *Stale) IsAvailable(ctx context.Context) (bool, error) { return s.L.IsAvailable(ctx) }

func (s *Stale) Read(ctx context.Context, key string) ([]byte, error) { return s.L.Read(ctx, key) }

func (s *Stale) ReadVersioned(ctx context.Context, key string) ([]byte, uint64, error) {
	s.mu.Lock()
	if key == s.Key && s.Remaining > 0 {
		s.Remaining--
		v, ver := s.Value, s.Version
		s.mu.Unlock()
		return v, ver, nil
	}
	s.mu.Unlock()
	return s.L.ReadVersioned(ctx, key)
}

func (s *Stale) Write(ctx context.Context, key string, value []byte) (models.Commit, error) {
	return s.L.Write(ctx, key, value)
}

func (s *Stale) WriteIfVersion(ctx context.Context, key string, value []byte, expected uint64) (models.Commit, error) {
	return s.L.WriteIfVersion(ctx, key, value, expected)
}

// MustWrite writes value under key through w or panics.
func MustWrite(ctx context.Context, w ledger.Writer, key string, value string) {
	if _, err := w.Write(ctx, key, []byte(value)); err != nil {
		panic(fmt.Sprintf("ledgertest: write %s: %v", key, err))
	}
}
