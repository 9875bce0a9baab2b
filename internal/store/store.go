// Package store is the record store: it creates, lists and reveals game
// records on top of the ledger, the index and the codec, and defines what
// happens when one of the ledger calls fails half way.
package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/fhegame/internal/codec"
	"github.com/dmitrijs2005/fhegame/internal/common"
	"github.com/dmitrijs2005/fhegame/internal/index"
	"github.com/dmitrijs2005/fhegame/internal/ledger"
	"github.com/dmitrijs2005/fhegame/internal/logging"
	"github.com/dmitrijs2005/fhegame/internal/models"
	"github.com/dmitrijs2005/fhegame/internal/query"
)

// ErrNoJournal is returned by Repair when no OrphanJournal is configured.
var ErrNoJournal = errors.New("orphan journal not configured")

// WriterFunc binds the ledger to a signer.
type WriterFunc func(ledger.Signer) ledger.Writer

// Store serialises its operations: at most one ledger call is in flight
// per instance.
type Store struct {
	mu sync.Mutex

	reader   ledger.Reader
	writerOf WriterFunc
	index    *index.Manager
	logger   logging.Logger

	obscurer  codec.Obscurer
	newID     func() (string, error)
	now       func() time.Time
	journal   OrphanJournal
	indexOpts []index.Option

	// ids seen by the previous List, used to spot entries that vanished
	lastIDs map[string]struct{}
}

type Option func(*Store)

func WithObscurer(o codec.Obscurer) Option { return func(s *Store) { s.obscurer = o } }

func WithIDGenerator(fn func() (string, error)) Option { return func(s *Store) { s.newID = fn } }

func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// WithJournal records orphaned records so Repair can re-index them.
func WithJournal(j OrphanJournal) Option { return func(s *Store) { s.journal = j } }

func WithIndexOptions(opts ...index.Option) Option {
	return func(s *Store) { s.indexOpts = append(s.indexOpts, opts...) }
}

func New(r ledger.Reader, writerOf WriterFunc, l logging.Logger, opts ...Option) *Store {
	s := &Store{
		reader:   r,
		writerOf: writerOf,
		logger:   l.With("module", "store"),
		obscurer: codec.SimulatedFHE{},
		newID:    codec.NewIDGenerator().NewID,
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	s.index = index.NewManager(r, l, s.indexOpts...)
	return s
}

// List returns every record reachable from the index, newest first. Ids
// whose body cannot be read or decoded are skipped and logged; only an
// unavailable ledger fails the whole call.
func (s *Store) List(ctx context.Context) ([]models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok, err := s.reader.IsAvailable(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrUnavailable, err)
	}
	if !ok {
		return nil, common.ErrUnavailable
	}

	ids, fresh := s.index.Snapshot(ctx)
	if fresh {
		s.checkRegression(ctx, ids)
	}

	records := make([]models.Record, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			s.logger.Debug(ctx, "duplicate index entry", "id", id)
			continue
		}
		seen[id] = struct{}{}

		r, err := s.read(ctx, id)
		if err != nil {
			s.logger.Warn(ctx, "skipping record", "id", id, "reason", err)
			continue
		}
		records = append(records, r)
	}

	query.SortNewestFirst(records)
	return records, nil
}

// checkRegression warns about ids present on the previous reload that are
// gone now, the visible trace of a lost concurrent index append. It must
// only see an index that was actually read, or the baseline is lost.
func (s *Store) checkRegression(ctx context.Context, ids []string) {
	current := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		current[id] = struct{}{}
	}

	var missing []string
	for id := range s.lastIDs {
		if _, ok := current[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		s.logger.Warn(ctx, "index regression", "missing", strings.Join(missing, ","))
	}
	s.lastIDs = current
}

func (s *Store) read(ctx context.Context, id string) (models.Record, error) {
	raw, err := s.readRaw(ctx, id)
	if err != nil {
		return models.Record{}, err
	}
	return codec.DecodeRecord(id, raw)
}

func (s *Store) readRaw(ctx context.Context, id string) ([]byte, error) {
	raw, err := s.reader.Read(ctx, common.RecordKey(id))
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: %s", common.ErrNotFound, common.RecordKey(id))
	}
	return raw, nil
}

// Create stores a new hidden record owned by signer. The body is written
// before the index entry; when the index append fails the body stays in
// the ledger unreachable and the returned error matches both
// common.ErrOrphanedRecord and the cause.
func (s *Store) Create(ctx context.Context, signer ledger.Signer, category, seed string) (models.Record, error) {
	if signer == nil {
		return models.Record{}, common.ErrUnauthenticated
	}
	category = strings.TrimSpace(category)
	if category == "" {
		return models.Record{}, fmt.Errorf("%w: empty game type", common.ErrInvalidArgument)
	}
	if seed == "" {
		return models.Record{}, fmt.Errorf("%w: empty initial state", common.ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.newID()
	if err != nil {
		return models.Record{}, fmt.Errorf("generate id: %w", err)
	}
	state, err := s.obscurer.Obscure(category, seed)
	if err != nil {
		return models.Record{}, fmt.Errorf("obscure state: %w", err)
	}

	rec := models.Record{
		ID:           id,
		EncodedState: state,
		CreatedAt:    s.now().Unix(),
		Owner:        signer.Address(),
		Category:     category,
		Revealed:     false,
	}
	body, err := codec.EncodeRecord(rec)
	if err != nil {
		return models.Record{}, err
	}

	w := s.writerOf(signer)
	if _, err := w.Write(ctx, common.RecordKey(id), body); err != nil {
		return models.Record{}, fmt.Errorf("write record: %w", err)
	}

	if _, err := s.index.Append(ctx, w, id); err != nil {
		s.logger.Error(ctx, "orphaned record", "id", id, "error", err)
		if s.journal != nil {
			if jerr := s.journal.RecordOrphan(ctx, Orphan{ID: id, Owner: rec.Owner, Cause: err.Error()}); jerr != nil {
				s.logger.Error(ctx, "orphan journal write failed", "id", id, "error", jerr)
			}
		}
		return rec, fmt.Errorf("%w %s: %w", common.ErrOrphanedRecord, id, err)
	}

	s.logger.Info(ctx, "record created", "id", id, "category", category)
	return rec, nil
}

// Reveal marks the record id as revealed. Only the "revealed" member of
// the stored body changes. Ownership is not checked here; revealing twice
// leaves the same end state.
func (s *Store) Reveal(ctx context.Context, signer ledger.Signer, id string) (models.Record, error) {
	if signer == nil {
		return models.Record{}, common.ErrUnauthenticated
	}
	if id == "" {
		return models.Record{}, fmt.Errorf("%w: empty id", common.ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.readRaw(ctx, id)
	if err != nil {
		return models.Record{}, err
	}
	body, err := codec.MarkRevealed(id, raw)
	if err != nil {
		return models.Record{}, err
	}
	rec, err := codec.DecodeRecord(id, body)
	if err != nil {
		return models.Record{}, err
	}
	if _, err := s.writerOf(signer).Write(ctx, common.RecordKey(id), body); err != nil {
		return models.Record{}, fmt.Errorf("write record: %w", err)
	}

	s.logger.Info(ctx, "record revealed", "id", id)
	return rec, nil
}
