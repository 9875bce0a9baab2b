package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/fhegame/internal/common"
	"github.com/dmitrijs2005/fhegame/internal/ledger"
)

// Orphan is a record whose body was written but whose index append failed.
type Orphan struct {
	ID        string
	Owner     string
	Cause     string
	CreatedAt time.Time
}

// OrphanJournal remembers orphaned records until they are repaired.
type OrphanJournal interface {
	RecordOrphan(ctx context.Context, o Orphan) error
	Orphans(ctx context.Context) ([]Orphan, error)
	ResolveOrphan(ctx context.Context, id string) error
}

// RepairReport summarises one Repair pass.
type RepairReport struct {
	Reindexed []string
	// already present in the index
	Resolved []string
	// body missing or undecodable; forgotten
	Dropped []string
	Failed  []string
}

// Repair re-appends journaled orphans to the index. It only runs when the
// user asks for it. Orphans already indexed or whose body cannot be read
// back are removed from the journal; failed appends stay for the next run.
func (s *Store) Repair(ctx context.Context, signer ledger.Signer) (RepairReport, error) {
	var report RepairReport
	if s.journal == nil {
		return report, ErrNoJournal
	}
	if signer == nil {
		return report, common.ErrUnauthenticated
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ok, err := s.reader.IsAvailable(ctx)
	if err != nil || !ok {
		return report, common.ErrUnavailable
	}

	orphans, err := s.journal.Orphans(ctx)
	if err != nil {
		return report, fmt.Errorf("load orphans: %w", err)
	}
	if len(orphans) == 0 {
		return report, nil
	}

	indexed := s.index.Load(ctx)
	w := s.writerOf(signer)

	var errs []error
	for _, o := range orphans {
		if slices.Contains(indexed, o.ID) {
			report.Resolved = append(report.Resolved, o.ID)
		} else if _, err := s.read(ctx, o.ID); err != nil {
			s.logger.Warn(ctx, "dropping orphan", "id", o.ID, "reason", err)
			report.Dropped = append(report.Dropped, o.ID)
		} else if _, err := s.index.Append(ctx, w, o.ID); err != nil {
			report.Failed = append(report.Failed, o.ID)
			errs = append(errs, fmt.Errorf("reindex %s: %w", o.ID, err))
			continue
		} else {
			indexed = append(indexed, o.ID)
			report.Reindexed = append(report.Reindexed, o.ID)
			s.logger.Info(ctx, "orphan reindexed", "id", o.ID)
		}

		if err := s.journal.ResolveOrphan(ctx, o.ID); err != nil {
			errs = append(errs, fmt.Errorf("resolve %s: %w", o.ID, err))
		}
	}
	return report, errors.Join(errs...)
}

// MemoryJournal is an in-process OrphanJournal.
type MemoryJournal struct {
	mu      sync.Mutex
	orphans []Orphan
}

func (m *MemoryJournal) RecordOrphan(_ context.Context, o Orphan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	m.orphans = append(m.orphans, o)
	return nil
}

func (m *MemoryJournal) Orphans(context.Context) ([]Orphan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.orphans), nil
}

func (m *MemoryJournal) ResolveOrphan(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orphans = slices.DeleteFunc(m.orphans, func(o Orphan) bool { return o.ID == id })
	return nil
}
