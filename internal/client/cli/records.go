package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/fhegame/internal/common"
	"github.com/dmitrijs2005/fhegame/internal/models"
	"github.com/dmitrijs2005/fhegame/internal/query"
	"github.com/dmitrijs2005/fhegame/internal/store"
)

// ListOptions narrows and formats the record list.
type ListOptions struct {
	Search string
	Filter models.RevealFilter
	Format Format
}

// reload replaces the snapshot with a full List from the ledger.
func (a *App) reload(ctx context.Context) error {
	records, err := a.store.List(ctx)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.records = records
	a.mu.Unlock()
	return nil
}

// List reloads the records and prints the ones matching opts.
func (a *App) List(ctx context.Context, opts ListOptions) error {
	if err := a.reload(ctx); err != nil {
		a.printf("Failed to load games: %v\n", err)
		return err
	}
	shown := query.Filter(a.Records(), opts.Search, opts.Filter)
	return renderRecords(a.out, opts.Format, a.account(), shown, a.now())
}

// Stats reloads the records and prints their counts.
func (a *App) Stats(ctx context.Context, f Format) error {
	if err := a.reload(ctx); err != nil {
		a.printf("Failed to load games: %v\n", err)
		return err
	}
	return renderStats(a.out, f, query.Statistics(a.Records()))
}

// Create stores a new hidden game and reloads the list.
func (a *App) Create(ctx context.Context, category, seed string) error {
	const op = "Creation"

	signer, err := a.session.Signer(ctx)
	if err != nil {
		return a.fail(op, err)
	}

	a.pending("Initializing FHE game state...")
	rec, err := a.store.Create(ctx, signer, category, seed)
	if err != nil {
		a.fail(op, err)
		if errors.Is(err, common.ErrOrphanedRecord) {
			a.printf("Game %s was stored but is not listed yet; run 'repair' to index it.\n", rec.ID)
		}
		return err
	}

	a.success(fmt.Sprintf("FHE game created successfully! (id %s)", rec.ID))
	return a.reloadAfterWrite(ctx)
}

// Reveal flips a game the connected account owns to revealed and reloads
// the list. Games owned by someone else are refused before anything is
// signed.
func (a *App) Reveal(ctx context.Context, id string) error {
	const op = "Reveal"
	id = strings.TrimPrefix(strings.TrimSpace(id), "#")

	rec, err := a.find(ctx, id)
	if err != nil {
		return a.fail(op, err)
	}
	if rec.Revealed {
		a.printf("Game %s is already revealed.\n", id)
		return nil
	}
	if !query.CanReveal(a.account(), rec) {
		return a.fail(op, fmt.Errorf("%w: only the player %s can reveal game %s", common.ErrWriteRejected, rec.Owner, id))
	}

	signer, err := a.session.Signer(ctx)
	if err != nil {
		return a.fail(op, err)
	}

	a.pending("Revealing game state with FHE...")
	if _, err := a.store.Reveal(ctx, signer, id); err != nil {
		return a.fail(op, err)
	}

	a.success("Game revealed with FHE!")
	return a.reloadAfterWrite(ctx)
}

// Repair re-indexes orphaned games from the journal.
func (a *App) Repair(ctx context.Context) error {
	const op = "Repair"

	signer, err := a.session.Signer(ctx)
	if err != nil {
		return a.fail(op, err)
	}

	a.pending("Re-indexing orphaned games...")
	report, err := a.store.Repair(ctx, signer)
	a.printf("Reindexed: %d, already indexed: %d, dropped: %d, failed: %d\n",
		len(report.Reindexed), len(report.Resolved), len(report.Dropped), len(report.Failed))
	if err != nil {
		return a.fail(op, err)
	}

	a.success("Repair finished")
	if len(report.Reindexed) == 0 {
		return nil
	}
	return a.reloadAfterWrite(ctx)
}

// find looks id up in a fresh snapshot.
func (a *App) find(ctx context.Context, id string) (models.Record, error) {
	if err := a.reload(ctx); err != nil {
		return models.Record{}, err
	}
	for _, r := range a.Records() {
		if r.ID == id {
			return r, nil
		}
	}
	return models.Record{}, fmt.Errorf("%w: game %s", common.ErrNotFound, id)
}

func (a *App) reloadAfterWrite(ctx context.Context) error {
	if err := a.reload(ctx); err != nil {
		a.logger.Warn(ctx, "reload after write failed", "error", err)
		a.printf("Failed to reload games: %v\n", err)
	}
	return nil
}

func (a *App) pending(msg string) { a.printf("[pending] %s\n", msg) }
func (a *App) success(msg string) { a.printf("[ok] %s\n", msg) }

// fail prints the user-facing status for err and returns it.
func (a *App) fail(op string, err error) error {
	a.printf("[error] %s\n", failureMessage(op, err))
	return err
}

func failureMessage(op string, err error) string {
	switch {
	case errors.Is(err, common.ErrUserRejected):
		return "Transaction rejected by user"
	case errors.Is(err, common.ErrUnauthenticated):
		return "Please connect an account first (accounts new / accounts use)"
	case errors.Is(err, store.ErrNoJournal):
		return op + " failed: no local journal"
	default:
		return op + " failed: " + err.Error()
	}
}
