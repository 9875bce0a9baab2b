package cli

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/fhegame/internal/client/config"
	"github.com/dmitrijs2005/fhegame/internal/client/journal"
	"github.com/dmitrijs2005/fhegame/internal/common"
	"github.com/dmitrijs2005/fhegame/internal/identity"
	"github.com/dmitrijs2005/fhegame/internal/ledger"
	"github.com/dmitrijs2005/fhegame/internal/ledger/ledgertest"
	"github.com/dmitrijs2005/fhegame/internal/ledger/storage"
	"github.com/dmitrijs2005/fhegame/internal/logging"
	"github.com/dmitrijs2005/fhegame/internal/models"
	"github.com/dmitrijs2005/fhegame/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

type harness struct {
	app   *App
	out   *bytes.Buffer
	flaky *ledgertest.Flaky
	local *ledger.Local
}

// newHarness builds an App over an in-memory ledger that verifies real
// wallet signatures. Passphrases and confirmations are read from input.
func newHarness(t *testing.T, cfg config.Config, input string) *harness {
	t.Helper()
	withTerminal(t, false, nil)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	node := ledger.NewNode(storage.NewMemory(), identity.JWTAuthorizer{}, logging.Nop())
	local := ledger.NewLocal(node)
	flaky := ledgertest.NewFlaky(local, nil)
	writerOf := func(s ledger.Signer) ledger.Writer {
		flaky.W = local.Writer(s)
		return flaky
	}

	repos, err := journal.Open(ctx, filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.Close() })

	wallet, err := identity.OpenWallet(filepath.Join(t.TempDir(), "wallet"))
	require.NoError(t, err)

	out := &bytes.Buffer{}
	a := &App{
		config: &cfg,
		logger: logging.Nop(),
		out:    out,
		in:     rdr(input),
		now:    func() time.Time { return fixedNow },
	}
	st := store.New(flaky, writerOf, logging.Nop(),
		store.WithJournal(repos.Orphans),
		store.WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, a.attach(ctx, flaky, st, wallet, identity.NewProvider(wallet, repos.Metadata)))

	return &harness{app: a, out: out, flaky: flaky, local: local}
}

// signup creates and connects an account with passphrase pw.
func (h *harness) signup(t *testing.T) string {
	t.Helper()
	require.NoError(t, h.app.AccountsNew(context.Background()))
	addr := h.app.account()
	require.NotEmpty(t, addr)
	return addr
}

func TestApp_CreateListReveal(t *testing.T) {
	h := newHarness(t, config.Config{}, "pw\npw\npw\n")
	ctx := context.Background()
	addr := h.signup(t)

	require.NoError(t, h.app.Create(ctx, "Poker", "fold"))
	assert.Contains(t, h.out.String(), "[pending] Initializing FHE game state...")
	assert.Contains(t, h.out.String(), "[ok] FHE game created successfully!")

	recs := h.app.Records()
	require.Len(t, recs, 1, "a successful write reloads the list")
	rec := recs[0]
	assert.Equal(t, "Poker", rec.Category)
	assert.Equal(t, addr, rec.Owner)
	assert.False(t, rec.Revealed)
	assert.True(t, strings.HasPrefix(rec.EncodedState, "FHE-"))
	assert.Equal(t, fixedNow.Unix(), rec.CreatedAt)

	h.out.Reset()
	require.NoError(t, h.app.Reveal(ctx, "#"+rec.ID))
	assert.Contains(t, h.out.String(), "[pending] Revealing game state with FHE...")
	assert.Contains(t, h.out.String(), "[ok] Game revealed with FHE!")

	after := h.app.Records()
	require.Len(t, after, 1)
	want := rec
	want.Revealed = true
	assert.Equal(t, want, after[0])

	h.out.Reset()
	require.NoError(t, h.app.Reveal(ctx, rec.ID))
	assert.Contains(t, h.out.String(), "already revealed")
}

func TestApp_CreateWithoutAccount(t *testing.T) {
	h := newHarness(t, config.Config{}, "")

	err := h.app.Create(context.Background(), "Chess", "e4")
	require.ErrorIs(t, err, common.ErrUnauthenticated)
	assert.Contains(t, h.out.String(), "[error] Please connect an account first")
	assert.NotContains(t, h.out.String(), "[pending]")
}

func TestApp_DeclinedConfirmation(t *testing.T) {
	h := newHarness(t, config.Config{ConfirmWrites: true}, "pw\npw\npw\nn\n")
	h.signup(t)

	err := h.app.Create(context.Background(), "Chess", "e4")
	require.ErrorIs(t, err, common.ErrUserRejected)
	require.ErrorIs(t, err, common.ErrWriteRejected)
	assert.Contains(t, h.out.String(), "[error] Transaction rejected by user")
	assert.Empty(t, h.app.Records())
}

func TestApp_WrongPassphrase(t *testing.T) {
	h := newHarness(t, config.Config{}, "pw\npw\nnope\n")
	h.signup(t)

	err := h.app.Create(context.Background(), "Chess", "e4")
	require.ErrorIs(t, err, identity.ErrWrongPassphrase)
	assert.Contains(t, h.out.String(), "[error] Creation failed: ")
}

func TestApp_RevealRefusedForOtherPlayers(t *testing.T) {
	h := newHarness(t, config.Config{}, "pw\npw\npw\nqq\nqq\n")
	ctx := context.Background()
	h.signup(t)
	require.NoError(t, h.app.Create(ctx, "Poker", "fold"))
	id := h.app.Records()[0].ID

	// second account takes over the session
	require.NoError(t, h.app.AccountsNew(ctx))

	h.out.Reset()
	err := h.app.Reveal(ctx, id)
	require.ErrorIs(t, err, common.ErrWriteRejected)
	assert.Contains(t, h.out.String(), "[error] Reveal failed: ")
	assert.NotContains(t, h.out.String(), "[pending]")
	assert.False(t, h.app.Records()[0].Revealed)
}

func TestApp_RevealUnknown(t *testing.T) {
	h := newHarness(t, config.Config{}, "pw\npw\n")
	h.signup(t)

	err := h.app.Reveal(context.Background(), "nope")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestApp_ListAndStats(t *testing.T) {
	h := newHarness(t, config.Config{}, "pw\npw\npw\n")
	ctx := context.Background()
	h.signup(t)
	require.NoError(t, h.app.Create(ctx, "Poker", "fold"))
	require.NoError(t, h.app.Create(ctx, "Chess", "e4"))
	require.NoError(t, h.app.Reveal(ctx, h.app.Records()[0].ID))

	h.out.Reset()
	require.NoError(t, h.app.List(ctx, ListOptions{Search: "chess", Filter: models.FilterAll, Format: FormatText}))
	assert.Contains(t, h.out.String(), "Chess")
	assert.NotContains(t, h.out.String(), "Poker")

	h.out.Reset()
	require.NoError(t, h.app.List(ctx, ListOptions{Filter: models.FilterRevealed, Format: FormatText}))
	assert.Equal(t, 1, strings.Count(h.out.String(), "REVEALED"))

	h.out.Reset()
	require.NoError(t, h.app.Stats(ctx, FormatJSON))
	assert.JSONEq(t, `{"total":2,"revealed":1,"hidden":1}`, h.out.String())
}

func TestApp_ListUnavailable(t *testing.T) {
	h := newHarness(t, config.Config{}, "")
	h.flaky.SetUnavailable(true)

	err := h.app.List(context.Background(), ListOptions{Format: FormatText})
	require.ErrorIs(t, err, common.ErrUnavailable)
	assert.Contains(t, h.out.String(), "Failed to load games")
}

func TestApp_OrphanThenRepair(t *testing.T) {
	h := newHarness(t, config.Config{}, "pw\npw\npw\n")
	ctx := context.Background()
	h.signup(t)

	h.flaky.FailWrite(common.IndexKey, errors.New("gas exhausted"))
	err := h.app.Create(ctx, "Poker", "fold")
	require.ErrorIs(t, err, common.ErrOrphanedRecord)
	assert.Contains(t, h.out.String(), "run 'repair'")
	assert.Empty(t, h.app.Records())

	h.flaky.FailWrite(common.IndexKey, nil)
	h.out.Reset()
	require.NoError(t, h.app.Repair(ctx))
	assert.Contains(t, h.out.String(), "Reindexed: 1, already indexed: 0, dropped: 0, failed: 0")
	require.Len(t, h.app.Records(), 1)
	assert.Equal(t, "Poker", h.app.Records()[0].Category)
}

func TestApp_Accounts(t *testing.T) {
	h := newHarness(t, config.Config{}, "pw\npw\nx\ny\n")
	ctx := context.Background()

	require.NoError(t, h.app.AccountsList(ctx))
	assert.Contains(t, h.out.String(), "No accounts")

	addr := h.signup(t)

	err := h.app.AccountsNew(ctx)
	require.ErrorIs(t, err, errPassphraseMismatch)

	h.out.Reset()
	require.NoError(t, h.app.AccountsList(ctx))
	assert.Equal(t, "* "+addr+"\n", h.out.String())

	require.NoError(t, h.app.AccountsDisconnect(ctx))
	assert.Empty(t, h.app.account())

	err = h.app.AccountsUse(ctx, "0xdeadbeef")
	require.ErrorIs(t, err, identity.ErrAccountNotFound)
	assert.Empty(t, h.app.account())

	require.NoError(t, h.app.AccountsUse(ctx, "0x"+strings.ToUpper(addr[2:])))
	assert.Equal(t, addr, h.app.account())

	require.NoError(t, h.app.AccountsDisconnect(ctx))
	require.NoError(t, h.app.AccountsUse(ctx, ""))
	assert.Equal(t, addr, h.app.account())
}
