package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/fhegame/internal/client/config"
	"github.com/dmitrijs2005/fhegame/internal/client/journal"
	"github.com/dmitrijs2005/fhegame/internal/cryptox"
	"github.com/dmitrijs2005/fhegame/internal/filex"
	"github.com/dmitrijs2005/fhegame/internal/identity"
	"github.com/dmitrijs2005/fhegame/internal/ledger"
	"github.com/dmitrijs2005/fhegame/internal/ledger/ledgergrpc"
	"github.com/dmitrijs2005/fhegame/internal/ledger/storage"
	"github.com/dmitrijs2005/fhegame/internal/logging"
	"github.com/dmitrijs2005/fhegame/internal/models"
	"github.com/dmitrijs2005/fhegame/internal/store"
)

// App is one client session: a record store bound to a ledger, the
// identity provider and the terminal it talks to.
type App struct {
	config *config.Config
	logger logging.Logger
	out    io.Writer
	in     *bufio.Reader
	now    func() time.Time

	reader   ledger.Reader
	store    *store.Store
	wallet   *identity.Wallet
	provider *identity.Provider
	session  *identity.Session

	mu      sync.Mutex
	records []models.Record

	closers []func() error
}

// NewApp opens the journal and wallet, connects the ledger and restores the
// previously selected account. The caller must Close the App.
func NewApp(ctx context.Context, c *config.Config, l logging.Logger, in io.Reader, out io.Writer) (*App, error) {
	a := &App{
		config: c,
		logger: l.With("module", "cli"),
		out:    out,
		in:     bufio.NewReader(in),
		now:    time.Now,
	}

	if _, err := filex.EnsureDir(c.WalletDir); err != nil {
		return nil, err
	}
	if err := filex.EnsureParent(c.JournalDSN); err != nil {
		return nil, err
	}

	repos, err := journal.Open(ctx, c.JournalDSN)
	if err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}
	a.closers = append(a.closers, repos.Close)

	wallet, err := identity.OpenWallet(c.WalletDir)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("wallet: %w", err)
	}

	reader, writerOf, closeLedger, err := connectLedger(ctx, c, l)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.closers = append(a.closers, closeLedger)

	st := store.New(reader, writerOf, l, store.WithJournal(repos.Orphans))
	if err := a.attach(ctx, reader, st, wallet, identity.NewProvider(wallet, repos.Metadata)); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

// attach binds the domain collaborators and starts following account
// changes.
func (a *App) attach(ctx context.Context, r ledger.Reader, st *store.Store, w *identity.Wallet, p *identity.Provider) error {
	a.reader = r
	a.store = st
	a.wallet = w
	a.provider = p
	a.session = identity.NewSession(a.unlock)

	current, err := p.Current(ctx)
	if err != nil {
		return err
	}
	a.session.SetAccount(current)
	a.session.Watch(ctx, p)
	return nil
}

// connectLedger returns the read capability, a signed-writer factory and a
// closer for the ledger named by c.LedgerAddr.
func connectLedger(ctx context.Context, c *config.Config, l logging.Logger) (ledger.Reader, store.WriterFunc, func() error, error) {
	if c.IsLocal() {
		if err := filex.EnsureParent(c.LocalPath()); err != nil {
			return nil, nil, nil, err
		}
		s, err := storage.OpenSQLite(ctx, c.LocalPath())
		if err != nil {
			return nil, nil, nil, fmt.Errorf("local ledger: %w", err)
		}
		local := ledger.NewLocal(ledger.NewNode(s, identity.JWTAuthorizer{}, l))
		return local, func(sg ledger.Signer) ledger.Writer { return local.Writer(sg) }, s.Close, nil
	}

	client, err := ledgergrpc.NewClient(c.LedgerAddr, l)
	if err != nil {
		return nil, nil, nil, err
	}
	waitCtx, cancel := context.WithTimeout(ctx, c.DialTimeout)
	defer cancel()
	if err := client.WaitReady(waitCtx); err != nil {
		// reads report the ledger as unavailable until it comes up
		l.Warn(ctx, "ledger not ready", "addr", c.LedgerAddr, "error", err)
	}
	return client, func(sg ledger.Signer) ledger.Writer { return client.Writer(sg) }, client.Close, nil
}

// Close releases the ledger connection and the journal.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// unlock asks for the passphrase of address. With ConfirmWrites the
// account is wrapped so every signature needs a yes.
func (a *App) unlock(ctx context.Context, address string) (ledger.Signer, error) {
	pass, err := a.readPassword(fmt.Sprintf("Passphrase for %s: ", address))
	if err != nil {
		return nil, err
	}
	defer cryptox.Wipe(pass)

	acc, err := a.wallet.Unlock(address, pass)
	if err != nil {
		return nil, err
	}
	if a.config.ConfirmWrites {
		return &identity.ConfirmingSigner{Account: acc, Confirm: a.confirm}, nil
	}
	return acc, nil
}

func (a *App) confirm(_ context.Context, address, key string, value []byte) (bool, error) {
	prompt := fmt.Sprintf("Sign write of %d bytes to %q as %s? [y/N]", len(value), key, address)
	return GetConfirmation(a.in, prompt, a.out)
}

func (a *App) readPassword(prompt string) ([]byte, error) {
	return GetPassword(a.in, prompt, a.out)
}

// account returns the connected address or "".
func (a *App) account() string {
	return a.session.Address()
}

// Records returns the last loaded snapshot.
func (a *App) Records() []models.Record {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]models.Record(nil), a.records...)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// stdinFd is the descriptor handed to term.ReadPassword.
var stdinFd = func() int { return int(os.Stdin.Fd()) }
