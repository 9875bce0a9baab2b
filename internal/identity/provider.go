package identity

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/dmitrijs2005/fhegame/internal/common"
)

// SelectionStore persists the selected account between runs.
type SelectionStore interface {
	SelectedAccount(ctx context.Context) (string, error)
	SetSelectedAccount(ctx context.Context, address string) error
}

// Provider hands out the connected account and pushes changes to
// subscribers. Subscribers that fall behind only see the latest list.
type Provider struct {
	wallet *Wallet
	store  SelectionStore

	mu       sync.Mutex
	loaded   bool
	selected string
	subs     map[int]chan []string
	nextSub  int
}

// NewProvider builds a provider over w. store may be nil.
func NewProvider(w *Wallet, store SelectionStore) *Provider {
	return &Provider{wallet: w, store: store, subs: make(map[int]chan []string)}
}

// RequestAccounts connects an account if none is connected yet and returns
// the connected accounts, the active one first. It fails with
// common.ErrUnauthenticated when the wallet holds no accounts.
func (p *Provider) RequestAccounts(ctx context.Context) ([]string, error) {
	if err := p.load(ctx); err != nil {
		return nil, err
	}

	p.mu.Lock()
	current := p.selected
	p.mu.Unlock()
	if current != "" {
		return []string{current}, nil
	}

	accounts, err := p.wallet.Accounts()
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("%w: wallet has no accounts", common.ErrUnauthenticated)
	}
	if err := p.Select(ctx, accounts[0]); err != nil {
		return nil, err
	}
	return []string{accounts[0]}, nil
}

// Current returns the connected account or "".
func (p *Provider) Current(ctx context.Context) (string, error) {
	if err := p.load(ctx); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.selected, nil
}

// Select connects address and notifies subscribers.
func (p *Provider) Select(ctx context.Context, address string) error {
	address = strings.ToLower(address)
	if !p.wallet.Has(address) {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, address)
	}
	return p.set(ctx, address)
}

// Disconnect drops the connected account and notifies subscribers with an
// empty list.
func (p *Provider) Disconnect(ctx context.Context) error {
	return p.set(ctx, "")
}

// AccountsChanged subscribes to account changes. The returned func
// unsubscribes and closes the channel.
func (p *Provider) AccountsChanged() (<-chan []string, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextSub
	p.nextSub++
	ch := make(chan []string, 1)
	p.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			delete(p.subs, id)
			close(ch)
		})
	}
}

func (p *Provider) load(ctx context.Context) error {
	p.mu.Lock()
	loaded := p.loaded
	p.mu.Unlock()
	if loaded || p.store == nil {
		return nil
	}

	addr, err := p.store.SelectedAccount(ctx)
	if err != nil {
		return fmt.Errorf("load selected account: %w", err)
	}
	if addr != "" && !p.wallet.Has(addr) {
		addr = ""
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.loaded {
		p.selected = addr
		p.loaded = true
	}
	return nil
}

func (p *Provider) set(ctx context.Context, address string) error {
	if p.store != nil {
		if err := p.store.SetSelectedAccount(ctx, address); err != nil {
			return fmt.Errorf("save selected account: %w", err)
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.loaded = true
	if p.selected == address {
		return nil
	}
	p.selected = address

	accounts := []string{}
	if address != "" {
		accounts = []string{address}
	}
	for _, ch := range p.subs {
		// keep only the newest list in the buffer
		select {
		case <-ch:
		default:
		}
		ch <- slices.Clone(accounts)
	}
	return nil
}
