package identity

import (
	"context"
	"strings"
	"sync"

	"github.com/dmitrijs2005/fhegame/internal/common"
	"github.com/dmitrijs2005/fhegame/internal/ledger"
)

// Unlocker turns an address into a usable signer, typically by prompting
// for the passphrase.
type Unlocker func(ctx context.Context, address string) (ledger.Signer, error)

// Session tracks the current identity. Changes pushed by a Provider are
// applied asynchronously; an operation that already obtained its signer
// keeps using it.
type Session struct {
	unlock Unlocker

	mu      sync.RWMutex
	address string
	signer  ledger.Signer
}

func NewSession(unlock Unlocker) *Session {
	return &Session{unlock: unlock}
}

// Address returns the current account or "".
func (s *Session) Address() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.address
}

// SetAccount switches the current identity. The cached signer is dropped
// when the account changes.
func (s *Session) SetAccount(address string) {
	address = strings.ToLower(address)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.address == address {
		return
	}
	s.address = address
	s.signer = nil
}

// Watch applies account changes from p until ctx is done. It returns once
// the subscription is in place.
func (s *Session) Watch(ctx context.Context, p *Provider) {
	ch, cancel := p.AccountsChanged()
	go func() {
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case accounts, ok := <-ch:
				if !ok {
					return
				}
				if len(accounts) == 0 {
					s.SetAccount("")
				} else {
					s.SetAccount(accounts[0])
				}
			}
		}
	}()
}

// Signer returns the signer of the current account, unlocking it on first
// use. It fails with common.ErrUnauthenticated when nothing is connected.
func (s *Session) Signer(ctx context.Context) (ledger.Signer, error) {
	s.mu.RLock()
	address, signer := s.address, s.signer
	s.mu.RUnlock()

	if address == "" {
		return nil, common.ErrUnauthenticated
	}
	if signer != nil {
		return signer, nil
	}
	if s.unlock == nil {
		return nil, common.ErrUnauthenticated
	}

	signer, err := s.unlock(ctx, address)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.address == address {
		s.signer = signer
	}
	s.mu.Unlock()
	return signer, nil
}
