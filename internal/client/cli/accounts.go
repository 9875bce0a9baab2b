package cli

import (
	"bytes"
	"context"
	"errors"

	"github.com/dmitrijs2005/fhegame/internal/cryptox"
)

var errPassphraseMismatch = errors.New("passphrases do not match")

// AccountsNew creates a key in the wallet and connects it.
func (a *App) AccountsNew(ctx context.Context) error {
	pass, err := a.readPassword("New passphrase: ")
	if err != nil {
		return err
	}
	defer cryptox.Wipe(pass)

	again, err := a.readPassword("Repeat passphrase: ")
	if err != nil {
		return err
	}
	defer cryptox.Wipe(again)

	if !bytes.Equal(pass, again) {
		a.printf("[error] %v\n", errPassphraseMismatch)
		return errPassphraseMismatch
	}

	addr, err := a.wallet.Create(pass)
	if err != nil {
		return err
	}
	a.printf("Created account %s\n", addr)
	return a.AccountsUse(ctx, addr)
}

// AccountsList prints the wallet's accounts, marking the connected one.
func (a *App) AccountsList(ctx context.Context) error {
	accounts, err := a.wallet.Accounts()
	if err != nil {
		return err
	}
	current, err := a.provider.Current(ctx)
	if err != nil {
		return err
	}
	return renderAccounts(a.out, accounts, current)
}

// AccountsUse connects address. With no address the provider picks the
// first wallet account, as a wallet does on its first connection request.
func (a *App) AccountsUse(ctx context.Context, address string) error {
	if address == "" {
		accounts, err := a.provider.RequestAccounts(ctx)
		if err != nil {
			return a.fail("Connect", err)
		}
		address = accounts[0]
	} else if err := a.provider.Select(ctx, address); err != nil {
		return a.fail("Connect", err)
	}
	// the watcher applies this too; setting it here makes the very next
	// command see the new account
	a.session.SetAccount(address)
	a.printf("Connected %s\n", a.account())
	return nil
}

// AccountsDisconnect forgets the connected account.
func (a *App) AccountsDisconnect(ctx context.Context) error {
	if err := a.provider.Disconnect(ctx); err != nil {
		return err
	}
	a.session.SetAccount("")
	a.printf("Disconnected\n")
	return nil
}
