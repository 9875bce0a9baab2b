// Package identity is the signing-identity boundary of the client: an
// encrypted on-disk keystore, a provider that announces the connected
// accounts, the session that tracks the current one, and the write
// signatures the ledger node verifies.
package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/fhegame/internal/cryptox"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrWrongPassphrase = errors.New("wrong passphrase")
)

const keyFileExt = ".json"

// AddressOf derives the account address from an ed25519 public key:
// "0x" followed by the hex of the last 20 bytes of its sha256 digest.
func AddressOf(pub ed25519.PublicKey) string {
	sum := sha256.Sum256(pub)
	return "0x" + hex.EncodeToString(sum[len(sum)-20:])
}

// keyFile is the on-disk form of one account.
type keyFile struct {
	Address    string    `json:"address"`
	PublicKey  []byte    `json:"publicKey"`
	Salt       []byte    `json:"salt"`
	Nonce      []byte    `json:"nonce"`
	Ciphertext []byte    `json:"ciphertext"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Wallet is a directory of passphrase-sealed ed25519 keys, one
// "<address>.json" file per account.
type Wallet struct {
	dir string
}

func OpenWallet(dir string) (*Wallet, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("wallet dir: %w", err)
	}
	return &Wallet{dir: dir}, nil
}

// Create generates a new account sealed with passphrase and returns its
// address.
func (w *Wallet) Create(passphrase []byte) (string, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return "", err
	}
	defer cryptox.Wipe(priv)

	salt, err := cryptox.RandomBytes(cryptox.SaltSize)
	if err != nil {
		return "", err
	}
	key := cryptox.DeriveKey(passphrase, salt)
	defer cryptox.Wipe(key)

	ct, nonce, err := cryptox.Seal(priv.Seed(), key)
	if err != nil {
		return "", err
	}

	kf := keyFile{
		Address:    AddressOf(pub),
		PublicKey:  pub,
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: ct,
		CreatedAt:  time.Now().UTC(),
	}
	raw, err := json.MarshalIndent(kf, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(w.path(kf.Address), raw, 0o600); err != nil {
		return "", fmt.Errorf("write key file: %w", err)
	}
	return kf.Address, nil
}

// Accounts lists the stored addresses in lexical order.
func (w *Wallet) Accounts() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, fmt.Errorf("read wallet: %w", err)
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, keyFileExt) || !strings.HasPrefix(name, "0x") {
			continue
		}
		out = append(out, strings.TrimSuffix(name, keyFileExt))
	}
	slices.Sort(out)
	return out, nil
}

// Has reports whether address is stored, ignoring case.
func (w *Wallet) Has(address string) bool {
	_, err := os.Stat(w.path(address))
	return err == nil
}

// Unlock opens the key of address with passphrase.
func (w *Wallet) Unlock(address string, passphrase []byte) (*Account, error) {
	raw, err := os.ReadFile(w.path(address))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, address)
	}
	if err != nil {
		return nil, err
	}

	var kf keyFile
	if err := json.Unmarshal(raw, &kf); err != nil {
		return nil, fmt.Errorf("key file %s: %w", address, err)
	}

	key := cryptox.DeriveKey(passphrase, kf.Salt)
	defer cryptox.Wipe(key)

	seed, err := cryptox.Open(kf.Ciphertext, kf.Nonce, key)
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	defer cryptox.Wipe(seed)

	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("key file %s: bad seed length", address)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	if AddressOf(priv.Public().(ed25519.PublicKey)) != kf.Address {
		return nil, fmt.Errorf("key file %s: address mismatch", address)
	}
	return &Account{address: kf.Address, priv: priv}, nil
}

func (w *Wallet) path(address string) string {
	return filepath.Join(w.dir, strings.ToLower(address)+keyFileExt)
}
