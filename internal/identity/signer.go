package identity

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/fhegame/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// WriteTokenTTL bounds how long a signed write stays acceptable.
const WriteTokenTTL = 5 * time.Minute

// WriteClaims binds a signature to one key and one exact value.
type WriteClaims struct {
	jwt.RegisteredClaims
	Address   string `json:"addr"`
	PublicKey string `json:"pub"`
	Key       string `json:"key"`
	Digest    string `json:"digest"`
}

func valueDigest(value []byte) string {
	sum := sha256.Sum256(value)
	return hex.EncodeToString(sum[:])
}

// Account is an unlocked wallet key. It implements ledger.Signer.
type Account struct {
	address string
	priv    ed25519.PrivateKey
	now     func() time.Time
}

// NewAccount wraps an existing private key.
func NewAccount(priv ed25519.PrivateKey) *Account {
	return &Account{address: AddressOf(priv.Public().(ed25519.PublicKey)), priv: priv}
}

func (a *Account) Address() string { return a.address }

func (a *Account) SignWrite(_ context.Context, key string, value []byte) (string, error) {
	now := time.Now()
	if a.now != nil {
		now = a.now()
	}
	claims := WriteClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   a.address,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(WriteTokenTTL)),
		},
		Address:   a.address,
		PublicKey: base64.RawURLEncoding.EncodeToString(a.priv.Public().(ed25519.PublicKey)),
		Key:       key,
		Digest:    valueDigest(value),
	}
	return jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(a.priv)
}

// ConfirmFunc asks the user whether to sign a write.
type ConfirmFunc func(ctx context.Context, address, key string, value []byte) (bool, error)

// ConfirmingSigner asks before every signature and reports a decline as a
// user rejection.
type ConfirmingSigner struct {
	Account *Account
	Confirm ConfirmFunc
}

func (s *ConfirmingSigner) Address() string { return s.Account.Address() }

func (s *ConfirmingSigner) SignWrite(ctx context.Context, key string, value []byte) (string, error) {
	ok, err := s.Confirm(ctx, s.Account.Address(), key, value)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", common.UserRejected()
	}
	return s.Account.SignWrite(ctx, key, value)
}

// JWTAuthorizer verifies write tokens on the ledger node. The token is
// self-certifying: the embedded public key must hash to the claimed
// address and verify the signature.
type JWTAuthorizer struct{}

func (JWTAuthorizer) Authorize(key string, value []byte, token string) (string, error) {
	claims := &WriteClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		c, ok := t.Claims.(*WriteClaims)
		if !ok {
			return nil, errors.New("unexpected claims")
		}
		pub, err := base64.RawURLEncoding.DecodeString(c.PublicKey)
		if err != nil || len(pub) != ed25519.PublicKeySize {
			return nil, errors.New("bad public key")
		}
		if AddressOf(pub) != c.Address {
			return nil, errors.New("public key does not match address")
		}
		return ed25519.PublicKey(pub), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}), jwt.WithIssuedAt())
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrInvalidSignature, err)
	}
	if !parsed.Valid {
		return "", common.ErrInvalidSignature
	}
	if claims.Key != key {
		return "", fmt.Errorf("%w: signed for key %q", common.ErrInvalidSignature, claims.Key)
	}
	if claims.Digest != valueDigest(value) {
		return "", fmt.Errorf("%w: value digest mismatch", common.ErrInvalidSignature)
	}
	return claims.Address, nil
}
