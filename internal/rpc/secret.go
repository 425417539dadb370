package rpc

import (
	"crypto/rand"
	"encoding/hex"
	"errors"

	"github.com/zalando/go-keyring"

	"github.com/manav03panchal/clockset/internal/config"
)

// Keyring stores the bearer secret for the HTTP endpoints in the OS
// keychain.
type Keyring struct {
	AppName  string
	KeyField string
}

var (
	keyringSet    = keyring.Set
	keyringGet    = keyring.Get
	keyringDelete = keyring.Delete
	randRead      = rand.Read
)

// NewKeyring returns the keyring entry used by the daemon.
func NewKeyring() *Keyring {
	return &Keyring{
		AppName:  config.AppName,
		KeyField: "rpc-secret",
	}
}

// SetKey generates a new 32-byte secret, stores it hex-encoded and returns
// the stored form.
func (k *Keyring) SetKey() (string, error) {
	key := make([]byte, 32)
	if _, err := randRead(key); err != nil {
		return "", err
	}
	secret := hex.EncodeToString(key)
	if err := keyringSet(k.AppName, k.KeyField, secret); err != nil {
		return "", err
	}
	return secret, nil
}

// GetKey returns the stored secret.
func (k *Keyring) GetKey() (string, error) {
	return keyringGet(k.AppName, k.KeyField)
}

// DeleteKey removes the stored secret.
func (k *Keyring) DeleteKey() error {
	return keyringDelete(k.AppName, k.KeyField)
}

// EnsureKey returns the stored secret, creating one on first use.
func (k *Keyring) EnsureKey() (string, error) {
	secret, err := k.GetKey()
	if err == nil && secret != "" {
		return secret, nil
	}
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return "", err
	}
	return k.SetKey()
}
