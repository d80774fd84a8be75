package secretref

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// Keyring stores secrets in the OS keyring (macOS Keychain, Windows Credential
// Manager, Secret Service on Linux).
type Keyring struct {
	service string
}

// NewKeyring returns a keyring-backed Store scoped to service.
func NewKeyring(service string) *Keyring {
	return &Keyring{service: service}
}

// Get retrieves a value from the OS keyring.
func (k *Keyring) Get(key string) (string, bool, error) {
	v, err := keyring.Get(k.service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read keyring item: %w", err)
	}
	return v, true, nil
}

// Set stores a value in the OS keyring, replacing any previous value.
func (k *Keyring) Set(key, value string) error {
	if err := keyring.Set(k.service, key, value); err != nil {
		return fmt.Errorf("write keyring item: %w", err)
	}
	return nil
}
