// Package secretref persists the vault verifier outside the record store, in the
// operating system's secure key-value storage.
package secretref

import (
	"errors"
	"fmt"
	"strings"
)

// VerifierKey is the only key the vault reads or writes.
const VerifierKey = "master_key_verifier"

const (
	BackendKeyring  = "keyring"
	BackendKeychain = "keychain"
)

// ErrUnsupported signals that the requested backend is not available on this platform.
var ErrUnsupported = errors.New("secret backend not supported on this platform")

// Store is an opaque secure key-value capability.
// Get reports ok=false when the key has never been set.
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

// Open returns the Store for the named backend. service scopes the stored items.
func Open(backend, service string) (Store, error) {
	service = strings.TrimSpace(service)
	if service == "" {
		return nil, errors.New("secret service name is required")
	}

	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendKeyring:
		return NewKeyring(service), nil
	case BackendKeychain:
		return newKeychain(service)
	default:
		return nil, fmt.Errorf("unknown secret backend %q", backend)
	}
}
