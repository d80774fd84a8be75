//go:build darwin

// Keychain backend.
//
// Items are GenericPassword entries under the configured service, one account per
// key. They are device-local (not synchronized to iCloud) and readable only while
// the device is unlocked.

package secretref

import (
	"errors"
	"fmt"

	keychain "github.com/keybase/go-keychain"
)

const keychainLabel = "clientvault verifier"

// Keychain stores secrets directly in the macOS Keychain.
type Keychain struct {
	service string
}

func newKeychain(service string) (Store, error) {
	return &Keychain{service: service}, nil
}

// Get reads the item for key. A missing item is reported as ok=false.
func (k *Keychain) Get(key string) (string, bool, error) {
	data, err := keychain.GetGenericPassword(k.service, key, "", "")
	if err != nil {
		if errors.Is(err, keychain.ErrorItemNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read keychain item: %w", err)
	}
	if len(data) == 0 {
		return "", false, nil
	}
	return string(data), true, nil
}

// Set adds the item, or updates it in place when it already exists.
func (k *Keychain) Set(key, value string) error {
	item := keychain.NewGenericPassword(k.service, key, keychainLabel, []byte(value), "")
	item.SetSynchronizable(keychain.SynchronizableNo)
	item.SetAccessible(keychain.AccessibleWhenUnlockedThisDeviceOnly)

	err := keychain.AddItem(item)
	if err == nil {
		return nil
	}
	if !errors.Is(err, keychain.ErrorDuplicateItem) {
		return fmt.Errorf("add keychain item: %w", err)
	}

	query := keychain.NewGenericPassword(k.service, key, "", nil, "")
	update := keychain.NewItem()
	update.SetData([]byte(value))
	if err := keychain.UpdateItem(query, update); err != nil {
		return fmt.Errorf("update keychain item: %w", err)
	}
	return nil
}
