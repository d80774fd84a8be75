// Package common holds the error taxonomy shared by the vault packages.
// Packages wrap these sentinels with context; callers match them with errors.Is.
package common

import "errors"

var (
	// ErrAuthentication covers a wrong master password or a rejected biometric prompt.
	ErrAuthentication = errors.New("authentication failed")

	// ErrDecryption means a ciphertext could not be opened with the supplied key.
	ErrDecryption = errors.New("could not decrypt")

	// ErrStoreUnavailable covers a missing store, an uncreatable directory or denied access.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrBackupIntegrity is returned when a backup source or artifact is absent,
	// implausibly small, not a vault store, or could not be copied.
	ErrBackupIntegrity = errors.New("backup integrity failure")

	// session specific errors
	ErrLocked             = errors.New("vault locked")
	ErrNotInitialized     = errors.New("master password not set")
	ErrAlreadyInitialized = errors.New("master password already set")

	// repository specific errors
	ErrNotFound = errors.New("not found")

	ErrInvalidInput = errors.New("invalid input")
)
