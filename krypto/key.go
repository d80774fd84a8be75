package krypto

import (
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
)

// Key is the symmetric vault key. It doubles as the stored verifier.
type Key []byte

// Equal reports whether both keys hold the same bytes, in constant time.
func (k Key) Equal(other Key) bool {
	if len(k) != len(other) {
		return false
	}
	return subtle.ConstantTimeCompare(k, other) == 1
}

// Clone returns an independent copy, or nil for an empty key.
func (k Key) Clone() Key {
	if len(k) == 0 {
		return nil
	}
	out := make(Key, len(k))
	copy(out, k)
	return out
}

// Wipe zeroes the key in place.
func (k Key) Wipe() {
	zeroize(k)
}

// EncodeVerifier renders the key in the form persisted in the secret store.
func EncodeVerifier(k Key) string {
	return hex.EncodeToString(k)
}

// ParseVerifier decodes a stored verifier back into a key.
func ParseVerifier(s string) (Key, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode verifier: %w", err)
	}
	if len(raw) != KeySize {
		zeroize(raw)
		return nil, errors.New("verifier has unexpected length")
	}
	return Key(raw), nil
}

func zeroize(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}
