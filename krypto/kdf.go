package krypto

import (
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// KeySize is the AES-256 key length produced by DeriveKey.
	KeySize = 32
	// KDFIterations is the fixed PBKDF2-HMAC-SHA256 work factor.
	KDFIterations = 210000
)

// appSalt is shared by every installation. Changing it invalidates every stored
// verifier, so any change needs a versioned migration.
var appSalt = []byte("clientvault-embedded-salt-v1")

// DeriveKey turns a master password into the vault key using PBKDF2-HMAC-SHA256
// with the embedded salt. Identical passwords always yield identical keys.
// No policy is applied here; an empty password still produces a key.
func DeriveKey(password string) Key {
	pw := []byte(password)
	defer zeroize(pw)
	return Key(pbkdf2.Key(pw, appSalt, KDFIterations, KeySize, sha256.New))
}
