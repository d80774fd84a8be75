// Package krypto holds the vault's cryptographic primitives.
//
// Key derivation uses PBKDF2-HMAC-SHA256 over a fixed, application-embedded salt,
// so the same master password always produces the same 32-byte key.
//
// Secrets are sealed with AES-256-GCM. The 12-byte random nonce is prepended to
// the ciphertext and the whole blob is base64 encoded, so a sealed string is
// self-contained and only the key is needed to open it.
package krypto
