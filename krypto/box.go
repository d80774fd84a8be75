package krypto

import (
	"encoding/base64"
	"fmt"

	"github.com/Hussein-Mazeh/clientvault/internal/common"
)

// gcmTagSize is the authentication tag appended by GCM.
const gcmTagSize = 16

// recordAAD binds sealed values to their use as stored record secrets.
var recordAAD = []byte("clientvault.record.v1")

// Seal encrypts a secret string into a self-contained text blob:
// base64(nonce || ciphertext || tag). Open needs only the key to reverse it.
func Seal(key Key, plaintext string) (string, error) {
	nonce, ciphertext, err := EncryptAESGCM(key, []byte(plaintext), recordAAD)
	if err != nil {
		return "", fmt.Errorf("seal: %w", err)
	}

	blob := make([]byte, 0, len(nonce)+len(ciphertext))
	blob = append(blob, nonce...)
	blob = append(blob, ciphertext...)
	return base64.StdEncoding.EncodeToString(blob), nil
}

// Open reverses Seal. Any failure, including a wrong key or a tampered blob,
// is reported as common.ErrDecryption rather than returning garbage.
func Open(key Key, sealed string) (string, error) {
	blob, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("%w: malformed ciphertext encoding", common.ErrDecryption)
	}
	if len(blob) < gcmNonceSize+gcmTagSize {
		return "", fmt.Errorf("%w: ciphertext too short", common.ErrDecryption)
	}

	plaintext, err := DecryptAESGCM(key, blob[:gcmNonceSize], blob[gcmNonceSize:], recordAAD)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrDecryption, err)
	}
	return string(plaintext), nil
}
