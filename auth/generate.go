package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// DefaultGenerateLength is used when a non-positive length is requested.
const DefaultGenerateLength = 16

const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*()_+~`|}{[]:;?><,./-="

// GeneratePassword draws length characters uniformly from charset using the
// system CSPRNG.
func GeneratePassword(length int) (string, error) {
	if length <= 0 {
		length = DefaultGenerateLength
	}

	max := big.NewInt(int64(len(charset)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate password: %w", err)
		}
		out[i] = charset[n.Int64()]
	}
	return string(out), nil
}
