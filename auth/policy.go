package auth

import (
	"fmt"
	"unicode/utf8"

	"github.com/Hussein-Mazeh/clientvault/internal/common"
)

// DefaultMinLength is the master password floor when none is configured.
const DefaultMinLength = 8

// ValidateMasterPassword enforces the minimum length at setup. Composition is
// not policed; Estimate gives advisory feedback instead.
func ValidateMasterPassword(pw string, minLen int) error {
	if minLen <= 0 {
		minLen = DefaultMinLength
	}
	if n := utf8.RuneCountInString(pw); n < minLen {
		return fmt.Errorf("%w: password must be at least %d characters long", common.ErrInvalidInput, minLen)
	}
	return nil
}
