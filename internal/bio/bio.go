// Package bio exposes the operating system's biometric (or device credential)
// prompt as an opaque capability.
package bio

import (
	"context"
	"errors"
)

// ErrUnsupported signals that biometric authentication is not available on this platform.
var ErrUnsupported = errors.New("biometric authentication not supported on this platform")

// ErrUnavailable signals that the platform supports biometrics but the device
// cannot evaluate the policy right now (no hardware, nothing enrolled, no passcode).
var ErrUnavailable = errors.New("biometric authentication unavailable")

// Authenticator prompts the user and reports whether they passed.
// A rejected or cancelled prompt is (false, nil); err is reserved for
// capability failures.
type Authenticator interface {
	Available() bool
	Authenticate(ctx context.Context, prompt string) (bool, error)
}

// Default returns the platform authenticator.
func Default() Authenticator {
	return platform{}
}
