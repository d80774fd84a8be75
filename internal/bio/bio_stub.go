//go:build !darwin

package bio

import "context"

type platform struct{}

// Available always reports false when biometrics are unsupported.
func (platform) Available() bool { return false }

// Authenticate is unavailable on non-macOS platforms.
func (platform) Authenticate(ctx context.Context, prompt string) (bool, error) {
	return false, ErrUnsupported
}
