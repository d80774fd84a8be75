//go:build !darwin

package secretref

// The dedicated Keychain backend is only available on macOS.
func newKeychain(service string) (Store, error) {
	return nil, ErrUnsupported
}
