// Package session implements the vault's lock/unlock state machine. A Session is
// the only long-lived owner of the master key; every other component borrows it
// through Seal and Open or a short-lived CurrentKey copy.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Hussein-Mazeh/clientvault/internal/bio"
	"github.com/Hussein-Mazeh/clientvault/internal/common"
	"github.com/Hussein-Mazeh/clientvault/internal/secretref"
	"github.com/Hussein-Mazeh/clientvault/krypto"
)

// BiometricPrompt is shown by the OS sheet during BiometricUnlock.
const BiometricPrompt = "Unlock your vault"

// State is the position of the session in its state machine.
type State int

const (
	Uninitialized State = iota
	Locked
	Unlocked
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Locked:
		return "locked"
	case Unlocked:
		return "unlocked"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Session owns the in-memory key. The zero value is not usable; call Open.
type Session struct {
	mu        sync.Mutex
	secrets   secretref.Store
	auth      bio.Authenticator
	log       *zap.Logger
	hasMaster bool
	key       krypto.Key // non-nil only while unlocked
}

// Open binds a session to its capabilities and reads whether a master password
// has been set. A fresh session is never unlocked.
func Open(secrets secretref.Store, auth bio.Authenticator, log *zap.Logger) (*Session, error) {
	if secrets == nil {
		return nil, errors.New("secret store is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	_, ok, err := secrets.Get(secretref.VerifierKey)
	if err != nil {
		return nil, fmt.Errorf("read verifier: %w", err)
	}

	return &Session{
		secrets:   secrets,
		auth:      auth,
		log:       log.Named("session"),
		hasMaster: ok,
	}, nil
}

// State reports the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() State {
	switch {
	case !s.hasMaster:
		return Uninitialized
	case s.key == nil:
		return Locked
	default:
		return Unlocked
	}
}

// HasMasterPassword reports whether Setup has ever completed. Once true it stays true.
func (s *Session) HasMasterPassword() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasMaster
}

// Setup derives the key for password and persists it as the verifier.
// The session moves from Uninitialized to Locked; the caller unlocks next.
func (s *Session) Setup(password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasMaster {
		return common.ErrAlreadyInitialized
	}

	key := krypto.DeriveKey(password)
	defer key.Wipe()

	if err := s.secrets.Set(secretref.VerifierKey, krypto.EncodeVerifier(key)); err != nil {
		return fmt.Errorf("persist verifier: %w", err)
	}

	s.hasMaster = true
	s.log.Info("master password configured")
	return nil
}

// Unlock compares the key derived from password against the stored verifier and
// keeps it in memory on a match. A mismatch leaves the session as it was.
// Failed attempts are not counted or throttled.
func (s *Session) Unlock(password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	verifier, err := s.loadVerifier()
	if err != nil {
		return err
	}
	defer verifier.Wipe()

	candidate := krypto.DeriveKey(password)
	if !candidate.Equal(verifier) {
		candidate.Wipe()
		s.log.Warn("unlock rejected")
		return common.ErrAuthentication
	}

	s.setKey(candidate)
	s.log.Info("vault unlocked", zap.String("method", "password"))
	return nil
}

// BiometricUnlock asks the OS authenticator to vouch for the user and, on
// success, adopts the stored verifier as the key without a password.
func (s *Session) BiometricUnlock(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	verifier, err := s.loadVerifier()
	if err != nil {
		return err
	}

	if s.auth == nil {
		verifier.Wipe()
		return fmt.Errorf("%w: %w", common.ErrAuthentication, bio.ErrUnsupported)
	}

	ok, err := s.auth.Authenticate(ctx, BiometricPrompt)
	if err != nil {
		verifier.Wipe()
		return fmt.Errorf("%w: %w", common.ErrAuthentication, err)
	}
	if !ok {
		verifier.Wipe()
		s.log.Warn("biometric unlock rejected")
		return common.ErrAuthentication
	}

	s.setKey(verifier)
	s.log.Info("vault unlocked", zap.String("method", "biometric"))
	return nil
}

// Lock wipes and forgets the key. It is safe to call in any state.
func (s *Session) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.key != nil {
		s.log.Info("vault locked")
	}
	s.setKey(nil)
}

// CurrentKey returns a copy of the key while unlocked and nil otherwise.
// The caller must Wipe the copy and must not retain it.
func (s *Session) CurrentKey() krypto.Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key.Clone()
}

// Seal encrypts plaintext with the session key.
func (s *Session) Seal(plaintext string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.key == nil {
		return "", common.ErrLocked
	}
	return krypto.Seal(s.key, plaintext)
}

// Open decrypts a value produced by Seal with the session key.
func (s *Session) Open(sealed string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.key == nil {
		return "", common.ErrLocked
	}
	return krypto.Open(s.key, sealed)
}

// loadVerifier must be called with s.mu held.
func (s *Session) loadVerifier() (krypto.Key, error) {
	if !s.hasMaster {
		return nil, common.ErrNotInitialized
	}

	stored, ok, err := s.secrets.Get(secretref.VerifierKey)
	if err != nil {
		return nil, fmt.Errorf("read verifier: %w", err)
	}
	if !ok {
		return nil, common.ErrNotInitialized
	}

	verifier, err := krypto.ParseVerifier(stored)
	if err != nil {
		return nil, fmt.Errorf("%w: stored verifier is corrupt: %v", common.ErrAuthentication, err)
	}
	return verifier, nil
}

// setKey must be called with s.mu held. It takes ownership of key.
func (s *Session) setKey(key krypto.Key) {
	if s.key != nil {
		s.key.Wipe()
	}
	s.key = key
}
