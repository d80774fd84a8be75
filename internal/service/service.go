// Package service seals credentials with the session key on their way into the
// record store and opens them on the way out.
package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Hussein-Mazeh/clientvault/internal/common"
	"github.com/Hussein-Mazeh/clientvault/internal/db"
	"github.com/Hussein-Mazeh/clientvault/internal/session"
)

// Records is the record store as seen by the service.
type Records interface {
	InsertRecord(ctx context.Context, r db.AccessRecord) (int64, error)
	UpdateRecord(ctx context.Context, r db.AccessRecord) error
	DeleteRecord(ctx context.Context, id int64) error
	GetRecord(ctx context.Context, id int64) (db.AccessRecord, error)
	SearchRecords(ctx context.Context, query string) ([]db.AccessRecord, error)
	CountRecords(ctx context.Context) (int, error)
}

// Service exposes the vault operations the CLI needs. Passwords are sealed
// with the session key before they reach the store and opened after they
// leave it.
type Service struct {
	sess    *session.Session
	records Records
	log     *zap.Logger
}

// Credential is the plaintext form of an access record.
type Credential struct {
	ClientName string
	Platform   string
	Username   string
	Password   string
	Notes      string
}

// Revealed pairs a record with its opened password. Err is set, and Password
// empty, when that one record could not be decrypted.
type Revealed struct {
	Record   db.AccessRecord
	Password string
	Err      error
}

// New binds a session to a record store.
func New(sess *session.Session, records Records, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{sess: sess, records: records, log: log.Named("service")}
}

func (s *Service) requireUnlocked() error {
	if s.sess == nil || s.sess.State() != session.Unlocked {
		return common.ErrLocked
	}
	return nil
}

func (c Credential) normalized() Credential {
	c.ClientName = strings.TrimSpace(c.ClientName)
	c.Platform = strings.TrimSpace(c.Platform)
	c.Username = strings.TrimSpace(c.Username)
	return c
}

func (c Credential) validate(requirePassword bool) error {
	switch {
	case c.ClientName == "":
		return fmt.Errorf("%w: client name is required", common.ErrInvalidInput)
	case c.Platform == "":
		return fmt.Errorf("%w: platform is required", common.ErrInvalidInput)
	case c.Username == "":
		return fmt.Errorf("%w: username is required", common.ErrInvalidInput)
	case requirePassword && c.Password == "":
		return fmt.Errorf("%w: password cannot be empty", common.ErrInvalidInput)
	}
	return nil
}

// Add seals the password and stores a new record.
func (s *Service) Add(ctx context.Context, c Credential) (int64, error) {
	if err := s.requireUnlocked(); err != nil {
		return 0, err
	}
	c = c.normalized()
	if err := c.validate(true); err != nil {
		return 0, err
	}

	sealed, err := s.sess.Seal(c.Password)
	if err != nil {
		return 0, fmt.Errorf("encrypt: %w", err)
	}

	id, err := s.records.InsertRecord(ctx, db.AccessRecord{
		ClientName:         c.ClientName,
		Platform:           c.Platform,
		Username:           c.Username,
		PasswordCiphertext: sealed,
		Notes:              c.Notes,
	})
	if err != nil {
		return 0, err
	}

	s.log.Info("record added", zap.Int64("id", id))
	return id, nil
}

// Update replaces the record's fields. An empty Password keeps the stored
// ciphertext; any other value is sealed afresh.
func (s *Service) Update(ctx context.Context, id int64, c Credential) error {
	if err := s.requireUnlocked(); err != nil {
		return err
	}
	c = c.normalized()
	if err := c.validate(false); err != nil {
		return err
	}

	cur, err := s.records.GetRecord(ctx, id)
	if err != nil {
		return err
	}

	sealed := cur.PasswordCiphertext
	if c.Password != "" {
		if sealed, err = s.sess.Seal(c.Password); err != nil {
			return fmt.Errorf("encrypt: %w", err)
		}
	}

	if err := s.records.UpdateRecord(ctx, db.AccessRecord{
		ID:                 id,
		ClientName:         c.ClientName,
		Platform:           c.Platform,
		Username:           c.Username,
		PasswordCiphertext: sealed,
		Notes:              c.Notes,
	}); err != nil {
		return err
	}

	s.log.Info("record updated", zap.Int64("id", id))
	return nil
}

// Delete removes a record.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.requireUnlocked(); err != nil {
		return err
	}
	if err := s.records.DeleteRecord(ctx, id); err != nil {
		return err
	}
	s.log.Info("record deleted", zap.Int64("id", id))
	return nil
}

// Search lists records matching query without opening any password.
func (s *Service) Search(ctx context.Context, query string) ([]db.AccessRecord, error) {
	if err := s.requireUnlocked(); err != nil {
		return nil, err
	}
	return s.records.SearchRecords(ctx, query)
}

// Count reports how many records the vault holds.
func (s *Service) Count(ctx context.Context) (int, error) {
	if err := s.requireUnlocked(); err != nil {
		return 0, err
	}
	return s.records.CountRecords(ctx)
}

// Get loads one record without opening its password.
func (s *Service) Get(ctx context.Context, id int64) (db.AccessRecord, error) {
	if err := s.requireUnlocked(); err != nil {
		return db.AccessRecord{}, err
	}
	return s.records.GetRecord(ctx, id)
}

// Reveal opens the password of a single record.
func (s *Service) Reveal(ctx context.Context, id int64) (string, error) {
	if err := s.requireUnlocked(); err != nil {
		return "", err
	}

	rec, err := s.records.GetRecord(ctx, id)
	if err != nil {
		return "", err
	}

	plain, err := s.sess.Open(rec.PasswordCiphertext)
	if err != nil {
		return "", fmt.Errorf("record %d: %w", id, err)
	}
	return plain, nil
}

// RevealAll opens every matching record. A record that fails to decrypt
// carries its own error and does not stop the others.
func (s *Service) RevealAll(ctx context.Context, query string) ([]Revealed, error) {
	recs, err := s.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	out := make([]Revealed, 0, len(recs))
	for _, rec := range recs {
		r := Revealed{Record: rec}
		plain, err := s.sess.Open(rec.PasswordCiphertext)
		if err != nil {
			r.Err = fmt.Errorf("record %d: %w", rec.ID, err)
			s.log.Warn("record could not be decrypted", zap.Int64("id", rec.ID))
		} else {
			r.Password = plain
		}
		out = append(out, r)
	}
	return out, nil
}
