package service_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/Hussein-Mazeh/clientvault/internal/common"
	"github.com/Hussein-Mazeh/clientvault/internal/db"
	"github.com/Hussein-Mazeh/clientvault/internal/secretref"
	"github.com/Hussein-Mazeh/clientvault/internal/service"
	"github.com/Hussein-Mazeh/clientvault/internal/session"
	"github.com/Hussein-Mazeh/clientvault/krypto"
)

type fixture struct {
	svc     *service.Service
	sess    *session.Session
	records *db.DB
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	keyring.MockInit()

	sess, err := session.Open(secretref.NewKeyring("clientvault-service-test"), nil, nil)
	require.NoError(t, err)
	require.NoError(t, sess.Setup("secret1"))
	require.NoError(t, sess.Unlock("secret1"))

	records := db.New(filepath.Join(t.TempDir(), "vault.db"), nil)
	t.Cleanup(func() { _ = records.Close() })

	return fixture{svc: service.New(sess, records, nil), sess: sess, records: records}
}

func TestAddStoresCiphertextOpenableWithSessionKey(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	id, err := f.svc.Add(ctx, service.Credential{
		ClientName: "Acme",
		Platform:   "Mail",
		Username:   "a@acme.com",
		Password:   "Sup3r!",
	})
	require.NoError(t, err)

	stored, err := f.records.GetRecord(ctx, id)
	require.NoError(t, err)
	assert.NotContains(t, stored.PasswordCiphertext, "Sup3r!")

	plain, err := krypto.Open(krypto.DeriveKey("secret1"), stored.PasswordCiphertext)
	require.NoError(t, err)
	assert.Equal(t, "Sup3r!", plain)

	revealed, err := f.svc.Reveal(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Sup3r!", revealed)
}

func TestAddValidatesInput(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	full := service.Credential{ClientName: "Acme", Platform: "Mail", Username: "a", Password: "p"}
	cases := map[string]func(c *service.Credential){
		"client":   func(c *service.Credential) { c.ClientName = "  " },
		"platform": func(c *service.Credential) { c.Platform = "" },
		"username": func(c *service.Credential) { c.Username = "" },
		"password": func(c *service.Credential) { c.Password = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := full
			mutate(&c)
			_, err := f.svc.Add(ctx, c)
			assert.ErrorIs(t, err, common.ErrInvalidInput)
		})
	}

	n, err := f.svc.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUpdateKeepsOrReplacesPassword(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	id, err := f.svc.Add(ctx, service.Credential{ClientName: "Acme", Platform: "Mail", Username: "a", Password: "old"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Update(ctx, id, service.Credential{ClientName: "Acme", Platform: "Webmail", Username: "a", Notes: "moved"}))
	plain, err := f.svc.Reveal(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "old", plain)

	rec, err := f.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Webmail", rec.Platform)
	assert.Equal(t, "moved", rec.Notes)

	require.NoError(t, f.svc.Update(ctx, id, service.Credential{ClientName: "Acme", Platform: "Webmail", Username: "a", Password: "new"}))
	plain, err = f.svc.Reveal(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "new", plain)

	assert.ErrorIs(t, f.svc.Update(ctx, id+100, service.Credential{ClientName: "x", Platform: "y", Username: "z"}), common.ErrNotFound)
}

func TestDeleteAndSearch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for _, c := range []service.Credential{
		{ClientName: "Acme", Platform: "Mail", Username: "a", Password: "1"},
		{ClientName: "Acme", Platform: "Bank", Username: "b", Password: "2"},
		{ClientName: "Globex", Platform: "Mail", Username: "c", Password: "3"},
	} {
		_, err := f.svc.Add(ctx, c)
		require.NoError(t, err)
	}

	acme, err := f.svc.Search(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, acme, 2)
	assert.Equal(t, "Bank", acme[0].Platform, "ordered by client then platform")

	require.NoError(t, f.svc.Delete(ctx, acme[0].ID))
	assert.ErrorIs(t, f.svc.Delete(ctx, acme[0].ID), common.ErrNotFound)

	n, err := f.svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRevealAllIsolatesDecryptionFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	good, err := f.svc.Add(ctx, service.Credential{ClientName: "Acme", Platform: "Mail", Username: "a", Password: "ok"})
	require.NoError(t, err)

	foreign, err := krypto.Seal(krypto.DeriveKey("someone else"), "nope")
	require.NoError(t, err)
	bad, err := f.records.InsertRecord(ctx, db.AccessRecord{ClientName: "Acme", Platform: "Shop", Username: "b", PasswordCiphertext: foreign})
	require.NoError(t, err)

	out, err := f.svc.RevealAll(ctx, "")
	require.NoError(t, err)
	require.Len(t, out, 2)

	byID := map[int64]service.Revealed{}
	for _, r := range out {
		byID[r.Record.ID] = r
	}
	assert.NoError(t, byID[good].Err)
	assert.Equal(t, "ok", byID[good].Password)
	assert.ErrorIs(t, byID[bad].Err, common.ErrDecryption)
	assert.Empty(t, byID[bad].Password)

	_, err = f.svc.Reveal(ctx, bad)
	assert.ErrorIs(t, err, common.ErrDecryption)
}

func TestLockedServiceRefusesEverything(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	id, err := f.svc.Add(ctx, service.Credential{ClientName: "Acme", Platform: "Mail", Username: "a", Password: "p"})
	require.NoError(t, err)

	f.sess.HandleLifecycle(session.Background)

	_, err = f.svc.Add(ctx, service.Credential{ClientName: "Acme", Platform: "Mail", Username: "a", Password: "p"})
	assert.ErrorIs(t, err, common.ErrLocked)
	assert.ErrorIs(t, f.svc.Update(ctx, id, service.Credential{ClientName: "x", Platform: "y", Username: "z"}), common.ErrLocked)
	assert.ErrorIs(t, f.svc.Delete(ctx, id), common.ErrLocked)
	_, err = f.svc.Search(ctx, "")
	assert.ErrorIs(t, err, common.ErrLocked)
	_, err = f.svc.Count(ctx)
	assert.ErrorIs(t, err, common.ErrLocked)
	_, err = f.svc.Reveal(ctx, id)
	assert.ErrorIs(t, err, common.ErrLocked)
	_, err = f.svc.RevealAll(ctx, "")
	assert.ErrorIs(t, err, common.ErrLocked)

	require.NoError(t, f.sess.Unlock("secret1"))
	plain, err := f.svc.Reveal(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "p", plain)
}
