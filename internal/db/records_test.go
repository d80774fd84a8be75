package db_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Hussein-Mazeh/clientvault/internal/common"
	"github.com/Hussein-Mazeh/clientvault/internal/db"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func openTestDB(t *testing.T) *db.DB {
	t.Helper()
	d := db.New(filepath.Join(t.TempDir(), "SQLite", "vault.db"), nil)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func record(client, platform string) db.AccessRecord {
	return db.AccessRecord{
		ClientName:         client,
		Platform:           platform,
		Username:           "user@" + platform,
		PasswordCiphertext: "c2VhbGVk",
		Notes:              "n",
	}
}

func TestOpensLazily(t *testing.T) {
	d := openTestDB(t)
	assert.False(t, d.IsOpen())
	_, err := os.Stat(d.Path())
	assert.ErrorIs(t, err, os.ErrNotExist)

	n, err := d.CountRecords(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.True(t, d.IsOpen())

	if runtime.GOOS != "windows" {
		info, err := os.Stat(d.Path())
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}
}

func TestInsertGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)

	before := time.Now().UTC().Truncate(time.Second)
	in := record("Acme", "Mail")
	in.CreatedAt = time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)
	id, err := d.InsertRecord(ctx, in)
	require.NoError(t, err)
	assert.Positive(t, id)

	got, err := d.GetRecord(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "Acme", got.ClientName)
	assert.Equal(t, "Mail", got.Platform)
	assert.Equal(t, "user@Mail", got.Username)
	assert.Equal(t, "c2VhbGVk", got.PasswordCiphertext)
	assert.Equal(t, "n", got.Notes)
	assert.False(t, got.CreatedAt.Before(before), "created_at is stamped on insert")
}

func TestUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)

	id, err := d.InsertRecord(ctx, record("Acme", "Mail"))
	require.NoError(t, err)

	upd := record("Acme Corp", "Webmail")
	upd.ID = id
	upd.Notes = ""
	require.NoError(t, d.UpdateRecord(ctx, upd))

	got, err := d.GetRecord(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", got.ClientName)
	assert.Equal(t, "Webmail", got.Platform)
	assert.Empty(t, got.Notes)

	require.NoError(t, d.DeleteRecord(ctx, id))
	_, err = d.GetRecord(ctx, id)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestMissingRecordIsNotFound(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)

	_, err := d.GetRecord(ctx, 42)
	assert.ErrorIs(t, err, common.ErrNotFound)

	missing := record("x", "y")
	missing.ID = 42
	assert.ErrorIs(t, d.UpdateRecord(ctx, missing), common.ErrNotFound)
	assert.ErrorIs(t, d.DeleteRecord(ctx, 42), common.ErrNotFound)
}

func TestSearchMatchesClientOrPlatform(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)

	for _, r := range []db.AccessRecord{
		record("Zeta", "Mail"),
		record("Acme", "Hosting"),
		record("acme", "Bank"),
		record("Globex", "ACME portal"),
		record("100%_Club", "Forum"),
	} {
		_, err := d.InsertRecord(ctx, r)
		require.NoError(t, err)
	}

	all, err := d.SearchRecords(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 5)

	hits, err := d.SearchRecords(ctx, "AcMe")
	require.NoError(t, err)
	var got []string
	for _, r := range hits {
		got = append(got, r.ClientName+"/"+r.Platform)
	}
	assert.ElementsMatch(t, []string{"Acme/Hosting", "acme/Bank", "Globex/ACME portal"}, got)

	wild, err := d.SearchRecords(ctx, "%_")
	require.NoError(t, err)
	require.Len(t, wild, 1, "LIKE wildcards in the query match literally")
	assert.Equal(t, "100%_Club", wild[0].ClientName)

	none, err := d.SearchRecords(ctx, "initech")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCheckpointFoldsWALIntoMainFile(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)

	_, err := d.InsertRecord(ctx, record("Acme", "Mail"))
	require.NoError(t, err)
	require.NoError(t, d.Checkpoint(ctx))

	wal, err := os.Stat(d.Path() + "-wal")
	if err == nil {
		assert.Zero(t, wal.Size(), "truncate checkpoint empties the log")
	}

	require.NoError(t, d.Close())
	require.NoError(t, d.Close(), "close is idempotent")
	assert.False(t, d.IsOpen())

	n, err := d.CountRecords(ctx)
	require.NoError(t, err, "handle reopens after close")
	assert.Equal(t, 1, n)
}

func TestEmptyPathIsUnavailable(t *testing.T) {
	d := db.New("", nil)
	_, err := d.CountRecords(context.Background())
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
}

func TestSidecarPaths(t *testing.T) {
	d := db.New(filepath.Join("a", "vault.db"), nil)
	assert.Equal(t, []string{
		filepath.Join("a", "vault.db-wal"),
		filepath.Join("a", "vault.db-shm"),
		filepath.Join("a", "vault.db-journal"),
	}, d.SidecarPaths())
}

func TestStoreInDirectoryWithURIMetacharacters(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("'?' is not allowed in windows file names")
	}
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "acme?backup#2", "vault.db")
	d := db.New(path, nil)
	t.Cleanup(func() { _ = d.Close() })

	id, err := d.InsertRecord(ctx, record("Acme", "Mail"))
	require.NoError(t, err)
	require.NoError(t, d.Close())

	info, err := os.Stat(path)
	require.NoError(t, err, "store created at the literal path")
	assert.Greater(t, info.Size(), int64(0))

	got, err := d.GetRecord(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.ClientName)
}
