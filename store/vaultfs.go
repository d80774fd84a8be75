package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	storeSubdir  = "SQLite"
	databaseName = "vault.db"
)

// Sidecar suffixes SQLite appends to the main file name.
const (
	SuffixWAL     = "-wal"
	SuffixSHM     = "-shm"
	SuffixJournal = "-journal"
)

// Paths locates vault artifacts on disk.
type Paths struct {
	Dir string
}

// StoreDir is the directory holding the record store and its sidecars.
func (p Paths) StoreDir() string {
	return filepath.Join(p.Dir, storeSubdir)
}

// DatabasePath resolves the canonical record store file.
func (p Paths) DatabasePath() string {
	return filepath.Join(p.StoreDir(), databaseName)
}

// SidecarPaths lists every auxiliary file SQLite may keep next to dbPath.
func SidecarPaths(dbPath string) []string {
	return []string{
		dbPath + SuffixWAL,
		dbPath + SuffixSHM,
		dbPath + SuffixJournal,
	}
}

// BackupFileName builds the conventional export name <prefix>_<YYYY-MM-DD>.db.
func BackupFileName(prefix string, at time.Time) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "vault_backup"
	}
	return fmt.Sprintf("%s_%s.db", prefix, at.Format("2006-01-02"))
}

// EnsureDir creates dir with owner-only permissions.
func EnsureDir(dir string) error {
	if dir == "" {
		return errors.New("directory not specified")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	return nil
}

// WriteFileAtomic replaces path with data so readers never observe a partial
// file: the bytes go to a synced temp file in the same directory which is then
// renamed over the destination.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := EnsureDir(dir); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("chmod temp file: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace file: %w", err)
	}

	return nil
}

// RemoveIfExists deletes path, treating an already-missing file as success.
func RemoveIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
