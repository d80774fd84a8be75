package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/Hussein-Mazeh/clientvault/internal/common"
	"github.com/Hussein-Mazeh/clientvault/store"
)

// DB is the process-wide record store handle. It opens lazily on first use and
// must be closed before its backing file is read as a blob or replaced.
type DB struct {
	mu   sync.Mutex
	path string
	log  *zap.Logger
	bun  *bun.DB // nil while closed
}

// New returns a closed handle for the SQLite file at path.
func New(path string, log *zap.Logger) *DB {
	if log == nil {
		log = zap.NewNop()
	}
	return &DB{path: path, log: log.Named("db")}
}

// Path is the main store file.
func (d *DB) Path() string { return d.path }

// SidecarPaths lists the WAL, shared-memory and rollback journal files.
func (d *DB) SidecarPaths() []string { return store.SidecarPaths(d.path) }

// IsOpen reports whether a live connection exists.
func (d *DB) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bun != nil
}

func (d *DB) handle(ctx context.Context) (*bun.DB, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.bun != nil {
		return d.bun, nil
	}
	if err := d.openLocked(ctx); err != nil {
		return nil, err
	}
	return d.bun, nil
}

func (d *DB) openLocked(ctx context.Context) error {
	if d.path == "" {
		return fmt.Errorf("%w: database path is required", common.ErrStoreUnavailable)
	}

	if err := store.EnsureDir(filepath.Dir(d.path)); err != nil {
		return fmt.Errorf("%w: %v", common.ErrStoreUnavailable, err)
	}

	dsn, err := sqliteDSN(d.path)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrStoreUnavailable, err)
	}
	handle, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("%w: open sqlite database: %v", common.ErrStoreUnavailable, err)
	}

	if err := handle.PingContext(ctx); err != nil {
		handle.Close()
		return fmt.Errorf("%w: ping sqlite database: %v", common.ErrStoreUnavailable, err)
	}

	if err := EnsurePerm0600(d.path); err != nil {
		handle.Close()
		return fmt.Errorf("%w: %v", common.ErrStoreUnavailable, err)
	}

	if err := migrate(ctx, handle); err != nil {
		handle.Close()
		return err
	}

	// One connection: the store is single-user and Checkpoint must not race an
	// idle reader holding a snapshot.
	handle.SetMaxOpenConns(1)

	d.bun = bun.NewDB(handle, sqlitedialect.New())
	d.log.Debug("record store opened", zap.String("path", d.path))
	return nil
}

const dsnPragmas = "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

// sqliteDSN builds a file: URI for path. The path is percent-encoded so that
// '?', '#' and '%' in a directory name reach SQLite intact.
func sqliteDSN(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve database path: %w", err)
	}
	p := filepath.ToSlash(abs)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p // windows drive letter
	}
	u := url.URL{Scheme: "file", Path: p, RawQuery: dsnPragmas}
	return u.String(), nil
}

// Checkpoint flushes the write-ahead log into the main file and truncates it,
// so the main file alone holds the full current state.
func (d *DB) Checkpoint(ctx context.Context) error {
	bdb, err := d.handle(ctx)
	if err != nil {
		return err
	}

	var busy, logFrames, checkpointed int
	row := bdb.QueryRowContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)")
	if err := row.Scan(&busy, &logFrames, &checkpointed); err != nil {
		return fmt.Errorf("%w: wal checkpoint: %v", common.ErrStoreUnavailable, err)
	}
	if busy != 0 {
		return fmt.Errorf("%w: wal checkpoint blocked", common.ErrStoreUnavailable)
	}

	d.log.Debug("wal checkpointed", zap.Int("frames", logFrames), zap.Int("checkpointed", checkpointed))
	return nil
}

// Close releases the database resources. Closing a closed handle is a no-op.
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.bun == nil {
		return nil
	}
	err := d.bun.Close()
	d.bun = nil
	if err != nil {
		return fmt.Errorf("close record store: %w", err)
	}
	d.log.Debug("record store closed", zap.String("path", d.path))
	return nil
}

// EnsurePerm0600 restricts the database file to its owner on Unix systems.
func EnsurePerm0600(path string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	if err := os.Chmod(path, 0o600); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("chmod database: %w", err)
	}
	return nil
}
