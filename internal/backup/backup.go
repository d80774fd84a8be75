// Package backup exports the record store as a single portable file and
// restores it again. It works on the raw store bytes and never sees key
// material.
package backup

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Hussein-Mazeh/clientvault/internal/common"
	"github.com/Hussein-Mazeh/clientvault/store"
)

// MinStoreSize is the smallest file accepted as a store snapshot. Anything
// shorter cannot hold even the SQLite header page.
const MinStoreSize = 512

const base64Ext = ".b64"

var sqliteMagic = []byte("SQLite format 3\x00")

// Store is the part of the record store the engine drives.
type Store interface {
	Checkpoint(ctx context.Context) error
	Close() error
	Path() string
	SidecarPaths() []string
}

// Encoding selects how the exported bytes are written.
type Encoding int

const (
	Raw Encoding = iota
	Base64
)

func (e Encoding) String() string {
	switch e {
	case Raw:
		return "raw"
	case Base64:
		return "base64"
	default:
		return fmt.Sprintf("Encoding(%d)", int(e))
	}
}

// Artifact describes a written backup.
type Artifact struct {
	Path      string
	Size      int64
	Encoding  Encoding
	CreatedAt time.Time
}

// Result reports a completed restore. The caller must restart so the next
// process opens a fresh handle on the replaced file.
type Result struct {
	Path            string
	Size            int64
	RestartRequired bool
}

// Engine runs export and import against one store.
type Engine struct {
	store  Store
	prefix string
	log    *zap.Logger
}

// New returns an engine naming its exports <prefix>_<date>.db.
func New(s Store, prefix string, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{store: s, prefix: prefix, log: log.Named("backup")}
}

// FileName is the conventional export name for t.
func FileName(prefix string, t time.Time, enc Encoding) string {
	name := store.BackupFileName(prefix, t)
	if enc == Base64 {
		name += base64Ext
	}
	return name
}

// Export checkpoints and closes the store, then copies its file to dest. A
// dest naming a directory receives the conventional file name. A store that
// was never created is an error, never an empty backup.
func (e *Engine) Export(ctx context.Context, dest string, enc Encoding) (Artifact, error) {
	if dest == "" {
		return Artifact{}, fmt.Errorf("%w: backup destination is required", common.ErrInvalidInput)
	}
	if enc != Raw && enc != Base64 {
		return Artifact{}, fmt.Errorf("%w: unknown encoding %s", common.ErrInvalidInput, enc)
	}
	if err := ctx.Err(); err != nil {
		return Artifact{}, err
	}
	if err := requireStoreFile(e.store); err != nil {
		return Artifact{}, err
	}

	if err := e.store.Checkpoint(ctx); err != nil {
		return Artifact{}, fmt.Errorf("checkpoint before export: %w", err)
	}
	if err := e.store.Close(); err != nil {
		return Artifact{}, fmt.Errorf("%w: %v", common.ErrStoreUnavailable, err)
	}

	src := e.store.Path()
	info, err := os.Stat(src)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Artifact{}, fmt.Errorf("%w: store file missing, nothing to back up", common.ErrBackupIntegrity)
		}
		return Artifact{}, fmt.Errorf("%w: stat store: %v", common.ErrStoreUnavailable, err)
	}
	if info.Size() < MinStoreSize {
		return Artifact{}, fmt.Errorf("%w: store file is %d bytes, nothing to back up", common.ErrBackupIntegrity, info.Size())
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return Artifact{}, fmt.Errorf("%w: read store: %v", common.ErrStoreUnavailable, err)
	}
	if !bytes.HasPrefix(data, sqliteMagic) {
		return Artifact{}, fmt.Errorf("%w: store file is not a sqlite database", common.ErrBackupIntegrity)
	}

	now := time.Now()
	target := resolveTarget(dest, FileName(e.prefix, now, enc))

	if enc == Base64 {
		data = []byte(base64.StdEncoding.EncodeToString(data))
	}

	if err := store.EnsureDir(filepath.Dir(target)); err != nil {
		return Artifact{}, fmt.Errorf("%w: %v", common.ErrStoreUnavailable, err)
	}
	if err := store.WriteFileAtomic(target, data, 0o600); err != nil {
		return Artifact{}, fmt.Errorf("%w: write backup: %v", common.ErrStoreUnavailable, err)
	}

	e.log.Info("backup exported",
		zap.String("path", target),
		zap.Int("bytes", len(data)),
		zap.Stringer("encoding", enc))

	return Artifact{
		Path:      target,
		Size:      int64(len(data)),
		Encoding:  enc,
		CreatedAt: now,
	}, nil
}

// Import replaces the store file with the snapshot at src. The live handle is
// closed and every sidecar of the old store is removed before the new file is
// moved into place. Nothing is touched until src has been read and validated.
// ctx is honoured until the handle is closed; from then on the restore runs to
// completion so the store is never left half replaced.
func (e *Engine) Import(ctx context.Context, src string) (Result, error) {
	if strings.TrimSpace(src) == "" {
		return Result{}, fmt.Errorf("%w: no backup file selected", common.ErrBackupIntegrity)
	}

	raw, err := os.ReadFile(src)
	if err != nil {
		return Result{}, fmt.Errorf("%w: read backup: %v", common.ErrBackupIntegrity, err)
	}
	data, err := decodeSnapshot(raw)
	if err != nil {
		return Result{}, err
	}

	dbPath := e.store.Path()
	dir := filepath.Dir(dbPath)
	if err := store.EnsureDir(dir); err != nil {
		return Result{}, fmt.Errorf("%w: %v", common.ErrStoreUnavailable, err)
	}

	staging := filepath.Join(dir, ".restore-"+uuid.NewString()+".tmp")
	if err := writeStaging(staging, data); err != nil {
		_ = os.Remove(staging)
		return Result{}, fmt.Errorf("%w: copy backup: %v", common.ErrBackupIntegrity, err)
	}

	if err := ctx.Err(); err != nil {
		_ = os.Remove(staging)
		return Result{}, err
	}

	if err := e.store.Close(); err != nil {
		_ = os.Remove(staging)
		return Result{}, fmt.Errorf("%w: %v", common.ErrStoreUnavailable, err)
	}

	for _, p := range append([]string{dbPath}, e.store.SidecarPaths()...) {
		if err := store.RemoveIfExists(p); err != nil {
			_ = os.Remove(staging)
			return Result{}, fmt.Errorf("%w: remove %s: %v", common.ErrStoreUnavailable, filepath.Base(p), err)
		}
	}

	if err := os.Rename(staging, dbPath); err != nil {
		_ = os.Remove(staging)
		return Result{}, fmt.Errorf("%w: move backup into place: %v", common.ErrStoreUnavailable, err)
	}

	e.log.Info("backup restored", zap.String("from", src), zap.Int("bytes", len(data)))

	return Result{Path: dbPath, Size: int64(len(data)), RestartRequired: true}, nil
}

// requireStoreFile runs before the checkpoint, which would otherwise open the
// store and create an empty one in place of a missing file. A short main file
// is accepted only while a sidecar still holds pages not yet checkpointed.
func requireStoreFile(s Store) error {
	info, err := os.Stat(s.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: store file missing, nothing to back up", common.ErrBackupIntegrity)
		}
		return fmt.Errorf("%w: stat store: %v", common.ErrStoreUnavailable, err)
	}
	if info.Size() >= MinStoreSize {
		return nil
	}
	for _, p := range s.SidecarPaths() {
		if fi, err := os.Stat(p); err == nil && fi.Size() > 0 {
			return nil
		}
	}
	return fmt.Errorf("%w: store file is %d bytes, nothing to back up", common.ErrBackupIntegrity, info.Size())
}

func resolveTarget(dest, name string) string {
	if strings.HasSuffix(dest, string(os.PathSeparator)) || strings.HasSuffix(dest, "/") {
		return filepath.Join(dest, name)
	}
	if info, err := os.Stat(dest); err == nil && info.IsDir() {
		return filepath.Join(dest, name)
	}
	return dest
}

// decodeSnapshot accepts raw store bytes or their base64 text.
func decodeSnapshot(raw []byte) ([]byte, error) {
	data := raw
	if !bytes.HasPrefix(raw, sqliteMagic) {
		decoded, err := base64.StdEncoding.DecodeString(string(bytes.TrimSpace(raw)))
		if err != nil || !bytes.HasPrefix(decoded, sqliteMagic) {
			return nil, fmt.Errorf("%w: not a sqlite backup", common.ErrBackupIntegrity)
		}
		data = decoded
	}
	if len(data) < MinStoreSize {
		return nil, fmt.Errorf("%w: backup is %d bytes, too small to be a store", common.ErrBackupIntegrity, len(data))
	}
	return data, nil
}

func writeStaging(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
