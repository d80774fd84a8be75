package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"

	"github.com/Hussein-Mazeh/clientvault/internal/common"
)

//go:embed migrations/*.sql
var migrations embed.FS

// goose keeps its configuration in package globals.
var migrateMu sync.Mutex

// migrate brings the schema up to date. It also runs against restored backups,
// which may predate newer migrations.
func migrate(ctx context.Context, handle *sql.DB) error {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}

	if err := goose.UpContext(ctx, handle, "migrations"); err != nil {
		return fmt.Errorf("%w: migrate schema: %v", common.ErrStoreUnavailable, err)
	}
	return nil
}
