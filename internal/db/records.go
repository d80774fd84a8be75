package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/Hussein-Mazeh/clientvault/internal/common"
)

// AccessRecord is one stored credential. The password is kept only as the
// sealed string produced by the session; it is never plaintext at rest.
type AccessRecord struct {
	ID                 int64
	ClientName         string
	Platform           string
	Username           string
	PasswordCiphertext string
	Notes              string
	CreatedAt          time.Time
}

type recordModel struct {
	bun.BaseModel      `bun:"table:access_records"`
	ID                 int64     `bun:"id,pk,autoincrement"`
	ClientName         string    `bun:"client_name"`
	Platform           string    `bun:"platform"`
	Username           string    `bun:"username"`
	PasswordCiphertext string    `bun:"password_ciphertext"`
	Notes              string    `bun:"notes"`
	CreatedAt          time.Time `bun:"created_at"`
}

func (m recordModel) toRecord() AccessRecord {
	return AccessRecord{
		ID:                 m.ID,
		ClientName:         m.ClientName,
		Platform:           m.Platform,
		Username:           m.Username,
		PasswordCiphertext: m.PasswordCiphertext,
		Notes:              m.Notes,
		CreatedAt:          m.CreatedAt.UTC(),
	}
}

var writableColumns = []string{"client_name", "platform", "username", "password_ciphertext", "notes"}

// InsertRecord stores r and returns the assigned ID. CreatedAt is stamped by
// the store; any value on r is ignored.
func (d *DB) InsertRecord(ctx context.Context, r AccessRecord) (int64, error) {
	bdb, err := d.handle(ctx)
	if err != nil {
		return 0, err
	}

	m := recordModel{
		ClientName:         r.ClientName,
		Platform:           r.Platform,
		Username:           r.Username,
		PasswordCiphertext: r.PasswordCiphertext,
		Notes:              r.Notes,
		CreatedAt:          time.Now().UTC().Truncate(time.Second),
	}
	cols := append(append([]string{}, writableColumns...), "created_at")
	if _, err := bdb.NewInsert().Model(&m).Column(cols...).Returning("id").Exec(ctx); err != nil {
		return 0, fmt.Errorf("insert record: %w", err)
	}
	return m.ID, nil
}

// UpdateRecord overwrites every mutable field of the record with r.ID.
func (d *DB) UpdateRecord(ctx context.Context, r AccessRecord) error {
	bdb, err := d.handle(ctx)
	if err != nil {
		return err
	}

	m := recordModel{
		ID:                 r.ID,
		ClientName:         r.ClientName,
		Platform:           r.Platform,
		Username:           r.Username,
		PasswordCiphertext: r.PasswordCiphertext,
		Notes:              r.Notes,
	}
	res, err := bdb.NewUpdate().Model(&m).Column(writableColumns...).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("update record %d: %w", r.ID, err)
	}
	return requireAffected(res, r.ID)
}

// DeleteRecord removes the record with id.
func (d *DB) DeleteRecord(ctx context.Context, id int64) error {
	bdb, err := d.handle(ctx)
	if err != nil {
		return err
	}

	res, err := bdb.NewDelete().Model((*recordModel)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete record %d: %w", id, err)
	}
	return requireAffected(res, id)
}

// GetRecord loads a single record.
func (d *DB) GetRecord(ctx context.Context, id int64) (AccessRecord, error) {
	bdb, err := d.handle(ctx)
	if err != nil {
		return AccessRecord{}, err
	}

	var m recordModel
	if err := bdb.NewSelect().Model(&m).Where("id = ?", id).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return AccessRecord{}, fmt.Errorf("record %d: %w", id, common.ErrNotFound)
		}
		return AccessRecord{}, fmt.Errorf("get record %d: %w", id, err)
	}
	return m.toRecord(), nil
}

// SearchRecords returns records whose client name or platform contains query,
// case-insensitively. An empty query lists everything.
func (d *DB) SearchRecords(ctx context.Context, query string) ([]AccessRecord, error) {
	bdb, err := d.handle(ctx)
	if err != nil {
		return nil, err
	}

	var ms []recordModel
	sel := bdb.NewSelect().Model(&ms)
	if query != "" {
		like := "%" + escapeLike(strings.ToLower(query)) + "%"
		sel = sel.Where(`(LOWER(client_name) LIKE ? ESCAPE '\' OR LOWER(platform) LIKE ? ESCAPE '\')`, like, like)
	}
	if err := sel.OrderExpr("client_name, platform, id").Scan(ctx); err != nil {
		return nil, fmt.Errorf("search records: %w", err)
	}

	out := make([]AccessRecord, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.toRecord())
	}
	return out, nil
}

// CountRecords reports how many records are stored.
func (d *DB) CountRecords(ctx context.Context) (int, error) {
	bdb, err := d.handle(ctx)
	if err != nil {
		return 0, err
	}

	n, err := bdb.NewSelect().Model((*recordModel)(nil)).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

func requireAffected(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("record %d: %w", id, common.ErrNotFound)
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
