package store

import (
	"context"
	"database/sql"
	errs "errors"

	"github.com/pkg/errors"

	"github.com/eliaskord/storyloom/internal/session"
)

var _ session.KV = (*GormKV)(nil)

// GormKV persists the session's key-value blobs (generation cache, wizard
// resume state) in the kv_entries table.
type GormKV struct {
	db *DB
}

func NewGormKV(db *DB) *GormKV { return &GormKV{db: db} }

func (s *GormKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	row := s.db.gorm.WithContext(ctx).Raw(`SELECT value FROM kv_entries WHERE key = ?`, key).Row()
	var value []byte
	if err := row.Scan(&value); err != nil {
		if errs.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, errors.Wrapf(err, "kv get %s", key)
	}
	return value, true, nil
}

func (s *GormKV) Set(ctx context.Context, key string, value []byte) error {
	err := s.db.gorm.WithContext(ctx).Exec(`INSERT INTO kv_entries(key, value, updated_at) VALUES (?, ?, now())
	ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`, key, value).Error
	return errors.Wrapf(err, "kv set %s", key)
}

func (s *GormKV) Delete(ctx context.Context, key string) error {
	err := s.db.gorm.WithContext(ctx).Exec(`DELETE FROM kv_entries WHERE key = ?`, key).Error
	return errors.Wrapf(err, "kv delete %s", key)
}
