package store

import (
	"database/sql"
	"errors"
	"time"
)

// GetCache returns the cached value for key, or nil when it is missing or
// expired. Expired rows are dropped on read.
func (db *DB) GetCache(key string) ([]byte, error) {
	var row struct {
		Data      []byte       `db:"data"`
		ExpiresAt sql.NullTime `db:"expires_at"`
	}
	err := db.Get(&row, "SELECT data, expires_at FROM cache WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if row.ExpiresAt.Valid && time.Now().After(row.ExpiresAt.Time) {
		_, _ = db.Exec("DELETE FROM cache WHERE key = ?", key)
		return nil, nil
	}
	return row.Data, nil
}

// SetCache upserts key. A ttl of zero or less never expires.
func (db *DB) SetCache(key string, data []byte, ttl time.Duration) error {
	var expiresAt sql.NullTime
	if ttl > 0 {
		expiresAt = sql.NullTime{Time: time.Now().Add(ttl), Valid: true}
	}

	_, err := db.Exec(`
		INSERT INTO cache (key, data, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, expires_at = excluded.expires_at
	`, key, data, expiresAt)
	return err
}

// ClearCache deletes every key starting with prefix and reports how many
// rows went. An empty prefix clears the table.
func (db *DB) ClearCache(prefix string) (int64, error) {
	res, err := db.Exec("DELETE FROM cache WHERE substr(key, 1, ?) = ?", len(prefix), prefix)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// PurgeExpiredCache drops rows whose expiry has passed.
func (db *DB) PurgeExpiredCache() (int64, error) {
	res, err := db.Exec("DELETE FROM cache WHERE expires_at IS NOT NULL AND expires_at < ?", time.Now())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
