package store

import (
	"database/sql"
	"errors"
	"time"
)

// SettingSpotifyToken holds the OAuth2 token as JSON.
const SettingSpotifyToken = "spotify_token"

// Settings is a string key/value table. It satisfies catalog.TokenStore.
type Settings struct {
	db  *DB
	now func() time.Time
}

// Settings returns the settings table of db.
func (db *DB) Settings() *Settings {
	return &Settings{db: db, now: time.Now}
}

// Get returns the stored value, or "" when key was never set.
func (s *Settings) Get(key string) (string, error) {
	var value string
	err := s.db.Get(&value, "SELECT value FROM settings WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

func (s *Settings) Set(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, s.now().UTC())
	return err
}

// UpdatedAt reports when key was last written. ok is false for unknown keys.
func (s *Settings) UpdatedAt(key string) (t time.Time, ok bool, err error) {
	err = s.db.Get(&t, "SELECT updated_at FROM settings WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}

// Delete removes key and reports whether it existed.
func (s *Settings) Delete(key string) (bool, error) {
	res, err := s.db.Exec("DELETE FROM settings WHERE key = ?", key)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
