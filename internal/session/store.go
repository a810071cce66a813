package session

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const (
	keyToken        = "token"
	keyProfileImage = "profile_image"
)

// Store is the durable per-user local storage for session state. It survives
// restarts and is cleared on logout, mirroring what the browser client keeps
// in local storage.
type Store struct {
	db *sql.DB
}

// OpenStore opens (or creates) the local state database under dir.
func OpenStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("session: create state dir: %w", err)
	}
	db, err := sql.Open("sqlite3", filepath.Join(dir, "portal.db"))
	if err != nil {
		return nil, fmt.Errorf("session: open state db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("session: ping state db: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("session: create kv table: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Token returns the persisted auth token, or "" when none is stored.
func (s *Store) Token() (string, error) {
	return s.get(keyToken)
}

// SaveToken persists the auth token.
func (s *Store) SaveToken(token string) error {
	return s.put(keyToken, token)
}

// ProfileImage returns the last-known profile image reference.
func (s *Store) ProfileImage() (string, error) {
	return s.get(keyProfileImage)
}

// SaveProfileImage persists the profile image reference.
func (s *Store) SaveProfileImage(ref string) error {
	return s.put(keyProfileImage, ref)
}

// Clear removes all persisted session state.
func (s *Store) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM kv`); err != nil {
		return fmt.Errorf("session: clear state: %w", err)
	}
	return nil
}

func (s *Store) get(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("session: read %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) put(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("session: write %s: %w", key, err)
	}
	return nil
}
