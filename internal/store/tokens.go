// Package store provides a SQLite-backed store for persisted credentials.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"finsight/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS credentials (
    id             INTEGER PRIMARY KEY CHECK (id = 1),
    access_token   TEXT NOT NULL,
    refresh_token  TEXT NOT NULL,
    user_json      TEXT NOT NULL,
    updated_at     TEXT NOT NULL
);
`

// Credentials is a persisted token pair and the user it belongs to.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	User         model.User
}

// TokenStore persists credentials across runs.
type TokenStore struct {
	db *sql.DB
}

// Open opens or creates the credential database at the given path.
func Open(dbPath string) (*TokenStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating store dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)")
	if err != nil {
		return nil, fmt.Errorf("opening store db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &TokenStore{db: db}, nil
}

// Close closes the credential database.
func (s *TokenStore) Close() error {
	return s.db.Close()
}

// Save replaces the stored credentials.
func (s *TokenStore) Save(c Credentials) error {
	userJSON, err := json.Marshal(c.User)
	if err != nil {
		return fmt.Errorf("encoding user: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.Exec(`INSERT OR REPLACE INTO credentials
		(id, access_token, refresh_token, user_json, updated_at)
		VALUES (1, ?, ?, ?, ?)`,
		c.AccessToken, c.RefreshToken, string(userJSON), now,
	)
	return err
}

// Load returns the stored credentials, or ok=false if none are saved.
func (s *TokenStore) Load() (Credentials, bool, error) {
	var c Credentials
	var userJSON string
	err := s.db.QueryRow(`SELECT access_token, refresh_token, user_json
		FROM credentials WHERE id = 1`).
		Scan(&c.AccessToken, &c.RefreshToken, &userJSON)
	if err == sql.ErrNoRows {
		return Credentials{}, false, nil
	}
	if err != nil {
		return Credentials{}, false, err
	}

	if err := json.Unmarshal([]byte(userJSON), &c.User); err != nil {
		return Credentials{}, false, fmt.Errorf("decoding user: %w", err)
	}
	return c, true, nil
}

// Clear deletes the stored credentials.
func (s *TokenStore) Clear() error {
	_, err := s.db.Exec("DELETE FROM credentials WHERE id = 1")
	return err
}
