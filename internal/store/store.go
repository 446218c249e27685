// Package store persists the auth token and last-good API responses in SQLite.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Store is the local finboard database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at the given path.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating store dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening store db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadToken returns the persisted token, or "" when none is stored.
func (s *Store) LoadToken() (string, error) {
	var token string
	err := s.db.QueryRow("SELECT token FROM auth_token WHERE id = 1").Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("loading token: %w", err)
	}
	return token, nil
}

// SaveToken persists token, replacing any previous one.
func (s *Store) SaveToken(token string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(`INSERT INTO auth_token (id, token, saved_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET token = excluded.token, saved_at = excluded.saved_at`, token, now)
	if err != nil {
		return fmt.Errorf("saving token: %w", err)
	}
	return nil
}

// ClearToken removes the persisted token.
func (s *Store) ClearToken() error {
	if _, err := s.db.Exec("DELETE FROM auth_token"); err != nil {
		return fmt.Errorf("clearing token: %w", err)
	}
	return nil
}

// Record stores body as the latest response for path. It satisfies
// api.Recorder.
func (s *Store) Record(path string, body []byte) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.Exec(`INSERT INTO responses (path, body, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET body = excluded.body, fetched_at = excluded.fetched_at`, path, body, now)
	if err != nil {
		return fmt.Errorf("recording %s: %w", path, err)
	}
	return nil
}

// Snapshot is a stored response body.
type Snapshot struct {
	Path      string
	Body      []byte
	FetchedAt time.Time
}

// LoadSnapshot returns the stored response for path. ok is false when
// nothing was recorded.
func (s *Store) LoadSnapshot(path string) (snap Snapshot, ok bool, err error) {
	var fetched string
	err = s.db.QueryRow("SELECT path, body, fetched_at FROM responses WHERE path = ?", path).
		Scan(&snap.Path, &snap.Body, &fetched)
	if errors.Is(err, sql.ErrNoRows) {
		return snap, false, nil
	}
	if err != nil {
		return snap, false, fmt.Errorf("loading snapshot %s: %w", path, err)
	}
	snap.FetchedAt, _ = time.Parse(time.RFC3339Nano, fetched)
	return snap, true, nil
}

// SnapshotTimes returns the fetch time of every stored response, keyed by path.
func (s *Store) SnapshotTimes() (map[string]time.Time, error) {
	rows, err := s.db.Query("SELECT path, fetched_at FROM responses ORDER BY path")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]time.Time)
	for rows.Next() {
		var path, fetched string
		if err := rows.Scan(&path, &fetched); err != nil {
			return nil, err
		}
		out[path], _ = time.Parse(time.RFC3339Nano, fetched)
	}
	return out, rows.Err()
}

// ClearSnapshots drops every stored response.
func (s *Store) ClearSnapshots() error {
	if _, err := s.db.Exec("DELETE FROM responses"); err != nil {
		return fmt.Errorf("clearing snapshots: %w", err)
	}
	return nil
}
