// Package snapshot persists fetched week pages (raw HTML plus the parsed
// result) in a local sqlite database, so parser regressions can be analyzed
// against the exact markup that produced them.
package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

type Store struct {
	sql  *sql.DB
	lock *writeLock
}

// Meta is the listing view of one capture.
type Meta struct {
	ID        int64     `json:"id"`
	Date      string    `json:"date"`
	FetchedAt time.Time `json:"fetched_at"`
	HTMLSize  int       `json:"html_size"`
}

// Snapshot is one full capture.
type Snapshot struct {
	Meta
	RawHTML    []byte          `json:"-"`
	ParsedJSON json.RawMessage `json:"parsed"`
}

// Open opens (and if needed creates) the snapshot database. An empty path
// selects ~/.config/tidsreg/snapshots.sqlite.
func Open(path string) (*Store, error) {
	absPath, err := resolvePath(path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return nil, err
	}

	dsn := "file:" + absPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS week_snapshots (
  id          INTEGER PRIMARY KEY,
  date        TEXT NOT NULL,
  fetched_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  raw_html    BLOB NOT NULL,
  parsed_json TEXT NOT NULL,
  html_size   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_date ON week_snapshots(date);
    `); err != nil {
		return nil, err
	}

	return &Store{sql: db, lock: newWriteLock(absPath)}, nil
}

func (s *Store) Close() error {
	if s == nil || s.sql == nil {
		return nil
	}
	return s.sql.Close()
}

// Save stores one capture and returns its id. parsed is marshaled to JSON as
// stored; writes are guarded by a file lock so concurrent bridge processes
// don't trip over each other.
func (s *Store) Save(ctx context.Context, date string, rawHTML []byte, parsed interface{}) (int64, error) {
	parsedJSON, err := json.Marshal(parsed)
	if err != nil {
		return 0, fmt.Errorf("marshal parsed result: %w", err)
	}

	if err := s.lock.acquire(); err != nil {
		return 0, err
	}
	defer func() { _ = s.lock.release() }()

	res, err := s.sql.ExecContext(ctx,
		`INSERT INTO week_snapshots(date, raw_html, parsed_json, html_size) VALUES(?,?,?,?)`,
		date, rawHTML, string(parsedJSON), len(rawHTML))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// List returns capture metadata, newest first.
func (s *Store) List(ctx context.Context) ([]Meta, error) {
	rows, err := s.sql.QueryContext(ctx,
		`SELECT id, date, fetched_at, html_size FROM week_snapshots ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var metas []Meta
	for rows.Next() {
		var m Meta
		if err := rows.Scan(&m.ID, &m.Date, &m.FetchedAt, &m.HTMLSize); err != nil {
			return nil, err
		}
		metas = append(metas, m)
	}
	return metas, rows.Err()
}

// Get returns one full capture by id.
func (s *Store) Get(ctx context.Context, id int64) (*Snapshot, error) {
	var (
		snap   Snapshot
		parsed string
	)
	err := s.sql.QueryRowContext(ctx,
		`SELECT id, date, fetched_at, html_size, raw_html, parsed_json FROM week_snapshots WHERE id = ?`, id).
		Scan(&snap.ID, &snap.Date, &snap.FetchedAt, &snap.HTMLSize, &snap.RawHTML, &parsed)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("snapshot %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	snap.ParsedJSON = json.RawMessage(parsed)
	return &snap, nil
}

func resolvePath(path string) (string, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "tidsreg", "snapshots.sqlite"), nil
	}
	return filepath.Abs(path)
}
