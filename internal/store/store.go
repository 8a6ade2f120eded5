// Package store persists the last theme paddings reported by each server, so
// the window can be sized while the server is still starting.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// FileName is the database created inside the config directory.
const FileName = "spotlight.db"

var ErrNotFound = errors.New("no cached theme")

const schema = `
CREATE TABLE IF NOT EXISTS theme_cache (
	server         TEXT PRIMARY KEY,
	padding_top    INTEGER NOT NULL,
	padding_bottom INTEGER NOT NULL,
	updated_at     INTEGER NOT NULL
)`

// ThemeRecord is one cached theme response.
type ThemeRecord struct {
	Server        string
	PaddingTop    int
	PaddingBottom int
	UpdatedAt     time.Time
}

// Store is the sqlite-backed cache.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database in dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_busy_timeout=2000&_journal_mode=WAL", filepath.Join(dir, FileName))
	return open(dsn)
}

// OpenMemory opens a private in-memory database.
func OpenMemory() (*Store, error) {
	return open("file::memory:?cache=private")
}

func open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	// one connection keeps an in-memory database alive and serialises writers
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// SaveTheme inserts or replaces the record for rec.Server. A zero UpdatedAt is
// stamped with the current time.
func (s *Store) SaveTheme(rec ThemeRecord) error {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO theme_cache (server, padding_top, padding_bottom, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(server) DO UPDATE SET
			padding_top = excluded.padding_top,
			padding_bottom = excluded.padding_bottom,
			updated_at = excluded.updated_at
	`, rec.Server, rec.PaddingTop, rec.PaddingBottom, rec.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("save theme: %w", err)
	}
	return nil
}

// LoadTheme returns the record for server or ErrNotFound.
func (s *Store) LoadTheme(server string) (ThemeRecord, error) {
	rec := ThemeRecord{Server: server}
	var updated int64
	err := s.db.QueryRow(`
		SELECT padding_top, padding_bottom, updated_at FROM theme_cache WHERE server = ?
	`, server).Scan(&rec.PaddingTop, &rec.PaddingBottom, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return ThemeRecord{}, ErrNotFound
	}
	if err != nil {
		return ThemeRecord{}, fmt.Errorf("load theme: %w", err)
	}
	rec.UpdatedAt = time.Unix(updated, 0)
	return rec, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
