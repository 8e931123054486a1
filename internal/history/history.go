// Package history persists recent search queries so a new session can offer
// them back. Storage is a small SQLite database under the user state dir.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

const schema = `
CREATE TABLE IF NOT EXISTS searches (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	query TEXT NOT NULL,
	scope TEXT NOT NULL DEFAULT 'all',
	match_count INTEGER NOT NULL DEFAULT 0,
	searched_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_searches_query ON searches(query);
`

// maxEntries bounds the table; older rows beyond it are pruned on record.
const maxEntries = 200

// Entry is one remembered search.
type Entry struct {
	Query      string
	Scope      string
	MatchCount int
	SearchedAt time.Time
}

// Store wraps the history database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path. The parent
// directory is created when missing.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// OpenMemory opens an in-memory store, used by tests and by sessions that
// disable persistence.
func OpenMemory() (*Store, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Record stores one executed search and prunes rows past the cap. Repeating
// a query replaces its previous row so the recents list stays deduplicated.
func (s *Store) Record(query, scope string, matchCount int) error {
	if query == "" {
		return nil
	}
	_, err := s.db.Exec(`DELETE FROM searches WHERE query = ?`, query)
	if err != nil {
		return fmt.Errorf("failed to dedupe history: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO searches (query, scope, match_count) VALUES (?, ?, ?)`,
		query, scope, matchCount,
	)
	if err != nil {
		return fmt.Errorf("failed to record search: %w", err)
	}
	_, err = s.db.Exec(
		`DELETE FROM searches WHERE id NOT IN (
			SELECT id FROM searches ORDER BY id DESC LIMIT ?)`,
		maxEntries,
	)
	if err != nil {
		return fmt.Errorf("failed to prune history: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT query, scope, match_count, searched_at
		 FROM searches ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Query, &e.Scope, &e.MatchCount, &e.SearchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
