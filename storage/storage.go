package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// RelatedPostsSnapshot is the name the related-posts map is saved under.
const RelatedPostsSnapshot = "related-posts"

// ErrNoSnapshot is returned by LoadSnapshot when nothing was saved under the
// requested name.
var ErrNoSnapshot = errors.New("storage: no snapshot")

// Snapshot is a saved JSON document.
type Snapshot struct {
	Name        string
	Body        []byte
	GeneratedAt time.Time
}

// Store provides SQLite-backed persistence for published snapshots.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

const createTablesSQL = `
CREATE TABLE IF NOT EXISTS snapshots (
	name TEXT PRIMARY KEY,
	body TEXT NOT NULL,
	generated_at INTEGER NOT NULL
);
`

// New opens the SQLite database at dbPath, creates tables if they don't exist, and returns a Store.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: set WAL mode: %w", err)
	}

	if _, err := db.Exec(createTablesSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: create tables: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveSnapshot replaces the snapshot stored under name.
func (s *Store) SaveSnapshot(name string, body []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO snapshots (name, body, generated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET body = excluded.body, generated_at = excluded.generated_at`,
		name, string(body), s.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("storage: save snapshot %s: %w", name, err)
	}
	return nil
}

// LoadSnapshot returns the snapshot stored under name, or ErrNoSnapshot.
func (s *Store) LoadSnapshot(name string) (*Snapshot, error) {
	var body string
	var generatedAt int64
	err := s.db.QueryRow(
		"SELECT body, generated_at FROM snapshots WHERE name = ?", name,
	).Scan(&body, &generatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("storage: load snapshot %s: %w", name, err)
	}
	return &Snapshot{
		Name:        name,
		Body:        []byte(body),
		GeneratedAt: time.Unix(generatedAt, 0),
	}, nil
}
