package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a post or comment does not exist.
var ErrNotFound = errors.New("not found")

// Store is the SQLite-backed post store. Writes go through a single
// connection; reads use a separate pool.
type Store struct {
	readDB  *sql.DB
	writeDB *sql.DB
}

func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	writeDB, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening write db: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	s := &Store{writeDB: writeDB}
	if err := s.init(); err != nil {
		s.Close()
		return nil, err
	}

	readDB, err := sql.Open("sqlite", dbPath+"?mode=ro&_pragma=busy_timeout(5000)")
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("opening read db: %w", err)
	}
	s.readDB = readDB
	return s, nil
}

func (s *Store) init() error {
	_, err := s.writeDB.Exec(`
		CREATE TABLE IF NOT EXISTS posts (
			id           TEXT PRIMARY KEY,
			title        TEXT NOT NULL,
			slug         TEXT NOT NULL UNIQUE,
			content      TEXT NOT NULL DEFAULT '',
			excerpt      TEXT NOT NULL DEFAULT '',
			link         TEXT NOT NULL DEFAULT '',
			author_id    TEXT NOT NULL DEFAULT '',
			author_name  TEXT NOT NULL DEFAULT '',
			status       TEXT NOT NULL DEFAULT 'draft',
			published_at DATETIME,
			created_at   DATETIME NOT NULL,
			updated_at   DATETIME NOT NULL,
			view_count   INTEGER NOT NULL DEFAULT 0,
			is_featured  INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_posts_created ON posts(created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_posts_status ON posts(status);

		CREATE TABLE IF NOT EXISTS categories (
			id   TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			slug TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS tags (
			id   TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			slug TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS post_categories (
			post_id     TEXT NOT NULL,
			category_id TEXT NOT NULL,
			position    INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (post_id, category_id)
		);
		CREATE TABLE IF NOT EXISTS post_tags (
			post_id  TEXT NOT NULL,
			tag_id   TEXT NOT NULL,
			position INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (post_id, tag_id)
		);

		CREATE TABLE IF NOT EXISTS comments (
			id           TEXT PRIMARY KEY,
			post_id      TEXT NOT NULL,
			parent_id    TEXT NOT NULL DEFAULT '',
			author_name  TEXT NOT NULL,
			author_email TEXT NOT NULL,
			content      TEXT NOT NULL,
			status       TEXT NOT NULL DEFAULT 'pending',
			created_at   DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_comments_post ON comments(post_id, created_at);

		CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	var errs []error
	if s.readDB != nil {
		errs = append(errs, s.readDB.Close())
	}
	if s.writeDB != nil {
		errs = append(errs, s.writeDB.Close())
	}
	return errors.Join(errs...)
}

// Stats summarizes the store contents.
type Stats struct {
	Posts     int
	Published int
	Comments  int
	Pending   int
	Size      int64
}

// Stats counts rows and reports the database file size at dbPath.
func (s *Store) Stats(dbPath string) (Stats, error) {
	var st Stats
	err := s.readDB.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM posts),
			(SELECT COUNT(*) FROM posts WHERE status = 'published'),
			(SELECT COUNT(*) FROM comments),
			(SELECT COUNT(*) FROM comments WHERE status = 'pending')
	`).Scan(&st.Posts, &st.Published, &st.Comments, &st.Pending)
	if err != nil {
		return st, fmt.Errorf("counting rows: %w", err)
	}

	info, err := os.Stat(dbPath)
	if err != nil {
		return st, fmt.Errorf("stat db file: %w", err)
	}
	st.Size = info.Size()
	return st, nil
}

const lastImportKey = "last_import"

// NeedsImport reports whether the last feed import is older than interval.
func (s *Store) NeedsImport(interval time.Duration) bool {
	value, err := s.getMeta(lastImportKey)
	if err != nil {
		return true
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return true
	}
	return time.Since(t) > interval
}

func (s *Store) SetLastImport() error {
	return s.setMeta(lastImportKey, time.Now().Format(time.RFC3339))
}

// LastImport returns the time of the last feed import, zero if none.
func (s *Store) LastImport() time.Time {
	value, err := s.getMeta(lastImportKey)
	if err != nil {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339, value)
	return t
}

func (s *Store) getMeta(key string) (string, error) {
	var value string
	err := s.readDB.QueryRow("SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	return value, err
}

func (s *Store) setMeta(key, value string) error {
	_, err := s.writeDB.Exec(`
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	return nil
}
