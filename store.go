package spacetraveling

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/eringen/spacetraveling/posts"
)

// Store drivers accepted by SiteConfig.StoreDriver.
const (
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
	StoreNone   = "none"
)

// ErrPageNotStored is returned by a PageStore that has no copy of a page.
var ErrPageNotStored = errors.New("spacetraveling: page not stored")

// RenderedPage is the full HTML output for one slug.
type RenderedPage struct {
	Slug    string
	State   posts.State
	HTML    []byte
	BuiltAt time.Time
}

// PageStore persists rendered pages so they survive restarts. Only
// published pages are ever saved.
type PageStore interface {
	Get(ctx context.Context, slug string) (*RenderedPage, error)
	Save(ctx context.Context, page *RenderedPage) error
	Delete(ctx context.Context, slug string) error
	Close() error
}

// Store keeps rendered pages in a SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and creates the schema.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets the revalidation goroutines write while requests read;
	// busy_timeout makes writers wait instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS pages (
    slug TEXT PRIMARY KEY,
    html BLOB NOT NULL,
    built_at INTEGER NOT NULL
);
`)
	return err
}

// Get returns the stored page for slug or ErrPageNotStored.
func (s *Store) Get(ctx context.Context, slug string) (*RenderedPage, error) {
	var html []byte
	var builtAt int64
	err := s.db.QueryRowContext(ctx, `SELECT html, built_at FROM pages WHERE slug = ?`, slug).Scan(&html, &builtAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPageNotStored
	}
	if err != nil {
		return nil, fmt.Errorf("spacetraveling: load page %q: %w", slug, err)
	}
	return &RenderedPage{
		Slug:    slug,
		State:   posts.StatePublished,
		HTML:    html,
		BuiltAt: time.Unix(0, builtAt),
	}, nil
}

// Save upserts a published page.
func (s *Store) Save(ctx context.Context, page *RenderedPage) error {
	if page.State != posts.StatePublished {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO pages (slug, html, built_at) VALUES (?, ?, ?)`,
		page.Slug, page.HTML, page.BuiltAt.UnixNano())
	return err
}

// Delete removes a page by slug.
func (s *Store) Delete(ctx context.Context, slug string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM pages WHERE slug = ?`, slug)
	return err
}

// ListSlugs returns the slugs of every stored page, sorted.
func (s *Store) ListSlugs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT slug FROM pages ORDER BY slug`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slugs []string
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, err
		}
		slugs = append(slugs, slug)
	}
	return slugs, rows.Err()
}
