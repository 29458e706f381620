// Package sqlite provides a SQLite-backed page cache so repeated deep
// searches do not refetch the same URLs.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/websearch-cli/internal/core/domain"
	"github.com/custodia-labs/websearch-cli/internal/core/ports/driven"
	"github.com/custodia-labs/websearch-cli/internal/logger"
)

// Ensure PageCache implements the interface.
var _ driven.PageCache = (*PageCache)(nil)

// DefaultTTL is how long a cached page stays usable.
const DefaultTTL = 24 * time.Hour

const schema = `
CREATE TABLE IF NOT EXISTS pages (
	url        TEXT PRIMARY KEY,
	title      TEXT NOT NULL DEFAULT '',
	text       TEXT NOT NULL,
	fetched_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_pages_fetched_at ON pages(fetched_at);
`

// PageCache stores fetched pages keyed by URL with a TTL.
type PageCache struct {
	db   *sql.DB
	path string
	ttl  time.Duration
}

// New creates a page cache at the specified data directory. If dataDir
// is empty, defaults to ~/.websearch/data. A ttl of zero means DefaultTTL.
func New(dataDir string, ttl time.Duration) (*PageCache, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".websearch", "data")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "pagecache.db")

	// WAL mode keeps concurrent fetch workers from blocking each other.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &PageCache{
		db:   db,
		path: dbPath,
		ttl:  ttl,
	}, nil
}

// Get returns the cached document for url. Expired rows are treated as
// absent and removed lazily.
func (c *PageCache) Get(ctx context.Context, url string) (domain.Document, bool) {
	var doc domain.Document
	row := c.db.QueryRowContext(ctx,
		"SELECT url, title, text, fetched_at FROM pages WHERE url = ?", url)

	if err := row.Scan(&doc.URL, &doc.Title, &doc.Text, &doc.FetchedAt); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logger.Debug("Cache read failed for %s: %v", url, err)
		}
		return domain.Document{}, false
	}

	if time.Since(doc.FetchedAt) > c.ttl {
		if _, err := c.db.ExecContext(ctx, "DELETE FROM pages WHERE url = ?", url); err != nil {
			logger.Debug("Cache eviction failed for %s: %v", url, err)
		}
		return domain.Document{}, false
	}

	doc.ID = doc.URL
	doc.Status = domain.FetchOK
	return doc, true
}

// Put stores a successfully fetched document, replacing any previous
// row for the same URL.
func (c *PageCache) Put(ctx context.Context, doc domain.Document) error {
	if !doc.OK() {
		return fmt.Errorf("refusing to cache document with status %q", doc.Status)
	}
	if doc.URL == "" {
		return fmt.Errorf("refusing to cache document without URL")
	}

	fetchedAt := doc.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO pages (url, title, text, fetched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			title = excluded.title,
			text = excluded.text,
			fetched_at = excluded.fetched_at`,
		doc.URL, doc.Title, doc.Text, fetchedAt)
	if err != nil {
		return fmt.Errorf("caching page: %w", err)
	}
	return nil
}

// Prune removes all expired rows. Called opportunistically; the cache
// works correctly without it.
func (c *PageCache) Prune(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx,
		"DELETE FROM pages WHERE fetched_at < ?", time.Now().Add(-c.ttl))
	if err != nil {
		return 0, fmt.Errorf("pruning cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}

// Path returns the database file path.
func (c *PageCache) Path() string {
	return c.path
}

// Close closes the database connection.
func (c *PageCache) Close() error {
	return c.db.Close()
}
