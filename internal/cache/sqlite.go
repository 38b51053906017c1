package cache

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// PageStore persists fetched catalog pages across sessions so a re-run of the
// same playlist does not refetch every detail page.
type PageStore struct {
	db *sql.DB
}

// OpenPageStore opens (or creates) the sqlite page cache at path and
// configures WAL mode.
func OpenPageStore(path string) (*PageStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "cache: open sqlite")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "cache: exec %s", pragma)
		}
	}
	return &PageStore{db: db}, nil
}

const pageStoreMigration = `
CREATE TABLE IF NOT EXISTS page_cache (
	id         TEXT PRIMARY KEY,
	url        TEXT NOT NULL,
	body       BLOB NOT NULL,
	fetched_at DATETIME NOT NULL DEFAULT (datetime('now')),
	expires_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_page_cache_url ON page_cache(url);
CREATE INDEX IF NOT EXISTS idx_page_cache_expires_at ON page_cache(expires_at);
`

// Migrate creates the page_cache schema.
func (s *PageStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, pageStoreMigration)
	return eris.Wrap(err, "cache: migrate")
}

// Close closes the underlying database.
func (s *PageStore) Close() error {
	return s.db.Close()
}

// Get returns the freshest unexpired cached body for url, or nil when absent.
func (s *PageStore) Get(ctx context.Context, url string) ([]byte, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT body FROM page_cache
		 WHERE url = ? AND expires_at > datetime('now')
		 ORDER BY fetched_at DESC LIMIT 1`,
		url,
	)

	var body []byte
	err := row.Scan(&body)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "cache: get page")
	}
	return body, nil
}

// Set stores a fetched body for url with the given TTL.
func (s *PageStore) Set(ctx context.Context, url string, body []byte, ttl time.Duration) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO page_cache (id, url, body, fetched_at, expires_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), url, body, now, now.Add(ttl),
	)
	return eris.Wrap(err, "cache: set page")
}

// DeleteExpired removes expired rows and returns how many were dropped.
func (s *PageStore) DeleteExpired(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM page_cache WHERE expires_at <= datetime('now')`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "cache: delete expired")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "cache: rows affected")
}
