// Package cache persists raw API response bodies with a TTL so repeated
// resolutions of the same library entries stay off the network. The cache
// sits outside the resolution core: entries are keyed by request URL and
// only successful responses are ever stored.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Store is a SQLite-backed response cache.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore creates a cache store on the given database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Get returns the cached body for key if present and unexpired.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var body []byte
	var expiresAt int64
	err := s.db.QueryRowContext(ctx,
		"SELECT body, expires_at FROM api_cache WHERE key = ?", key,
	).Scan(&body, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cache entry: %w", err)
	}
	if s.now().Unix() >= expiresAt {
		// Lazy expiry: drop the stale row and report a miss.
		_, _ = s.db.ExecContext(ctx, "DELETE FROM api_cache WHERE key = ?", key)
		return nil, false, nil
	}
	return body, true, nil
}

// Put stores body under key for the given TTL, replacing any existing entry.
func (s *Store) Put(ctx context.Context, key string, body []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	expiresAt := s.now().Add(ttl).Unix()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO api_cache (key, body, expires_at) VALUES (?, ?, ?) "+
			"ON CONFLICT(key) DO UPDATE SET body = excluded.body, expires_at = excluded.expires_at",
		key, body, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// Purge deletes all expired entries and returns the number removed.
func (s *Store) Purge(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM api_cache WHERE expires_at <= ?", s.now().Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("purging cache: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// StartPurger deletes expired entries on the given interval until ctx is
// canceled. Call in a goroutine.
func (s *Store) StartPurger(ctx context.Context, interval time.Duration, logf func(removed int64, err error)) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Purge(ctx)
			if logf != nil {
				logf(n, err)
			}
		}
	}
}
