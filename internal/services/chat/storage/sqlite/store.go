// Package sqlite persists cached feed reads in SQLite. Entries outlive the
// process, but a reader only serves one recorded under its own registry scope.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/louisbranch/chatfeed/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/chatfeed/internal/services/chat/storage"
	"github.com/louisbranch/chatfeed/internal/services/chat/storage/sqlite/migrations"
)

// Store provides SQLite-backed persistence for cached reads.
type Store struct {
	sqlDB *sql.DB
}

// Open opens and migrates a cache store at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := "file:" + filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.Apply(ctx, sqlDB, migrations.FS, "."); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close releases the underlying SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return s.sqlDB.PingContext(ctx)
}

// GetCacheEntry loads the cached read for tag.
func (s *Store) GetCacheEntry(ctx context.Context, tag string) (storage.CacheEntry, bool, error) {
	if s == nil || s.sqlDB == nil {
		return storage.CacheEntry{}, false, fmt.Errorf("storage is not configured")
	}
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return storage.CacheEntry{}, false, fmt.Errorf("cache tag is required")
	}

	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT tag, scope, epoch, payload_json, refreshed_at, expires_at
		 FROM cache_entries
		 WHERE tag = ?`,
		tag,
	)

	var entry storage.CacheEntry
	var epoch, refreshedAt, expiresAt int64
	if err := row.Scan(&entry.Tag, &entry.Scope, &epoch, &entry.Payload, &refreshedAt, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.CacheEntry{}, false, nil
		}
		return storage.CacheEntry{}, false, fmt.Errorf("get cache entry: %w", err)
	}
	if epoch > 0 {
		entry.Epoch = uint64(epoch)
	}
	entry.RefreshedAt = unixMillisToTime(refreshedAt)
	entry.ExpiresAt = unixMillisToTime(expiresAt)
	return entry, true, nil
}

// PutCacheEntry upserts the cached read for entry.Tag.
func (s *Store) PutCacheEntry(ctx context.Context, entry storage.CacheEntry) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	entry.Tag = strings.TrimSpace(entry.Tag)
	if entry.Tag == "" {
		return fmt.Errorf("cache tag is required")
	}
	if len(entry.Payload) == 0 {
		return fmt.Errorf("cache payload is required")
	}
	if entry.RefreshedAt.IsZero() {
		entry.RefreshedAt = time.Now().UTC()
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO cache_entries (tag, scope, epoch, payload_json, refreshed_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(tag) DO UPDATE SET
		    scope = excluded.scope,
		    epoch = excluded.epoch,
		    payload_json = excluded.payload_json,
		    refreshed_at = excluded.refreshed_at,
		    expires_at = excluded.expires_at`,
		entry.Tag,
		entry.Scope,
		int64(entry.Epoch),
		entry.Payload,
		timeToUnixMillis(entry.RefreshedAt),
		timeToUnixMillis(entry.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("put cache entry: %w", err)
	}
	return nil
}

// DeleteCacheEntry removes the cached read for tag.
func (s *Store) DeleteCacheEntry(ctx context.Context, tag string) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return fmt.Errorf("cache tag is required")
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM cache_entries WHERE tag = ?`, tag); err != nil {
		return fmt.Errorf("delete cache entry: %w", err)
	}
	return nil
}

func timeToUnixMillis(value time.Time) int64 {
	if value.IsZero() {
		return 0
	}
	return value.UTC().UnixMilli()
}

func unixMillisToTime(value int64) time.Time {
	if value <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(value).UTC()
}

var _ storage.Store = (*Store)(nil)
