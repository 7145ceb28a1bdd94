// Package storage defines persistence for cached feed reads.
//
// Cached data is always derived from the message backend and may be discarded
// at any time; losing the store only costs an extra fetch.
package storage

import (
	"context"
	"time"
)

// CacheEntry is one cached read keyed by its invalidation tag. Epoch is the
// tag epoch observed before the read started and Scope is the registry scope
// that epoch was read under.
type CacheEntry struct {
	Tag         string
	Scope       string
	Epoch       uint64
	Payload     []byte
	RefreshedAt time.Time
	ExpiresAt   time.Time
}

// Expired reports whether the entry is past its expiry at now. A zero
// ExpiresAt never expires.
func (e CacheEntry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}

// Store persists cached reads. PutCacheEntry replaces any existing entry for
// the same tag.
type Store interface {
	GetCacheEntry(ctx context.Context, tag string) (CacheEntry, bool, error)
	PutCacheEntry(ctx context.Context, entry CacheEntry) error
	DeleteCacheEntry(ctx context.Context, tag string) error
	Ping(ctx context.Context) error
	Close() error
}
