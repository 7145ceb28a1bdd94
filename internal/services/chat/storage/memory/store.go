// Package memory provides an in-process cache store.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/louisbranch/chatfeed/internal/services/chat/storage"
)

// Store keeps cache entries in a map.
type Store struct {
	mu      sync.RWMutex
	entries map[string]storage.CacheEntry
}

// New returns an empty store.
func New() *Store {
	return &Store{entries: make(map[string]storage.CacheEntry)}
}

// GetCacheEntry returns a copy of the entry for tag.
func (s *Store) GetCacheEntry(_ context.Context, tag string) (storage.CacheEntry, bool, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return storage.CacheEntry{}, false, fmt.Errorf("cache tag is required")
	}
	s.mu.RLock()
	entry, ok := s.entries[tag]
	s.mu.RUnlock()
	if !ok {
		return storage.CacheEntry{}, false, nil
	}
	entry.Payload = append([]byte(nil), entry.Payload...)
	return entry, true, nil
}

// PutCacheEntry stores entry, replacing any previous entry for its tag.
func (s *Store) PutCacheEntry(_ context.Context, entry storage.CacheEntry) error {
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
	entry.Payload = append([]byte(nil), entry.Payload...)

	s.mu.Lock()
	s.entries[entry.Tag] = entry
	s.mu.Unlock()
	return nil
}

// DeleteCacheEntry removes the entry for tag.
func (s *Store) DeleteCacheEntry(_ context.Context, tag string) error {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return fmt.Errorf("cache tag is required")
	}
	s.mu.Lock()
	delete(s.entries, tag)
	s.mu.Unlock()
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }

var _ storage.Store = (*Store)(nil)
