package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/louisbranch/chatfeed/internal/services/chat/storage"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chat-cache.db")
	store, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	})
	return store, path
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), " "); err == nil {
		t.Fatalf("expected error")
	}
}

func TestOpenRunsMigrations(t *testing.T) {
	t.Parallel()

	_, path := openTestStore(t)

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer func() {
		_ = sqlDB.Close()
	}()

	var name string
	if err := sqlDB.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'cache_entries'`).Scan(&name); err != nil {
		t.Fatalf("cache_entries table missing: %v", err)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "chat-cache.db")
	for i := 0; i < 2; i++ {
		store, err := Open(context.Background(), path)
		if err != nil {
			t.Fatalf("open #%d: %v", i+1, err)
		}
		if err := store.Close(); err != nil {
			t.Fatalf("close #%d: %v", i+1, err)
		}
	}
}

func TestCacheEntryRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, _ := openTestStore(t)

	refreshed := time.Date(2026, 10, 1, 9, 30, 0, 0, time.UTC)
	entry := storage.CacheEntry{
		Tag:         "messages",
		Scope:       "memory:a",
		Epoch:       7,
		Payload:     []byte(`[{"id":"a","message":"hi"}]`),
		RefreshedAt: refreshed,
		ExpiresAt:   refreshed.Add(30 * time.Second),
	}
	if err := store.PutCacheEntry(ctx, entry); err != nil {
		t.Fatalf("PutCacheEntry: %v", err)
	}

	got, ok, err := store.GetCacheEntry(ctx, "messages")
	if err != nil || !ok {
		t.Fatalf("GetCacheEntry() = _, %v, %v, want hit", ok, err)
	}
	if got.Epoch != 7 {
		t.Fatalf("Epoch = %d, want 7", got.Epoch)
	}
	if got.Scope != "memory:a" {
		t.Fatalf("Scope = %q, want %q", got.Scope, "memory:a")
	}
	if string(got.Payload) != string(entry.Payload) {
		t.Fatalf("Payload = %q, want %q", got.Payload, entry.Payload)
	}
	if !got.RefreshedAt.Equal(refreshed) {
		t.Fatalf("RefreshedAt = %v, want %v", got.RefreshedAt, refreshed)
	}
	if !got.ExpiresAt.Equal(entry.ExpiresAt) {
		t.Fatalf("ExpiresAt = %v, want %v", got.ExpiresAt, entry.ExpiresAt)
	}

	entry.Epoch = 8
	entry.Scope = "memory:b"
	entry.Payload = []byte(`[]`)
	entry.ExpiresAt = time.Time{}
	if err := store.PutCacheEntry(ctx, entry); err != nil {
		t.Fatalf("PutCacheEntry(update): %v", err)
	}
	got, _, _ = store.GetCacheEntry(ctx, "messages")
	if got.Epoch != 8 || got.Scope != "memory:b" || string(got.Payload) != "[]" || !got.ExpiresAt.IsZero() {
		t.Fatalf("updated entry = %+v", got)
	}

	if err := store.DeleteCacheEntry(ctx, "messages"); err != nil {
		t.Fatalf("DeleteCacheEntry: %v", err)
	}
	if _, ok, err := store.GetCacheEntry(ctx, "messages"); err != nil || ok {
		t.Fatalf("GetCacheEntry() after delete = _, %v, %v", ok, err)
	}
}

func TestCacheEntrySurvivesReopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "chat-cache.db")
	store, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.PutCacheEntry(ctx, storage.CacheEntry{Tag: "messages", Epoch: 2, Payload: []byte("[]")}); err != nil {
		t.Fatalf("PutCacheEntry: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { _ = reopened.Close() })
	got, ok, err := reopened.GetCacheEntry(ctx, "messages")
	if err != nil || !ok || got.Epoch != 2 {
		t.Fatalf("GetCacheEntry() = %+v, %v, %v", got, ok, err)
	}
}

func TestStoreValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, _ := openTestStore(t)

	if err := store.PutCacheEntry(ctx, storage.CacheEntry{Payload: []byte("[]")}); err == nil {
		t.Fatalf("expected missing tag error")
	}
	if err := store.PutCacheEntry(ctx, storage.CacheEntry{Tag: "messages"}); err == nil {
		t.Fatalf("expected missing payload error")
	}
	if _, _, err := store.GetCacheEntry(ctx, ""); err == nil {
		t.Fatalf("expected missing tag error on get")
	}
	if err := store.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	var nilStore *Store
	if err := nilStore.Close(); err != nil {
		t.Fatalf("nil Close: %v", err)
	}
	if err := nilStore.Ping(ctx); err == nil {
		t.Fatalf("expected nil store ping error")
	}
}
