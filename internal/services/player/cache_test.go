package player

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/statsgames/statscore/internal/storage/kv"
)

// memStore is an in-memory kv.Store with call counting for assertions.
type memStore struct {
	values map[string][]byte

	getCalls    int
	setCalls    int
	deleteCalls int

	failListKeys bool
}

func newMemStore() *memStore {
	return &memStore{values: map[string][]byte{}}
}

func (m *memStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.getCalls++
	value, ok := m.values[key]
	if !ok {
		return nil, kv.ErrNotFound
	}
	return value, nil
}

func (m *memStore) Set(ctx context.Context, key string, value []byte) error {
	m.setCalls++
	m.values[key] = append([]byte(nil), value...)
	return nil
}

func (m *memStore) Delete(ctx context.Context, key string) error {
	m.deleteCalls++
	delete(m.values, key)
	return nil
}

func (m *memStore) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	if m.failListKeys {
		return nil, fmt.Errorf("list keys unavailable")
	}
	var keys []string
	for key := range m.values {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (m *memStore) DeleteMany(ctx context.Context, keys []string) error {
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestCacheKeyNormalizesEquivalentTags(t *testing.T) {
	if cacheKey(" #abc123 ") != cacheKey("#ABC123") {
		t.Fatalf("equivalent tags map to different keys: %q vs %q",
			cacheKey(" #abc123 "), cacheKey("#ABC123"))
	}
	if cacheKey("#ABC") == cacheKey("#XYZ") {
		t.Fatal("distinct tags map to the same key")
	}
}

func TestCacheLookupWithinTTL(t *testing.T) {
	store := newMemStore()
	cache := NewCache(store, 5*time.Minute)
	ctx := context.Background()

	storedAt := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	cache.clock = fixedClock(storedAt)
	cache.Store(ctx, "#ABC123", json.RawMessage(`{"trophies":100}`))

	// One millisecond before expiry is still a hit.
	cache.clock = fixedClock(storedAt.Add(5*time.Minute - time.Millisecond))
	data, ok := cache.Lookup(ctx, "#ABC123")
	if !ok {
		t.Fatal("lookup just before TTL missed, want hit")
	}
	if string(data) != `{"trophies":100}` {
		t.Fatalf("data = %s, want stored payload", data)
	}
}

func TestCacheLookupAfterTTLDeletesEntry(t *testing.T) {
	store := newMemStore()
	cache := NewCache(store, 5*time.Minute)
	ctx := context.Background()

	storedAt := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	cache.clock = fixedClock(storedAt)
	cache.Store(ctx, "#ABC123", json.RawMessage(`{"trophies":100}`))

	cache.clock = fixedClock(storedAt.Add(5*time.Minute + time.Millisecond))
	if _, ok := cache.Lookup(ctx, "#ABC123"); ok {
		t.Fatal("lookup just after TTL hit, want miss")
	}
	if len(store.values) != 0 {
		t.Fatalf("expired entry still stored: %v", store.values)
	}
}

func TestCacheLookupExactlyAtTTLIsMiss(t *testing.T) {
	store := newMemStore()
	cache := NewCache(store, 5*time.Minute)
	ctx := context.Background()

	storedAt := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	cache.clock = fixedClock(storedAt)
	cache.Store(ctx, "#ABC123", json.RawMessage(`{}`))

	// Validity is strict: now - storedAt must stay below the TTL.
	cache.clock = fixedClock(storedAt.Add(5 * time.Minute))
	if _, ok := cache.Lookup(ctx, "#ABC123"); ok {
		t.Fatal("lookup exactly at TTL hit, want miss")
	}
}

func TestCacheLookupCorruptEntryIsMissAndDeleted(t *testing.T) {
	store := newMemStore()
	cache := NewCache(store, 5*time.Minute)
	ctx := context.Background()

	store.values[cacheKey("#ABC123")] = []byte("not json")
	if _, ok := cache.Lookup(ctx, "#ABC123"); ok {
		t.Fatal("corrupt entry reported as hit")
	}
	if len(store.values) != 0 {
		t.Fatal("corrupt entry not deleted")
	}
}

func TestCacheStoreOverwrites(t *testing.T) {
	store := newMemStore()
	cache := NewCache(store, 5*time.Minute)
	ctx := context.Background()

	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	cache.clock = fixedClock(now)
	cache.Store(ctx, "#ABC123", json.RawMessage(`{"v":1}`))
	cache.Store(ctx, "#ABC123", json.RawMessage(`{"v":2}`))

	data, ok := cache.Lookup(ctx, "#ABC123")
	if !ok {
		t.Fatal("lookup missed after store")
	}
	if string(data) != `{"v":2}` {
		t.Fatalf("data = %s, want latest payload", data)
	}
	if len(store.values) != 1 {
		t.Fatalf("store holds %d entries, want 1", len(store.values))
	}
}

func TestCacheClearScopedToNamespace(t *testing.T) {
	store := newMemStore()
	cache := NewCache(store, 5*time.Minute)
	ctx := context.Background()

	cache.Store(ctx, "#AAA", json.RawMessage(`{}`))
	cache.Store(ctx, "#BBB", json.RawMessage(`{}`))
	store.values["other/key"] = []byte("keep")

	if err := cache.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(store.values) != 1 {
		t.Fatalf("store = %v, want only other/key to remain", store.values)
	}
	if _, ok := store.values["other/key"]; !ok {
		t.Fatal("clear removed keys outside the player namespace")
	}
}
