package player

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/statsgames/statscore/internal/platform/errors"
)

type upstreamFixture struct {
	server *httptest.Server
	calls  atomic.Int64
}

// newUpstreamFixture serves a fixed player payload and counts requests so
// tests can assert whether the cache short-circuited the network.
func newUpstreamFixture(t *testing.T, payload string) *upstreamFixture {
	t.Helper()
	fixture := &upstreamFixture{}
	fixture.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fixture.calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(payload))
	}))
	t.Cleanup(fixture.server.Close)
	return fixture
}

func newTestService(t *testing.T, fixture *upstreamFixture, store *memStore) (*Service, *Cache) {
	t.Helper()
	cfg := Config{BaseURL: fixture.server.URL, CacheTTL: 5 * time.Minute}
	cache := NewCache(store, cfg.CacheTTL)
	service := NewService(NewClient(cfg, fixture.server.Client()), cache)
	return service, cache
}

func TestFetchPlayerEmptyTagRejectedBeforeIO(t *testing.T) {
	fixture := newUpstreamFixture(t, `{}`)
	store := newMemStore()
	service, _ := newTestService(t, fixture, store)

	for _, tag := range []string{"", "   "} {
		_, err := service.FetchPlayer(context.Background(), tag, false)
		if errors.CodeOf(err) != errors.CodePlayerTagEmpty {
			t.Fatalf("FetchPlayer(%q) code = %q, want %q", tag, errors.CodeOf(err), errors.CodePlayerTagEmpty)
		}
	}
	if fixture.calls.Load() != 0 {
		t.Fatalf("network calls = %d, want 0", fixture.calls.Load())
	}
	if store.getCalls != 0 || store.setCalls != 0 {
		t.Fatalf("cache touched on validation failure: gets=%d sets=%d", store.getCalls, store.setCalls)
	}
}

func TestFetchPlayerMissThenHit(t *testing.T) {
	fixture := newUpstreamFixture(t, `{"trophies":100}`)
	service, _ := newTestService(t, fixture, newMemStore())
	ctx := context.Background()

	first, err := service.FetchPlayer(ctx, "#ABC123", false)
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if first.Cached {
		t.Fatal("first fetch reported cached, want miss")
	}
	if fixture.calls.Load() != 1 {
		t.Fatalf("network calls = %d, want 1", fixture.calls.Load())
	}

	second, err := service.FetchPlayer(ctx, "#ABC123", false)
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if !second.Cached {
		t.Fatal("second fetch not served from cache")
	}
	if string(second.Data) != `{"trophies":100}` {
		t.Fatalf("data = %s, want cached payload", second.Data)
	}
	if fixture.calls.Load() != 1 {
		t.Fatalf("network calls = %d, want 1 (hit must not refetch)", fixture.calls.Load())
	}
}

func TestFetchPlayerTTLExpiryScenario(t *testing.T) {
	fixture := newUpstreamFixture(t, `{"trophies":100}`)
	service, cache := newTestService(t, fixture, newMemStore())
	ctx := context.Background()

	start := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	cache.clock = fixedClock(start)
	if _, err := service.FetchPlayer(ctx, "#ABC123", false); err != nil {
		t.Fatalf("initial fetch: %v", err)
	}

	// T+4:59 is a hit with no network call.
	cache.clock = fixedClock(start.Add(4*time.Minute + 59*time.Second))
	result, err := service.FetchPlayer(ctx, "#ABC123", false)
	if err != nil {
		t.Fatalf("fetch at 4:59: %v", err)
	}
	if !result.Cached {
		t.Fatal("fetch at 4:59 not cached, want hit")
	}
	if fixture.calls.Load() != 1 {
		t.Fatalf("network calls = %d, want 1", fixture.calls.Load())
	}

	// T+5:01 misses, refetches and overwrites the cache.
	cache.clock = fixedClock(start.Add(5*time.Minute + time.Second))
	result, err = service.FetchPlayer(ctx, "#ABC123", false)
	if err != nil {
		t.Fatalf("fetch at 5:01: %v", err)
	}
	if result.Cached {
		t.Fatal("fetch at 5:01 cached, want miss")
	}
	if fixture.calls.Load() != 2 {
		t.Fatalf("network calls = %d, want 2", fixture.calls.Load())
	}

	// The overwritten entry is fresh again.
	result, err = service.FetchPlayer(ctx, "#ABC123", false)
	if err != nil {
		t.Fatalf("fetch after refresh: %v", err)
	}
	if !result.Cached {
		t.Fatal("fetch after refresh not cached, want hit")
	}
}

func TestFetchPlayerForceRefreshBypassesValidEntry(t *testing.T) {
	fixture := newUpstreamFixture(t, `{"trophies":100}`)
	store := newMemStore()
	service, _ := newTestService(t, fixture, store)
	ctx := context.Background()

	if _, err := service.FetchPlayer(ctx, "#ABC123", false); err != nil {
		t.Fatalf("initial fetch: %v", err)
	}

	result, err := service.FetchPlayer(ctx, "#ABC123", true)
	if err != nil {
		t.Fatalf("forced fetch: %v", err)
	}
	if result.Cached {
		t.Fatal("forced fetch reported cached")
	}
	if fixture.calls.Load() != 2 {
		t.Fatalf("network calls = %d, want 2 (force must refetch)", fixture.calls.Load())
	}
	if store.setCalls != 2 {
		t.Fatalf("cache writes = %d, want 2 (force must overwrite)", store.setCalls)
	}
}

func TestFetchPlayerDoesNotCacheErrors(t *testing.T) {
	var status atomic.Int64
	status.Store(http.StatusServiceUnavailable)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(status.Load()))
		_, _ = w.Write([]byte(`{"error":"maintenance"}`))
	}))
	defer server.Close()

	store := newMemStore()
	cfg := Config{BaseURL: server.URL, CacheTTL: 5 * time.Minute}
	service := NewService(NewClient(cfg, server.Client()), NewCache(store, cfg.CacheTTL))

	_, err := service.FetchPlayer(context.Background(), "#ABC123", false)
	if errors.CodeOf(err) != errors.CodeUpstreamStatus {
		t.Fatalf("code = %q, want %q", errors.CodeOf(err), errors.CodeUpstreamStatus)
	}
	if store.setCalls != 0 {
		t.Fatalf("cache writes = %d, want 0 (errors must not be cached)", store.setCalls)
	}
}

func TestFetchPlayerEquivalentTagsShareOneEntry(t *testing.T) {
	fixture := newUpstreamFixture(t, `{"trophies":100}`)
	service, _ := newTestService(t, fixture, newMemStore())
	ctx := context.Background()

	if _, err := service.FetchPlayer(ctx, "#abc123", false); err != nil {
		t.Fatalf("fetch lowercase: %v", err)
	}
	result, err := service.FetchPlayer(ctx, " #ABC123 ", false)
	if err != nil {
		t.Fatalf("fetch uppercase: %v", err)
	}
	if !result.Cached {
		t.Fatal("equivalent tag missed the cache")
	}
	if fixture.calls.Load() != 1 {
		t.Fatalf("network calls = %d, want 1", fixture.calls.Load())
	}
}

func TestClearCacheSwallowsStoreFailures(t *testing.T) {
	fixture := newUpstreamFixture(t, `{}`)
	store := newMemStore()
	store.failListKeys = true
	service, _ := newTestService(t, fixture, store)

	// Must not panic or surface the failure.
	service.ClearCache(context.Background())
}

func TestClearCacheDropsEntries(t *testing.T) {
	fixture := newUpstreamFixture(t, `{"trophies":100}`)
	store := newMemStore()
	service, _ := newTestService(t, fixture, store)
	ctx := context.Background()

	if _, err := service.FetchPlayer(ctx, "#ABC123", false); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	service.ClearCache(ctx)

	result, err := service.FetchPlayer(ctx, "#ABC123", false)
	if err != nil {
		t.Fatalf("fetch after clear: %v", err)
	}
	if result.Cached {
		t.Fatal("fetch after clear served from cache, want miss")
	}
	if fixture.calls.Load() != 2 {
		t.Fatalf("network calls = %d, want 2", fixture.calls.Load())
	}
}
