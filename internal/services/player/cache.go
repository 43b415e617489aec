package player

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/statsgames/statscore/internal/storage/kv"
)

// cacheKeyPrefix namespaces player entries inside the shared key-value store,
// both for individual lookups and for bulk enumeration during Clear.
const cacheKeyPrefix = "player/"

// cacheEntry is the stored envelope around an upstream response.
type cacheEntry struct {
	Data     json.RawMessage `json:"data"`
	StoredAt int64           `json:"storedAt"` // epoch milliseconds
}

// Cache is a TTL-bounded cache of upstream responses over a persistent
// key-value store.
type Cache struct {
	store kv.Store
	ttl   time.Duration
	clock func() time.Time
}

// NewCache wraps store with TTL bookkeeping. A non-positive TTL falls back
// to the default.
func NewCache(store kv.Store, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		store: store,
		ttl:   ttl,
		clock: time.Now,
	}
}

// normalizeTag maps equivalent player tags onto one cache identity.
// Tags are case-insensitive upstream and users paste them with stray spaces.
func normalizeTag(tag string) string {
	return strings.ToUpper(strings.TrimSpace(tag))
}

// cacheKey builds the namespaced store key for a tag. The tag is escaped so
// symbols like '#' cannot collide with the namespace separator.
func cacheKey(tag string) string {
	return cacheKeyPrefix + url.PathEscape(normalizeTag(tag))
}

// Lookup returns the cached payload for tag while it is within TTL.
//
// An entry found expired is deleted before reporting a miss, so the store
// never serves it again. Store failures degrade to a miss; the caller then
// refetches from upstream.
func (c *Cache) Lookup(ctx context.Context, tag string) (json.RawMessage, bool) {
	key := cacheKey(tag)
	payload, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			log.Printf("player cache: read %s: %v", key, err)
		}
		return nil, false
	}

	var entry cacheEntry
	if err := json.Unmarshal(payload, &entry); err != nil {
		log.Printf("player cache: decode %s: %v", key, err)
		_ = c.store.Delete(ctx, key)
		return nil, false
	}

	age := c.clock().UTC().UnixMilli() - entry.StoredAt
	if age >= c.ttl.Milliseconds() {
		if err := c.store.Delete(ctx, key); err != nil {
			log.Printf("player cache: delete expired %s: %v", key, err)
		}
		return nil, false
	}

	return entry.Data, true
}

// Store persists a fresh upstream response for tag, overwriting any previous
// entry. Failures are logged and swallowed: caching is an optimization, not
// part of the fetch contract.
func (c *Cache) Store(ctx context.Context, tag string, data json.RawMessage) {
	entry := cacheEntry{
		Data:     data,
		StoredAt: c.clock().UTC().UnixMilli(),
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		log.Printf("player cache: encode entry: %v", err)
		return
	}
	if err := c.store.Set(ctx, cacheKey(tag), payload); err != nil {
		log.Printf("player cache: write %s: %v", cacheKey(tag), err)
	}
}

// Clear removes every entry in the player namespace.
func (c *Cache) Clear(ctx context.Context) error {
	keys, err := c.store.ListKeys(ctx, cacheKeyPrefix)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.store.DeleteMany(ctx, keys)
}
