package player

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"github.com/statsgames/statscore/internal/platform/errors"
)

// PlayerData is the outcome of a fetch: the raw upstream payload and whether
// it was served from cache.
type PlayerData struct {
	Data   json.RawMessage
	Cached bool
}

// Service is the read-through cache facade over the upstream stats API.
type Service struct {
	client *Client
	cache  *Cache
}

// NewService wires the upstream client and the cache together.
func NewService(client *Client, cache *Cache) *Service {
	return &Service{
		client: client,
		cache:  cache,
	}
}

// FetchPlayer returns the stats for a player tag.
//
// A valid cache entry short-circuits the upstream call unless forceRefresh is
// set. Fresh responses always overwrite the cache; upstream errors are never
// cached.
func (s *Service) FetchPlayer(ctx context.Context, tag string, forceRefresh bool) (PlayerData, error) {
	if strings.TrimSpace(tag) == "" {
		return PlayerData{}, errors.New(errors.CodePlayerTagEmpty, "player tag is required")
	}

	if !forceRefresh {
		if data, ok := s.cache.Lookup(ctx, tag); ok {
			return PlayerData{Data: data, Cached: true}, nil
		}
	}

	data, err := s.client.FetchPlayer(ctx, tag)
	if err != nil {
		return PlayerData{}, err
	}

	s.cache.Store(ctx, tag, data)
	return PlayerData{Data: data, Cached: false}, nil
}

// ClearCache drops every cached player entry. Clearing is best-effort
// housekeeping: failures are logged and never surface to the caller.
func (s *Service) ClearCache(ctx context.Context) {
	if err := s.cache.Clear(ctx); err != nil {
		log.Printf("player cache: clear: %v", err)
	}
}

// CheckUpstreamHealth reports whether the upstream stats API answers its
// root endpoint with a success status. The error carries detail when the API
// is unreachable; it accompanies available=false rather than replacing it.
func (s *Service) CheckUpstreamHealth(ctx context.Context) (bool, error) {
	return s.client.CheckHealth(ctx)
}
