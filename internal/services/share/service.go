// Package share mints and resolves time-boxed profile share tokens.
//
// A token is a bearer credential: anyone holding it can read the owner's
// public profile and stats until the token expires. Expiry is a read-time
// check; resolving never consumes a token, and multiple live tokens per
// owner are permitted.
package share

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"

	"github.com/statsgames/statscore/internal/platform/errors"
	"github.com/statsgames/statscore/internal/random"
	"github.com/statsgames/statscore/internal/storage"
)

const tracerName = "github.com/statsgames/statscore/internal/services/share"

// MintedToken is the outcome of creating a share token.
type MintedToken struct {
	Token     string
	URL       string
	ExpiresAt time.Time
}

// SharedProfile is what a resolved token grants: the owner's public profile
// and their stats snapshots joined with game metadata.
type SharedProfile struct {
	Profile storage.Profile
	Stats   []storage.UserGameStats
}

// Service mints and resolves share tokens against the record store.
type Service struct {
	profiles storage.ProfileStore
	stats    storage.StatsStore
	tokens   storage.ShareTokenStore
	config   Config

	clock    func() time.Time
	newToken func() (string, error)
}

// NewService wires the share service to its stores.
func NewService(profiles storage.ProfileStore, stats storage.StatsStore, tokens storage.ShareTokenStore, config Config) *Service {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.TTL == 0 {
		config.TTL = DefaultTokenTTL
	}
	return &Service{
		profiles: profiles,
		stats:    stats,
		tokens:   tokens,
		config:   config,
		clock:    time.Now,
		newToken: random.NewToken,
	}
}

// CreateToken mints a fresh share token for ownerID.
//
// A zero ttl falls back to the configured default. Existing live tokens for
// the owner are left untouched; only already-expired ones are swept, and the
// sweep never blocks the mint.
func (s *Service) CreateToken(ctx context.Context, ownerID string, ttl time.Duration) (MintedToken, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "share.CreateToken")
	defer span.End()

	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return MintedToken{}, errors.New(errors.CodeShareOwnerEmpty, "share owner is required")
	}
	if ttl < 0 {
		return MintedToken{}, errors.New(errors.CodeShareTTLInvalid, "share token ttl must not be negative")
	}
	if ttl == 0 {
		ttl = s.config.TTL
	}
	span.SetAttributes(attribute.String("share.owner_id", ownerID))

	s.SweepExpiredForOwner(ctx, ownerID)

	token, err := s.newToken()
	if err != nil {
		span.RecordError(err)
		return MintedToken{}, errors.Wrap(errors.CodeUnknown, "generate share token", err)
	}

	now := s.clock().UTC()
	expiresAt := now.Add(ttl)
	if err := s.tokens.PutShareToken(ctx, storage.ShareToken{
		Token:     token,
		OwnerID:   ownerID,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, "store share token")
		return MintedToken{}, errors.Wrap(errors.CodeStorage, "store share token", err)
	}

	shareURL, err := buildShareURL(s.config.BaseURL, token)
	if err != nil {
		return MintedToken{}, errors.Wrap(errors.CodeUnknown, "build share url", err)
	}

	return MintedToken{
		Token:     token,
		URL:       shareURL,
		ExpiresAt: expiresAt,
	}, nil
}

// ResolveToken exchanges a token for the owner's shared profile.
//
// A missing record and an expired record are distinct failures so callers
// can guide the user differently. The profile is required; a stats read
// failure degrades to an empty stats list rather than failing the resolve.
func (s *Service) ResolveToken(ctx context.Context, token string) (SharedProfile, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "share.ResolveToken")
	defer span.End()

	token = strings.TrimSpace(token)
	if token == "" {
		return SharedProfile{}, errors.New(errors.CodeShareTokenEmpty, "share token is required")
	}

	record, err := s.tokens.GetShareToken(ctx, token)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			span.SetStatus(otelcodes.Error, "token not found")
			return SharedProfile{}, errors.New(errors.CodeShareTokenNotFound, "share token not found")
		}
		span.RecordError(err)
		return SharedProfile{}, errors.Wrap(errors.CodeStorage, "load share token", err)
	}

	now := s.clock().UTC()
	if !now.Before(record.ExpiresAt) {
		span.SetStatus(otelcodes.Error, "token expired")
		return SharedProfile{}, errors.New(errors.CodeShareTokenExpired, "share token expired")
	}

	profile, err := s.profiles.GetProfile(ctx, record.OwnerID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return SharedProfile{}, errors.New(errors.CodeNotFound, "shared profile not found")
		}
		span.RecordError(err)
		return SharedProfile{}, errors.Wrap(errors.CodeStorage, "load shared profile", err)
	}

	stats, err := s.stats.ListSnapshotsForUser(ctx, record.OwnerID)
	if err != nil {
		log.Printf("share: list stats for %s: %v", record.OwnerID, err)
		stats = nil
	}

	return SharedProfile{
		Profile: profile,
		Stats:   stats,
	}, nil
}

// SweepExpiredForOwner removes the owner's expired tokens. Sweeping is
// best-effort housekeeping: failures are logged and never surface to the
// caller.
func (s *Service) SweepExpiredForOwner(ctx context.Context, ownerID string) {
	if err := s.tokens.DeleteExpiredShareTokensForOwner(ctx, ownerID, s.clock().UTC()); err != nil {
		log.Printf("share: sweep expired tokens for %s: %v", ownerID, err)
	}
}

// SweepExpired removes every expired token and reports how many were
// deleted. Unlike the per-owner sweep this surfaces failures, so maintenance
// tooling can report them.
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	deleted, err := s.tokens.DeleteExpiredShareTokens(ctx, s.clock().UTC())
	if err != nil {
		return 0, errors.Wrap(errors.CodeStorage, "sweep expired share tokens", err)
	}
	return deleted, nil
}

func buildShareURL(base string, token string) (string, error) {
	base = strings.TrimSpace(base)
	if base == "" {
		return "", fmt.Errorf("base url is required")
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	return parsed.JoinPath("nfc", token).String(), nil
}
