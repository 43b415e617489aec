// Package storage defines the record store interfaces backing the services.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate indicates a uniqueness constraint rejected a write.
var ErrDuplicate = errors.New("record already exists")

// Profile is the public projection of a user shown on shared profiles.
type Profile struct {
	ID        string
	Username  string
	AvatarURL string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Game is a catalog entry for a supported game.
type Game struct {
	ID      string
	Name    string
	Slug    string
	IconURL string
}

// UserGameLink associates a user with a game from the catalog.
//
// GameTag is the user's in-game identifier for the linked game. It is
// optional: nil means unset, while an empty string is a deliberate value.
type UserGameLink struct {
	ID        string
	UserID    string
	GameID    string
	GameTag   *string
	CreatedAt time.Time
}

// LinkedGame joins a link with its game catalog metadata.
type LinkedGame struct {
	Link UserGameLink
	Game Game
}

// StatsSnapshot is the per-(user, game) statistics record. Stats is an
// opaque JSON object whose semantics belong to the game integration.
type StatsSnapshot struct {
	ID        string
	UserID    string
	GameID    string
	Stats     json.RawMessage
	UpdatedAt time.Time
}

// UserGameStats joins a snapshot with its game catalog metadata.
type UserGameStats struct {
	Snapshot StatsSnapshot
	Game     Game
}

// ShareToken is a time-boxed token granting read access to a profile.
type ShareToken struct {
	Token     string
	OwnerID   string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// ProfileStore persists public profile projections.
type ProfileStore interface {
	PutProfile(ctx context.Context, profile Profile) error
	GetProfile(ctx context.Context, userID string) (Profile, error)
}

// GameStore persists the game catalog.
type GameStore interface {
	PutGame(ctx context.Context, game Game) error
	GetGame(ctx context.Context, gameID string) (Game, error)
	ListGames(ctx context.Context) ([]Game, error)
}

// LinkStore persists user-game associations.
type LinkStore interface {
	// InsertLink creates a new association. An existing (userID, gameID)
	// pair surfaces as ErrDuplicate.
	InsertLink(ctx context.Context, link UserGameLink) (UserGameLink, error)
	// DeleteLink removes an association. Deleting a missing pair is not an
	// error.
	DeleteLink(ctx context.Context, userID, gameID string) error
	// UpdateLinkTag replaces the game tag on an existing association and
	// returns ErrNotFound when the pair is not linked.
	UpdateLinkTag(ctx context.Context, userID, gameID, gameTag string) (UserGameLink, error)
	// GetLink fetches one association or ErrNotFound.
	GetLink(ctx context.Context, userID, gameID string) (UserGameLink, error)
	// ListLinksForUser returns a user's associations joined with game
	// metadata, most recently linked first.
	ListLinksForUser(ctx context.Context, userID string) ([]LinkedGame, error)
}

// StatsStore persists per-(user, game) statistics snapshots.
type StatsStore interface {
	// UpsertSnapshot inserts or overwrites the snapshot keyed on
	// (UserID, GameID) and returns the persisted row.
	UpsertSnapshot(ctx context.Context, snapshot StatsSnapshot) (StatsSnapshot, error)
	// GetSnapshot fetches one snapshot or ErrNotFound.
	GetSnapshot(ctx context.Context, userID, gameID string) (StatsSnapshot, error)
	// ListSnapshotsForUser returns a user's snapshots joined with game
	// metadata, most recently updated first.
	ListSnapshotsForUser(ctx context.Context, userID string) ([]UserGameStats, error)
	// DeleteSnapshot removes one snapshot. Deleting a missing pair is not
	// an error.
	DeleteSnapshot(ctx context.Context, userID, gameID string) error
}

// ShareTokenStore persists share tokens.
type ShareTokenStore interface {
	PutShareToken(ctx context.Context, token ShareToken) error
	GetShareToken(ctx context.Context, token string) (ShareToken, error)
	// DeleteExpiredShareTokensForOwner removes the owner's tokens whose
	// expiry is at or before now.
	DeleteExpiredShareTokensForOwner(ctx context.Context, ownerID string, now time.Time) error
	// DeleteExpiredShareTokens removes every expired token and reports how
	// many rows were deleted.
	DeleteExpiredShareTokens(ctx context.Context, now time.Time) (int64, error)
}
