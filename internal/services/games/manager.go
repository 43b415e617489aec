// Package games manages the game catalog and user-game links.
//
// A link ties a user to a catalog game, optionally carrying the user's
// in-game tag. Links and stats snapshots are independent records: unlinking
// does not cascade, callers delete the snapshot as a second step.
package games

import (
	"context"
	"strings"
	"time"

	"github.com/statsgames/statscore/internal/platform/errors"
	"github.com/statsgames/statscore/internal/platform/id"
	"github.com/statsgames/statscore/internal/storage"
)

// Manager mediates catalog and link access over the record store.
type Manager struct {
	games storage.GameStore
	links storage.LinkStore

	clock       func() time.Time
	idGenerator func() (string, error)
}

// NewManager wires the manager to its stores.
func NewManager(games storage.GameStore, links storage.LinkStore) *Manager {
	return &Manager{
		games:       games,
		links:       links,
		clock:       time.Now,
		idGenerator: id.NewID,
	}
}

// ListGames returns the game catalog ordered by name.
func (m *Manager) ListGames(ctx context.Context) ([]storage.Game, error) {
	games, err := m.games.ListGames(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.CodeStorage, "list games", err)
	}
	return games, nil
}

// Link associates a user with a game. The gameTag is optional; nil leaves it
// unset. Linking an already-linked pair fails with a distinguishable code so
// callers can tell the collision apart from storage trouble.
func (m *Manager) Link(ctx context.Context, userID, gameID string, gameTag *string) (storage.UserGameLink, error) {
	userID = strings.TrimSpace(userID)
	gameID = strings.TrimSpace(gameID)
	if userID == "" {
		return storage.UserGameLink{}, errors.New(errors.CodeUserIDEmpty, "user id is required")
	}
	if gameID == "" {
		return storage.UserGameLink{}, errors.New(errors.CodeGameIDEmpty, "game id is required")
	}

	linkID, err := m.idGenerator()
	if err != nil {
		return storage.UserGameLink{}, errors.Wrap(errors.CodeUnknown, "generate link id", err)
	}

	link, err := m.links.InsertLink(ctx, storage.UserGameLink{
		ID:        linkID,
		UserID:    userID,
		GameID:    gameID,
		GameTag:   gameTag,
		CreatedAt: m.clock().UTC(),
	})
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return storage.UserGameLink{}, errors.New(errors.CodeLinkAlreadyExists, "game is already linked")
		}
		return storage.UserGameLink{}, errors.Wrap(errors.CodeStorage, "insert link", err)
	}
	return link, nil
}

// Unlink removes the association between a user and a game. Unlinking a pair
// that is not linked is not an error. The game's stats snapshot, if any, is
// left in place.
func (m *Manager) Unlink(ctx context.Context, userID, gameID string) error {
	userID = strings.TrimSpace(userID)
	gameID = strings.TrimSpace(gameID)
	if userID == "" {
		return errors.New(errors.CodeUserIDEmpty, "user id is required")
	}
	if gameID == "" {
		return errors.New(errors.CodeGameIDEmpty, "game id is required")
	}

	if err := m.links.DeleteLink(ctx, userID, gameID); err != nil {
		return errors.Wrap(errors.CodeStorage, "delete link", err)
	}
	return nil
}

// UpdateTag replaces the in-game tag on an existing link. The tag must be
// provided; an empty string is a deliberate value that clears the visible
// tag without unsetting it.
func (m *Manager) UpdateTag(ctx context.Context, userID, gameID string, gameTag *string) (storage.UserGameLink, error) {
	userID = strings.TrimSpace(userID)
	gameID = strings.TrimSpace(gameID)
	if userID == "" {
		return storage.UserGameLink{}, errors.New(errors.CodeUserIDEmpty, "user id is required")
	}
	if gameID == "" {
		return storage.UserGameLink{}, errors.New(errors.CodeGameIDEmpty, "game id is required")
	}
	if gameTag == nil {
		return storage.UserGameLink{}, errors.New(errors.CodeGameTagRequired, "game tag is required")
	}

	link, err := m.links.UpdateLinkTag(ctx, userID, gameID, *gameTag)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.UserGameLink{}, errors.New(errors.CodeLinkNotFound, "game is not linked")
		}
		return storage.UserGameLink{}, errors.Wrap(errors.CodeStorage, "update link tag", err)
	}
	return link, nil
}

// IsLinked reports whether the user has linked the game. A missing link is
// an answer, not a failure.
func (m *Manager) IsLinked(ctx context.Context, userID, gameID string) (bool, error) {
	userID = strings.TrimSpace(userID)
	gameID = strings.TrimSpace(gameID)
	if userID == "" {
		return false, errors.New(errors.CodeUserIDEmpty, "user id is required")
	}
	if gameID == "" {
		return false, errors.New(errors.CodeGameIDEmpty, "game id is required")
	}

	if _, err := m.links.GetLink(ctx, userID, gameID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, errors.Wrap(errors.CodeStorage, "get link", err)
	}
	return true, nil
}

// ListForUser returns the user's links joined with game metadata, most
// recently linked first.
func (m *Manager) ListForUser(ctx context.Context, userID string) ([]storage.LinkedGame, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, errors.New(errors.CodeUserIDEmpty, "user id is required")
	}

	rows, err := m.links.ListLinksForUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeStorage, "list links", err)
	}
	return rows, nil
}
