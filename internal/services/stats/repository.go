// Package stats persists per-(user, game) statistics snapshots.
//
// A snapshot is the latest known stats payload for one user in one game.
// Writes overwrite; history is out of scope.
package stats

import (
	"context"
	"strings"
	"time"

	"github.com/statsgames/statscore/internal/platform/errors"
	"github.com/statsgames/statscore/internal/platform/id"
	"github.com/statsgames/statscore/internal/storage"
)

// Repository mediates snapshot access over the record store.
type Repository struct {
	store storage.StatsStore

	clock       func() time.Time
	idGenerator func() (string, error)
}

// NewRepository wires the repository to its store.
func NewRepository(store storage.StatsStore) *Repository {
	return &Repository{
		store:       store,
		clock:       time.Now,
		idGenerator: id.NewID,
	}
}

// Upsert inserts or overwrites the snapshot for (userID, gameID) and returns
// the persisted record. An existing pair keeps its original row ID; only the
// payload and update time change.
func (r *Repository) Upsert(ctx context.Context, userID, gameID string, stats []byte) (storage.StatsSnapshot, error) {
	userID = strings.TrimSpace(userID)
	gameID = strings.TrimSpace(gameID)
	if userID == "" {
		return storage.StatsSnapshot{}, errors.New(errors.CodeUserIDEmpty, "user id is required")
	}
	if gameID == "" {
		return storage.StatsSnapshot{}, errors.New(errors.CodeGameIDEmpty, "game id is required")
	}
	if len(stats) == 0 {
		return storage.StatsSnapshot{}, errors.New(errors.CodeStatsMissing, "stats payload is required")
	}

	snapshotID, err := r.idGenerator()
	if err != nil {
		return storage.StatsSnapshot{}, errors.Wrap(errors.CodeUnknown, "generate snapshot id", err)
	}

	snapshot, err := r.store.UpsertSnapshot(ctx, storage.StatsSnapshot{
		ID:        snapshotID,
		UserID:    userID,
		GameID:    gameID,
		Stats:     stats,
		UpdatedAt: r.clock().UTC(),
	})
	if err != nil {
		return storage.StatsSnapshot{}, errors.Wrap(errors.CodeStorage, "upsert stats snapshot", err)
	}
	return snapshot, nil
}

// FetchOne returns the snapshot for (userID, gameID), or nil when the pair
// has none. A missing snapshot is an answer, not a failure.
func (r *Repository) FetchOne(ctx context.Context, userID, gameID string) (*storage.StatsSnapshot, error) {
	userID = strings.TrimSpace(userID)
	gameID = strings.TrimSpace(gameID)
	if userID == "" {
		return nil, errors.New(errors.CodeUserIDEmpty, "user id is required")
	}
	if gameID == "" {
		return nil, errors.New(errors.CodeGameIDEmpty, "game id is required")
	}

	snapshot, err := r.store.GetSnapshot(ctx, userID, gameID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(errors.CodeStorage, "get stats snapshot", err)
	}
	return &snapshot, nil
}

// FetchAllForUser returns the user's snapshots joined with game metadata,
// most recently updated first.
func (r *Repository) FetchAllForUser(ctx context.Context, userID string) ([]storage.UserGameStats, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, errors.New(errors.CodeUserIDEmpty, "user id is required")
	}

	rows, err := r.store.ListSnapshotsForUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeStorage, "list stats snapshots", err)
	}
	return rows, nil
}

// Delete removes the snapshot for (userID, gameID). Deleting a pair that has
// no snapshot is not an error.
func (r *Repository) Delete(ctx context.Context, userID, gameID string) error {
	userID = strings.TrimSpace(userID)
	gameID = strings.TrimSpace(gameID)
	if userID == "" {
		return errors.New(errors.CodeUserIDEmpty, "user id is required")
	}
	if gameID == "" {
		return errors.New(errors.CodeGameIDEmpty, "game id is required")
	}

	if err := r.store.DeleteSnapshot(ctx, userID, gameID); err != nil {
		return errors.Wrap(errors.CodeStorage, "delete stats snapshot", err)
	}
	return nil
}
