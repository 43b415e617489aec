package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/statsgames/statscore/internal/storage"
)

// UpsertSnapshot inserts or overwrites the snapshot for (UserID, GameID).
//
// The row ID is stable across overwrites: a conflict keeps the existing ID
// and replaces the payload and timestamp.
func (s *Store) UpsertSnapshot(ctx context.Context, snapshot storage.StatsSnapshot) (storage.StatsSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return storage.StatsSnapshot{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.StatsSnapshot{}, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(snapshot.ID) == "" {
		return storage.StatsSnapshot{}, fmt.Errorf("snapshot id is required")
	}
	if strings.TrimSpace(snapshot.UserID) == "" {
		return storage.StatsSnapshot{}, fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(snapshot.GameID) == "" {
		return storage.StatsSnapshot{}, fmt.Errorf("game id is required")
	}
	if len(snapshot.Stats) == 0 {
		return storage.StatsSnapshot{}, fmt.Errorf("stats payload is required")
	}

	if snapshot.UpdatedAt.IsZero() {
		snapshot.UpdatedAt = time.Now().UTC()
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO game_stats (id, user_id, game_id, stats, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(user_id, game_id) DO UPDATE SET
	stats = excluded.stats,
	updated_at = excluded.updated_at
`,
		snapshot.ID,
		snapshot.UserID,
		snapshot.GameID,
		string(snapshot.Stats),
		toMillis(snapshot.UpdatedAt),
	)
	if err != nil {
		return storage.StatsSnapshot{}, fmt.Errorf("upsert snapshot: %w", err)
	}

	return s.GetSnapshot(ctx, snapshot.UserID, snapshot.GameID)
}

// GetSnapshot fetches the snapshot for (userID, gameID).
func (s *Store) GetSnapshot(ctx context.Context, userID, gameID string) (storage.StatsSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return storage.StatsSnapshot{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.StatsSnapshot{}, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return storage.StatsSnapshot{}, fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(gameID) == "" {
		return storage.StatsSnapshot{}, fmt.Errorf("game id is required")
	}

	var snapshot storage.StatsSnapshot
	var stats string
	var updatedAt int64
	err := s.sqlDB.QueryRowContext(ctx, `
SELECT id, user_id, game_id, stats, updated_at
FROM game_stats
WHERE user_id = ? AND game_id = ?
`, userID, gameID).Scan(&snapshot.ID, &snapshot.UserID, &snapshot.GameID, &stats, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.StatsSnapshot{}, storage.ErrNotFound
		}
		return storage.StatsSnapshot{}, fmt.Errorf("get snapshot: %w", err)
	}

	snapshot.Stats = []byte(stats)
	snapshot.UpdatedAt = fromMillis(updatedAt)
	return snapshot, nil
}

// ListSnapshotsForUser returns a user's snapshots with game metadata, most
// recently updated first.
func (s *Store) ListSnapshotsForUser(ctx context.Context, userID string) ([]storage.UserGameStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("user id is required")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT
	gs.id, gs.user_id, gs.game_id, gs.stats, gs.updated_at,
	g.id, g.name, g.slug, g.icon_url
FROM game_stats gs
JOIN games g ON g.id = gs.game_id
WHERE gs.user_id = ?
ORDER BY gs.updated_at DESC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var results []storage.UserGameStats
	for rows.Next() {
		var entry storage.UserGameStats
		var stats string
		var updatedAt int64
		if err := rows.Scan(
			&entry.Snapshot.ID,
			&entry.Snapshot.UserID,
			&entry.Snapshot.GameID,
			&stats,
			&updatedAt,
			&entry.Game.ID,
			&entry.Game.Name,
			&entry.Game.Slug,
			&entry.Game.IconURL,
		); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		entry.Snapshot.Stats = []byte(stats)
		entry.Snapshot.UpdatedAt = fromMillis(updatedAt)
		results = append(results, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return results, nil
}

// DeleteSnapshot removes the snapshot for (userID, gameID).
func (s *Store) DeleteSnapshot(ctx context.Context, userID, gameID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(gameID) == "" {
		return fmt.Errorf("game id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
DELETE FROM game_stats
WHERE user_id = ? AND game_id = ?
`, userID, gameID)
	if err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}
