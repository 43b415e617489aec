// Package sqlite implements the record store over a single SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/statsgames/statscore/internal/platform/storage/sqlitemigrate"
	"github.com/statsgames/statscore/internal/storage"
	"github.com/statsgames/statscore/internal/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// toMillis normalizes timestamps into millisecond precision for storage.
func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// fromMillis restores millisecond precision and keeps UTC normalization.
func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Store implements every record store interface over SQLite.
//
// A single file backs profiles, the game catalog, links, stats snapshots and
// share tokens so the mobile sync layer has one consistency boundary.
type Store struct {
	sqlDB *sql.DB
}

// Open opens the record store and applies bundled migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return store, nil
}

// Close releases the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// isUniqueViolation reports whether err is a SQLite uniqueness rejection.
func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
			return true
		}
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// PutProfile inserts or replaces a public profile projection.
func (s *Store) PutProfile(ctx context.Context, profile storage.Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(profile.ID) == "" {
		return fmt.Errorf("profile id is required")
	}

	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	if profile.UpdatedAt.IsZero() {
		profile.UpdatedAt = profile.CreatedAt
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO profiles (id, username, avatar_url, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	username = excluded.username,
	avatar_url = excluded.avatar_url,
	updated_at = excluded.updated_at
`,
		profile.ID,
		profile.Username,
		profile.AvatarURL,
		toMillis(profile.CreatedAt),
		toMillis(profile.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put profile: %w", err)
	}
	return nil
}

// GetProfile fetches a public profile projection by user ID.
func (s *Store) GetProfile(ctx context.Context, userID string) (storage.Profile, error) {
	if err := ctx.Err(); err != nil {
		return storage.Profile{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Profile{}, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return storage.Profile{}, fmt.Errorf("user id is required")
	}

	var profile storage.Profile
	var createdAt int64
	var updatedAt int64
	err := s.sqlDB.QueryRowContext(ctx, `
SELECT id, username, avatar_url, created_at, updated_at
FROM profiles
WHERE id = ?
`, userID).Scan(&profile.ID, &profile.Username, &profile.AvatarURL, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Profile{}, storage.ErrNotFound
		}
		return storage.Profile{}, fmt.Errorf("get profile: %w", err)
	}

	profile.CreatedAt = fromMillis(createdAt)
	profile.UpdatedAt = fromMillis(updatedAt)
	return profile, nil
}

// PutGame inserts or replaces a game catalog entry.
func (s *Store) PutGame(ctx context.Context, game storage.Game) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(game.ID) == "" {
		return fmt.Errorf("game id is required")
	}
	if strings.TrimSpace(game.Name) == "" {
		return fmt.Errorf("game name is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO games (id, name, slug, icon_url)
VALUES (?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	name = excluded.name,
	slug = excluded.slug,
	icon_url = excluded.icon_url
`,
		game.ID,
		game.Name,
		game.Slug,
		game.IconURL,
	)
	if err != nil {
		return fmt.Errorf("put game: %w", err)
	}
	return nil
}

// GetGame fetches a game catalog entry by ID.
func (s *Store) GetGame(ctx context.Context, gameID string) (storage.Game, error) {
	if err := ctx.Err(); err != nil {
		return storage.Game{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Game{}, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(gameID) == "" {
		return storage.Game{}, fmt.Errorf("game id is required")
	}

	var game storage.Game
	err := s.sqlDB.QueryRowContext(ctx, `
SELECT id, name, slug, icon_url
FROM games
WHERE id = ?
`, gameID).Scan(&game.ID, &game.Name, &game.Slug, &game.IconURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Game{}, storage.ErrNotFound
		}
		return storage.Game{}, fmt.Errorf("get game: %w", err)
	}
	return game, nil
}

// ListGames returns the full game catalog ordered by name.
func (s *Store) ListGames(ctx context.Context) ([]storage.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, name, slug, icon_url
FROM games
ORDER BY name ASC
`)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var games []storage.Game
	for rows.Next() {
		var game storage.Game
		if err := rows.Scan(&game.ID, &game.Name, &game.Slug, &game.IconURL); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		games = append(games, game)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate games: %w", err)
	}
	return games, nil
}

var _ storage.ProfileStore = (*Store)(nil)
var _ storage.GameStore = (*Store)(nil)
var _ storage.LinkStore = (*Store)(nil)
var _ storage.StatsStore = (*Store)(nil)
var _ storage.ShareTokenStore = (*Store)(nil)
