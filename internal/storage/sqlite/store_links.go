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

// InsertLink creates a user-game association.
func (s *Store) InsertLink(ctx context.Context, link storage.UserGameLink) (storage.UserGameLink, error) {
	if err := ctx.Err(); err != nil {
		return storage.UserGameLink{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.UserGameLink{}, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(link.ID) == "" {
		return storage.UserGameLink{}, fmt.Errorf("link id is required")
	}
	if strings.TrimSpace(link.UserID) == "" {
		return storage.UserGameLink{}, fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(link.GameID) == "" {
		return storage.UserGameLink{}, fmt.Errorf("game id is required")
	}

	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}

	gameTag := sql.NullString{}
	if link.GameTag != nil {
		gameTag = sql.NullString{String: *link.GameTag, Valid: true}
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO user_games (id, user_id, game_id, game_tag, created_at)
VALUES (?, ?, ?, ?, ?)
`,
		link.ID,
		link.UserID,
		link.GameID,
		gameTag,
		toMillis(link.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.UserGameLink{}, storage.ErrDuplicate
		}
		return storage.UserGameLink{}, fmt.Errorf("insert link: %w", err)
	}
	return link, nil
}

// DeleteLink removes a user-game association.
func (s *Store) DeleteLink(ctx context.Context, userID, gameID string) error {
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
DELETE FROM user_games
WHERE user_id = ? AND game_id = ?
`, userID, gameID)
	if err != nil {
		return fmt.Errorf("delete link: %w", err)
	}
	return nil
}

// UpdateLinkTag replaces the game tag on an existing association.
func (s *Store) UpdateLinkTag(ctx context.Context, userID, gameID, gameTag string) (storage.UserGameLink, error) {
	if err := ctx.Err(); err != nil {
		return storage.UserGameLink{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.UserGameLink{}, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return storage.UserGameLink{}, fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(gameID) == "" {
		return storage.UserGameLink{}, fmt.Errorf("game id is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE user_games
SET game_tag = ?
WHERE user_id = ? AND game_id = ?
`, gameTag, userID, gameID)
	if err != nil {
		return storage.UserGameLink{}, fmt.Errorf("update link tag: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return storage.UserGameLink{}, fmt.Errorf("update link tag rows: %w", err)
	}
	if affected == 0 {
		return storage.UserGameLink{}, storage.ErrNotFound
	}

	return s.GetLink(ctx, userID, gameID)
}

// GetLink fetches a user-game association.
func (s *Store) GetLink(ctx context.Context, userID, gameID string) (storage.UserGameLink, error) {
	if err := ctx.Err(); err != nil {
		return storage.UserGameLink{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.UserGameLink{}, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return storage.UserGameLink{}, fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(gameID) == "" {
		return storage.UserGameLink{}, fmt.Errorf("game id is required")
	}

	var link storage.UserGameLink
	var gameTag sql.NullString
	var createdAt int64
	err := s.sqlDB.QueryRowContext(ctx, `
SELECT id, user_id, game_id, game_tag, created_at
FROM user_games
WHERE user_id = ? AND game_id = ?
`, userID, gameID).Scan(&link.ID, &link.UserID, &link.GameID, &gameTag, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.UserGameLink{}, storage.ErrNotFound
		}
		return storage.UserGameLink{}, fmt.Errorf("get link: %w", err)
	}

	if gameTag.Valid {
		value := gameTag.String
		link.GameTag = &value
	}
	link.CreatedAt = fromMillis(createdAt)
	return link, nil
}

// ListLinksForUser returns a user's associations with game metadata, most
// recently linked first.
func (s *Store) ListLinksForUser(ctx context.Context, userID string) ([]storage.LinkedGame, error) {
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
	ug.id, ug.user_id, ug.game_id, ug.game_tag, ug.created_at,
	g.id, g.name, g.slug, g.icon_url
FROM user_games ug
JOIN games g ON g.id = ug.game_id
WHERE ug.user_id = ?
ORDER BY ug.created_at DESC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	defer rows.Close()

	var linked []storage.LinkedGame
	for rows.Next() {
		var entry storage.LinkedGame
		var gameTag sql.NullString
		var createdAt int64
		if err := rows.Scan(
			&entry.Link.ID,
			&entry.Link.UserID,
			&entry.Link.GameID,
			&gameTag,
			&createdAt,
			&entry.Game.ID,
			&entry.Game.Name,
			&entry.Game.Slug,
			&entry.Game.IconURL,
		); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		if gameTag.Valid {
			value := gameTag.String
			entry.Link.GameTag = &value
		}
		entry.Link.CreatedAt = fromMillis(createdAt)
		linked = append(linked, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate links: %w", err)
	}
	return linked, nil
}
