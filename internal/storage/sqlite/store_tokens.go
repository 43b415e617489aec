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

// PutShareToken persists a share token record. Tokens are never mutated, so
// a duplicate token value is rejected rather than overwritten.
func (s *Store) PutShareToken(ctx context.Context, token storage.ShareToken) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(token.Token) == "" {
		return fmt.Errorf("token is required")
	}
	if strings.TrimSpace(token.OwnerID) == "" {
		return fmt.Errorf("owner id is required")
	}
	if token.ExpiresAt.IsZero() {
		return fmt.Errorf("expiry is required")
	}

	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO share_tokens (token, owner_id, created_at, expires_at)
VALUES (?, ?, ?, ?)
`,
		token.Token,
		token.OwnerID,
		toMillis(token.CreatedAt),
		toMillis(token.ExpiresAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrDuplicate
		}
		return fmt.Errorf("put share token: %w", err)
	}
	return nil
}

// GetShareToken fetches a share token record by exact token value.
func (s *Store) GetShareToken(ctx context.Context, token string) (storage.ShareToken, error) {
	if err := ctx.Err(); err != nil {
		return storage.ShareToken{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.ShareToken{}, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(token) == "" {
		return storage.ShareToken{}, fmt.Errorf("token is required")
	}

	var record storage.ShareToken
	var createdAt int64
	var expiresAt int64
	err := s.sqlDB.QueryRowContext(ctx, `
SELECT token, owner_id, created_at, expires_at
FROM share_tokens
WHERE token = ?
`, token).Scan(&record.Token, &record.OwnerID, &createdAt, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ShareToken{}, storage.ErrNotFound
		}
		return storage.ShareToken{}, fmt.Errorf("get share token: %w", err)
	}

	record.CreatedAt = fromMillis(createdAt)
	record.ExpiresAt = fromMillis(expiresAt)
	return record, nil
}

// DeleteExpiredShareTokensForOwner removes the owner's expired tokens.
func (s *Store) DeleteExpiredShareTokensForOwner(ctx context.Context, ownerID string, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(ownerID) == "" {
		return fmt.Errorf("owner id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
DELETE FROM share_tokens
WHERE owner_id = ? AND expires_at <= ?
`, ownerID, toMillis(now))
	if err != nil {
		return fmt.Errorf("delete expired share tokens for owner: %w", err)
	}
	return nil
}

// DeleteExpiredShareTokens removes every expired token across owners.
func (s *Store) DeleteExpiredShareTokens(ctx context.Context, now time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
DELETE FROM share_tokens
WHERE expires_at <= ?
`, toMillis(now))
	if err != nil {
		return 0, fmt.Errorf("delete expired share tokens: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("deleted rows: %w", err)
	}
	return deleted, nil
}
