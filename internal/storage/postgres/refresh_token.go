package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pribylovaa/notes-backend/internal/models"
	"github.com/pribylovaa/notes-backend/internal/storage"
)

// SaveRefreshToken сохраняет новый refresh-токен. Совпадение значения токена
// с уже сохранённым -> storage.ErrAlreadyExists.
func (s *Storage) SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	const op = "storage.postgres.SaveRefreshToken"

	query := `
		INSERT INTO refresh_tokens(id, token, account_id, expires_at, revoked, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.pool.Exec(ctx, query,
		token.ID,
		token.Token,
		token.AccountID,
		token.ExpiresAt,
		token.Revoked,
		token.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// RefreshTokenByToken находит refresh-токен по значению вместе с владельцем.
func (s *Storage) RefreshTokenByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	const op = "storage.postgres.RefreshTokenByToken"

	query := `
		SELECT rt.id, rt.token, rt.account_id, rt.expires_at, rt.revoked, rt.revoked_at, rt.created_at,
		       a.id, a.email
		FROM refresh_tokens rt
		JOIN accounts a ON a.id = rt.account_id
		WHERE rt.token = $1
	`

	var rt models.RefreshToken
	err := s.pool.QueryRow(ctx, query, token).Scan(
		&rt.ID,
		&rt.Token,
		&rt.AccountID,
		&rt.ExpiresAt,
		&rt.Revoked,
		&rt.RevokedAt,
		&rt.CreatedAt,
		&rt.Owner.ID,
		&rt.Owner.Email,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &rt, nil
}

// RevokeRefreshToken помечает токен отозванным. Идемпотентна: у уже отозванного
// токена revoked_at сохраняет первое значение.
func (s *Storage) RevokeRefreshToken(ctx context.Context, token string, at time.Time) error {
	const op = "storage.postgres.RevokeRefreshToken"

	query := `
		UPDATE refresh_tokens
		SET revoked = TRUE, revoked_at = COALESCE(revoked_at, $2)
		WHERE token = $1
	`

	cmdTag, err := s.pool.Exec(ctx, query, token, at)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// RevokeActiveRefreshToken атомарно переводит активный токен в REVOKED.
// false без ошибки означает, что токен уже был отозван; ErrNotFound — токена нет.
func (s *Storage) RevokeActiveRefreshToken(ctx context.Context, token string, at time.Time) (bool, error) {
	const op = "storage.postgres.RevokeActiveRefreshToken"

	query := `
		UPDATE refresh_tokens
		SET revoked = TRUE, revoked_at = $2
		WHERE token = $1 AND revoked = FALSE
	`

	cmdTag, err := s.pool.Exec(ctx, query, token, at)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if cmdTag.RowsAffected() == 1 {
		return true, nil
	}

	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM refresh_tokens WHERE token = $1)`, token).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if !exists {
		return false, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return false, nil
}

// RevokeAccountRefreshTokens отзывает все ещё активные токены аккаунта
// и возвращает число затронутых записей.
func (s *Storage) RevokeAccountRefreshTokens(ctx context.Context, accountID uuid.UUID, at time.Time) (int64, error) {
	const op = "storage.postgres.RevokeAccountRefreshTokens"

	query := `
		UPDATE refresh_tokens
		SET revoked = TRUE, revoked_at = $2
		WHERE account_id = $1 AND revoked = FALSE
	`

	cmdTag, err := s.pool.Exec(ctx, query, accountID, at)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return cmdTag.RowsAffected(), nil
}
