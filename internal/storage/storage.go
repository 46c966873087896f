// storage описывает контракт хранилища аккаунтов и refresh-токенов.
package storage

//go:generate mockgen -source=storage.go -destination=../../mocks/storage_mock.go -package=mocks

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pribylovaa/notes-backend/internal/models"
)

var (
	// ErrNotFound — запись не найдена (аккаунт/токен).
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (email/refresh-token).
	ErrAlreadyExists = errors.New("already exists")
)

// AccountStorage выполняет операции над аккаунтами.
type AccountStorage interface {
	// SaveAccount создает новый аккаунт в БД.
	SaveAccount(ctx context.Context, account *models.Account) error
	// AccountByEmail находит аккаунт по email (email уже нормализован).
	AccountByEmail(ctx context.Context, email string) (*models.Account, error)
	// AccountByID находит аккаунт по ID.
	AccountByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
}

// RefreshTokenStorage выполняет операции над refresh-токенами.
// Удаление не предусмотрено: отозванные и истёкшие записи остаются для аудита.
type RefreshTokenStorage interface {
	// SaveRefreshToken сохраняет новый refresh-token в БД.
	SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error
	// RefreshTokenByToken находит refresh-токен вместе с владельцем.
	RefreshTokenByToken(ctx context.Context, token string) (*models.RefreshToken, error)
	// RevokeRefreshToken помечает токен отозванным; повторный вызов не меняет revoked_at.
	RevokeRefreshToken(ctx context.Context, token string, at time.Time) error
	// RevokeActiveRefreshToken отзывает токен, только если он ещё активен, и сообщает,
	// был ли отзыв выполнен этим вызовом. Из конкурентных вызовов true получает ровно один.
	RevokeActiveRefreshToken(ctx context.Context, token string, at time.Time) (bool, error)
	// RevokeAccountRefreshTokens отзывает все активные токены аккаунта.
	RevokeAccountRefreshTokens(ctx context.Context, accountID uuid.UUID, at time.Time) (int64, error)
}

// Storage задает контракт работы с БД.
type Storage interface {
	AccountStorage
	RefreshTokenStorage
	Ping(ctx context.Context) error
	Close()
}
