package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken — запись о выданном refresh-токене.
//
// Жизненный цикл: ACTIVE -> REVOKED (терминально) или ACTIVE -> EXPIRED
// (вычисляется в момент проверки). Записи не удаляются.
type RefreshToken struct {
	ID        uuid.UUID
	Token     string
	AccountID uuid.UUID
	ExpiresAt time.Time
	Revoked   bool
	RevokedAt *time.Time
	CreatedAt time.Time

	// Owner заполняется при чтении из хранилища.
	Owner AccountView
}

// Expired сообщает, истёк ли токен к моменту now.
func (t *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
