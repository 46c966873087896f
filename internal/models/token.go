package models

import (
	"time"

	"github.com/google/uuid"
)

// Роли, распознаваемые авторизацией.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// TokenPayload — данные, подписываемые в access/refresh токенах
// и кладущиеся в контекст запроса после аутентификации.
// Role зарезервирована: текущие сценарии её не заполняют.
type TokenPayload struct {
	ID    uuid.UUID
	Email string
	Role  string
}

// TokenPair — пара токенов, выдаваемая при регистрации и входе.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// AuthResult — результат регистрации/входа.
type AuthResult struct {
	Tokens  TokenPair
	Account AccountView
}

// RefreshResult — результат обновления access-токена.
// RefreshToken заполняется только при включённой ротации.
type RefreshResult struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}
