package models

import (
	"time"

	"github.com/google/uuid"
)

// Account — учётная запись пользователя.
//
// PasswordHash может быть пустым: такие записи зарезервированы
// под вход через внешних провайдеров и не проходят парольную аутентификацию.
type Account struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// View возвращает публичное представление аккаунта без хэша пароля.
func (a *Account) View() AccountView {
	return AccountView{ID: a.ID, Email: a.Email}
}

// AccountView — публичные поля аккаунта, безопасные для ответа клиенту и кэша.
type AccountView struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}
