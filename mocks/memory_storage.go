package mocks

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/notes-backend/internal/models"
	"github.com/pribylovaa/notes-backend/internal/storage"
)

// MemoryStorage — потокобезопасная in-memory реализация storage.Storage
// для сценарных тестов. Повторяет семантику PostgreSQL-хранилища:
// уникальность email без учёта регистра и значения токена, идемпотентный отзыв.
type MemoryStorage struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]models.Account
	tokens   map[string]models.RefreshToken
}

// NewMemoryStorage создаёт пустое хранилище.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		accounts: make(map[uuid.UUID]models.Account),
		tokens:   make(map[string]models.RefreshToken),
	}
}

var _ storage.Storage = (*MemoryStorage)(nil)

func (m *MemoryStorage) SaveAccount(_ context.Context, a *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.accounts {
		if strings.EqualFold(existing.Email, a.Email) {
			return storage.ErrAlreadyExists
		}
	}

	m.accounts[a.ID] = *a
	return nil
}

func (m *MemoryStorage) AccountByEmail(_ context.Context, email string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.accounts {
		if strings.EqualFold(a.Email, email) {
			return &a, nil
		}
	}

	return nil, storage.ErrNotFound
}

func (m *MemoryStorage) AccountByID(_ context.Context, id uuid.UUID) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[id]
	if !ok {
		return nil, storage.ErrNotFound
	}

	return &a, nil
}

func (m *MemoryStorage) SaveRefreshToken(_ context.Context, t *models.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tokens[t.Token]; ok {
		return storage.ErrAlreadyExists
	}

	m.tokens[t.Token] = *t
	return nil
}

func (m *MemoryStorage) RefreshTokenByToken(_ context.Context, token string) (*models.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tokens[token]
	if !ok {
		return nil, storage.ErrNotFound
	}

	a, ok := m.accounts[t.AccountID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	t.Owner = a.View()

	return &t, nil
}

func (m *MemoryStorage) RevokeRefreshToken(_ context.Context, token string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tokens[token]
	if !ok {
		return storage.ErrNotFound
	}

	if !t.Revoked {
		t.Revoked = true
		t.RevokedAt = &at
		m.tokens[token] = t
	}

	return nil
}

func (m *MemoryStorage) RevokeActiveRefreshToken(_ context.Context, token string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tokens[token]
	if !ok {
		return false, storage.ErrNotFound
	}

	if t.Revoked {
		return false, nil
	}

	t.Revoked = true
	t.RevokedAt = &at
	m.tokens[token] = t

	return true, nil
}

func (m *MemoryStorage) RevokeAccountRefreshTokens(_ context.Context, accountID uuid.UUID, at time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for k, t := range m.tokens {
		if t.AccountID == accountID && !t.Revoked {
			t.Revoked = true
			t.RevokedAt = &at
			m.tokens[k] = t
			n++
		}
	}

	return n, nil
}

// ExpireRefreshToken сдвигает срок действия токена в прошлое.
func (m *MemoryStorage) ExpireRefreshToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t, ok := m.tokens[token]; ok {
		t.ExpiresAt = time.Now().Add(-time.Minute)
		m.tokens[token] = t
	}
}

// RefreshTokenCount возвращает число сохранённых refresh-токенов.
func (m *MemoryStorage) RefreshTokenCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.tokens)
}

func (m *MemoryStorage) Ping(context.Context) error { return nil }

func (m *MemoryStorage) Close() {}
