// service содержит бизнес-логику аутентификации: регистрацию, вход,
// обновление access-токена, выход и проверку access-токена.
//
// Основные аспекты:
//   - Service не хранит состояние запроса и безопасен для конкурентного
//     использования при условии потокобезопасности storage.Storage;
//   - refresh-токены проходят состояния ACTIVE -> REVOKED или ACTIVE -> EXPIRED,
//     обратных переходов нет;
//   - ошибки возвращаются обёрнутыми sentinel-значениями ниже и маппятся
//     на HTTP-статусы в одном месте транспорта; повторов нет нигде.
package service

import (
	"errors"
	"sync"
	"time"

	"github.com/pribylovaa/notes-backend/internal/cache"
	"github.com/pribylovaa/notes-backend/internal/config"
	"github.com/pribylovaa/notes-backend/internal/pkg/password"
	"github.com/pribylovaa/notes-backend/internal/pkg/tokens"
	"github.com/pribylovaa/notes-backend/internal/storage"
)

var (
	// ErrEmailTaken — e-mail уже зарегистрирован. Транспорт: HTTP 409.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials — неизвестный e-mail или неверный пароль; случаи
	// намеренно неразличимы. Транспорт: HTTP 401.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidToken — refresh-токен неизвестен или не прошёл проверку подписи,
	// либо access-токен некорректен. Транспорт: HTTP 401.
	ErrInvalidToken = errors.New("invalid refresh token")

	// ErrTokenExpired — срок действия токена истёк. Транспорт: HTTP 401.
	ErrTokenExpired = errors.New("refresh token has expired")

	// ErrTokenRevoked — refresh-токен отозван. Транспорт: HTTP 401.
	ErrTokenRevoked = errors.New("refresh token has been revoked")

	// ErrDuplicateToken — только что выпущенный refresh-токен совпал с уже
	// сохранённым. Аномалия без повторов. Транспорт: HTTP 500.
	ErrDuplicateToken = errors.New("duplicate refresh token")

	// ErrNotFound — аккаунт не найден. Транспорт: HTTP 404.
	ErrNotFound = errors.New("account not found")
)

// Service описывает бизнес-логику аутентификации.
type Service struct {
	storage storage.Storage
	hasher  *password.Hasher
	issuer  *tokens.Issuer
	cfg     config.AuthConfig

	cache    cache.Cache // может быть nil, если кэш не сконфигурирован
	cacheTTL time.Duration

	dummyOnce sync.Once
	dummy     string
}

// New создаёт новый экземпляр Service.
func New(storage storage.Storage, hasher *password.Hasher, issuer *tokens.Issuer, cfg config.AuthConfig) *Service {
	return &Service{
		storage: storage,
		hasher:  hasher,
		issuer:  issuer,
		cfg:     cfg,
	}
}

// SetCache устанавливает кэш профилей (опционально).
func (s *Service) SetCache(c cache.Cache, ttl time.Duration) {
	s.cache = c
	s.cacheTTL = ttl
}
