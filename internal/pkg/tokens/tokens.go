// tokens выпускает и проверяет JWT (HS256) двух видов: короткоживущие access
// и долгоживущие refresh. Каждый вид подписывается своим секретом и несёт
// claim typ, поэтому токен одного вида не принимается как токен другого.
package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/pribylovaa/notes-backend/internal/config"
	"github.com/pribylovaa/notes-backend/internal/models"
)

var (
	// ErrTokenInvalid — подпись, формат, издатель или вид токена не сошлись.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrTokenExpired — срок действия токена истёк.
	ErrTokenExpired = errors.New("token expired")
)

const (
	typeAccess  = "access"
	typeRefresh = "refresh"
)

// leeway — допуск на расхождение часов при проверке exp/iat.
const leeway = 5 * time.Second

type claims struct {
	AccountID string `json:"id"`
	Email     string `json:"email"`
	Role      string `json:"role,omitempty"`
	Type      string `json:"typ"`
	jwt.RegisteredClaims
}

type kind struct {
	typ    string
	secret []byte
	ttl    time.Duration
}

// Issuer — выпуск и проверка токенов. Безопасен для конкурентного использования.
type Issuer struct {
	access   kind
	refresh  kind
	issuer   string
	audience []string
	now      func() time.Time
}

// Option настраивает Issuer.
type Option func(*Issuer)

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

// New создаёт Issuer. Секреты короче config.MinSecretLength или совпадающие
// между собой отклоняются.
func New(cfg config.AuthConfig, opts ...Option) (*Issuer, error) {
	const op = "tokens.New"

	if len(cfg.AccessSecret) < config.MinSecretLength || len(cfg.RefreshSecret) < config.MinSecretLength {
		return nil, fmt.Errorf("%s: secrets must be at least %d characters", op, config.MinSecretLength)
	}

	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, fmt.Errorf("%s: access and refresh secrets must differ", op)
	}

	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= 0 {
		return nil, fmt.Errorf("%s: token ttl must be positive", op)
	}

	i := &Issuer{
		access:   kind{typ: typeAccess, secret: []byte(cfg.AccessSecret), ttl: cfg.AccessTokenTTL},
		refresh:  kind{typ: typeRefresh, secret: []byte(cfg.RefreshSecret), ttl: cfg.RefreshTokenTTL},
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(i)
	}

	return i, nil
}

// IssueAccessToken выпускает access-токен.
func (i *Issuer) IssueAccessToken(p models.TokenPayload) (string, time.Time, error) {
	return i.issue(i.access, p)
}

// IssueRefreshToken выпускает refresh-токен.
func (i *Issuer) IssueRefreshToken(p models.TokenPayload) (string, time.Time, error) {
	return i.issue(i.refresh, p)
}

// IssueTokenPair выпускает пару токенов. Ничего не сохраняет.
func (i *Issuer) IssueTokenPair(p models.TokenPayload) (models.TokenPair, error) {
	const op = "tokens.IssueTokenPair"

	access, accessExp, err := i.IssueAccessToken(p)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	refresh, refreshExp, err := i.IssueRefreshToken(p)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	return models.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// VerifyAccessToken проверяет access-токен и возвращает его payload.
func (i *Issuer) VerifyAccessToken(token string) (models.TokenPayload, error) {
	return i.verify(i.access, token)
}

// VerifyRefreshToken проверяет refresh-токен и возвращает его payload.
func (i *Issuer) VerifyRefreshToken(token string) (models.TokenPayload, error) {
	return i.verify(i.refresh, token)
}

// RefreshTTL возвращает время жизни refresh-токена.
func (i *Issuer) RefreshTTL() time.Duration {
	return i.refresh.ttl
}

func (i *Issuer) issue(k kind, p models.TokenPayload) (string, time.Time, error) {
	const op = "tokens.issue"

	now := i.now().UTC()
	exp := now.Add(k.ttl)

	c := claims{
		AccountID: p.ID.String(),
		Email:     p.Email,
		Role:      p.Role,
		Type:      k.typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   p.ID.String(),
			Issuer:    i.issuer,
			Audience:  jwt.ClaimStrings(i.audience),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(k.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	return signed, exp, nil
}

func (i *Issuer) verify(k kind, token string) (models.TokenPayload, error) {
	const op = "tokens.verify"

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(leeway),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(i.now),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}
	if len(i.audience) > 0 {
		opts = append(opts, jwt.WithAudience(i.audience...))
	}

	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return k.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return models.TokenPayload{}, fmt.Errorf("%s: %w", op, ErrTokenExpired)
		}

		return models.TokenPayload{}, fmt.Errorf("%s: %w", op, ErrTokenInvalid)
	}

	if !parsed.Valid || c.Type != k.typ {
		return models.TokenPayload{}, fmt.Errorf("%s: %w", op, ErrTokenInvalid)
	}

	id, err := uuid.Parse(c.AccountID)
	if err != nil || c.Subject != c.AccountID {
		return models.TokenPayload{}, fmt.Errorf("%s: %w", op, ErrTokenInvalid)
	}

	return models.TokenPayload{ID: id, Email: c.Email, Role: c.Role}, nil
}
