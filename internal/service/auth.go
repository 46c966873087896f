package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/notes-backend/internal/models"
	"github.com/pribylovaa/notes-backend/internal/pkg/log"
	"github.com/pribylovaa/notes-backend/internal/pkg/password"
	"github.com/pribylovaa/notes-backend/internal/pkg/redact"
	"github.com/pribylovaa/notes-backend/internal/pkg/tokens"
	"github.com/pribylovaa/notes-backend/internal/storage"
)

// Register создаёт аккаунт и открывает сессию.
// email ожидается уже нормализованным (trim + lower), пароль — прошедшим политику.
func (s *Service) Register(ctx context.Context, email, pw string) (*models.AuthResult, error) {
	const op = "service.auth.Register"

	lg := log.From(ctx)

	_, err := s.storage.AccountByEmail(ctx, email)
	if err == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hash, err := s.hasher.Hash(ctx, pw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()
	account := &models.Account{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// Уникальный индекс — окончательный арбитр при гонке регистраций.
	if err := s.storage.SaveAccount(ctx, account); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	pair, err := s.openSession(ctx, account.View())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	lg.Info("account_registered",
		slog.String("account_id", account.ID.String()),
		slog.String("email", redact.Email(email)),
	)

	return &models.AuthResult{Tokens: *pair, Account: account.View()}, nil
}

// Login проверяет пароль и открывает сессию. Неизвестный e-mail и неверный
// пароль неразличимы для вызывающего.
func (s *Service) Login(ctx context.Context, email, pw string) (*models.AuthResult, error) {
	const op = "service.auth.Login"

	lg := log.From(ctx)

	account, err := s.storage.AccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Сверка с фиктивным хэшем выравнивает время ответа с веткой неверного пароля.
			_, _ = s.hasher.Verify(ctx, pw, s.dummyHash(ctx))
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ok, err := s.hasher.Verify(ctx, pw, account.PasswordHash)
	if err != nil {
		if !errors.Is(err, password.ErrHashFormat) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		// Пустой хэш — аккаунт без пароля; иначе хэш повреждён.
		if account.PasswordHash != "" {
			lg.Error("password_hash_malformed",
				slog.String("op", op),
				slog.String("account_id", account.ID.String()),
			)
		}

		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	if !ok {
		lg.Info("login_rejected", slog.String("email", redact.Email(email)))
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	pair, err := s.openSession(ctx, account.View())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.AuthResult{Tokens: *pair, Account: account.View()}, nil
}

// Refresh выпускает новый access-токен по refresh-токену.
//
// Порядок проверок: наличие в хранилище, отзыв, срок, подпись.
// По умолчанию refresh-токен не ротируется; при RotateRefreshTokens старый
// токен отзывается и выдаётся новый, а предъявление уже отозванного токена
// отзывает все активные токены аккаунта.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*models.RefreshResult, error) {
	const op = "service.auth.Refresh"

	lg := log.From(ctx)

	rt, err := s.storage.RefreshTokenByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("refresh_lookup_not_found", slog.String("token", redact.Token(refreshToken)))
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()

	if rt.Revoked {
		lg.Warn("refresh_revoked", slog.String("account_id", rt.AccountID.String()))

		if s.cfg.RotateRefreshTokens {
			s.revokeFamily(ctx, rt.AccountID, now)
		}

		return nil, fmt.Errorf("%s: %w", op, ErrTokenRevoked)
	}

	if rt.Expired(now) {
		lg.Info("refresh_expired", slog.String("account_id", rt.AccountID.String()))
		return nil, fmt.Errorf("%s: %w", op, ErrTokenExpired)
	}

	payload, err := s.issuer.VerifyRefreshToken(refreshToken)
	if err != nil || payload.ID != rt.AccountID {
		lg.Warn("refresh_signature_invalid", slog.String("account_id", rt.AccountID.String()))
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	owner := models.TokenPayload{ID: rt.Owner.ID, Email: rt.Owner.Email}

	access, accessExp, err := s.issuer.IssueAccessToken(owner)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	res := &models.RefreshResult{AccessToken: access, AccessExpiresAt: accessExp}

	if !s.cfg.RotateRefreshTokens {
		return res, nil
	}

	// Условный отзыв: из конкурентных предъявлений одного токена ротацию
	// выполняет ровно одно, остальные считаются повторным использованием.
	revoked, err := s.storage.RevokeActiveRefreshToken(ctx, refreshToken, now)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !revoked {
		lg.Warn("refresh_revoked_concurrently", slog.String("account_id", rt.AccountID.String()))
		s.revokeFamily(ctx, rt.AccountID, now)

		return nil, fmt.Errorf("%s: %w", op, ErrTokenRevoked)
	}

	next, nextExp, err := s.issuer.IssueRefreshToken(owner)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.saveRefresh(ctx, owner.ID, next, nextExp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	res.RefreshToken = next
	res.RefreshExpiresAt = nextExp

	return res, nil
}

// Logout отзывает refresh-токен. Повторный выход тем же токеном успешен.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	const op = "service.auth.Logout"

	if err := s.storage.RevokeRefreshToken(ctx, refreshToken, time.Now().UTC()); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("refresh_revoked_by_logout", slog.String("token", redact.Token(refreshToken)))

	return nil
}

// Authenticate проверяет access-токен и возвращает его payload.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (models.TokenPayload, error) {
	const op = "service.auth.Authenticate"

	p, err := s.issuer.VerifyAccessToken(accessToken)
	if err != nil {
		if errors.Is(err, tokens.ErrTokenExpired) {
			return models.TokenPayload{}, fmt.Errorf("%s: %w", op, ErrTokenExpired)
		}

		log.From(ctx).Debug("access_token_invalid", slog.String("err", err.Error()))
		return models.TokenPayload{}, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return p, nil
}

// dummyHash возвращает bcrypt-хэш случайного пароля с рабочей стоимостью хэшера.
// Вычисляется один раз при первом обращении.
func (s *Service) dummyHash(ctx context.Context) string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash(context.WithoutCancel(ctx), uuid.NewString())
		if err != nil {
			log.From(ctx).Error("dummy_hash_failed", slog.String("err", err.Error()))
			return
		}
		s.dummy = h
	})

	return s.dummy
}

// openSession выпускает пару токенов и сохраняет refresh-токен.
func (s *Service) openSession(ctx context.Context, account models.AccountView) (*models.TokenPair, error) {
	const op = "service.auth.openSession"

	pair, err := s.issuer.IssueTokenPair(models.TokenPayload{ID: account.ID, Email: account.Email})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.saveRefresh(ctx, account.ID, pair.RefreshToken, pair.RefreshExpiresAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &pair, nil
}

func (s *Service) saveRefresh(ctx context.Context, accountID uuid.UUID, token string, expiresAt time.Time) error {
	const op = "service.auth.saveRefresh"

	rt := &models.RefreshToken{
		ID:        uuid.New(),
		Token:     token,
		AccountID: accountID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.storage.SaveRefreshToken(ctx, rt); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			log.From(ctx).Error("refresh_token_duplicate",
				slog.String("op", op),
				slog.String("account_id", accountID.String()),
			)
			return fmt.Errorf("%s: %w", op, ErrDuplicateToken)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// revokeFamily отзывает все активные токены аккаунта после повторного
// предъявления отозванного токена. Сбой логируется: клиент всё равно получит 401.
func (s *Service) revokeFamily(ctx context.Context, accountID uuid.UUID, now time.Time) {
	const op = "service.auth.revokeFamily"

	lg := log.From(ctx)

	n, err := s.storage.RevokeAccountRefreshTokens(ctx, accountID, now)
	if err != nil {
		lg.Error("refresh_reuse_revoke_failed",
			slog.String("op", op),
			slog.String("account_id", accountID.String()),
			slog.String("err", err.Error()),
		)
		return
	}

	lg.Warn("refresh_reuse_detected",
		slog.String("account_id", accountID.String()),
		slog.Int64("revoked", n),
	)
}
