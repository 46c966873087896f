package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pribylovaa/notes-backend/internal/cache"
	"github.com/pribylovaa/notes-backend/internal/models"
	"github.com/pribylovaa/notes-backend/internal/storage"
)

// Me возвращает публичный профиль аккаунта. Профиль читается через кэш;
// недоступность кэша не влияет на результат.
func (s *Service) Me(ctx context.Context, id uuid.UUID) (*models.AccountView, error) {
	const op = "service.account.Me"

	view, err := cache.GetOrLoad(ctx, s.cache, accountKey(id), s.cacheTTL,
		func(ctx context.Context) (models.AccountView, error) {
			account, err := s.storage.AccountByID(ctx, id)
			if err != nil {
				return models.AccountView{}, err
			}

			return account.View(), nil
		})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &view, nil
}

func accountKey(id uuid.UUID) string {
	return "account:" + id.String()
}
