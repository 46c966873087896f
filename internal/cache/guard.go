package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/pribylovaa/notes-backend/internal/pkg/log"
)

// GetOrLoad читает значение из кэша, а при промахе вызывает load и кладёт
// результат в кэш. Сбои кэша логируются и трактуются как промах; ошибки load
// возвращаются как есть. c == nil означает работу без кэша.
func GetOrLoad[T any](ctx context.Context, c Cache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	if c == nil {
		return load(ctx)
	}

	lg := log.From(ctx)

	var cached T
	hit, err := c.Get(ctx, key, &cached)
	switch {
	case err != nil:
		lg.Warn("cache_get_failed",
			slog.String("key", key),
			slog.String("err", err.Error()),
		)
	case hit:
		return cached, nil
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}

	if err := c.Set(ctx, key, v, ttl); err != nil {
		lg.Warn("cache_set_failed",
			slog.String("key", key),
			slog.String("err", err.Error()),
		)
	}

	return v, nil
}
