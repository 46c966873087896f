package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/pribylovaa/notes-backend/internal/pkg/log"
)

// Timeout задаёт дедлайн контекста обработчика. Дедлайн, пришедший сверху,
// сохраняется; d <= 0 оставляет обработчик как есть. Запрос, упёршийся
// в собственный дедлайн, отмечается в логе как request_timeout.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			parent := r.Context()
			if _, has := parent.Deadline(); has {
				next.ServeHTTP(w, r)
				return
			}

			ctx, cancel := context.WithTimeout(parent, d)
			defer cancel()

			start := time.Now()
			next.ServeHTTP(w, r.WithContext(ctx))

			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				log.From(ctx).Warn("request_timeout",
					slog.Duration("limit", d),
					slog.Duration("elapsed", time.Since(start)),
				)
			}
		})
	}
}
