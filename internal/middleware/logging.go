// middleware содержит HTTP-middleware сервиса: контекстный логгер
// с request id, перехват паник, таймаут запроса и метрики.
package middleware

import (
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/pribylovaa/notes-backend/internal/pkg/log"
)

// RequestIDHeader — заголовок сквозного идентификатора запроса.
const RequestIDHeader = "X-Request-ID"

// Logging обогащает контекст запроса логгером и request id.
//
// Поведение и формат логов:
//   - берёт X-Request-ID из запроса, иначе генерирует UUID, и возвращает его в ответе;
//   - кладёт в context логгер с полями request_id, method, path, remote (см. pkg/log);
//   - после обработки пишет одну строку уровня Info: msg="http",
//     status, bytes, dur. Тела запросов и заголовки авторизации не логируются.
func Logging(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rid := r.Header.Get(RequestIDHeader)
			if rid == "" || len(rid) > 128 {
				rid = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, rid)

			l := base.With(
				slog.String("request_id", rid),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote", r.RemoteAddr),
			)

			ctx := log.WithRequestID(log.Into(r.Context(), l), rid)
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			l.Info("http",
				slog.Int("status", status),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("dur", time.Since(start)),
			)
		})
	}
}
