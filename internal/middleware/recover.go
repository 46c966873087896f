package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/pribylovaa/notes-backend/internal/pkg/log"
	"github.com/pribylovaa/notes-backend/internal/transport/response"
)

// Recover перехватывает паники в обработчиках, логирует их со стеком
// и отвечает клиенту нейтральным 500 без внутренних деталей.
// http.ErrAbortHandler пробрасывается дальше.
func Recover(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}

				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				l := log.From(r.Context())
				if l == slog.Default() && base != nil {
					l = base
				}

				l.Error("panic_recovered",
					slog.String("path", r.URL.Path),
					slog.Any("panic", rec),
					slog.String("stack", string(debug.Stack())),
				)

				response.Error(w, r, response.Problem{
					Status:  http.StatusInternalServerError,
					Message: "Internal server error",
				})
			}()

			next.ServeHTTP(w, r)
		})
	}
}
