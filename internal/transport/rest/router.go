package rest

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/notes-backend/internal/metrics"
	"github.com/pribylovaa/notes-backend/internal/middleware"
	"github.com/pribylovaa/notes-backend/internal/models"
	"github.com/pribylovaa/notes-backend/internal/transport/response"
)

// NewRouter собирает HTTP-маршруты API.
//
// Цепочка middleware: Recover -> Logging -> Metrics -> Timeout.
func NewRouter(h *Handler, base *slog.Logger, m *metrics.Metrics, timeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recover(base))
	r.Use(middleware.Logging(base))
	r.Use(middleware.Metrics(m))
	r.Use(middleware.Timeout(timeout))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, r, response.Problem{Status: http.StatusNotFound, Message: "Route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, r, response.Problem{Status: http.StatusMethodNotAllowed, Message: "Method not allowed"})
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/refresh", h.Refresh)
		r.Post("/logout", h.Logout)

		r.With(h.Authenticate).Get("/me", h.Me)
	})

	r.With(h.Authenticate, h.AuthorizeOwner).Get("/accounts/{id}", h.AccountByID)
	r.With(h.Authenticate, h.Authorize(models.RoleAdmin)).Get("/admin/accounts/{id}", h.AccountByID)

	return r
}
