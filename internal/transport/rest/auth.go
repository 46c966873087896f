package rest

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pribylovaa/notes-backend/internal/models"
	"github.com/pribylovaa/notes-backend/internal/pkg/log"
)

type identityKey struct{}

// IdentityFrom возвращает идентичность, установленную Authenticate.
func IdentityFrom(ctx context.Context) (models.TokenPayload, bool) {
	p, ok := ctx.Value(identityKey{}).(models.TokenPayload)
	return p, ok
}

func withIdentity(ctx context.Context, p models.TokenPayload) context.Context {
	return context.WithValue(ctx, identityKey{}, p)
}

// Authenticate требует заголовок "Authorization: Bearer <access-token>".
// Причина отказа проверки токена клиенту не раскрывается.
func (h *Handler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			h.fail(w, r, ErrAuthHeaderMissing)
			return
		}

		scheme, token, _ := strings.Cut(header, " ")
		token = strings.TrimSpace(token)
		if !strings.EqualFold(scheme, "Bearer") || token == "" {
			h.fail(w, r, ErrTokenMissing)
			return
		}

		p, err := h.svc.Authenticate(r.Context(), token)
		if err != nil {
			log.From(r.Context()).Info("authentication_failed", slog.String("err", err.Error()))
			h.fail(w, r, ErrAuthFailed)
			return
		}

		lg := log.From(r.Context()).With(slog.String("account_id", p.ID.String()))
		ctx := withIdentity(log.Into(r.Context(), lg), p)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Authorize пропускает запрос, только если роль из токена входит в roles.
// Токен без роли не проходит никакую проверку ролей.
func (h *Handler) Authorize(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := IdentityFrom(r.Context())
			if !ok {
				h.fail(w, r, ErrNotAuthenticated)
				return
			}

			if p.Role == "" || !slices.Contains(roles, p.Role) {
				log.From(r.Context()).Warn("authorization_denied",
					slog.String("role", p.Role),
					slog.Any("required", roles),
				)
				h.fail(w, r, ErrInsufficientPermissions)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// AuthorizeOwner пропускает владельца ресурса (параметр маршрута userId,
// иначе id) и администратора.
func (h *Handler) AuthorizeOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := IdentityFrom(r.Context())
		if !ok {
			h.fail(w, r, ErrNotAuthenticated)
			return
		}

		if p.Role == models.RoleAdmin {
			next.ServeHTTP(w, r)
			return
		}

		ownerID := chi.URLParam(r, "userId")
		if ownerID == "" {
			ownerID = chi.URLParam(r, "id")
		}

		owner, err := uuid.Parse(ownerID)
		if err != nil || owner != p.ID {
			log.From(r.Context()).Warn("authorization_not_owner", slog.String("resource_owner", ownerID))
			h.fail(w, r, ErrResourceAccessDenied)
			return
		}

		next.ServeHTTP(w, r)
	})
}
