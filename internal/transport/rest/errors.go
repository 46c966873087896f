package rest

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/pribylovaa/notes-backend/internal/pkg/log"
	"github.com/pribylovaa/notes-backend/internal/service"
	"github.com/pribylovaa/notes-backend/internal/transport/response"
)

var (
	// ErrAuthHeaderMissing — нет заголовка Authorization. HTTP 401.
	ErrAuthHeaderMissing = errors.New("authorization header missing")
	// ErrTokenMissing — заголовок не в формате "Bearer <token>". HTTP 401.
	ErrTokenMissing = errors.New("token missing")
	// ErrAuthFailed — access-токен не прошёл проверку; причина клиенту не раскрывается. HTTP 401.
	ErrAuthFailed = errors.New("authentication failed")
	// ErrNotAuthenticated — в контексте нет идентичности. HTTP 401.
	ErrNotAuthenticated = errors.New("user not authenticated")
	// ErrInsufficientPermissions — роль не входит в разрешённые. HTTP 403.
	ErrInsufficientPermissions = errors.New("insufficient permissions")
	// ErrResourceAccessDenied — ресурс принадлежит другому аккаунту. HTTP 403.
	ErrResourceAccessDenied = errors.New("access denied to this resource")
)

type mapping struct {
	err     error
	status  int
	message string
}

// errorTable — единственное место сопоставления ошибок и HTTP-статусов.
var errorTable = []mapping{
	{service.ErrEmailTaken, http.StatusConflict, "Email already registered"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid email or password"},
	{service.ErrTokenRevoked, http.StatusUnauthorized, "Refresh token has been revoked"},
	{service.ErrTokenExpired, http.StatusUnauthorized, "Refresh token has expired"},
	{service.ErrInvalidToken, http.StatusUnauthorized, "Invalid refresh token"},
	{ErrAuthHeaderMissing, http.StatusUnauthorized, "Authorization header is missing"},
	{ErrTokenMissing, http.StatusUnauthorized, "Token is missing"},
	{ErrAuthFailed, http.StatusUnauthorized, "Authentication failed"},
	{ErrNotAuthenticated, http.StatusUnauthorized, "User not authenticated"},
	{ErrInsufficientPermissions, http.StatusForbidden, "Insufficient permissions"},
	{ErrResourceAccessDenied, http.StatusForbidden, "You are not authorized to access this resource"},
	{service.ErrNotFound, http.StatusNotFound, "Account not found"},
}

// writeError — терминальная граница ошибок: тип ошибки -> статус и сообщение.
// Неизвестные ошибки (включая ErrDuplicateToken) становятся 500; детали
// попадают в тело только вне production.
func writeError(w http.ResponseWriter, r *http.Request, err error, prod bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		response.Error(w, r, response.Problem{
			Status:  http.StatusBadRequest,
			Message: "Validation failed",
			Fields:  verr.Fields,
		})
		return
	}

	for _, m := range errorTable {
		if errors.Is(err, m.err) {
			response.Error(w, r, response.Problem{Status: m.status, Message: m.message})
			return
		}
	}

	log.From(r.Context()).Error("request_failed", slog.String("err", err.Error()))

	p := response.Problem{Status: http.StatusInternalServerError, Message: "Internal server error"}
	if !prod {
		p.Detail = err.Error()
	}
	response.Error(w, r, p)
}
