// rest — публичный REST API аутентификации поверх chi.
package rest

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pribylovaa/notes-backend/internal/config"
	"github.com/pribylovaa/notes-backend/internal/metrics"
	"github.com/pribylovaa/notes-backend/internal/models"
	"github.com/pribylovaa/notes-backend/internal/service"
	"github.com/pribylovaa/notes-backend/internal/transport/response"
)

// AuthService — операции аутентификации, которые нужны транспорту.
type AuthService interface {
	Register(ctx context.Context, email, password string) (*models.AuthResult, error)
	Login(ctx context.Context, email, password string) (*models.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*models.RefreshResult, error)
	Logout(ctx context.Context, refreshToken string) error
	Authenticate(ctx context.Context, accessToken string) (models.TokenPayload, error)
	Me(ctx context.Context, id uuid.UUID) (*models.AccountView, error)
}

// Options — параметры транспорта.
type Options struct {
	Cookie config.CookieConfig
	// Prod скрывает детали внутренних ошибок и включает Secure у cookie.
	Prod bool
}

// Handler обслуживает маршруты /auth, /accounts и /admin.
type Handler struct {
	svc     AuthService
	opts    Options
	metrics *metrics.Metrics
}

// NewHandler создаёт Handler. m может быть nil.
func NewHandler(svc AuthService, opts Options, m *metrics.Metrics) *Handler {
	return &Handler{svc: svc, opts: opts, metrics: m}
}

type authData struct {
	AccessToken  string             `json:"accessToken"`
	RefreshToken string             `json:"refreshToken,omitempty"`
	Account      models.AccountView `json:"account"`
}

type refreshData struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

type userData struct {
	User models.AccountView `json:"user"`
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, err, h.opts.Prod)
}

func (h *Handler) event(name string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	h.metrics.AuthEvent(name, outcome)
}

// Register — POST /auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, w, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	email, err := validateRegister(req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.svc.Register(r.Context(), email, req.Password)
	h.event("register", err)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusCreated, "Registration successful", h.authData(w, res))
}

// Login — POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, w, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	email, err := validateLogin(req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.svc.Login(r.Context(), email, req.Password)
	h.event("login", err)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, "Login successful", h.authData(w, res))
}

// Refresh — POST /auth/refresh.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	token, err := h.readRefreshToken(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.svc.Refresh(r.Context(), token)
	h.event("refresh", err)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	data := refreshData{AccessToken: res.AccessToken, RefreshToken: res.RefreshToken}
	if res.RefreshToken != "" && h.opts.Cookie.Enabled {
		h.setRefreshCookie(w, res.RefreshToken, res.RefreshExpiresAt)
		data.RefreshToken = ""
	}

	response.JSON(w, r, http.StatusOK, "Token refreshed successfully", data)
}

// Logout — POST /auth/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token, err := h.readRefreshToken(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	err = h.svc.Logout(r.Context(), token)
	h.event("logout", err)
	if err != nil {
		// Неизвестный токен в cookie бесполезен клиенту: cookie снимается и при отказе.
		if h.opts.Cookie.Enabled && errors.Is(err, service.ErrInvalidToken) {
			h.clearRefreshCookie(w)
		}
		h.fail(w, r, err)
		return
	}

	if h.opts.Cookie.Enabled {
		h.clearRefreshCookie(w)
	}

	response.JSON(w, r, http.StatusOK, "Logout successful", nil)
}

// Me — GET /auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := IdentityFrom(r.Context())
	if !ok {
		h.fail(w, r, ErrNotAuthenticated)
		return
	}

	h.writeAccount(w, r, p.ID)
}

// AccountByID — GET /accounts/{id} и GET /admin/accounts/{id}.
func (h *Handler) AccountByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, &ValidationError{Fields: map[string]string{"id": "Invalid account id"}})
		return
	}

	h.writeAccount(w, r, id)
}

func (h *Handler) writeAccount(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	view, err := h.svc.Me(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, "Account retrieved successfully", userData{User: *view})
}

// authData формирует тело ответа register/login; при cookie-транспорте
// refresh-токен уходит в cookie и не попадает в тело.
func (h *Handler) authData(w http.ResponseWriter, res *models.AuthResult) authData {
	data := authData{
		AccessToken:  res.Tokens.AccessToken,
		RefreshToken: res.Tokens.RefreshToken,
		Account:      res.Account,
	}

	if h.opts.Cookie.Enabled {
		h.setRefreshCookie(w, res.Tokens.RefreshToken, res.Tokens.RefreshExpiresAt)
		data.RefreshToken = ""
	}

	return data
}

func (h *Handler) readRefreshToken(w http.ResponseWriter, r *http.Request) (string, error) {
	var req refreshRequest
	if err := decodeJSON(r, w, &req); err != nil {
		return "", err
	}

	token := h.refreshTokenFrom(r, req.RefreshToken)
	if token == "" {
		return "", &ValidationError{Fields: map[string]string{"refreshToken": "Refresh token is required"}}
	}

	return token, nil
}
