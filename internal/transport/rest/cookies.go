package rest

import (
	"net/http"
	"time"
)

// setRefreshCookie выставляет httpOnly cookie с refresh-токеном.
func (h *Handler) setRefreshCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, h.refreshCookie(token, int(time.Until(expiresAt).Seconds())))
}

// clearRefreshCookie удаляет cookie с теми же атрибутами, что и при установке.
func (h *Handler) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, h.refreshCookie("", -1))
}

func (h *Handler) refreshCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     h.opts.Cookie.Name,
		Value:    value,
		Path:     "/",
		Domain:   h.opts.Cookie.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.opts.Prod,
		SameSite: http.SameSiteLaxMode,
	}
}

// refreshTokenFrom возвращает refresh-токен из тела или, если тело пустое
// и cookie-транспорт включён, из cookie.
func (h *Handler) refreshTokenFrom(r *http.Request, body string) string {
	if body != "" || !h.opts.Cookie.Enabled {
		return body
	}

	c, err := r.Cookie(h.opts.Cookie.Name)
	if err != nil {
		return ""
	}

	return c.Value
}
