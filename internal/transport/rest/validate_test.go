package rest

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/notes-backend/internal/service"
)

func TestPasswordPolicy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pw   string
		want []string
	}{
		{pw: "Secret123!", want: nil},
		{pw: "Aa1@aaaa", want: nil},
		{pw: "secret123!", want: []string{"Password must contain uppercase letter"}},
		{pw: "SECRET123!", want: []string{"Password must contain lowercase letter"}},
		{pw: "SecretAbc!", want: []string{"Password must contain number"}},
		{pw: "Secret1234", want: []string{"Password must contain special character (@$!%*?&)"}},
		{pw: "", want: []string{
			"Password must be at least 8 characters",
			"Password must contain lowercase letter",
			"Password must contain uppercase letter",
			"Password must contain number",
			"Password must contain special character (@$!%*?&)",
		}},
		{pw: "Aa1!" + strings.Repeat("x", 69), want: []string{"Password must be at most 72 bytes"}},
		{pw: "éééééÉ1!", want: []string{
			"Password must contain lowercase letter",
			"Password must contain uppercase letter",
		}},
		{pw: "Abcdefg١!", want: []string{"Password must contain number"}},
		{pw: "Ünïcödé1!", want: []string{"Password must contain uppercase letter"}},
	}

	for _, tt := range tests {
		t.Run(tt.pw, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, passwordPolicy(tt.pw))
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{in: "alice@example.com", want: "alice@example.com", ok: true},
		{in: "  Alice@Example.COM ", want: "alice@example.com", ok: true},
		{in: "", ok: false},
		{in: "alice", ok: false},
		{in: "Alice <alice@example.com>", ok: false},
		{in: "a@b@c", ok: false},
	}

	for _, tt := range tests {
		got, ok := normalizeEmail(tt.in)
		require.Equal(t, tt.ok, ok, tt.in)
		require.Equal(t, tt.want, got, tt.in)
	}
}

func TestValidationError_Message(t *testing.T) {
	t.Parallel()

	err := &ValidationError{Fields: map[string]string{"password": "p", "email": "e"}}
	require.Equal(t, "validation failed: email: e; password: p", err.Error())

	empty := &ValidationError{}
	require.NoError(t, empty.orNil())
}

func TestWriteError_InternalDetailOnlyOutsideProd(t *testing.T) {
	t.Parallel()

	boom := fmt.Errorf("service.auth.Login: %w", errors.New("db down"))

	rec := httptest.NewRecorder()
	writeError(rec, httptest.NewRequest(http.MethodGet, "/", nil), boom, false)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "db down")

	rec = httptest.NewRecorder()
	writeError(rec, httptest.NewRequest(http.MethodGet, "/", nil), boom, true)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "db down")
	require.Contains(t, rec.Body.String(), "Internal server error")
}

func TestWriteError_Mapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{err: service.ErrEmailTaken, want: http.StatusConflict},
		{err: service.ErrInvalidCredentials, want: http.StatusUnauthorized},
		{err: service.ErrTokenExpired, want: http.StatusUnauthorized},
		{err: service.ErrTokenRevoked, want: http.StatusUnauthorized},
		{err: service.ErrInvalidToken, want: http.StatusUnauthorized},
		{err: service.ErrNotFound, want: http.StatusNotFound},
		{err: service.ErrDuplicateToken, want: http.StatusInternalServerError},
		{err: ErrInsufficientPermissions, want: http.StatusForbidden},
		{err: &ValidationError{Fields: map[string]string{"x": "y"}}, want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		writeError(rec, httptest.NewRequest(http.MethodGet, "/", nil), fmt.Errorf("op: %w", tt.err), true)
		require.Equal(t, tt.want, rec.Code, tt.err.Error())
	}
}
