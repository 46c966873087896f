package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/mail"
	"sort"
	"strings"

	"github.com/pribylovaa/notes-backend/internal/pkg/password"
)

const (
	maxBodyBytes      = 1 << 20
	minPasswordLength = 8
	passwordSpecials  = "@$!%*?&"
)

// ValidationError — ошибки входных данных по полям. Транспорт: HTTP 400.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}

	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}

	return e
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// decodeJSON читает тело запроса в dst. Пустое тело допустимо.
func decodeJSON(r *http.Request, w http.ResponseWriter, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return &ValidationError{Fields: map[string]string{"body": fmt.Sprintf("malformed JSON: %v", err)}}
	}

	return nil
}

// normalizeEmail обрезает пробелы, приводит к нижнему регистру и проверяет,
// что это голый адрес без отображаемого имени.
func normalizeEmail(raw string) (string, bool) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", false
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return "", false
	}

	return email, true
}

// validateRegister проверяет e-mail и политику пароля и возвращает нормализованный e-mail.
func validateRegister(req credentialsRequest) (string, error) {
	verr := &ValidationError{}

	email, ok := normalizeEmail(req.Email)
	if !ok {
		verr.add("email", "Invalid email format")
	}

	for _, msg := range passwordPolicy(req.Password) {
		verr.add("password", msg)
	}

	return email, verr.orNil()
}

// validateLogin требует синтаксически корректный e-mail и непустой пароль.
func validateLogin(req credentialsRequest) (string, error) {
	verr := &ValidationError{}

	email, ok := normalizeEmail(req.Email)
	if !ok {
		verr.add("email", "Invalid email format")
	}

	if req.Password == "" {
		verr.add("password", "Password is required")
	}

	return email, verr.orNil()
}

// passwordPolicy возвращает нарушения политики в порядке проверки.
// Классы символов только ASCII: "é" не считается строчной буквой, "١" не цифрой.
func passwordPolicy(pw string) []string {
	var violations []string

	if len([]rune(pw)) < minPasswordLength {
		violations = append(violations, "Password must be at least 8 characters")
	}

	if len(pw) > password.MaxLength {
		violations = append(violations, "Password must be at most 72 bytes")
	}

	var hasLower, hasUpper, hasDigit, hasSpecial bool
	for _, r := range pw {
		switch {
		case 'a' <= r && r <= 'z':
			hasLower = true
		case 'A' <= r && r <= 'Z':
			hasUpper = true
		case '0' <= r && r <= '9':
			hasDigit = true
		case strings.ContainsRune(passwordSpecials, r):
			hasSpecial = true
		}
	}

	if !hasLower {
		violations = append(violations, "Password must contain lowercase letter")
	}
	if !hasUpper {
		violations = append(violations, "Password must contain uppercase letter")
	}
	if !hasDigit {
		violations = append(violations, "Password must contain number")
	}
	if !hasSpecial {
		violations = append(violations, "Password must contain special character (@$!%*?&)")
	}

	return violations
}
