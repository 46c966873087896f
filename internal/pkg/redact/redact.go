// redact маскирует чувствительные значения перед записью в лог.
package redact

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Email оставляет первые два символа локальной части и домен.
func Email(s string) string {
	at := strings.LastIndexByte(s, '@')
	if at <= 0 || at == len(s)-1 {
		return "***"
	}

	local, domain := s[:at], s[at+1:]
	if len(local) > 2 {
		local = local[:2] + "***"
	} else {
		local = "***"
	}

	return local + "@" + domain
}

// Token возвращает короткий отпечаток токена: по нему можно сопоставить
// записи лога, не раскрывая сам токен.
func Token(s string) string {
	if s == "" {
		return ""
	}

	sum := sha256.Sum256([]byte(s))
	return "tok_" + hex.EncodeToString(sum[:4])
}

// Password всегда возвращает заглушку.
func Password() string { return "[REDACTED_PASSWORD]" }
