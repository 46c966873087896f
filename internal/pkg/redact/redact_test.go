package redact

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"alice@example.com", "al***@example.com"},
		{"ab@example.com", "***@example.com"},
		{"no-at-sign", "***"},
		{"@example.com", "***"},
		{"user@", "***"},
		{"", "***"},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, Email(tt.in), tt.in)
	}
}

func TestToken(t *testing.T) {
	t.Parallel()

	require.Empty(t, Token(""))

	a := Token("header.payload.signature")
	require.True(t, strings.HasPrefix(a, "tok_"))
	require.Len(t, a, len("tok_")+8)
	require.NotContains(t, a, "payload")

	require.Equal(t, a, Token("header.payload.signature"))
	require.NotEqual(t, a, Token("header.payload.other"))
}

func TestPassword(t *testing.T) {
	t.Parallel()

	require.Equal(t, "[REDACTED_PASSWORD]", Password())
}
