package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuerIssueIsUniqueAndURLSafe(t *testing.T) {
	issuer := NewTokenIssuer(time.Hour)
	seen := make(map[string]bool)

	for i := 0; i < 500; i++ {
		token, err := issuer.Issue()
		require.NoError(t, err)
		assert.Len(t, token, 43) // 32 bytes em base64url sem padding
		assert.NoError(t, ValidateToken(token))
		assert.False(t, seen[token], "token repetido")
		seen[token] = true
	}
}

func TestTokenIssuerExpiry(t *testing.T) {
	issuer := NewTokenIssuer(24 * time.Hour)
	from := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, from.Add(24*time.Hour), issuer.Expiry(from))
}
