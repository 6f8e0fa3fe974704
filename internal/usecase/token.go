package usecase

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"
)

const tokenBytes = 32

// TokenIssuer gera tokens de confirmação opacos e calcula a validade.
type TokenIssuer struct {
	TTL time.Duration
}

func NewTokenIssuer(ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{TTL: ttl}
}

// Issue returns 256 random bits encoded as unpadded base64url.
func (t *TokenIssuer) Issue() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate confirmation token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (t *TokenIssuer) Expiry(from time.Time) time.Time {
	return from.Add(t.TTL)
}
