package auth

import (
	"crypto/subtle"
	"net/http"
)

const secretHeader = "x-cron-secret"

// SharedSecret protege as rotas chamadas por agendador (sem identidade, só o segredo).
type SharedSecret struct {
	value []byte
}

func NewSharedSecret(value string) *SharedSecret {
	return &SharedSecret{value: []byte(value)}
}

// Check accepts the x-cron-secret header, a bearer token or ?secret=.
// An empty configured secret rejects every request.
func (s *SharedSecret) Check(r *http.Request) error {
	if s == nil || len(s.value) == 0 {
		return ErrUnauthenticated
	}

	candidates := []string{
		r.Header.Get(secretHeader),
		bearerToken(r),
		r.URL.Query().Get("secret"),
	}
	for _, c := range candidates {
		if c != "" && subtle.ConstantTimeCompare([]byte(c), s.value) == 1 {
			return nil
		}
	}
	return ErrUnauthenticated
}
