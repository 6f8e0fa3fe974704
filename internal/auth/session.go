package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var sessionCookies = []string{"__Secure-next-auth.session-token", "next-auth.session-token"}

type SessionClaims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Identity é quem o provedor de sessão autenticou.
type Identity struct {
	Email string
	Name  string
}

// SessionVerifier valida o JWT de sessão emitido pelo provedor OAuth (HS256 com NEXTAUTH_SECRET).
type SessionVerifier struct {
	secret []byte
	now    func() time.Time
}

func NewSessionVerifier(secret string) *SessionVerifier {
	return &SessionVerifier{secret: []byte(secret), now: time.Now}
}

func (v *SessionVerifier) Verify(raw string) (*Identity, error) {
	if len(v.secret) == 0 || raw == "" {
		return nil, ErrUnauthenticated
	}

	var claims SessionClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	email := strings.ToLower(strings.TrimSpace(claims.Email))
	if email == "" {
		return nil, fmt.Errorf("%w: session has no email", ErrUnauthenticated)
	}
	return &Identity{Email: email, Name: claims.Name}, nil
}

// TokenFromRequest looks for the session in the Authorization header first, then in the cookies.
func TokenFromRequest(r *http.Request) string {
	if token := bearerToken(r); token != "" {
		return token
	}
	for _, name := range sessionCookies {
		if c, err := r.Cookie(name); err == nil && c.Value != "" {
			return c.Value
		}
	}
	return ""
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
