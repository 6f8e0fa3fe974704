package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/xavierca1/atomic-crm/internal/auth"
)

type ctxKey int

const adminKey ctxKey = iota

// AdminFromContext devolve o admin autenticado pelo RequireAdmin.
func AdminFromContext(ctx context.Context) (*auth.Identity, bool) {
	id, ok := ctx.Value(adminKey).(*auth.Identity)
	return id, ok
}

// RequireAdmin exige sessão válida (401) e e-mail presente na allow-list (403).
func RequireAdmin(verifier *auth.SessionVerifier, allow *auth.AllowList) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := verifier.Verify(auth.TokenFromRequest(r))
			if err != nil {
				slog.Debug("sessão admin inválida", "error", err)
				writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
				return
			}

			if err := allow.Authorize(identity.Email); err != nil {
				status, code := http.StatusForbidden, "FORBIDDEN"
				if errors.Is(err, auth.ErrUnauthenticated) {
					status, code = http.StatusUnauthorized, "UNAUTHORIZED"
				}
				slog.Warn("🚫 acesso admin negado", "email", identity.Email)
				writeAuthError(w, status, code, "not allowed to access the admin area")
				return
			}

			ctx := context.WithValue(r.Context(), adminKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSharedSecret protege as rotas de agendador.
func RequireSharedSecret(secret *auth.SharedSecret) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := secret.Check(r); err != nil {
				writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing secret")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"ok":      false,
		"error":   code,
		"message": message,
	})
}
