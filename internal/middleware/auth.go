package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"taskboard/internal/logger"
	"taskboard/internal/models/user"

	"go.uber.org/zap"
)

const identityKey contextKey = "identity"

type SessionValidator interface {
	Validate(*http.Request) (user.Identity, bool)
}

// RequireSession отсекает запросы без действующей сессии до вызова обработчика
func RequireSession(sessions SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := sessions.Validate(r)
			if !ok {
				logger.Warn("HTTP: Запрос без сессии",
					zap.String("request_id", GetRequestID(r.Context())),
					zap.String("path", r.URL.Path))

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
				return
			}

			rememberUser(r.Context(), identity.Email)
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

func WithIdentity(ctx context.Context, identity user.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func IdentityFromContext(ctx context.Context) (user.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(user.Identity)
	return identity, ok && identity.Email != ""
}
