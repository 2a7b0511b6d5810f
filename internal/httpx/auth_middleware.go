package httpx

import (
	"net/http"
	"strings"

	"bookswap/internal/platform/crypto"

	log "github.com/sirupsen/logrus"
)

// AuthMiddleware verifies the bearer token and puts its subject in the
// request context. Handlers never take a user id from the client.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
				return
			}
			token := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := crypto.ParseToken(secret, token)
			if err != nil {
				log.WithError(err).WithField("request_id", RequestIDFrom(r)).Debug("rejected token")
				JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
				return
			}

			ctx := ContextWithUser(r.Context(), claims.Sub)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
