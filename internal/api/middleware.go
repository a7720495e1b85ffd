package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"rentspace-backend/internal/domain"
	"rentspace-backend/internal/logger"
	"rentspace-backend/internal/security"
)

type contextKey string

const actorKey contextKey = "actor"

// actorFromContext returns the authenticated actor claims set by authMiddleware.
func actorFromContext(ctx context.Context) (*security.ActorClaims, bool) {
	claims, ok := ctx.Value(actorKey).(*security.ActorClaims)
	return claims, ok
}

// authMiddleware validates the bearer token and stores the actor claims on
// the request context. Requests without a valid token are rejected.
func authMiddleware(tokens security.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				respondJSON(w, http.StatusUnauthorized, errorBody{Error: "missing bearer token", Kind: "UNAUTHENTICATED"})
				return
			}

			claims, err := tokens.ValidateToken(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				respondJSON(w, http.StatusUnauthorized, errorBody{Error: err.Error(), Kind: "UNAUTHENTICATED"})
				return
			}

			ctx := context.WithValue(r.Context(), actorKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// adminOnly rejects requests whose actor does not carry the admin role.
func adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := actorFromContext(r.Context())
		if !ok || claims.Role != domain.RoleAdmin {
			respondJSON(w, http.StatusForbidden, errorBody{Error: "admin role required", Kind: "AUTHORIZATION"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware records each request with its latency.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Info("Request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds())
	})
}
