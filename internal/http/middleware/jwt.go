package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/neeravgigglesandgrins/giggles/internal/http/response"
	"github.com/neeravgigglesandgrins/giggles/pkg/auth"
	"github.com/neeravgigglesandgrins/giggles/pkg/logger"
)

type contextKey string

const userIDKey contextKey = "auth_user_id"

// RequireJWT authenticates the request with a Bearer token and stores the
// caller's user id on the context.
func RequireJWT(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				response.Unauthorized(w, "missing bearer token")
				return
			}

			claims, err := auth.Parse(strings.TrimPrefix(header, "Bearer "), secret)
			if err != nil {
				response.Unauthorized(w, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
			ctx = context.WithValue(ctx, logger.UserIDKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID returns the authenticated user id stored by RequireJWT.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}
