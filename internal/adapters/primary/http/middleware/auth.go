package middleware

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/prajwalc1/employee-timeline/internal/auth"
	"github.com/prajwalc1/employee-timeline/internal/infrastructure/logging"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// UserClaimsKey is the key used to store user claims in the request context.
const UserClaimsKey contextKey = "userClaims"

// JWTMiddleware validates the JWT token from the Authorization header.
func JWTMiddleware(tm *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeAuthError(w, http.StatusUnauthorized, "Authorization header is required", "UNAUTHORIZED")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				writeAuthError(w, http.StatusUnauthorized, "Authorization header format must be Bearer {token}", "UNAUTHORIZED")
				return
			}

			claims, err := tm.ValidateToken(parts[1])
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "Invalid or expired token", "UNAUTHORIZED")
				return
			}

			// Add the claims to the context for downstream handlers to use.
			ctx := context.WithValue(r.Context(), UserClaimsKey, claims)
			ctx = logging.WithUserID(ctx, claims.UserID.String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects requests whose token carries none of roles.
// It must run after JWTMiddleware.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetClaims(r.Context())
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "Not authorized", "UNAUTHORIZED")
				return
			}
			if !slices.Contains(roles, claims.Role) {
				writeAuthError(w, http.StatusForbidden, "You do not have permission to perform this action", "FORBIDDEN")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetClaims returns the claims stored by JWTMiddleware.
func GetClaims(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(UserClaimsKey).(*auth.Claims)
	return claims, ok && claims != nil
}

func writeAuthError(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + message + `","code":"` + code + `"}`))
}
