package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"gorm.io/gorm"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// AuthContextKey is the key for storing AuthContext in request context
const AuthContextKey ContextKey = "authContext"

// Middleware resolves the bearer token to a recruiter context and injects it
// into the request. A missing or unknown token is not an error here; the
// request proceeds without a context and protected handlers reject it via
// RequireAuth. This keeps public endpoints, protected endpoints, and
// optional-auth endpoints on the same middleware chain.
func Middleware(authService *AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, err := ExtractBearerToken(authHeader)
			if err != nil {
				slog.Warn("Failed to extract bearer token", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			recruiter, err := authService.GetRecruiterByToken(r.Context(), token)
			if err != nil {
				if !errors.Is(err, gorm.ErrRecordNotFound) {
					slog.Warn("Failed to resolve recruiter context", "error", err)
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), AuthContextKey, &AuthContext{RecruiterContext: recruiter})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAuthContext extracts the AuthContext from a request context. Returns nil
// when the request carried no valid token.
func GetAuthContext(ctx context.Context) *AuthContext {
	authCtx, ok := ctx.Value(AuthContextKey).(*AuthContext)
	if !ok {
		return nil
	}
	return authCtx
}

// RequireAuth wraps a handler chain so that requests without a resolved
// recruiter context are rejected with 401.
func RequireAuth(authService *AuthService) func(http.Handler) http.Handler {
	authMiddleware := Middleware(authService)

	return func(next http.Handler) http.Handler {
		return authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if GetAuthContext(r.Context()) == nil {
				slog.Warn("Authentication required but not provided", "method", r.Method, "path", r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","message":"authentication required"}`))
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}
