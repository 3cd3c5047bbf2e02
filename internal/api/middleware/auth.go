package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/example/fairway-commerce/internal/api/respond"
	"github.com/example/fairway-commerce/internal/apperr"
	"github.com/example/fairway-commerce/internal/auth"
)

// AccessTokenCookie is the cookie the login endpoint sets.
const AccessTokenCookie = "access_token"

// ExtractToken extracts JWT token from cookie or Authorization header
func ExtractToken(r *http.Request) string {
	// Try cookie first (for browser)
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	// Fall back to Authorization header (for API clients)
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

type contextKey string

const (
	UserContextKey contextKey = "user"
)

// AuthMiddleware validates JWT tokens and adds user claims to context
func AuthMiddleware(jwtService *auth.JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := ExtractToken(r)
			if tokenString == "" {
				respond.Error(w, apperr.AuthenticationRequired())
				return
			}

			claims, err := jwtService.ValidateAccessToken(tokenString)
			if err != nil {
				ae := apperr.AuthenticationInvalid()
				if errors.Is(err, auth.ErrExpiredToken) {
					ae.Message = "access token has expired"
				}
				respond.Error(w, ae)
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole checks if the user has one of the required roles
func RequireRole(roles ...auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetUserFromContext(r.Context())
			if !ok {
				respond.Error(w, apperr.AuthenticationRequired())
				return
			}

			for _, role := range roles {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			respond.Error(w, apperr.Forbidden("insufficient role"))
		})
	}
}

// GetUserFromContext retrieves user claims from the request context
func GetUserFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(UserContextKey).(*auth.Claims)
	return claims, ok
}

// GetIdentity returns the authenticated caller.
func GetIdentity(ctx context.Context) (auth.Identity, bool) {
	claims, ok := GetUserFromContext(ctx)
	if !ok {
		return auth.Identity{}, false
	}
	return claims.Identity(), true
}
