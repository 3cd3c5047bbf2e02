package api

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/example/fairway-commerce/internal/api/middleware"
	"github.com/example/fairway-commerce/internal/api/respond"
	"github.com/example/fairway-commerce/internal/apperr"
	"github.com/example/fairway-commerce/internal/auth"
	"github.com/example/fairway-commerce/internal/domain/user"
)

// AuthHandlers handles authentication-related HTTP requests
type AuthHandlers struct {
	userService   *user.Service
	jwtService    *auth.JWTService
	secureCookies bool
	logger        *zap.Logger
}

// NewAuthHandlers creates a new AuthHandlers instance
func NewAuthHandlers(userService *user.Service, jwtService *auth.JWTService, secureCookies bool, logger *zap.Logger) *AuthHandlers {
	return &AuthHandlers{
		userService:   userService,
		jwtService:    jwtService,
		secureCookies: secureCookies,
		logger:        logger.With(zap.String("component", "auth")),
	}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse represents the authentication response
type AuthResponse struct {
	User        UserResponse `json:"user"`
	AccessToken string       `json:"accessToken"`
	ExpiresAt   time.Time    `json:"expiresAt"`
}

// UserResponse represents user data in responses
type UserResponse struct {
	ID      string    `json:"id"`
	Email   string    `json:"email"`
	Name    string    `json:"name"`
	Role    auth.Role `json:"role"`
	BrandID string    `json:"brandId,omitempty"`
}

// Login handles user login
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, err)
		return
	}

	u, err := h.userService.Authenticate(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, user.ErrInvalidCredentials):
		respond.Error(w, apperr.New(apperr.KindAuthenticationInvalid, "invalid email or password"))
		return
	case errors.Is(err, user.ErrUserDeactivated):
		respond.Error(w, apperr.Forbidden("account is deactivated"))
		return
	case err != nil:
		h.logger.Error("login failed", zap.Error(err))
		respond.Error(w, err)
		return
	}

	token, expiresAt, err := h.jwtService.GenerateAccessToken(auth.TokenSubject{
		UserID:   u.ID,
		Email:    u.Email,
		Username: u.Name,
		Role:     u.Role,
		BrandID:  u.BrandID,
	})
	if err != nil {
		h.logger.Error("failed to sign access token", zap.Error(err))
		respond.Error(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.secureCookies || r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})

	h.logger.Info("user logged in", zap.String("user_id", u.ID), zap.String("role", string(u.Role)))

	respond.JSON(w, http.StatusOK, AuthResponse{
		User: UserResponse{
			ID:      u.ID,
			Email:   u.Email,
			Name:    u.Name,
			Role:    u.Role,
			BrandID: u.BrandID,
		},
		AccessToken: token,
		ExpiresAt:   expiresAt,
	})
}

// Logout clears the access token cookie
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	respond.JSON(w, http.StatusOK, map[string]string{
		"message": "Logout successful",
	})
}
