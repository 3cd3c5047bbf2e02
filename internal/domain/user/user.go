package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/example/fairway-commerce/internal/auth"
	"github.com/google/uuid"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidEmail       = errors.New("email is required")
	ErrInvalidName        = errors.New("name is required")
	ErrInvalidRole        = errors.New("unknown role")
	ErrBrandRequired      = errors.New("brand admins must be assigned a brand")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserDeactivated    = errors.New("user account is deactivated")
)

// User is an account that can sign in to the platform.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Role         auth.Role
	BrandID      string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Repository is the persistence the user service needs.
type Repository interface {
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	CreateUser(ctx context.Context, u *User) error
}

// Service handles user domain operations
type Service struct {
	repo Repository
}

// NewService creates a new user service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create registers a user with the given role. Brand admins need a brand.
func (s *Service) Create(ctx context.Context, email, password, name string, role auth.Role, brandID string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, ErrInvalidEmail
	}
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidName
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	if role == auth.RoleBrandAdmin && brandID == "" {
		return nil, ErrBrandRequired
	}
	if role != auth.RoleBrandAdmin {
		brandID = ""
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	u := &User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(name),
		Role:         role,
		BrandID:      brandID,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate checks credentials. Unknown email and wrong password both
// return ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := auth.VerifyPassword(u.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, ErrUserDeactivated
	}
	return u, nil
}
