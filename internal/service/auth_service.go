package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/helpdesk-kit/helpdesk/internal/auth"
	"github.com/helpdesk-kit/helpdesk/internal/config"
	"github.com/helpdesk-kit/helpdesk/internal/domain"
	"github.com/helpdesk-kit/helpdesk/internal/repository"
	apperrors "github.com/helpdesk-kit/helpdesk/pkg/util"
)

// AuthService handles the first-login provisioning flow. Accounts are
// created on first login: seed-admin emails become IT admins, seed-employee
// emails become password-protected employees, and any other email becomes a
// passwordless employee. The seed maps come from configuration so they can
// be rotated without a rebuild.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	seed       config.SeedConfig
	bcryptCost int
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, users repository.UserRepository) *AuthService {
	return &AuthService{
		users:      users,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		seed:       cfg.Seed,
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// TokenManager exposes the manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// Login authenticates or provisions the account for the given email.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, "", time.Time{}, apperrors.NewValidationError("email is required", nil)
	}

	seedPassword, seeded := s.seedPassword(email)
	if seeded {
		if password == "" {
			return nil, "", time.Time{}, apperrors.NewValidationError("password is required for this account", nil)
		}
		// Seed credentials are verified against the configured value
		// before any account is created.
		if password != seedPassword {
			if err := s.verifyStoredPassword(ctx, email, password); err != nil {
				return nil, "", time.Time{}, err
			}
		}
	}

	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
	case errors.Is(err, pgx.ErrNoRows):
		user, err = s.provisionUser(ctx, email, seedPassword, seeded)
		if err != nil {
			return nil, "", time.Time{}, err
		}
	default:
		return nil, "", time.Time{}, err
	}

	if !user.IsActive {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("account deactivated")
	}
	if user.PasswordHash != nil {
		if password == "" {
			return nil, "", time.Time{}, apperrors.NewValidationError("password is required for this account", nil)
		}
		if err := auth.ComparePassword(*user.PasswordHash, password); err != nil {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.users.Update(ctx, user); err != nil {
		return nil, "", time.Time{}, err
	}

	token, expiresAt, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, expiresAt, nil
}

// Me returns the account for an authenticated user id.
func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) seedPassword(email string) (string, bool) {
	if password, ok := s.seed.AdminCredentials[email]; ok {
		return password, true
	}
	if password, ok := s.seed.EmployeeCredentials[email]; ok {
		return password, true
	}
	return "", false
}

// verifyStoredPassword lets a seeded account keep working after its
// configured password rotated, as long as the stored hash still matches.
func (s *AuthService) verifyStoredPassword(ctx context.Context, email, password string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewUnauthorized("invalid credentials")
		}
		return err
	}
	if user.PasswordHash == nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}
	if err := auth.ComparePassword(*user.PasswordHash, password); err != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}
	return nil
}

func (s *AuthService) provisionUser(ctx context.Context, email, seedPassword string, seeded bool) (*domain.User, error) {
	user := &domain.User{
		Email:    email,
		Name:     nameFromEmail(email),
		Role:     domain.RoleEmployee,
		IsActive: true,
	}
	if _, isAdmin := s.seed.AdminCredentials[email]; isAdmin {
		user.Role = domain.RoleITAdmin
	}
	if seeded {
		hash, err := auth.HashPassword(seedPassword, s.bcryptCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = &hash
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// nameFromEmail derives a display name from the local part of the email.
func nameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	if local == "" {
		return email
	}
	return strings.ToUpper(local[:1]) + local[1:]
}
