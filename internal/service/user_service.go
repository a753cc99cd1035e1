package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/helpdesk-kit/helpdesk/internal/domain"
	"github.com/helpdesk-kit/helpdesk/internal/repository"
	apperrors "github.com/helpdesk-kit/helpdesk/pkg/util"
)

// UserService serves the admin-facing user directory.
type UserService struct {
	users   repository.UserRepository
	tickets repository.TicketRepository
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository, tickets repository.TicketRepository) *UserService {
	return &UserService{users: users, tickets: tickets}
}

// ListActive returns active users, optionally filtered by role.
func (s *UserService) ListActive(ctx context.Context, role *domain.Role) ([]domain.User, error) {
	if role != nil && !domain.ValidRole(*role) {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": *role})
	}
	users, err := s.users.ListActive(ctx, role)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

// ChangeRole sets a user's role. Admin only (enforced at the route).
func (s *UserService) ChangeRole(ctx context.Context, userID string, role domain.Role) (*domain.User, error) {
	if !domain.ValidRole(role) {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": role})
	}
	user, err := s.users.UpdateRole(ctx, userID, role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, err
	}
	return user, nil
}

// DashboardStats returns ticket counts for the admin's own assignment queue.
func (s *UserService) DashboardStats(ctx context.Context, adminID string) (*repository.TicketStats, error) {
	return s.tickets.StatsForAssignee(ctx, adminID)
}
