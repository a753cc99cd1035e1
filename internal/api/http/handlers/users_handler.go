package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-kit/helpdesk/internal/api/dto"
	"github.com/helpdesk-kit/helpdesk/internal/auth"
	"github.com/helpdesk-kit/helpdesk/internal/domain"
	"github.com/helpdesk-kit/helpdesk/internal/service"
	apperrors "github.com/helpdesk-kit/helpdesk/pkg/util"
)

// UsersHandler exposes the admin-only user directory endpoints.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(users *service.UserService) *UsersHandler {
	return &UsersHandler{users: users}
}

// List GET /api/users. Admin only (route guard).
func (h *UsersHandler) List(c *fiber.Ctx) error {
	var role *domain.Role
	if v := c.Query("role"); v != "" {
		r := domain.Role(v)
		role = &r
	}

	users, err := h.users.ListActive(c.Context(), role)
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, dto.NewUserResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ChangeRole PATCH /api/users/:id/role. Admin only (route guard).
func (h *UsersHandler) ChangeRole(c *fiber.Ctx) error {
	var req dto.ChangeRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.users.ChangeRole(c.Context(), c.Params("id"), req.Role)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// DashboardStats GET /api/users/stats/dashboard. Admin only (route guard).
func (h *UsersHandler) DashboardStats(c *fiber.Ctx) error {
	actor, err := auth.UserFromContext(c)
	if err != nil {
		return err
	}
	stats, err := h.users.DashboardStats(c.Context(), actor.ID)
	if err != nil {
		return err
	}

	resp := dto.DashboardStatsResponse{
		TotalTickets:      stats.Total,
		OpenTickets:       stats.Open,
		TicketsByStatus:   make(map[string]int, len(stats.ByStatus)),
		TicketsByPriority: make(map[string]int, len(stats.ByPriority)),
	}
	for status, count := range stats.ByStatus {
		resp.TicketsByStatus[string(status)] = count
	}
	for priority, count := range stats.ByPriority {
		resp.TicketsByPriority[string(priority)] = count
	}
	return c.JSON(fiber.Map{"data": resp})
}
