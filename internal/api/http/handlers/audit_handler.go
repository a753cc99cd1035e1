package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-kit/helpdesk/internal/api/dto"
	"github.com/helpdesk-kit/helpdesk/internal/domain"
	"github.com/helpdesk-kit/helpdesk/internal/repository"
	"github.com/helpdesk-kit/helpdesk/internal/service"
)

// AuditHandler exposes the admin-only audit log query surface.
type AuditHandler struct {
	audit *service.AuditService
}

// NewAuditHandler constructs handler.
func NewAuditHandler(audit *service.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// List GET /api/audit. Admin only (route guard).
func (h *AuditHandler) List(c *fiber.Ctx) error {
	filter := repository.AuditFilter{
		Limit: parseIntDefault(c.Query("limit"), 100),
	}
	if v := c.Query("ticket"); v != "" {
		filter.TicketID = &v
	}
	if v := c.Query("actor"); v != "" {
		filter.ActorID = &v
	}
	if v := c.Query("action"); v != "" {
		action := domain.AuditAction(v)
		filter.Action = &action
	}
	if from := parseTime(c.Query("start_date")); from != nil {
		filter.From = from
	}
	if to := parseTime(c.Query("end_date")); to != nil {
		filter.To = to
	}

	entries, err := h.audit.List(c.Context(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.AuditEntryResponse, 0, len(entries))
	for i := range entries {
		items = append(items, dto.NewAuditEntryResponse(&entries[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func parseTime(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	return &parsed
}
