package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-kit/helpdesk/internal/api/dto"
	"github.com/helpdesk-kit/helpdesk/internal/auth"
	"github.com/helpdesk-kit/helpdesk/internal/service"
	apperrors "github.com/helpdesk-kit/helpdesk/pkg/util"
)

// CommentsHandler exposes the ticket comment endpoints.
type CommentsHandler struct {
	workflow *service.WorkflowService
}

// NewCommentsHandler constructs handler.
func NewCommentsHandler(workflow *service.WorkflowService) *CommentsHandler {
	return &CommentsHandler{workflow: workflow}
}

// Create POST /api/comments.
func (h *CommentsHandler) Create(c *fiber.Ctx) error {
	actor, err := auth.UserFromContext(c)
	if err != nil {
		return err
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.TicketID == "" {
		return apperrors.NewValidationError("ticket required", nil)
	}

	comment, err := h.workflow.AddComment(c.Context(), actor, req.TicketID, req.Body, req.Internal, sourceIP(c))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewCommentResponse(comment)})
}

// List GET /api/comments?ticket={id}.
func (h *CommentsHandler) List(c *fiber.Ctx) error {
	actor, err := auth.UserFromContext(c)
	if err != nil {
		return err
	}
	ticketID := c.Query("ticket")
	if ticketID == "" {
		return apperrors.NewValidationError("ticket query parameter required", nil)
	}

	comments, err := h.workflow.ListComments(c.Context(), actor, ticketID)
	if err != nil {
		return err
	}
	items := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		items = append(items, dto.NewCommentResponse(&comments[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}
