package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-kit/helpdesk/internal/api/dto"
	"github.com/helpdesk-kit/helpdesk/internal/auth"
	"github.com/helpdesk-kit/helpdesk/internal/service"
	apperrors "github.com/helpdesk-kit/helpdesk/pkg/util"
)

// AttachmentsHandler exposes the file attachment endpoints.
type AttachmentsHandler struct {
	attachments *service.AttachmentService
}

// NewAttachmentsHandler constructs handler.
func NewAttachmentsHandler(attachments *service.AttachmentService) *AttachmentsHandler {
	return &AttachmentsHandler{attachments: attachments}
}

// Upload POST /api/attachments (multipart: file, ticket).
func (h *AttachmentsHandler) Upload(c *fiber.Ctx) error {
	actor, err := auth.UserFromContext(c)
	if err != nil {
		return err
	}
	ticketID := c.FormValue("ticket")
	if ticketID == "" {
		return apperrors.NewValidationError("ticket required", nil)
	}
	header, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewValidationError("no file uploaded", nil)
	}

	file, err := header.Open()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	defer file.Close()

	attachment, err := h.attachments.Upload(c.Context(), actor, ticketID, header.Filename, header.Size, file)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewAttachmentResponse(attachment)})
}

// List GET /api/attachments?ticket={id}.
func (h *AttachmentsHandler) List(c *fiber.Ctx) error {
	actor, err := auth.UserFromContext(c)
	if err != nil {
		return err
	}
	ticketID := c.Query("ticket")
	if ticketID == "" {
		return apperrors.NewValidationError("ticket query parameter required", nil)
	}

	attachments, err := h.attachments.ListByTicket(c.Context(), actor, ticketID)
	if err != nil {
		return err
	}
	items := make([]dto.AttachmentResponse, 0, len(attachments))
	for i := range attachments {
		items = append(items, dto.NewAttachmentResponse(&attachments[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Download GET /api/attachments/:id/download.
func (h *AttachmentsHandler) Download(c *fiber.Ctx) error {
	actor, err := auth.UserFromContext(c)
	if err != nil {
		return err
	}
	attachment, path, err := h.attachments.Download(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.Download(path, attachment.FileName)
}

// Delete DELETE /api/attachments/:id.
func (h *AttachmentsHandler) Delete(c *fiber.Ctx) error {
	actor, err := auth.UserFromContext(c)
	if err != nil {
		return err
	}
	if err := h.attachments.Delete(c.Context(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"deleted": true}})
}
