package dto

import (
	"time"

	"github.com/helpdesk-kit/helpdesk/internal/domain"
)

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	TicketID string `json:"ticket"`
	Body     string `json:"body"`
	Internal bool   `json:"internal"`
}

// CommentResponse is the public shape of a comment.
type CommentResponse struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	Internal  bool      `json:"internal"`
	CreatedAt time.Time `json:"created_at"`
}

// NewCommentResponse maps a domain comment.
func NewCommentResponse(comment *domain.Comment) CommentResponse {
	return CommentResponse{
		ID:        comment.ID,
		TicketID:  comment.TicketID,
		AuthorID:  comment.AuthorID,
		Body:      comment.Body,
		Internal:  comment.Internal,
		CreatedAt: comment.CreatedAt,
	}
}

// AttachmentResponse is the public shape of an attachment.
type AttachmentResponse struct {
	ID         string    `json:"id"`
	TicketID   string    `json:"ticket_id"`
	FileName   string    `json:"file_name"`
	SizeBytes  int64     `json:"size_bytes"`
	UploadedBy string    `json:"uploaded_by"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewAttachmentResponse maps a domain attachment.
func NewAttachmentResponse(attachment *domain.Attachment) AttachmentResponse {
	return AttachmentResponse{
		ID:         attachment.ID,
		TicketID:   attachment.TicketID,
		FileName:   attachment.FileName,
		SizeBytes:  attachment.SizeBytes,
		UploadedBy: attachment.UploadedBy,
		CreatedAt:  attachment.CreatedAt,
	}
}

// NotificationResponse is the public shape of a notification.
type NotificationResponse struct {
	ID        string                  `json:"id"`
	Kind      domain.NotificationKind `json:"kind"`
	Title     string                  `json:"title"`
	Message   string                  `json:"message"`
	TicketID  *string                 `json:"ticket_id"`
	IsRead    bool                    `json:"is_read"`
	CreatedAt time.Time               `json:"created_at"`
}

// NewNotificationResponse maps a domain notification.
func NewNotificationResponse(n *domain.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Kind:      n.Kind,
		Title:     n.Title,
		Message:   n.Message,
		TicketID:  n.TicketID,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}

// AuditEntryResponse is the public shape of an audit entry.
type AuditEntryResponse struct {
	ID          string             `json:"id"`
	TicketID    *string            `json:"ticket_id"`
	ActorID     string             `json:"actor_id"`
	Action      domain.AuditAction `json:"action"`
	Description string             `json:"description"`
	OldValue    map[string]any     `json:"old_value,omitempty"`
	NewValue    map[string]any     `json:"new_value,omitempty"`
	IPAddress   *string            `json:"ip_address,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

// NewAuditEntryResponse maps a domain audit entry.
func NewAuditEntryResponse(entry *domain.AuditEntry) AuditEntryResponse {
	return AuditEntryResponse{
		ID:          entry.ID,
		TicketID:    entry.TicketID,
		ActorID:     entry.ActorID,
		Action:      entry.Action,
		Description: entry.Description,
		OldValue:    entry.OldValue,
		NewValue:    entry.NewValue,
		IPAddress:   entry.IPAddress,
		CreatedAt:   entry.CreatedAt,
	}
}
