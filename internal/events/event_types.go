package events

import (
	"time"

	"github.com/helpdesk-kit/helpdesk/internal/domain"
)

// EventType enumerates supported event identifiers. The names double as the
// realtime channel event names clients subscribe to.
type EventType string

const (
	EventTicketCreated   EventType = "ticket:created"
	EventTicketUpdated   EventType = "ticket:updated"
	EventCommentAdded    EventType = "comment:added"
	EventAttachmentAdded EventType = "attachment:added"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketPayload carries the affected ticket for created/updated events.
type TicketPayload struct {
	Code       string                `json:"code"`
	Title      string                `json:"title"`
	Status     domain.TicketStatus   `json:"status"`
	Priority   domain.TicketPriority `json:"priority"`
	AssignedTo *string               `json:"assigned_to,omitempty"`
}

// CommentAddedPayload payload.
type CommentAddedPayload struct {
	CommentID string `json:"comment_id"`
	AuthorID  string `json:"author_id"`
	Internal  bool   `json:"internal"`
}

// AttachmentAddedPayload payload.
type AttachmentAddedPayload struct {
	AttachmentID string `json:"attachment_id"`
	FileName     string `json:"file_name"`
	SizeBytes    int64  `json:"size_bytes"`
}
