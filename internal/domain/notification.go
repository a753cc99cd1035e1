package domain

import "time"

// NotificationKind enumerates the notification types a user can receive.
type NotificationKind string

const (
	NotificationTicketAssigned  NotificationKind = "TICKET_ASSIGNED"
	NotificationTicketUpdated   NotificationKind = "TICKET_UPDATED"
	NotificationTicketCommented NotificationKind = "TICKET_COMMENTED"
	NotificationStatusChanged   NotificationKind = "STATUS_CHANGED"
	NotificationSLAViolation    NotificationKind = "SLA_VIOLATION"
)

// Notification is a persisted per-user message. The realtime push channel is
// a hint only; this record is the source of truth. Only the recipient may
// mark it read or delete it.
type Notification struct {
	ID          string
	RecipientID string
	Kind        NotificationKind
	Title       string
	Message     string
	TicketID    *string
	IsRead      bool
	CreatedAt   time.Time
}
