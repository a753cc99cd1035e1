package domain

import "time"

// AuditAction tags the kind of state change an audit entry records.
type AuditAction string

const (
	AuditActionCreateTicket   AuditAction = "CREATE_TICKET"
	AuditActionUpdateTicket   AuditAction = "UPDATE_TICKET"
	AuditActionAssignTicket   AuditAction = "ASSIGN_TICKET"
	AuditActionReassignTicket AuditAction = "REASSIGN_TICKET"
	AuditActionAddComment     AuditAction = "ADD_COMMENT"
)

// AuditEntry is an immutable record of a state-changing action. Entries are
// append-only and never mutated or deleted. OldValue and NewValue hold
// before/after snapshots where the operation has them.
type AuditEntry struct {
	ID          string
	TicketID    *string
	ActorID     string
	Action      AuditAction
	Description string
	OldValue    map[string]any
	NewValue    map[string]any
	IPAddress   *string
	CreatedAt   time.Time
}
