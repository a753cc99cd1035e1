package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets. The canonical flow is
// NEW -> ASSIGNED -> IN_PROGRESS -> DONE/IN_REVIEW -> COMPLETED, with
// COMPLETED -> REOPENED -> ASSIGNED as the reopen cycle. Admin updates may set
// any status directly; only enum membership is enforced.
type TicketStatus string

const (
	TicketStatusNew        TicketStatus = "NEW"
	TicketStatusAssigned   TicketStatus = "ASSIGNED"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusDone       TicketStatus = "DONE"
	TicketStatusInReview   TicketStatus = "IN_REVIEW"
	TicketStatusCompleted  TicketStatus = "COMPLETED"
	TicketStatusReopened   TicketStatus = "REOPENED"
)

// ValidTicketStatus reports whether the value is a known status.
func ValidTicketStatus(s TicketStatus) bool {
	switch s {
	case TicketStatusNew, TicketStatusAssigned, TicketStatusInProgress,
		TicketStatusDone, TicketStatusInReview, TicketStatusCompleted,
		TicketStatusReopened:
		return true
	}
	return false
}

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// ValidTicketPriority reports whether the value is a known priority.
func ValidTicketPriority(p TicketPriority) bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// Ticket is the aggregate for support requests. Code is a human-readable
// identifier assigned once at creation and never reused. AssignedTo, when
// set, always references an IT admin.
type Ticket struct {
	ID          string
	Code        string
	Title       string
	Description string
	Status      TicketStatus
	Priority    TicketPriority
	CreatedBy   string
	AssignedTo  *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Snapshot renders the ticket as a generic map for audit pre/post images.
func (t *Ticket) Snapshot() map[string]any {
	snap := map[string]any{
		"code":        t.Code,
		"title":       t.Title,
		"description": t.Description,
		"status":      t.Status,
		"priority":    t.Priority,
		"created_by":  t.CreatedBy,
	}
	if t.AssignedTo != nil {
		snap["assigned_to"] = *t.AssignedTo
	} else {
		snap["assigned_to"] = nil
	}
	return snap
}
