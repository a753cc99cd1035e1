package domain

import "time"

// Comment is a message on a ticket thread. Internal comments are visible to
// IT admins only; public comments are visible to the ticket owner as well.
// Comments are immutable once created.
type Comment struct {
	ID        string
	TicketID  string
	AuthorID  string
	Body      string
	Internal  bool
	CreatedAt time.Time
}
