package domain

import "time"

// Comment is a threaded message attached to exactly one ticket. Comments are
// append-only: nothing mutates them after creation, and adding one never
// bumps the ticket version.
type Comment struct {
	ID       string
	TicketID string
	Content  string
	AuthorID string
	// ParentID, when set, references another comment on the same ticket.
	ParentID *string
	// IsInternal marks agent/admin-only notes. It is forced false when the
	// author's role is user at creation time and never changes afterwards.
	IsInternal bool
	CreatedAt  time.Time
}
