package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
	TicketStatusBreached   TicketStatus = "breached"
)

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

// MaxTitleLength caps ticket titles.
const MaxTitleLength = 200

// Ticket is the aggregate for support requests. Version is the optimistic
// concurrency counter: it starts at 0 and every accepted mutation increments
// it by exactly 1.
type Ticket struct {
	ID             string
	Title          string
	Description    string
	Priority       TicketPriority
	Status         TicketStatus
	CreatedBy      string
	AssignedTo     *string
	Deadline       time.Time
	Version        int64
	IdempotencyKey *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsTerminal reports whether no further status transitions are defined.
func (s TicketStatus) IsTerminal() bool {
	switch s {
	case TicketStatusResolved, TicketStatusClosed, TicketStatusBreached:
		return true
	}
	return false
}

// IsValid reports whether s is one of the known statuses.
func (s TicketStatus) IsValid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved,
		TicketStatusClosed, TicketStatusBreached:
		return true
	}
	return false
}

// IsValid reports whether p is one of the known priorities.
func (p TicketPriority) IsValid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

var slaOffsets = map[TicketPriority]time.Duration{
	TicketPriorityUrgent: 4 * time.Hour,
	TicketPriorityHigh:   8 * time.Hour,
	TicketPriorityMedium: 24 * time.Hour,
	TicketPriorityLow:    72 * time.Hour,
}

// SLAOffset returns the deadline window for a priority. Unknown priorities
// fall back to the medium window.
func SLAOffset(priority TicketPriority) time.Duration {
	if offset, ok := slaOffsets[priority]; ok {
		return offset
	}
	return slaOffsets[TicketPriorityMedium]
}

// ComputeDeadline derives the SLA deadline from priority and creation time.
// It is evaluated exactly once, at creation; later priority edits never move
// the deadline.
func ComputeDeadline(priority TicketPriority, createdAt time.Time) time.Time {
	return createdAt.Add(SLAOffset(priority))
}

// allowedTransitions defines the client-driven status machine. The breached
// state is reachable only through the SLA sweep, never through a client
// update, so it appears in no value set here.
var allowedTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusOpen:       {TicketStatusInProgress},
	TicketStatusInProgress: {TicketStatusResolved, TicketStatusClosed},
	TicketStatusResolved:   {},
	TicketStatusClosed:     {},
	TicketStatusBreached:   {},
}

// CanTransition reports whether a client update may move a ticket from
// current to next.
func CanTransition(current, next TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}
