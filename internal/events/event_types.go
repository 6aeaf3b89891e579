package events

import (
	"time"

	"github.com/spec-kit/helpdesk-mini/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketUpdated       EventType = "ticket_updated"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventCommentAdded        EventType = "comment_added"
	EventSLABreached         EventType = "sla_breached"
)

// Event represents a domain event emitted by services. ActorID nil marks a
// system-originated event, mirroring the timeline convention.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	ActorID   *string     `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Title    string                `json:"title"`
	Priority domain.TicketPriority `json:"priority"`
	Deadline time.Time             `json:"deadline"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AssignedTo       *string `json:"assigned_to,omitempty"`
	PreviousAssignee *string `json:"previous_assignee,omitempty"`
}

// CommentAddedPayload payload.
type CommentAddedPayload struct {
	CommentID  string `json:"comment_id"`
	IsInternal bool   `json:"is_internal"`
}

// SLABreachedPayload payload.
type SLABreachedPayload struct {
	OriginalDeadline time.Time           `json:"original_deadline"`
	OriginalStatus   domain.TicketStatus `json:"original_status"`
}
