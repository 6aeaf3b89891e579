package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-mini/internal/domain"
)

// CreateTicketRequest payload. The idempotency key travels in the
// Idempotency-Key header, not the body.
type CreateTicketRequest struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Priority    domain.TicketPriority `json:"priority"`
}

// UpdateTicketRequest payload for PATCH /tickets/:id. Version is the
// optimistic-lock token the caller last read. An empty assigned_to string
// clears the assignee.
type UpdateTicketRequest struct {
	Version    *int64                 `json:"version"`
	Status     *domain.TicketStatus   `json:"status"`
	Priority   *domain.TicketPriority `json:"priority"`
	AssignedTo *string                `json:"assigned_to"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Content    string  `json:"content"`
	ParentID   *string `json:"parent_id"`
	IsInternal bool    `json:"is_internal"`
}

// TicketResponse is the full ticket representation.
type TicketResponse struct {
	ID             string                `json:"id"`
	Title          string                `json:"title"`
	Description    string                `json:"description"`
	Priority       domain.TicketPriority `json:"priority"`
	Status         domain.TicketStatus   `json:"status"`
	CreatedBy      string                `json:"created_by"`
	AssignedTo     *string               `json:"assigned_to"`
	Deadline       time.Time             `json:"deadline"`
	Version        int64                 `json:"version"`
	IdempotencyKey *string               `json:"idempotency_key,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// TicketListResponse is one page of tickets.
type TicketListResponse struct {
	Items      []TicketResponse `json:"items"`
	Total      int              `json:"total"`
	NextOffset *int             `json:"next_offset"`
}

// CommentResponse represents a thread entry, with its parent resolved.
type CommentResponse struct {
	ID         string           `json:"id"`
	TicketID   string           `json:"ticket_id"`
	Content    string           `json:"content"`
	AuthorID   string           `json:"author_id"`
	Parent     *CommentResponse `json:"parent,omitempty"`
	IsInternal bool             `json:"is_internal"`
	CreatedAt  time.Time        `json:"created_at"`
}

// TimelineEntryResponse represents an audit entry. Actor is null for
// system-originated actions.
type TimelineEntryResponse struct {
	ID        string                 `json:"id"`
	Action    domain.TimelineAction  `json:"action"`
	ActorID   *string                `json:"actor_id"`
	Details   domain.TimelineDetails `json:"details"`
	Timestamp time.Time              `json:"timestamp"`
}

// TicketDetailResponse provides the single-ticket read payload.
type TicketDetailResponse struct {
	Ticket   TicketResponse          `json:"ticket"`
	Comments []CommentResponse       `json:"comments"`
	Timeline []TimelineEntryResponse `json:"timeline"`
}
