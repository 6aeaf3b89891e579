package service

import "github.com/spec-kit/helpdesk-mini/internal/domain"

// TicketAction names an operation checked against the permission matrix.
type TicketAction string

const (
	ActionReadTicket    TicketAction = "read"
	ActionUpdateTicket  TicketAction = "update"
	ActionCommentTicket TicketAction = "comment"
)

// CanPerform is the permission evaluator: a pure function of (actor role,
// actor identity, ticket, action) with no side effects. It only answers
// allow/deny; callers attach contextual ACCESS_DENIED messaging.
//
//   - user: read/comment only on self-created tickets, never update.
//   - agent: read/comment/update on tickets unassigned or assigned to them.
//   - admin: unrestricted.
func CanPerform(actor *domain.User, ticket *domain.Ticket, action TicketAction) bool {
	if actor == nil || ticket == nil {
		return false
	}
	switch actor.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleAgent:
		return ticket.AssignedTo == nil || *ticket.AssignedTo == actor.ID
	case domain.RoleUser:
		if action == ActionUpdateTicket {
			return false
		}
		return ticket.CreatedBy == actor.ID
	}
	return false
}
