package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/helpdesk-mini/internal/domain"
	"github.com/spec-kit/helpdesk-mini/internal/events"
	"github.com/spec-kit/helpdesk-mini/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-mini/pkg/errorutil"
)

// TicketService is the ticket lifecycle engine. Every mutating operation
// consults the permission evaluator, goes through the ticket version
// compare-and-swap, and emits timeline entries for the audit trail.
type TicketService struct {
	tickets    repository.TicketRepository
	comments   repository.CommentRepository
	timeline   repository.TimelineRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service. Now
// defaults to time.Now and exists so tests can pin the clock.
type TicketDependencies struct {
	TicketRepo   repository.TicketRepository
	CommentRepo  repository.CommentRepository
	TimelineRepo repository.TimelineRepository
	UserRepo     repository.UserRepository
	Dispatcher   events.Dispatcher
	Now          func() time.Time
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		comments:   deps.CommentRepo,
		timeline:   deps.TimelineRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		now:        now,
	}
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title          string
	Description    string
	Priority       domain.TicketPriority
	IdempotencyKey *string
}

// TicketUpdateInput carries a single optimistic update. Version must equal
// the version the caller last read. Nil field pointers mean "unchanged"; an
// empty AssignedTo string clears the assignee.
type TicketUpdateInput struct {
	Version    int64
	Status     *domain.TicketStatus
	Priority   *domain.TicketPriority
	AssignedTo *string
}

// TicketListInput describes listing filters.
type TicketListInput struct {
	Search   *string
	Statuses []domain.TicketStatus
	Limit    int
	Offset   int
}

// TicketPage is one page of a role-scoped listing. NextOffset is nil when
// the listing is exhausted.
type TicketPage struct {
	Items      []domain.Ticket
	Total      int
	NextOffset *int
}

// CommentWithParent pairs a comment with its resolved parent, if any.
type CommentWithParent struct {
	Comment domain.Comment
	Parent  *domain.Comment
}

// TicketDetail is the full single-ticket read: the ticket, its comment
// thread in creation order, and the complete audit timeline.
type TicketDetail struct {
	Ticket   *domain.Ticket
	Comments []CommentWithParent
	Timeline []domain.TimelineEntry
}

// CommentCreateInput describes a new comment.
type CommentCreateInput struct {
	Content    string
	ParentID   *string
	IsInternal bool
}

// CreateTicket creates a ticket for the acting user. Creation is idempotent
// under the supplied key: a repeated key returns the existing ticket
// unchanged, regardless of payload.
func (s *TicketService) CreateTicket(ctx context.Context, actor *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" {
		return nil, apperrors.NewFieldRequired("title")
	}
	if description == "" {
		return nil, apperrors.NewFieldRequired("description")
	}
	if len(title) > domain.MaxTitleLength {
		return nil, apperrors.NewValidationError("title cannot exceed 200 characters",
			map[string]any{"field": "title"})
	}

	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	if !priority.IsValid() {
		return nil, apperrors.NewValidationError("invalid priority",
			map[string]any{"field": "priority"})
	}

	var idemKey *string
	if input.IdempotencyKey != nil {
		if key := strings.TrimSpace(*input.IdempotencyKey); key != "" {
			idemKey = &key
		}
	}
	if idemKey != nil {
		existing, err := s.tickets.GetByIdempotencyKey(ctx, *idemKey)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.MapError(err)
		}
	}

	createdAt := s.now()
	ticket := &domain.Ticket{
		ID:             uuid.NewString(),
		Title:          title,
		Description:    description,
		Priority:       priority,
		Status:         domain.TicketStatusOpen,
		CreatedBy:      actor.ID,
		Deadline:       domain.ComputeDeadline(priority, createdAt),
		Version:        0,
		IdempotencyKey: idemKey,
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		// A concurrent request with the same key can slip past the lookup;
		// the unique index resolves the race, and the winner's ticket is the
		// idempotent answer.
		if idemKey != nil && isUniqueViolation(err) {
			existing, lookupErr := s.tickets.GetByIdempotencyKey(ctx, *idemKey)
			if lookupErr == nil {
				return existing, nil
			}
		}
		return nil, apperrors.MapError(err)
	}

	if err := s.appendTimeline(ctx, ticket.ID, domain.ActionCreated, &actor.ID,
		domain.CreatedDetails{Priority: priority}); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		ActorID:  &actor.ID,
		Payload: events.TicketCreatedPayload{
			Title:    ticket.Title,
			Priority: ticket.Priority,
			Deadline: ticket.Deadline,
		},
	})
	return ticket, nil
}

// ListTickets returns a role-scoped, paginated ticket page: users see only
// self-created tickets, agents see their own plus unassigned open or
// in_progress ones, admins see everything.
func (s *TicketService) ListTickets(ctx context.Context, actor *domain.User, input TicketListInput) (*TicketPage, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := input.Offset
	if offset < 0 {
		offset = 0
	}

	filter := repository.TicketFilter{
		SearchTerm: input.Search,
		Statuses:   input.Statuses,
		Limit:      limit,
		Offset:     offset,
	}
	switch actor.Role {
	case domain.RoleUser:
		filter.CreatedBy = &actor.ID
	case domain.RoleAgent:
		filter.VisibleToAgent = &actor.ID
	}

	items, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	total, err := s.tickets.CountWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	page := &TicketPage{Items: items, Total: total}
	if next := offset + limit; next < total {
		page.NextOffset = &next
	}
	return page, nil
}

// GetTicket returns the ticket with its full comment thread and timeline.
func (s *TicketService) GetTicket(ctx context.Context, actor *domain.User, ticketID string) (*TicketDetail, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !CanPerform(actor, ticket, ActionReadTicket) {
		return nil, apperrors.NewAccessDenied(readDeniedMessage(actor.Role))
	}

	comments, err := s.comments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	byID := make(map[string]*domain.Comment, len(comments))
	for i := range comments {
		byID[comments[i].ID] = &comments[i]
	}
	thread := make([]CommentWithParent, 0, len(comments))
	for i := range comments {
		entry := CommentWithParent{Comment: comments[i]}
		if pid := comments[i].ParentID; pid != nil {
			entry.Parent = byID[*pid]
		}
		thread = append(thread, entry)
	}

	timeline, err := s.timeline.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	return &TicketDetail{Ticket: ticket, Comments: thread, Timeline: timeline}, nil
}

// UpdateTicket applies a whole-record optimistic update: the caller's
// version is compared against the stored one, and at most one writer's
// intent succeeds per version. Losers get STALE_UPDATE with nothing applied
// and must re-read before retrying.
func (s *TicketService) UpdateTicket(ctx context.Context, actor *domain.User, ticketID string, input TicketUpdateInput) (*domain.Ticket, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Version != input.Version {
		return nil, apperrors.NewStaleUpdate()
	}
	if !CanPerform(actor, ticket, ActionUpdateTicket) {
		return nil, apperrors.NewAccessDenied(updateDeniedMessage(actor.Role))
	}

	updated := *ticket
	var summary domain.UpdatedDetails
	var entries []pendingEntry

	if input.Status != nil && *input.Status != ticket.Status {
		newStatus := *input.Status
		if !newStatus.IsValid() {
			return nil, apperrors.NewValidationError("invalid status",
				map[string]any{"field": "status"})
		}
		if !domain.CanTransition(ticket.Status, newStatus) {
			return nil, apperrors.NewValidationError("invalid status transition",
				map[string]any{"from": ticket.Status, "to": newStatus})
		}
		oldStatus := ticket.Status
		updated.Status = newStatus
		summary.OldStatus = &oldStatus
		summary.NewStatus = &newStatus
		entries = append(entries, pendingEntry{
			action:  domain.ActionStatusChange,
			details: domain.StatusChangedDetails{OldStatus: oldStatus, NewStatus: newStatus},
		})
	}

	if input.AssignedTo != nil {
		newAssignee, err := s.resolveAssignee(ctx, *input.AssignedTo)
		if err != nil {
			return nil, err
		}
		if !sameAssignee(ticket.AssignedTo, newAssignee) {
			entries = append(entries, pendingEntry{
				action:  domain.ActionAssigned,
				details: domain.AssignedDetails{AssignedTo: newAssignee, PreviousAssignee: ticket.AssignedTo},
			})
			updated.AssignedTo = newAssignee
		}
	}

	if input.Priority != nil && *input.Priority != ticket.Priority {
		newPriority := *input.Priority
		if !newPriority.IsValid() {
			return nil, apperrors.NewValidationError("invalid priority",
				map[string]any{"field": "priority"})
		}
		oldPriority := ticket.Priority
		// The deadline stays fixed at its creation-time value even when
		// priority changes.
		updated.Priority = newPriority
		summary.OldPriority = &oldPriority
		summary.NewPriority = &newPriority
	}

	updated.Version = ticket.Version + 1
	if err := s.tickets.UpdateVersioned(ctx, &updated, ticket.Version); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			// Another request handler or the SLA sweep presented the same
			// version first.
			return nil, apperrors.NewStaleUpdate()
		}
		return nil, apperrors.MapError(err)
	}

	// Timeline entries follow the accepted write so a rejected update never
	// leaves audit records behind.
	for _, entry := range entries {
		if err := s.appendTimeline(ctx, ticket.ID, entry.action, &actor.ID, entry.details); err != nil {
			return nil, apperrors.MapError(err)
		}
	}
	if !summary.Empty() {
		if err := s.appendTimeline(ctx, ticket.ID, domain.ActionUpdated, &actor.ID, summary); err != nil {
			return nil, apperrors.MapError(err)
		}
	}

	if summary.OldStatus != nil {
		s.publish(ctx, events.Event{
			Type:     events.EventTicketStatusChanged,
			TicketID: ticket.ID,
			ActorID:  &actor.ID,
			Payload:  events.TicketStatusChangedPayload{OldStatus: *summary.OldStatus, NewStatus: *summary.NewStatus},
		})
	}
	if !sameAssignee(ticket.AssignedTo, updated.AssignedTo) {
		s.publish(ctx, events.Event{
			Type:     events.EventTicketAssigned,
			TicketID: ticket.ID,
			ActorID:  &actor.ID,
			Payload:  events.TicketAssignedPayload{AssignedTo: updated.AssignedTo, PreviousAssignee: ticket.AssignedTo},
		})
	}

	return &updated, nil
}

// AddComment appends a comment to a ticket's thread. Commenting requires
// the same visibility the read path demands and never bumps the ticket
// version.
func (s *TicketService) AddComment(ctx context.Context, actor *domain.User, ticketID string, input CommentCreateInput) (*domain.Comment, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !CanPerform(actor, ticket, ActionCommentTicket) {
		return nil, apperrors.NewAccessDenied(commentDeniedMessage(actor.Role))
	}

	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, apperrors.NewFieldRequired("content")
	}

	if input.ParentID != nil {
		parent, err := s.comments.GetByID(ctx, *input.ParentID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewInvalidParentComment()
			}
			return nil, apperrors.MapError(err)
		}
		if parent.TicketID != ticket.ID {
			return nil, apperrors.NewInvalidParentComment()
		}
	}

	comment := &domain.Comment{
		ID:       uuid.NewString(),
		TicketID: ticket.ID,
		Content:  content,
		AuthorID: actor.ID,
		ParentID: input.ParentID,
		// Internal notes are an agent/admin privilege; the flag is silently
		// coerced for user-role authors, never rejected.
		IsInternal: input.IsInternal && actor.Role.CanBeAssignee(),
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}

	if err := s.appendTimeline(ctx, ticket.ID, domain.ActionCommentAdded, &actor.ID,
		domain.CommentAddedDetails{CommentID: comment.ID, IsInternal: comment.IsInternal}); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventCommentAdded,
		TicketID: ticket.ID,
		ActorID:  &actor.ID,
		Payload:  events.CommentAddedPayload{CommentID: comment.ID, IsInternal: comment.IsInternal},
	})
	return comment, nil
}

type pendingEntry struct {
	action  domain.TimelineAction
	details domain.TimelineDetails
}

func (s *TicketService) loadTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewTicketNotFound(ticketID)
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// resolveAssignee validates an assignment target. Empty input clears the
// assignee; otherwise the target must exist and hold the agent or admin
// role, checked at assignment time.
func (s *TicketService) resolveAssignee(ctx context.Context, target string) (*string, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, nil
	}
	assignee, err := s.users.GetByID(ctx, target)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewInvalidAssignee(target)
		}
		return nil, apperrors.MapError(err)
	}
	if !assignee.Role.CanBeAssignee() {
		return nil, apperrors.NewInvalidAssignee(target)
	}
	return &assignee.ID, nil
}

func (s *TicketService) appendTimeline(ctx context.Context, ticketID string, action domain.TimelineAction, actorID *string, details domain.TimelineDetails) error {
	return s.timeline.Create(ctx, &domain.TimelineEntry{
		ID:       uuid.NewString(),
		TicketID: ticketID,
		Action:   action,
		ActorID:  actorID,
		Details:  details,
	})
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func sameAssignee(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func readDeniedMessage(role domain.Role) string {
	if role == domain.RoleAgent {
		return "you can only view assigned tickets"
	}
	return "you can only view your own tickets"
}

func updateDeniedMessage(role domain.Role) string {
	if role == domain.RoleUser {
		return "users cannot update tickets"
	}
	return "you can only update assigned tickets"
}

func commentDeniedMessage(role domain.Role) string {
	if role == domain.RoleAgent {
		return "you can only comment on assigned tickets"
	}
	return "you can only comment on your own tickets"
}
