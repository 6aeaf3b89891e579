package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/helpdesk-mini/internal/domain"
	"github.com/spec-kit/helpdesk-mini/internal/events"
	"github.com/spec-kit/helpdesk-mini/internal/repository"
)

// fakeTicketRepo is an in-memory TicketRepository with the same version
// compare-and-swap semantics as the SQL implementation.
type fakeTicketRepo struct {
	mu      sync.Mutex
	tickets map[string]domain.Ticket
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: map[string]domain.Ticket{}}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ticket.IdempotencyKey != nil {
		for _, existing := range r.tickets {
			if existing.IdempotencyKey != nil && *existing.IdempotencyKey == *ticket.IdempotencyKey {
				return &pgconn.PgError{Code: "23505"}
			}
		}
	}
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now()
	}
	ticket.UpdatedAt = ticket.CreatedAt
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &ticket, nil
}

func (r *fakeTicketRepo) GetByIdempotencyKey(_ context.Context, key string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ticket := range r.tickets {
		if ticket.IdempotencyKey != nil && *ticket.IdempotencyKey == key {
			found := ticket
			return &found, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTicketRepo) UpdateVersioned(_ context.Context, ticket *domain.Ticket, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[ticket.ID]
	if !ok || stored.Version != expectedVersion {
		return repository.ErrVersionConflict
	}
	stored.Status = ticket.Status
	stored.Priority = ticket.Priority
	stored.AssignedTo = ticket.AssignedTo
	stored.Version = ticket.Version
	stored.UpdatedAt = time.Now()
	r.tickets[ticket.ID] = stored
	return nil
}

func (r *fakeTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	matched := r.match(filter)
	start := filter.Offset
	if start > len(matched) {
		start = len(matched)
	}
	end := start + filter.Limit
	if filter.Limit <= 0 || end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], nil
}

func (r *fakeTicketRepo) CountWithFilter(_ context.Context, filter repository.TicketFilter) (int, error) {
	return len(r.match(filter)), nil
}

func (r *fakeTicketRepo) ListExpired(_ context.Context, now time.Time) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var expired []domain.Ticket
	for _, ticket := range r.tickets {
		if ticket.Deadline.Before(now) && !ticket.Status.IsTerminal() {
			expired = append(expired, ticket)
		}
	}
	return expired, nil
}

func (r *fakeTicketRepo) match(filter repository.TicketFilter) []domain.Ticket {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []domain.Ticket
	for _, ticket := range r.tickets {
		if filter.CreatedBy != nil && ticket.CreatedBy != *filter.CreatedBy {
			continue
		}
		if filter.VisibleToAgent != nil {
			assignedToAgent := ticket.AssignedTo != nil && *ticket.AssignedTo == *filter.VisibleToAgent
			unassignedActive := ticket.AssignedTo == nil &&
				(ticket.Status == domain.TicketStatusOpen || ticket.Status == domain.TicketStatusInProgress)
			if !assignedToAgent && !unassignedActive {
				continue
			}
		}
		if len(filter.Statuses) > 0 {
			found := false
			for _, status := range filter.Statuses {
				if ticket.Status == status {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		if filter.SearchTerm != nil {
			term := strings.ToLower(*filter.SearchTerm)
			if !strings.Contains(strings.ToLower(ticket.Title), term) &&
				!strings.Contains(strings.ToLower(ticket.Description), term) {
				continue
			}
		}
		matched = append(matched, ticket)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})
	return matched
}

type fakeCommentRepo struct {
	mu       sync.Mutex
	comments []domain.Comment
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{}
}

func (r *fakeCommentRepo) Create(_ context.Context, comment *domain.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now()
	}
	r.comments = append(r.comments, *comment)
	return nil
}

func (r *fakeCommentRepo) GetByID(_ context.Context, id string) (*domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, comment := range r.comments {
		if comment.ID == id {
			found := comment
			return &found, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeCommentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var list []domain.Comment
	for _, comment := range r.comments {
		if comment.TicketID == ticketID {
			list = append(list, comment)
		}
	}
	return list, nil
}

type fakeTimelineRepo struct {
	mu      sync.Mutex
	entries []domain.TimelineEntry
}

func newFakeTimelineRepo() *fakeTimelineRepo {
	return &fakeTimelineRepo{}
}

func (r *fakeTimelineRepo) Create(_ context.Context, entry *domain.TimelineEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeTimelineRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TimelineEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var list []domain.TimelineEntry
	for _, entry := range r.entries {
		if entry.TicketID == ticketID {
			list = append(list, entry)
		}
	}
	return list, nil
}

func (r *fakeTimelineRepo) byAction(ticketID string, action domain.TimelineAction) []domain.TimelineEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var list []domain.TimelineEntry
	for _, entry := range r.entries {
		if entry.TicketID == ticketID && entry.Action == action {
			list = append(list, entry)
		}
	}
	return list
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func newFakeUserRepo(users ...domain.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: map[string]domain.User{}}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			found := user
			return &found, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) List(_ context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var list []domain.User
	for _, user := range r.users {
		list = append(list, user)
	}
	return list, nil
}

func (r *fakeUserRepo) ListAgents(_ context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var list []domain.User
	for _, user := range r.users {
		if user.Active && user.Role.CanBeAssignee() {
			list = append(list, user)
		}
	}
	return list, nil
}

func (r *fakeUserRepo) UpdateRole(_ context.Context, id string, role domain.Role) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	user.Role = role
	r.users[id] = user
	return &user, nil
}

func (r *fakeUserRepo) SetActive(_ context.Context, id string, active bool) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	user.Active = active
	r.users[id] = user
	return &user, nil
}

// recordingDispatcher captures published events for assertions.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) byType(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var list []events.Event
	for _, event := range d.events {
		if event.Type == eventType {
			list = append(list, event)
		}
	}
	return list
}
