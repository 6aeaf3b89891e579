package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-mini/internal/domain"
	"github.com/spec-kit/helpdesk-mini/internal/events"
	"github.com/spec-kit/helpdesk-mini/internal/repository"
)

// SLAService detects deadline breaches and drives the only fully automatic
// state transition in the system. It writes through the same version
// compare-and-swap as client updates, so the two kinds of writers can never
// both win the same version.
type SLAService struct {
	tickets    repository.TicketRepository
	timeline   repository.TimelineRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// SLADependencies bundles collaborators for the SLA service.
type SLADependencies struct {
	TicketRepo   repository.TicketRepository
	TimelineRepo repository.TimelineRepository
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
	Now          func() time.Time
}

// NewSLAService constructs the service.
func NewSLAService(deps SLADependencies) *SLAService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SLAService{
		tickets:    deps.TicketRepo,
		timeline:   deps.TimelineRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		now:        now,
	}
}

// RunSweep transitions every past-deadline, non-terminal ticket to breached
// and returns the number of tickets it breached. Per-ticket failures are
// logged and skipped; a missed ticket is picked up by the next cycle since
// its deadline stays in the past.
func (s *SLAService) RunSweep(ctx context.Context) (int, error) {
	now := s.now()
	expired, err := s.tickets.ListExpired(ctx, now)
	if err != nil {
		return 0, err
	}

	breached := 0
	for i := range expired {
		ticket := expired[i]
		originalStatus := ticket.Status

		ticket.Status = domain.TicketStatusBreached
		ticket.Version++
		if err := s.tickets.UpdateVersioned(ctx, &ticket, ticket.Version-1); err != nil {
			if errors.Is(err, repository.ErrVersionConflict) {
				// A client update won this version; the ticket is re-checked
				// next cycle if it is still past deadline and non-terminal.
				s.logger.Debug("sla sweep lost version race", zap.String("ticket_id", ticket.ID))
				continue
			}
			s.logger.Error("sla sweep ticket update failed",
				zap.String("ticket_id", ticket.ID), zap.Error(err))
			continue
		}

		// System action: no actor on the timeline entry.
		entry := &domain.TimelineEntry{
			ID:       uuid.NewString(),
			TicketID: ticket.ID,
			Action:   domain.ActionSLABreached,
			Details: domain.SLABreachedDetails{
				OriginalDeadline: ticket.Deadline,
				BreachedAt:       now,
				OriginalStatus:   originalStatus,
			},
		}
		if err := s.timeline.Create(ctx, entry); err != nil {
			s.logger.Error("sla sweep timeline append failed",
				zap.String("ticket_id", ticket.ID), zap.Error(err))
		}

		if s.dispatcher != nil {
			_ = s.dispatcher.Publish(ctx, events.Event{
				ID:        uuid.NewString(),
				Type:      events.EventSLABreached,
				TicketID:  ticket.ID,
				Timestamp: now,
				Payload: events.SLABreachedPayload{
					OriginalDeadline: ticket.Deadline,
					OriginalStatus:   originalStatus,
				},
			})
		}

		breached++
	}

	if breached > 0 {
		s.logger.Info("sla sweep breached tickets", zap.Int("count", breached))
	}
	return breached, nil
}
