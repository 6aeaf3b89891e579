package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-mini/internal/events"
)

// NotificationService logs domain events as they occur. Real-time push
// delivery is out of scope for this deployment; the subscriber keeps the
// event wiring exercised and observable.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{dispatcher: dispatcher, logger: logger}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.logEvent)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.logEvent)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.logEvent)
	n.dispatcher.Subscribe(events.EventCommentAdded, n.logEvent)
	n.dispatcher.Subscribe(events.EventSLABreached, n.logEvent)
}

func (n *NotificationService) logEvent(_ context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_type", string(event.Type)),
		zap.String("ticket_id", event.TicketID),
		zap.Any("payload", event.Payload),
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", *event.ActorID))
	} else {
		fields = append(fields, zap.String("actor", "system"))
	}
	n.logger.Info("domain event", fields...)
	return nil
}
