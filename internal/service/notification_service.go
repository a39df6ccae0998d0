package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/ticketflow/helpdesk/internal/events"
)

// NotificationService reacts to domain events. Delivery channels are
// not part of this service yet; events are logged so operators can
// trace lifecycle activity.
type NotificationService struct {
	logger *zap.Logger
}

// NewNotificationService constructs the service.
func NewNotificationService(logger *zap.Logger) *NotificationService {
	return &NotificationService{logger: logger.Named("notifications")}
}

// HandleEvent logs the event with its actor and payload.
func (s *NotificationService) HandleEvent(ctx context.Context, event events.Event) error {
	s.logger.Info("domain event",
		zap.String("event_id", event.ID),
		zap.String("type", string(event.Type)),
		zap.String("actor_id", event.Actor.ID),
		zap.String("actor_role", string(event.Actor.Role)),
		zap.Any("payload", event.Payload),
	)
	return nil
}
