package worker

import (
	"github.com/ticketflow/helpdesk/internal/events"
	"github.com/ticketflow/helpdesk/internal/service"
)

// RegisterNotificationWorker subscribes the notification service to
// every lifecycle event the services emit.
func RegisterNotificationWorker(dispatcher events.Dispatcher, notifications *service.NotificationService) {
	types := []events.EventType{
		events.EventTicketCreated,
		events.EventTicketStatusChanged,
		events.EventTicketPriorityChanged,
		events.EventTicketAssigned,
		events.EventCommentAdded,
		events.EventUserRoleChanged,
		events.EventUserDeleted,
	}
	for _, t := range types {
		dispatcher.Subscribe(t, notifications.HandleEvent)
	}
}
