package worker

import (
	"context"

	"github.com/helpdesk-kit/helpdesk/internal/events"
	"github.com/helpdesk-kit/helpdesk/internal/realtime"
)

// StartRealtimeWorker bridges domain events onto the realtime push channel.
// Broadcast delivery is best-effort; the broker logs its own failures.
func StartRealtimeWorker(dispatcher events.Dispatcher, pusher realtime.Pusher) {
	if dispatcher == nil || pusher == nil {
		return
	}
	for _, eventType := range []events.EventType{
		events.EventTicketCreated,
		events.EventTicketUpdated,
		events.EventCommentAdded,
		events.EventAttachmentAdded,
	} {
		name := string(eventType)
		dispatcher.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
			pusher.Broadcast(ctx, name, event)
			return nil
		})
	}
}
