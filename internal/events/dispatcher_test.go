package events_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-kit/helpdesk/internal/events"
)

func TestPublishReachesSubscribers(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()

	var got []events.Event
	dispatcher.Subscribe(events.EventTicketCreated, func(ctx context.Context, event events.Event) error {
		got = append(got, event)
		return nil
	})

	err := dispatcher.Publish(context.Background(), events.Event{
		ID:       "e1",
		Type:     events.EventTicketCreated,
		TicketID: "t1",
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "t1", got[0].TicketID)
}

func TestPublishIgnoresOtherEventTypes(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()

	called := false
	dispatcher.Subscribe(events.EventCommentAdded, func(ctx context.Context, event events.Event) error {
		called = true
		return nil
	})

	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{Type: events.EventTicketUpdated}))
	assert.False(t, called)
}

func TestFailingHandlerDoesNotBlockOthers(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()

	calls := 0
	dispatcher.Subscribe(events.EventTicketUpdated, func(ctx context.Context, event events.Event) error {
		calls++
		return errors.New("boom")
	})
	dispatcher.Subscribe(events.EventTicketUpdated, func(ctx context.Context, event events.Event) error {
		calls++
		return nil
	})

	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{Type: events.EventTicketUpdated}))
	assert.Equal(t, 2, calls)
}
