package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/helpdesk-kit/helpdesk/internal/domain"
	"github.com/helpdesk-kit/helpdesk/internal/service"
)

func newNotificationEnv() (*service.NotificationService, *fakeNotificationRepo, *fakePusher) {
	repo := newFakeNotificationRepo()
	pusher := &fakePusher{}
	return service.NewNotificationService(repo, pusher, zap.NewNop()), repo, pusher
}

func TestNotifyPersistsAndPushes(t *testing.T) {
	svc, repo, pusher := newNotificationEnv()
	ctx := context.Background()

	notification, err := svc.Notify(ctx, "u1", domain.NotificationTicketAssigned, "New Ticket Assigned", "msg", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, notification.ID)
	assert.False(t, notification.IsRead)

	require.Len(t, repo.forRecipient("u1"), 1)
	require.Len(t, pusher.toUser, 1)
	assert.Equal(t, "u1", pusher.toUser[0].UserID)
	assert.Equal(t, "notification", pusher.toUser[0].Event)
}

func TestListReturnsUnreadCount(t *testing.T) {
	svc, _, _ := newNotificationEnv()
	ctx := context.Background()

	first, err := svc.Notify(ctx, "u1", domain.NotificationTicketCommented, "a", "m", nil)
	require.NoError(t, err)
	_, err = svc.Notify(ctx, "u1", domain.NotificationTicketUpdated, "b", "m", nil)
	require.NoError(t, err)
	_, err = svc.Notify(ctx, "other", domain.NotificationTicketUpdated, "c", "m", nil)
	require.NoError(t, err)

	_, err = svc.MarkRead(ctx, "u1", first.ID)
	require.NoError(t, err)

	notifications, unread, err := svc.List(ctx, "u1", false, 0)
	require.NoError(t, err)
	assert.Len(t, notifications, 2)
	assert.Equal(t, 1, unread)

	unreadOnly, _, err := svc.List(ctx, "u1", true, 0)
	require.NoError(t, err)
	assert.Len(t, unreadOnly, 1)
}

func TestMarkReadScopedToRecipient(t *testing.T) {
	svc, _, _ := newNotificationEnv()
	ctx := context.Background()

	notification, err := svc.Notify(ctx, "u1", domain.NotificationTicketAssigned, "t", "m", nil)
	require.NoError(t, err)

	// Another recipient can neither read nor delete it.
	_, err = svc.MarkRead(ctx, "intruder", notification.ID)
	assert.Equal(t, "NOT_FOUND", domainErrCode(t, err))
	err = svc.Delete(ctx, "intruder", notification.ID)
	assert.Equal(t, "NOT_FOUND", domainErrCode(t, err))

	// Marking read is idempotent for the owner.
	read, err := svc.MarkRead(ctx, "u1", notification.ID)
	require.NoError(t, err)
	assert.True(t, read.IsRead)
	again, err := svc.MarkRead(ctx, "u1", notification.ID)
	require.NoError(t, err)
	assert.True(t, again.IsRead)
}

func TestMarkAllRead(t *testing.T) {
	svc, _, _ := newNotificationEnv()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Notify(ctx, "u1", domain.NotificationTicketCommented, "t", "m", nil)
		require.NoError(t, err)
	}
	_, err := svc.Notify(ctx, "u2", domain.NotificationTicketCommented, "t", "m", nil)
	require.NoError(t, err)

	require.NoError(t, svc.MarkAllRead(ctx, "u1"))

	_, unread, err := svc.List(ctx, "u1", false, 0)
	require.NoError(t, err)
	assert.Zero(t, unread)

	// Other recipients are untouched.
	_, unread, err = svc.List(ctx, "u2", false, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)
}

func TestDeleteRemovesOwnNotification(t *testing.T) {
	svc, repo, _ := newNotificationEnv()
	ctx := context.Background()

	notification, err := svc.Notify(ctx, "u1", domain.NotificationTicketAssigned, "t", "m", nil)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "u1", notification.ID))
	assert.Empty(t, repo.forRecipient("u1"))

	err = svc.Delete(ctx, "u1", notification.ID)
	assert.Equal(t, "NOT_FOUND", domainErrCode(t, err))
}
