package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/helpdesk-kit/helpdesk/internal/domain"
	"github.com/helpdesk-kit/helpdesk/internal/realtime"
	"github.com/helpdesk-kit/helpdesk/internal/repository"
	apperrors "github.com/helpdesk-kit/helpdesk/pkg/util"
)

// NotificationService persists notifications and pushes best-effort realtime
// hints. Persistence is the source of truth; a failed push never rolls back
// the stored notification.
type NotificationService struct {
	repo   repository.NotificationRepository
	pusher realtime.Pusher
	logger *zap.Logger
}

// NewNotificationService constructs the service.
func NewNotificationService(repo repository.NotificationRepository, pusher realtime.Pusher, logger *zap.Logger) *NotificationService {
	return &NotificationService{repo: repo, pusher: pusher, logger: logger}
}

// Notify persists a notification and pushes a "notification" event to the
// recipient's channel.
func (s *NotificationService) Notify(ctx context.Context, recipientID string, kind domain.NotificationKind, title, message string, ticketID *string) (*domain.Notification, error) {
	notification := &domain.Notification{
		RecipientID: recipientID,
		Kind:        kind,
		Title:       title,
		Message:     message,
		TicketID:    ticketID,
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, err
	}

	if s.pusher != nil {
		s.pusher.PublishToUser(ctx, recipientID, "notification", map[string]any{
			"id":        notification.ID,
			"kind":      notification.Kind,
			"title":     notification.Title,
			"message":   notification.Message,
			"ticket_id": notification.TicketID,
		})
	}
	return notification, nil
}

// List returns the recipient's notifications, newest first, with the unread
// count.
func (s *NotificationService) List(ctx context.Context, recipientID string, unreadOnly bool, limit int) ([]domain.Notification, int, error) {
	notifications, err := s.repo.ListByRecipient(ctx, recipientID, unreadOnly, limit)
	if err != nil {
		return nil, 0, err
	}
	if notifications == nil {
		notifications = []domain.Notification{}
	}
	unread, err := s.repo.CountUnread(ctx, recipientID)
	if err != nil {
		return nil, 0, err
	}
	return notifications, unread, nil
}

// MarkRead marks one owned notification read. Idempotent for already-read
// notifications; not-owned or missing notifications report NotFound.
func (s *NotificationService) MarkRead(ctx context.Context, recipientID, id string) (*domain.Notification, error) {
	notification, err := s.repo.MarkRead(ctx, recipientID, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("notification", nil)
		}
		return nil, err
	}
	return notification, nil
}

// MarkAllRead marks every unread notification of the recipient read.
func (s *NotificationService) MarkAllRead(ctx context.Context, recipientID string) error {
	return s.repo.MarkAllRead(ctx, recipientID)
}

// Delete removes one owned notification.
func (s *NotificationService) Delete(ctx context.Context, recipientID, id string) error {
	if err := s.repo.Delete(ctx, recipientID, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("notification", nil)
		}
		return err
	}
	return nil
}
