package service

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/helpdesk-kit/helpdesk/internal/domain"
	"github.com/helpdesk-kit/helpdesk/internal/events"
	"github.com/helpdesk-kit/helpdesk/internal/repository"
	"github.com/helpdesk-kit/helpdesk/internal/storage"
	apperrors "github.com/helpdesk-kit/helpdesk/pkg/util"
)

// AttachmentService manages uploaded files. Blobs live in the disk store;
// rows carry the metadata. Visibility follows the parent ticket.
type AttachmentService struct {
	attachments repository.AttachmentRepository
	workflow    *WorkflowService
	store       *storage.DiskStore
	dispatcher  events.Dispatcher
	maxBytes    int64
	logger      *zap.Logger
}

// NewAttachmentService constructs the service.
func NewAttachmentService(attachments repository.AttachmentRepository, workflow *WorkflowService, store *storage.DiskStore, dispatcher events.Dispatcher, maxBytes int64, logger *zap.Logger) *AttachmentService {
	return &AttachmentService{
		attachments: attachments,
		workflow:    workflow,
		store:       store,
		dispatcher:  dispatcher,
		maxBytes:    maxBytes,
		logger:      logger,
	}
}

// Upload stores the blob and persists metadata for a visible ticket.
func (s *AttachmentService) Upload(ctx context.Context, actor *domain.User, ticketID, fileName string, size int64, r io.Reader) (*domain.Attachment, error) {
	if s.maxBytes > 0 && size > s.maxBytes {
		return nil, apperrors.NewValidationError("file too large", map[string]any{"max_bytes": s.maxBytes})
	}

	ticket, err := s.workflow.LoadVisibleTicket(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}

	key, err := s.store.Save(fileName, r)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidFileType) {
			return nil, apperrors.NewValidationError("invalid file type", map[string]any{"file_name": fileName})
		}
		return nil, err
	}

	attachment := &domain.Attachment{
		TicketID:   ticket.ID,
		FileName:   fileName,
		StorageKey: key,
		SizeBytes:  size,
		UploadedBy: actor.ID,
	}
	if err := s.attachments.Create(ctx, attachment); err != nil {
		// metadata insert failed: release the orphaned blob
		if removeErr := s.store.Remove(key); removeErr != nil {
			s.logger.Warn("orphaned attachment blob", zap.String("storage_key", key), zap.Error(removeErr))
		}
		return nil, err
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventAttachmentAdded,
			TicketID:  ticket.ID,
			ActorID:   actor.ID,
			Timestamp: time.Now(),
			Payload: events.AttachmentAddedPayload{
				AttachmentID: attachment.ID,
				FileName:     attachment.FileName,
				SizeBytes:    attachment.SizeBytes,
			},
		})
	}
	return attachment, nil
}

// ListByTicket returns metadata for a visible ticket.
func (s *AttachmentService) ListByTicket(ctx context.Context, actor *domain.User, ticketID string) ([]domain.Attachment, error) {
	ticket, err := s.workflow.LoadVisibleTicket(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	attachments, err := s.attachments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	if attachments == nil {
		attachments = []domain.Attachment{}
	}
	return attachments, nil
}

// Download resolves the attachment and its on-disk path for a visible ticket.
func (s *AttachmentService) Download(ctx context.Context, actor *domain.User, id string) (*domain.Attachment, string, error) {
	attachment, err := s.getVisible(ctx, actor, id)
	if err != nil {
		return nil, "", err
	}
	path, err := s.store.Path(attachment.StorageKey)
	if err != nil {
		return nil, "", apperrors.NewNotFound("attachment file", nil)
	}
	return attachment, path, nil
}

// Delete removes the metadata row and releases the blob.
func (s *AttachmentService) Delete(ctx context.Context, actor *domain.User, id string) error {
	attachment, err := s.getVisible(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.attachments.Delete(ctx, attachment.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("attachment", nil)
		}
		return err
	}
	if err := s.store.Remove(attachment.StorageKey); err != nil {
		s.logger.Warn("attachment blob removal failed",
			zap.String("storage_key", attachment.StorageKey),
			zap.Error(err))
	}
	return nil
}

func (s *AttachmentService) getVisible(ctx context.Context, actor *domain.User, id string) (*domain.Attachment, error) {
	attachment, err := s.attachments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("attachment", nil)
		}
		return nil, err
	}
	if _, err := s.workflow.LoadVisibleTicket(ctx, actor, attachment.TicketID); err != nil {
		return nil, err
	}
	return attachment, nil
}
