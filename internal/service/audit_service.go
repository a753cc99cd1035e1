package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/helpdesk-kit/helpdesk/internal/domain"
	"github.com/helpdesk-kit/helpdesk/internal/repository"
)

// AuditService appends immutable audit entries and serves the admin query
// surface. Appends are best-effort observability: a failed append is logged
// and swallowed so it can never fail the operation that produced it.
type AuditService struct {
	repo   repository.AuditRepository
	logger *zap.Logger
}

// NewAuditService constructs the service.
func NewAuditService(repo repository.AuditRepository, logger *zap.Logger) *AuditService {
	return &AuditService{repo: repo, logger: logger}
}

// AuditRecord describes one entry to append.
type AuditRecord struct {
	TicketID    *string
	ActorID     string
	Action      domain.AuditAction
	Description string
	OldValue    map[string]any
	NewValue    map[string]any
	IPAddress   *string
}

// Record appends an entry. It never returns an error.
func (s *AuditService) Record(ctx context.Context, record AuditRecord) {
	entry := &domain.AuditEntry{
		TicketID:    record.TicketID,
		ActorID:     record.ActorID,
		Action:      record.Action,
		Description: record.Description,
		OldValue:    record.OldValue,
		NewValue:    record.NewValue,
		IPAddress:   record.IPAddress,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		s.logger.Error("audit append failed",
			zap.String("action", string(record.Action)),
			zap.String("actor_id", record.ActorID),
			zap.Error(err))
	}
}

// List returns entries matching the filter, newest first.
func (s *AuditService) List(ctx context.Context, filter repository.AuditFilter) ([]domain.AuditEntry, error) {
	entries, err := s.repo.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []domain.AuditEntry{}
	}
	return entries, nil
}
