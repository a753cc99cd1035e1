package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/helpdesk-kit/helpdesk/internal/domain"
	"github.com/helpdesk-kit/helpdesk/internal/repository"
	"github.com/helpdesk-kit/helpdesk/internal/service"
)

func TestRecordAppendsEntry(t *testing.T) {
	repo := &fakeAuditRepo{}
	svc := service.NewAuditService(repo, zap.NewNop())

	ticketID := "t1"
	svc.Record(context.Background(), service.AuditRecord{
		TicketID:    &ticketID,
		ActorID:     "u1",
		Action:      domain.AuditActionCreateTicket,
		Description: "Ticket created",
		NewValue:    map[string]any{"status": "NEW"},
	})

	require.Len(t, repo.entries, 1)
	assert.Equal(t, domain.AuditActionCreateTicket, repo.entries[0].Action)
	assert.NotEmpty(t, repo.entries[0].ID)
}

func TestRecordSwallowsRepositoryFailures(t *testing.T) {
	repo := &fakeAuditRepo{createErr: assert.AnError}
	svc := service.NewAuditService(repo, zap.NewNop())

	// Must not panic or surface the error.
	svc.Record(context.Background(), service.AuditRecord{
		ActorID: "u1",
		Action:  domain.AuditActionAddComment,
	})
	assert.Empty(t, repo.entries)
}

func TestAuditListFilters(t *testing.T) {
	repo := &fakeAuditRepo{}
	svc := service.NewAuditService(repo, zap.NewNop())
	ctx := context.Background()

	ticketA, ticketB := "ta", "tb"
	svc.Record(ctx, service.AuditRecord{TicketID: &ticketA, ActorID: "u1", Action: domain.AuditActionCreateTicket})
	svc.Record(ctx, service.AuditRecord{TicketID: &ticketA, ActorID: "u2", Action: domain.AuditActionAddComment})
	svc.Record(ctx, service.AuditRecord{TicketID: &ticketB, ActorID: "u1", Action: domain.AuditActionCreateTicket})

	byTicket, err := svc.List(ctx, repository.AuditFilter{TicketID: &ticketA})
	require.NoError(t, err)
	assert.Len(t, byTicket, 2)

	actor := "u1"
	action := domain.AuditActionCreateTicket
	filtered, err := svc.List(ctx, repository.AuditFilter{ActorID: &actor, Action: &action})
	require.NoError(t, err)
	assert.Len(t, filtered, 2)

	none, err := svc.List(ctx, repository.AuditFilter{TicketID: &ticketB, ActorID: &actor, Action: &action})
	require.NoError(t, err)
	assert.Len(t, none, 1)
}
