package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/helpdesk-kit/helpdesk/internal/domain"
	"github.com/helpdesk-kit/helpdesk/internal/events"
	"github.com/helpdesk-kit/helpdesk/internal/repository"
	apperrors "github.com/helpdesk-kit/helpdesk/pkg/util"
)

// maxCodeAttempts bounds ticket code generation retries on collision.
const maxCodeAttempts = 5

// WorkflowService is the ticket workflow engine. It validates requests
// against role and ticket state, performs the primary mutation, and then runs
// audit, notification and broadcast side effects. Side effects run only after
// the primary write is acknowledged and are independently fallible: their
// failures are logged, never surfaced to the caller.
type WorkflowService struct {
	tickets       repository.TicketRepository
	comments      repository.CommentRepository
	attachments   repository.AttachmentRepository
	users         repository.UserRepository
	audit         *AuditService
	notifications *NotificationService
	dispatcher    events.Dispatcher
	logger        *zap.Logger
}

// WorkflowDependencies bundles collaborators for the workflow engine.
type WorkflowDependencies struct {
	TicketRepo     repository.TicketRepository
	CommentRepo    repository.CommentRepository
	AttachmentRepo repository.AttachmentRepository
	UserRepo       repository.UserRepository
	Audit          *AuditService
	Notifications  *NotificationService
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
}

// NewWorkflowService constructs the engine.
func NewWorkflowService(deps WorkflowDependencies) *WorkflowService {
	return &WorkflowService{
		tickets:       deps.TicketRepo,
		comments:      deps.CommentRepo,
		attachments:   deps.AttachmentRepo,
		users:         deps.UserRepo,
		audit:         deps.Audit,
		notifications: deps.Notifications,
		dispatcher:    deps.Dispatcher,
		logger:        deps.Logger,
	}
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Priority    domain.TicketPriority
	SourceIP    *string
}

// AssigneeChange marks the assignee field as present in a patch. A nil ID
// clears the assignee.
type AssigneeChange struct {
	ID *string
}

// TicketPatch carries partial update semantics: nil fields are left
// unchanged, and an empty string never clears a field.
type TicketPatch struct {
	Title       *string
	Description *string
	Priority    *domain.TicketPriority
	Status      *domain.TicketStatus
	Assignee    *AssigneeChange
	SourceIP    *string
}

// TicketListFilter describes listing parameters before role scoping.
type TicketListFilter struct {
	Status     *domain.TicketStatus
	Priority   *domain.TicketPriority
	AssignedTo *string
	CreatedBy  *string
	Search     *string
	Limit      int
	Offset     int
}

// StatusCounts summarizes a ticket listing for the dashboard.
type StatusCounts struct {
	Total      int `json:"total"`
	New        int `json:"new"`
	Assigned   int `json:"assigned"`
	InProgress int `json:"in_progress"`
	Done       int `json:"done"`
	InReview   int `json:"in_review"`
	Completed  int `json:"completed"`
	Reopened   int `json:"reopened"`
}

// CreateTicket files a new ticket for the actor. Any authenticated user may
// create; the generated code is globally unique.
func (s *WorkflowService) CreateTicket(ctx context.Context, actor *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, apperrors.NewValidationError("title and description are required", nil)
	}

	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityLow
	}
	if !domain.ValidTicketPriority(priority) {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": priority})
	}

	ticket := &domain.Ticket{
		Title:       title,
		Description: description,
		Status:      domain.TicketStatusNew,
		Priority:    priority,
		CreatedBy:   actor.ID,
	}

	if err := s.createWithUniqueCode(ctx, ticket); err != nil {
		return nil, err
	}

	s.runSideEffects(ctx, "create_ticket",
		func(ctx context.Context) error {
			s.audit.Record(ctx, AuditRecord{
				TicketID:    &ticket.ID,
				ActorID:     actor.ID,
				Action:      domain.AuditActionCreateTicket,
				Description: fmt.Sprintf("Ticket %q created", ticket.Title),
				NewValue:    ticket.Snapshot(),
				IPAddress:   input.SourceIP,
			})
			return nil
		},
		func(ctx context.Context) error {
			return s.publishEvent(ctx, events.Event{
				Type:     events.EventTicketCreated,
				TicketID: ticket.ID,
				ActorID:  actor.ID,
				Payload:  ticketPayload(ticket),
			})
		},
	)
	return ticket, nil
}

// createWithUniqueCode draws a candidate code and inserts, retrying with a
// fresh code on unique violation.
func (s *WorkflowService) createWithUniqueCode(ctx context.Context, ticket *domain.Ticket) error {
	var lastErr error
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := s.tickets.NextCode(ctx)
		if err != nil {
			return err
		}
		ticket.Code = code
		if err := s.tickets.Create(ctx, ticket); err != nil {
			if apperrors.IsUniqueViolation(err) {
				lastErr = err
				continue
			}
			return err
		}
		return nil
	}
	return apperrors.NewConflict("could not allocate a unique ticket code", map[string]any{"attempts": maxCodeAttempts, "cause": fmt.Sprint(lastErr)})
}

// UpdateTicket applies a partial update. IT admin only.
func (s *WorkflowService) UpdateTicket(ctx context.Context, actor *domain.User, ticketID string, patch TicketPatch) (*domain.Ticket, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NewForbidden("admin role required")
	}
	if patch.Status != nil && !domain.ValidTicketStatus(*patch.Status) {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": *patch.Status})
	}
	if patch.Priority != nil && !domain.ValidTicketPriority(*patch.Priority) {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": *patch.Priority})
	}
	if patch.Assignee != nil && patch.Assignee.ID != nil {
		if err := s.validateAssignee(ctx, *patch.Assignee.ID); err != nil {
			return nil, err
		}
	}

	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	preImage := ticket.Snapshot()
	oldAssignee := ticket.AssignedTo

	if patch.Title != nil && strings.TrimSpace(*patch.Title) != "" {
		ticket.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil && strings.TrimSpace(*patch.Description) != "" {
		ticket.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Priority != nil {
		ticket.Priority = *patch.Priority
	}
	if patch.Status != nil {
		ticket.Status = *patch.Status
	}
	if patch.Assignee != nil {
		ticket.AssignedTo = patch.Assignee.ID
		// First assignment moves a new ticket to ASSIGNED unless the
		// caller patched status explicitly.
		if patch.Assignee.ID != nil && patch.Status == nil && ticket.Status == domain.TicketStatusNew {
			ticket.Status = domain.TicketStatusAssigned
		}
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", nil)
		}
		return nil, err
	}

	assigneeChanged := patch.Assignee != nil && !stringPtrEqual(oldAssignee, ticket.AssignedTo)

	s.runSideEffects(ctx, "update_ticket",
		func(ctx context.Context) error {
			s.audit.Record(ctx, AuditRecord{
				TicketID:    &ticket.ID,
				ActorID:     actor.ID,
				Action:      domain.AuditActionUpdateTicket,
				Description: fmt.Sprintf("Ticket %q updated", ticket.Title),
				OldValue:    preImage,
				NewValue:    ticket.Snapshot(),
				IPAddress:   patch.SourceIP,
			})
			return nil
		},
		func(ctx context.Context) error {
			if !assigneeChanged {
				return nil
			}
			if ticket.AssignedTo != nil {
				if _, err := s.notifications.Notify(ctx, *ticket.AssignedTo,
					domain.NotificationTicketAssigned,
					"New Ticket Assigned",
					fmt.Sprintf("You have been assigned to ticket %q", ticket.Title),
					&ticket.ID,
				); err != nil {
					return err
				}
			}
			s.audit.Record(ctx, AuditRecord{
				TicketID:    &ticket.ID,
				ActorID:     actor.ID,
				Action:      domain.AuditActionAssignTicket,
				Description: fmt.Sprintf("Ticket assigned to %s", assigneeLabel(ticket.AssignedTo)),
				OldValue:    map[string]any{"assigned_to": derefOrNil(oldAssignee)},
				NewValue:    map[string]any{"assigned_to": derefOrNil(ticket.AssignedTo)},
				IPAddress:   patch.SourceIP,
			})
			return nil
		},
		func(ctx context.Context) error {
			return s.publishEvent(ctx, events.Event{
				Type:     events.EventTicketUpdated,
				TicketID: ticket.ID,
				ActorID:  actor.ID,
				Payload:  ticketPayload(ticket),
			})
		},
	)
	return ticket, nil
}

// ReassignTicket hands a ticket to a new assignee (or clears it) and always
// returns the ticket to the ASSIGNED state, whatever its prior status.
func (s *WorkflowService) ReassignTicket(ctx context.Context, actor *domain.User, ticketID string, newAssignee *string, sourceIP *string) (*domain.Ticket, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NewForbidden("admin role required")
	}
	if newAssignee != nil {
		if err := s.validateAssignee(ctx, *newAssignee); err != nil {
			return nil, err
		}
	}

	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	oldAssignee := ticket.AssignedTo
	ticket.AssignedTo = newAssignee
	ticket.Status = domain.TicketStatusAssigned

	if err := s.tickets.Update(ctx, ticket); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", nil)
		}
		return nil, err
	}

	s.runSideEffects(ctx, "reassign_ticket",
		func(ctx context.Context) error {
			if newAssignee == nil {
				return nil
			}
			_, err := s.notifications.Notify(ctx, *newAssignee,
				domain.NotificationTicketAssigned,
				"Ticket Reassigned",
				fmt.Sprintf("Ticket %q has been reassigned to you", ticket.Title),
				&ticket.ID,
			)
			return err
		},
		func(ctx context.Context) error {
			s.audit.Record(ctx, AuditRecord{
				TicketID:    &ticket.ID,
				ActorID:     actor.ID,
				Action:      domain.AuditActionReassignTicket,
				Description: fmt.Sprintf("Ticket reassigned to %s", assigneeLabel(newAssignee)),
				OldValue:    map[string]any{"assigned_to": derefOrNil(oldAssignee)},
				NewValue:    map[string]any{"assigned_to": derefOrNil(newAssignee)},
				IPAddress:   sourceIP,
			})
			return nil
		},
	)
	return ticket, nil
}

// AddComment appends a comment and notifies the ticket owner and assignee,
// never the author. Internal comments are only honored for admin authors.
func (s *WorkflowService) AddComment(ctx context.Context, actor *domain.User, ticketID, body string, internal bool, sourceIP *string) (*domain.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("comment body is required", nil)
	}

	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin() {
		internal = false
	}

	comment := &domain.Comment{
		TicketID: ticket.ID,
		AuthorID: actor.ID,
		Body:     body,
		Internal: internal,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	recipients := commentRecipients(ticket, actor.ID)

	s.runSideEffects(ctx, "add_comment",
		func(ctx context.Context) error {
			var firstErr error
			for _, recipient := range recipients {
				if _, err := s.notifications.Notify(ctx, recipient,
					domain.NotificationTicketCommented,
					"New Comment on Ticket",
					fmt.Sprintf("%s commented on ticket %q", actor.Name, ticket.Title),
					&ticket.ID,
				); err != nil && firstErr == nil {
					firstErr = err
				}
			}
			return firstErr
		},
		func(ctx context.Context) error {
			s.audit.Record(ctx, AuditRecord{
				TicketID:    &ticket.ID,
				ActorID:     actor.ID,
				Action:      domain.AuditActionAddComment,
				Description: "Comment added to ticket",
				IPAddress:   sourceIP,
			})
			return nil
		},
		func(ctx context.Context) error {
			return s.publishEvent(ctx, events.Event{
				Type:     events.EventCommentAdded,
				TicketID: ticket.ID,
				ActorID:  actor.ID,
				Payload: events.CommentAddedPayload{
					CommentID: comment.ID,
					AuthorID:  comment.AuthorID,
					Internal:  comment.Internal,
				},
			})
		},
	)
	return comment, nil
}

// ListTickets returns tickets visible to the actor plus status counters.
// Employees only ever see their own tickets.
func (s *WorkflowService) ListTickets(ctx context.Context, actor *domain.User, filter TicketListFilter) ([]domain.Ticket, StatusCounts, error) {
	repoFilter := repository.TicketFilter{
		CreatedBy:  filter.CreatedBy,
		AssignedTo: filter.AssignedTo,
		Status:     filter.Status,
		Priority:   filter.Priority,
		SearchTerm: filter.Search,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}
	if !actor.IsAdmin() {
		creator := actor.ID
		repoFilter.CreatedBy = &creator
	}

	tickets, err := s.tickets.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, StatusCounts{}, err
	}
	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	return tickets, countByStatus(tickets), nil
}

// GetTicket fetches one visible ticket with its comments and attachments.
// Internal comments are stripped for non-admin callers.
func (s *WorkflowService) GetTicket(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, []domain.Comment, []domain.Attachment, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, nil, nil, err
	}
	if !s.ticketVisible(actor, ticket) {
		return nil, nil, nil, apperrors.NewForbidden("access denied")
	}

	comments, err := s.ListComments(ctx, actor, ticketID)
	if err != nil {
		return nil, nil, nil, err
	}
	attachments, err := s.attachments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, nil, nil, err
	}
	if attachments == nil {
		attachments = []domain.Attachment{}
	}
	return ticket, comments, attachments, nil
}

// ListComments returns the comments of a visible ticket, newest first,
// hiding internal comments from non-admins.
func (s *WorkflowService) ListComments(ctx context.Context, actor *domain.User, ticketID string) ([]domain.Comment, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !s.ticketVisible(actor, ticket) {
		return nil, apperrors.NewForbidden("access denied")
	}

	comments, err := s.comments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}

	visible := make([]domain.Comment, 0, len(comments))
	for _, comment := range comments {
		if comment.Internal && !actor.IsAdmin() {
			continue
		}
		visible = append(visible, comment)
	}
	return visible, nil
}

// TicketVisible reports whether the actor may see the ticket.
func (s *WorkflowService) TicketVisible(actor *domain.User, ticket *domain.Ticket) bool {
	return s.ticketVisible(actor, ticket)
}

// LoadVisibleTicket fetches a ticket the actor may see.
func (s *WorkflowService) LoadVisibleTicket(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !s.ticketVisible(actor, ticket) {
		return nil, apperrors.NewForbidden("access denied")
	}
	return ticket, nil
}

func (s *WorkflowService) ticketVisible(actor *domain.User, ticket *domain.Ticket) bool {
	if actor.IsAdmin() {
		return true
	}
	return ticket.CreatedBy == actor.ID
}

func (s *WorkflowService) loadTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", nil)
		}
		return nil, err
	}
	return ticket, nil
}

// validateAssignee ensures the target resolves to an active IT admin.
func (s *WorkflowService) validateAssignee(ctx context.Context, assigneeID string) error {
	assignee, err := s.users.GetByID(ctx, assigneeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewValidationError("assignee must be a valid IT admin", map[string]any{"assigned_to": assigneeID})
		}
		return err
	}
	if assignee.Role != domain.RoleITAdmin || !assignee.IsActive {
		return apperrors.NewValidationError("assignee must be a valid IT admin", map[string]any{"assigned_to": assigneeID})
	}
	return nil
}

// runSideEffects executes post-commit hooks after the primary mutation.
// Each hook is independently fallible; failures are logged and swallowed.
func (s *WorkflowService) runSideEffects(ctx context.Context, operation string, hooks ...func(context.Context) error) {
	for i, hook := range hooks {
		if err := hook(ctx); err != nil {
			s.logger.Error("post-commit side effect failed",
				zap.String("operation", operation),
				zap.Int("hook", i),
				zap.Error(err))
		}
	}
}

func (s *WorkflowService) publishEvent(ctx context.Context, event events.Event) error {
	if s.dispatcher == nil {
		return nil
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return s.dispatcher.Publish(ctx, event)
}

func ticketPayload(ticket *domain.Ticket) events.TicketPayload {
	return events.TicketPayload{
		Code:       ticket.Code,
		Title:      ticket.Title,
		Status:     ticket.Status,
		Priority:   ticket.Priority,
		AssignedTo: ticket.AssignedTo,
	}
}

// commentRecipients computes {createdBy, assignedTo} minus the author.
func commentRecipients(ticket *domain.Ticket, authorID string) []string {
	var recipients []string
	seen := map[string]struct{}{authorID: {}}
	for _, candidate := range []*string{&ticket.CreatedBy, ticket.AssignedTo} {
		if candidate == nil {
			continue
		}
		if _, dup := seen[*candidate]; dup {
			continue
		}
		seen[*candidate] = struct{}{}
		recipients = append(recipients, *candidate)
	}
	return recipients
}

func countByStatus(tickets []domain.Ticket) StatusCounts {
	counts := StatusCounts{Total: len(tickets)}
	for _, ticket := range tickets {
		switch ticket.Status {
		case domain.TicketStatusNew:
			counts.New++
		case domain.TicketStatusAssigned:
			counts.Assigned++
		case domain.TicketStatusInProgress:
			counts.InProgress++
		case domain.TicketStatusDone:
			counts.Done++
		case domain.TicketStatusInReview:
			counts.InReview++
		case domain.TicketStatusCompleted:
			counts.Completed++
		case domain.TicketStatusReopened:
			counts.Reopened++
		}
	}
	return counts
}

func stringPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func derefOrNil(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func assigneeLabel(assignee *string) string {
	if assignee == nil {
		return "nobody"
	}
	return *assignee
}
