package service_test

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/helpdesk-kit/helpdesk/internal/domain"
	"github.com/helpdesk-kit/helpdesk/internal/events"
	"github.com/helpdesk-kit/helpdesk/internal/repository"
	"github.com/helpdesk-kit/helpdesk/internal/service"
)

// In-memory repository fakes. They mirror the Postgres repositories' contract:
// pgx.ErrNoRows for missing rows, *pgconn.PgError 23505 for duplicates.

func uniqueViolation() error {
	return &pgconn.PgError{Code: "23505", ConstraintName: "tickets_code_key"}
}

type fakeTicketRepo struct {
	tickets     map[string]*domain.Ticket
	codes       map[string]struct{}
	seq         int
	failCreates int
	updateErr   error
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{
		tickets: make(map[string]*domain.Ticket),
		codes:   make(map[string]struct{}),
	}
}

func (r *fakeTicketRepo) NextCode(ctx context.Context) (string, error) {
	r.seq++
	return fmt.Sprintf("TKT-%03d", r.seq), nil
}

func (r *fakeTicketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	if r.failCreates > 0 {
		r.failCreates--
		return uniqueViolation()
	}
	if _, dup := r.codes[ticket.Code]; dup {
		return uniqueViolation()
	}
	ticket.ID = uuid.NewString()
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	clone := *ticket
	r.tickets[ticket.ID] = &clone
	r.codes[ticket.Code] = struct{}{}
	return nil
}

func (r *fakeTicketRepo) Update(ctx context.Context, ticket *domain.Ticket) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	ticket.UpdatedAt = time.Now()
	clone := *ticket
	r.tickets[ticket.ID] = &clone
	return nil
}

func (r *fakeTicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *ticket
	return &clone, nil
}

func (r *fakeTicketRepo) ListWithFilter(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	var out []domain.Ticket
	for _, ticket := range r.tickets {
		if filter.CreatedBy != nil && ticket.CreatedBy != *filter.CreatedBy {
			continue
		}
		if filter.AssignedTo != nil && (ticket.AssignedTo == nil || *ticket.AssignedTo != *filter.AssignedTo) {
			continue
		}
		if filter.Status != nil && ticket.Status != *filter.Status {
			continue
		}
		if filter.Priority != nil && ticket.Priority != *filter.Priority {
			continue
		}
		if filter.SearchTerm != nil {
			needle := strings.ToLower(*filter.SearchTerm)
			haystack := strings.ToLower(ticket.Code + " " + ticket.Title + " " + ticket.Description)
			if !strings.Contains(haystack, needle) {
				continue
			}
		}
		out = append(out, *ticket)
	}
	return out, nil
}

func (r *fakeTicketRepo) StatsForAssignee(ctx context.Context, assigneeID string) (*repository.TicketStats, error) {
	stats := &repository.TicketStats{
		ByStatus:   make(map[domain.TicketStatus]int),
		ByPriority: make(map[domain.TicketPriority]int),
	}
	for _, ticket := range r.tickets {
		if ticket.AssignedTo == nil || *ticket.AssignedTo != assigneeID {
			continue
		}
		stats.Total++
		if ticket.Status != domain.TicketStatusCompleted {
			stats.Open++
		}
		stats.ByStatus[ticket.Status]++
		stats.ByPriority[ticket.Priority]++
	}
	return stats, nil
}

type fakeUserRepo struct {
	users map[string]*domain.User
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[string]*domain.User)}
	for _, user := range users {
		clone := *user
		repo.users[user.ID] = &clone
	}
	return repo
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return uniqueViolation()
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *domain.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Email == strings.ToLower(email) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) ListActive(ctx context.Context, role *domain.Role) ([]domain.User, error) {
	var out []domain.User
	for _, user := range r.users {
		if !user.IsActive {
			continue
		}
		if role != nil && user.Role != *role {
			continue
		}
		out = append(out, *user)
	}
	return out, nil
}

func (r *fakeUserRepo) UpdateRole(ctx context.Context, id string, role domain.Role) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	user.Role = role
	clone := *user
	return &clone, nil
}

type fakeCommentRepo struct {
	comments []domain.Comment
}

func (r *fakeCommentRepo) Create(ctx context.Context, comment *domain.Comment) error {
	comment.ID = uuid.NewString()
	comment.CreatedAt = time.Now()
	r.comments = append(r.comments, *comment)
	return nil
}

func (r *fakeCommentRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	var out []domain.Comment
	for i := len(r.comments) - 1; i >= 0; i-- {
		if r.comments[i].TicketID == ticketID {
			out = append(out, r.comments[i])
		}
	}
	return out, nil
}

type fakeAttachmentRepo struct {
	attachments map[string]*domain.Attachment
	createErr   error
}

func newFakeAttachmentRepo() *fakeAttachmentRepo {
	return &fakeAttachmentRepo{attachments: make(map[string]*domain.Attachment)}
}

func (r *fakeAttachmentRepo) Create(ctx context.Context, attachment *domain.Attachment) error {
	if r.createErr != nil {
		return r.createErr
	}
	attachment.ID = uuid.NewString()
	attachment.CreatedAt = time.Now()
	clone := *attachment
	r.attachments[attachment.ID] = &clone
	return nil
}

func (r *fakeAttachmentRepo) GetByID(ctx context.Context, id string) (*domain.Attachment, error) {
	attachment, ok := r.attachments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *attachment
	return &clone, nil
}

func (r *fakeAttachmentRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.Attachment, error) {
	var out []domain.Attachment
	for _, attachment := range r.attachments {
		if attachment.TicketID == ticketID {
			out = append(out, *attachment)
		}
	}
	return out, nil
}

func (r *fakeAttachmentRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.attachments[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.attachments, id)
	return nil
}

type fakeAuditRepo struct {
	entries   []domain.AuditEntry
	createErr error
}

func (r *fakeAuditRepo) Create(ctx context.Context, entry *domain.AuditEntry) error {
	if r.createErr != nil {
		return r.createErr
	}
	entry.ID = uuid.NewString()
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeAuditRepo) ListWithFilter(ctx context.Context, filter repository.AuditFilter) ([]domain.AuditEntry, error) {
	var out []domain.AuditEntry
	for _, entry := range r.entries {
		if filter.TicketID != nil && (entry.TicketID == nil || *entry.TicketID != *filter.TicketID) {
			continue
		}
		if filter.ActorID != nil && entry.ActorID != *filter.ActorID {
			continue
		}
		if filter.Action != nil && entry.Action != *filter.Action {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

func (r *fakeAuditRepo) byAction(action domain.AuditAction) []domain.AuditEntry {
	var out []domain.AuditEntry
	for _, entry := range r.entries {
		if entry.Action == action {
			out = append(out, entry)
		}
	}
	return out
}

type fakeNotificationRepo struct {
	notifications map[string]*domain.Notification
	createErr     error
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{notifications: make(map[string]*domain.Notification)}
}

func (r *fakeNotificationRepo) Create(ctx context.Context, notification *domain.Notification) error {
	if r.createErr != nil {
		return r.createErr
	}
	notification.ID = uuid.NewString()
	notification.CreatedAt = time.Now()
	clone := *notification
	r.notifications[notification.ID] = &clone
	return nil
}

func (r *fakeNotificationRepo) ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool, limit int) ([]domain.Notification, error) {
	var out []domain.Notification
	for _, notification := range r.notifications {
		if notification.RecipientID != recipientID {
			continue
		}
		if unreadOnly && notification.IsRead {
			continue
		}
		out = append(out, *notification)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) CountUnread(ctx context.Context, recipientID string) (int, error) {
	count := 0
	for _, notification := range r.notifications {
		if notification.RecipientID == recipientID && !notification.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *fakeNotificationRepo) MarkRead(ctx context.Context, recipientID, id string) (*domain.Notification, error) {
	notification, ok := r.notifications[id]
	if !ok || notification.RecipientID != recipientID {
		return nil, pgx.ErrNoRows
	}
	notification.IsRead = true
	clone := *notification
	return &clone, nil
}

func (r *fakeNotificationRepo) MarkAllRead(ctx context.Context, recipientID string) error {
	for _, notification := range r.notifications {
		if notification.RecipientID == recipientID {
			notification.IsRead = true
		}
	}
	return nil
}

func (r *fakeNotificationRepo) Delete(ctx context.Context, recipientID, id string) error {
	notification, ok := r.notifications[id]
	if !ok || notification.RecipientID != recipientID {
		return pgx.ErrNoRows
	}
	delete(r.notifications, id)
	return nil
}

func (r *fakeNotificationRepo) forRecipient(recipientID string) []domain.Notification {
	var out []domain.Notification
	for _, notification := range r.notifications {
		if notification.RecipientID == recipientID {
			out = append(out, *notification)
		}
	}
	return out
}

type pushRecord struct {
	UserID string
	Event  string
}

type fakePusher struct {
	toUser    []pushRecord
	broadcast []string
}

func (p *fakePusher) PublishToUser(ctx context.Context, userID, event string, payload any) {
	p.toUser = append(p.toUser, pushRecord{UserID: userID, Event: event})
}

func (p *fakePusher) Broadcast(ctx context.Context, event string, payload any) {
	p.broadcast = append(p.broadcast, event)
}

// workflowEnv bundles a workflow engine wired against the in-memory fakes.
type workflowEnv struct {
	workflow      *service.WorkflowService
	tickets       *fakeTicketRepo
	comments      *fakeCommentRepo
	attachments   *fakeAttachmentRepo
	users         *fakeUserRepo
	auditRepo     *fakeAuditRepo
	notifRepo     *fakeNotificationRepo
	pusher        *fakePusher
	dispatcher    events.Dispatcher
	notifications *service.NotificationService
	audit         *service.AuditService
}

func newWorkflowEnv(users ...*domain.User) *workflowEnv {
	env := &workflowEnv{
		tickets:     newFakeTicketRepo(),
		comments:    &fakeCommentRepo{},
		attachments: newFakeAttachmentRepo(),
		users:       newFakeUserRepo(users...),
		auditRepo:   &fakeAuditRepo{},
		notifRepo:   newFakeNotificationRepo(),
		pusher:      &fakePusher{},
		dispatcher:  events.NewInMemoryDispatcher(),
	}
	logger := zap.NewNop()
	env.audit = service.NewAuditService(env.auditRepo, logger)
	env.notifications = service.NewNotificationService(env.notifRepo, env.pusher, logger)
	env.workflow = service.NewWorkflowService(service.WorkflowDependencies{
		TicketRepo:     env.tickets,
		CommentRepo:    env.comments,
		AttachmentRepo: env.attachments,
		UserRepo:       env.users,
		Audit:          env.audit,
		Notifications:  env.notifications,
		Dispatcher:     env.dispatcher,
		Logger:         logger,
	})
	return env
}

func employee(id, name string) *domain.User {
	return &domain.User{
		ID:       id,
		Email:    strings.ToLower(name) + "@corp.example",
		Name:     name,
		Role:     domain.RoleEmployee,
		IsActive: true,
	}
}

func admin(id, name string) *domain.User {
	user := employee(id, name)
	user.Role = domain.RoleITAdmin
	return user
}
