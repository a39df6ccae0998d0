package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ticketflow/helpdesk/internal/domain"
	"github.com/ticketflow/helpdesk/internal/events"
	"github.com/ticketflow/helpdesk/internal/policy"
	"github.com/ticketflow/helpdesk/internal/repository"
	"github.com/ticketflow/helpdesk/pkg/apperrors"
)

type ticketEnv struct {
	store   *repository.MemStore
	service *TicketService
	user    *domain.User
	agent   *domain.User
	admin   *domain.User
}

func newTicketEnv(t *testing.T) *ticketEnv {
	t.Helper()
	store := repository.NewMemStore()
	env := &ticketEnv{
		store: store,
		service: NewTicketService(TicketDependencies{
			Store:      store,
			Dispatcher: events.NewInMemoryDispatcher(),
		}),
	}
	env.user = env.addUser(t, "Maya Levi", domain.RoleUser)
	env.agent = env.addUser(t, "Dana Cohen", domain.RoleAgent)
	env.admin = env.addUser(t, "Root Admin", domain.RoleAdmin)
	return env
}

func (e *ticketEnv) addUser(t *testing.T, name string, role domain.Role) *domain.User {
	t.Helper()
	user := &domain.User{
		Name:  name,
		Email: strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com",
		Role:  role,
	}
	if err := e.store.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func (e *ticketEnv) actor(u *domain.User) policy.Actor {
	return policy.Actor{ID: u.ID, Role: u.Role}
}

func (e *ticketEnv) priorityID(t *testing.T, name string) string {
	t.Helper()
	priorities, err := e.store.Catalog().ListPriorities(context.Background())
	if err != nil {
		t.Fatalf("list priorities: %v", err)
	}
	for _, p := range priorities {
		if p.Name == name {
			return p.ID
		}
	}
	t.Fatalf("priority %q not seeded", name)
	return ""
}

func (e *ticketEnv) statusID(t *testing.T, name string) string {
	t.Helper()
	status, err := e.store.Catalog().GetStatusByName(context.Background(), name)
	if err != nil {
		t.Fatalf("status %q: %v", name, err)
	}
	return status.ID
}

func (e *ticketEnv) statusName(t *testing.T, id string) string {
	t.Helper()
	status, err := e.store.Catalog().GetStatus(context.Background(), id)
	if err != nil {
		t.Fatalf("status %s: %v", id, err)
	}
	return status.Name
}

func (e *ticketEnv) createTicket(t *testing.T, creator *domain.User, title, priority string) *domain.Ticket {
	t.Helper()
	ticket, err := e.service.CreateTicket(context.Background(), e.actor(creator), TicketCreateInput{
		Title:       title,
		Description: "Something went wrong and this describes it.",
		PriorityID:  e.priorityID(t, priority),
	})
	if err != nil {
		t.Fatalf("create ticket: %v", err)
	}
	return ticket
}

func TestCreateTicket(t *testing.T) {
	env := newTicketEnv(t)
	ctx := context.Background()

	ticket, err := env.service.CreateTicket(ctx, env.actor(env.user), TicketCreateInput{
		Title:       "Bug in login",
		Description: "The login page rejects valid passwords.",
		PriorityID:  env.priorityID(t, domain.PriorityHigh),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if ticket.ID == "" {
		t.Fatal("ticket must get an id")
	}
	if ticket.CreatorID != env.user.ID {
		t.Fatalf("creator = %s, want %s", ticket.CreatorID, env.user.ID)
	}
	if got := env.statusName(t, ticket.StatusID); got != domain.StatusNew {
		t.Fatalf("fresh ticket status = %q, want %q", got, domain.StatusNew)
	}
	if ticket.AssigneeID != nil {
		t.Fatal("fresh ticket must be unassigned")
	}
	if !ticket.UpdatedAt.Equal(ticket.CreatedAt) {
		t.Fatal("fresh ticket must have updated equal to created")
	}
}

func TestCreateTicketReportsAllViolations(t *testing.T) {
	env := newTicketEnv(t)

	_, err := env.service.CreateTicket(context.Background(), env.actor(env.user), TicketCreateInput{
		Title:       "Bug",
		Description: "too short",
		PriorityID:  "",
	})
	if apperrors.CodeOf(err) != apperrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	violations := apperrors.Violations(err)
	if len(violations) != 3 {
		t.Fatalf("expected 3 violations reported together, got %d: %v", len(violations), violations)
	}
}

func TestCreateTicketUnknownPriorityIsViolation(t *testing.T) {
	env := newTicketEnv(t)

	_, err := env.service.CreateTicket(context.Background(), env.actor(env.user), TicketCreateInput{
		Title:       "Valid title here",
		Description: "Valid description with enough length.",
		PriorityID:  "not-a-priority",
	})
	if apperrors.CodeOf(err) != apperrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestChangeStatus(t *testing.T) {
	env := newTicketEnv(t)
	ctx := context.Background()
	ticket := env.createTicket(t, env.user, "Bug in login", domain.PriorityMedium)
	created := ticket.CreatedAt

	updated, err := env.service.ChangeStatus(ctx, env.actor(env.user), ticket.ID, env.statusID(t, domain.StatusResolved))
	if err != nil {
		t.Fatalf("creator must be allowed to change status: %v", err)
	}
	if got := env.statusName(t, updated.StatusID); got != domain.StatusResolved {
		t.Fatalf("status = %q, want %q", got, domain.StatusResolved)
	}
	if updated.UpdatedAt.Before(created) {
		t.Fatal("status change must advance the updated timestamp")
	}
}

func TestChangeStatusDeniedForStranger(t *testing.T) {
	env := newTicketEnv(t)
	ctx := context.Background()
	ticket := env.createTicket(t, env.user, "Bug in login", domain.PriorityMedium)
	stranger := env.addUser(t, "Other Person", domain.RoleUser)

	_, err := env.service.ChangeStatus(ctx, env.actor(stranger), ticket.ID, env.statusID(t, domain.StatusClosed))
	if apperrors.CodeOf(err) != apperrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}

	reloaded, _ := env.store.Tickets().GetByID(ctx, ticket.ID)
	if reloaded.StatusID != ticket.StatusID {
		t.Fatal("denied mutation must not write")
	}
}

func TestChangeStatusUnknownTargets(t *testing.T) {
	env := newTicketEnv(t)
	ctx := context.Background()
	ticket := env.createTicket(t, env.user, "Bug in login", domain.PriorityMedium)

	if _, err := env.service.ChangeStatus(ctx, env.actor(env.agent), "missing", env.statusID(t, domain.StatusClosed)); apperrors.CodeOf(err) != apperrors.CodeNotFound {
		t.Fatalf("unknown ticket: expected not found, got %v", err)
	}
	if _, err := env.service.ChangeStatus(ctx, env.actor(env.agent), ticket.ID, "missing"); apperrors.CodeOf(err) != apperrors.CodeNotFound {
		t.Fatalf("unknown status: expected not found, got %v", err)
	}
}

func TestChangePriorityStaffOnly(t *testing.T) {
	env := newTicketEnv(t)
	ctx := context.Background()
	ticket := env.createTicket(t, env.user, "Bug in login", domain.PriorityLow)

	_, err := env.service.ChangePriority(ctx, env.actor(env.user), ticket.ID, env.priorityID(t, domain.PriorityUrgent))
	if apperrors.CodeOf(err) != apperrors.CodeForbidden {
		t.Fatalf("creator without staff role: expected forbidden, got %v", err)
	}

	updated, err := env.service.ChangePriority(ctx, env.actor(env.agent), ticket.ID, env.priorityID(t, domain.PriorityUrgent))
	if err != nil {
		t.Fatalf("agent change priority: %v", err)
	}
	if updated.PriorityID != env.priorityID(t, domain.PriorityUrgent) {
		t.Fatal("priority not updated")
	}
}

func TestAssignWritesAuditComment(t *testing.T) {
	env := newTicketEnv(t)
	ctx := context.Background()
	ticket := env.createTicket(t, env.user, "Bug in login", domain.PriorityMedium)

	updated, err := env.service.Assign(ctx, env.actor(env.admin), ticket.ID, &env.agent.ID)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if updated.AssigneeID == nil || *updated.AssigneeID != env.agent.ID {
		t.Fatal("assignee not set")
	}

	comments, err := env.store.Comments().ListByTicket(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if len(comments) != 1 {
		t.Fatalf("expected exactly one audit comment, got %d", len(comments))
	}
	if comments[0].Content != "Ticket assigned to Dana Cohen." {
		t.Fatalf("audit comment = %q", comments[0].Content)
	}
	if comments[0].AuthorID != env.admin.ID {
		t.Fatal("audit comment must be authored by the acting staff member")
	}
}

func TestUnassignWritesAuditComment(t *testing.T) {
	env := newTicketEnv(t)
	ctx := context.Background()
	ticket := env.createTicket(t, env.user, "Bug in login", domain.PriorityMedium)

	if _, err := env.service.Assign(ctx, env.actor(env.agent), ticket.ID, &env.agent.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	updated, err := env.service.Assign(ctx, env.actor(env.agent), ticket.ID, nil)
	if err != nil {
		t.Fatalf("unassign: %v", err)
	}
	if updated.AssigneeID != nil {
		t.Fatal("assignee must be cleared")
	}

	comments, _ := env.store.Comments().ListByTicket(ctx, ticket.ID)
	if len(comments) != 2 {
		t.Fatalf("expected 2 audit comments, got %d", len(comments))
	}
	if comments[1].Content != "Ticket unassigned." {
		t.Fatalf("unassign audit comment = %q", comments[1].Content)
	}
}

func TestAssignRejectsNonStaffAssignee(t *testing.T) {
	env := newTicketEnv(t)
	ctx := context.Background()
	ticket := env.createTicket(t, env.user, "Bug in login", domain.PriorityMedium)

	_, err := env.service.Assign(ctx, env.actor(env.agent), ticket.ID, &env.user.ID)
	if apperrors.CodeOf(err) != apperrors.CodeValidation {
		t.Fatalf("assigning to a plain user: expected validation error, got %v", err)
	}

	reloaded, _ := env.store.Tickets().GetByID(ctx, ticket.ID)
	if reloaded.AssigneeID != nil {
		t.Fatal("failed assignment must leave the ticket unassigned")
	}
	comments, _ := env.store.Comments().ListByTicket(ctx, ticket.ID)
	if len(comments) != 0 {
		t.Fatal("failed assignment must not leave an audit comment")
	}
}

func TestAssignUnknownAssigneeIsNotFound(t *testing.T) {
	env := newTicketEnv(t)
	ticket := env.createTicket(t, env.user, "Bug in login", domain.PriorityMedium)

	missing := "no-such-user"
	_, err := env.service.Assign(context.Background(), env.actor(env.agent), ticket.ID, &missing)
	if apperrors.CodeOf(err) != apperrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAssignDeniedForUserRole(t *testing.T) {
	env := newTicketEnv(t)
	ticket := env.createTicket(t, env.user, "Bug in login", domain.PriorityMedium)

	_, err := env.service.Assign(context.Background(), env.actor(env.user), ticket.ID, &env.agent.ID)
	if apperrors.CodeOf(err) != apperrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestAddCommentLengthRuleDependsOnRole(t *testing.T) {
	env := newTicketEnv(t)
	ctx := context.Background()
	ticket := env.createTicket(t, env.user, "Bug in login", domain.PriorityMedium)

	_, err := env.service.AddComment(ctx, env.actor(env.user), ticket.ID, "ok")
	if apperrors.CodeOf(err) != apperrors.CodeValidation {
		t.Fatalf("2-char comment from user: expected validation error, got %v", err)
	}

	comment, err := env.service.AddComment(ctx, env.actor(env.agent), ticket.ID, "ok")
	if err != nil {
		t.Fatalf("2-char comment from agent must pass: %v", err)
	}
	if comment.Content != "ok" {
		t.Fatalf("content = %q", comment.Content)
	}

	if _, err := env.service.AddComment(ctx, env.actor(env.agent), ticket.ID, "   "); apperrors.CodeOf(err) != apperrors.CodeValidation {
		t.Fatalf("blank comment: expected validation error, got %v", err)
	}
}

func TestAddCommentDoesNotTouchTicketTimestamp(t *testing.T) {
	env := newTicketEnv(t)
	ctx := context.Background()
	ticket := env.createTicket(t, env.user, "Bug in login", domain.PriorityMedium)
	before := ticket.UpdatedAt

	time.Sleep(time.Millisecond)
	if _, err := env.service.AddComment(ctx, env.actor(env.user), ticket.ID, "any news on this?"); err != nil {
		t.Fatalf("comment: %v", err)
	}

	reloaded, _ := env.store.Tickets().GetByID(ctx, ticket.ID)
	if !reloaded.UpdatedAt.Equal(before) {
		t.Fatal("commenting must not advance the ticket's updated timestamp")
	}
}

func TestGetTicketVisibility(t *testing.T) {
	env := newTicketEnv(t)
	ctx := context.Background()
	ticket := env.createTicket(t, env.user, "Bug in login", domain.PriorityMedium)
	stranger := env.addUser(t, "Other Person", domain.RoleUser)

	if _, _, err := env.service.GetTicket(ctx, env.actor(env.user), ticket.ID); err != nil {
		t.Fatalf("creator view: %v", err)
	}
	if _, _, err := env.service.GetTicket(ctx, env.actor(env.agent), ticket.ID); err != nil {
		t.Fatalf("agent view: %v", err)
	}
	if _, _, err := env.service.GetTicket(ctx, env.actor(stranger), ticket.ID); apperrors.CodeOf(err) != apperrors.CodeForbidden {
		t.Fatalf("stranger view: expected forbidden, got %v", err)
	}
	if _, _, err := env.service.GetTicket(ctx, env.actor(env.agent), "missing"); apperrors.CodeOf(err) != apperrors.CodeNotFound {
		t.Fatalf("missing ticket: expected not found, got %v", err)
	}
}

func TestGetTicketThreadOrderedOldestFirst(t *testing.T) {
	env := newTicketEnv(t)
	ctx := context.Background()
	ticket := env.createTicket(t, env.user, "Bug in login", domain.PriorityMedium)

	for _, content := range []string{"first message here", "second message here", "third message here"} {
		if _, err := env.service.AddComment(ctx, env.actor(env.user), ticket.ID, content); err != nil {
			t.Fatalf("comment: %v", err)
		}
	}

	_, comments, err := env.service.GetTicket(ctx, env.actor(env.user), ticket.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(comments) != 3 {
		t.Fatalf("expected 3 comments, got %d", len(comments))
	}
	if comments[0].Content != "first message here" || comments[2].Content != "third message here" {
		t.Fatal("thread must be ordered oldest first")
	}
}

func TestListTicketsUserSeesOnlyOwn(t *testing.T) {
	env := newTicketEnv(t)
	ctx := context.Background()
	other := env.addUser(t, "Other Person", domain.RoleUser)

	mine1 := env.createTicket(t, env.user, "First issue report", domain.PriorityLow)
	env.createTicket(t, other, "Someone else's issue", domain.PriorityLow)
	mine2 := env.createTicket(t, env.user, "Second issue report", domain.PriorityLow)

	got, err := env.service.ListTickets(ctx, env.actor(env.user), ListFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 own tickets, got %d", len(got))
	}
	if got[0].ID != mine2.ID || got[1].ID != mine1.ID {
		t.Fatal("user listing must be newest first")
	}
}

func TestListTicketsStaffTriageOrder(t *testing.T) {
	env := newTicketEnv(t)
	ctx := context.Background()

	resolved := env.createTicket(t, env.user, "Old resolved thing", domain.PriorityUrgent)
	if _, err := env.service.ChangeStatus(ctx, env.actor(env.agent), resolved.ID, env.statusID(t, domain.StatusResolved)); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	newLow := env.createTicket(t, env.user, "Low priority note", domain.PriorityLow)
	newUrgent := env.createTicket(t, env.user, "Production is down", domain.PriorityUrgent)

	got, err := env.service.ListTickets(ctx, env.actor(env.agent), ListFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 tickets, got %d", len(got))
	}
	want := []string{newUrgent.ID, newLow.ID, resolved.ID}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("triage position %d: got %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestListTicketsMineBucket(t *testing.T) {
	env := newTicketEnv(t)
	ctx := context.Background()
	agent2 := env.addUser(t, "Second Agent", domain.RoleAgent)

	t1 := env.createTicket(t, env.user, "Assigned to me soon", domain.PriorityMedium)
	t2 := env.createTicket(t, env.user, "Assigned elsewhere", domain.PriorityMedium)
	if _, err := env.service.Assign(ctx, env.actor(env.agent), t1.ID, &env.agent.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err := env.service.Assign(ctx, env.actor(env.agent), t2.ID, &agent2.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}

	mine, err := env.service.ListTickets(ctx, env.actor(env.agent), ListFilter{Assignment: repository.AssignmentMine})
	if err != nil {
		t.Fatalf("list mine: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != t1.ID {
		t.Fatalf("mine bucket wrong: %+v", mine)
	}

	// Admins have no personal queue; the bucket falls back to all.
	all, err := env.service.ListTickets(ctx, env.actor(env.admin), ListFilter{Assignment: repository.AssignmentMine})
	if err != nil {
		t.Fatalf("list as admin: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("admin mine bucket must list all tickets, got %d", len(all))
	}
}

func TestListTicketsOpenClosedBuckets(t *testing.T) {
	env := newTicketEnv(t)
	ctx := context.Background()

	open := env.createTicket(t, env.user, "Still being worked", domain.PriorityMedium)
	closed := env.createTicket(t, env.user, "Done and dusted", domain.PriorityMedium)
	if _, err := env.service.ChangeStatus(ctx, env.actor(env.agent), closed.ID, env.statusID(t, domain.StatusClosed)); err != nil {
		t.Fatalf("close: %v", err)
	}

	openOnly, err := env.service.ListTickets(ctx, env.actor(env.agent), ListFilter{Status: repository.StatusOpenOnly})
	if err != nil {
		t.Fatalf("list open: %v", err)
	}
	if len(openOnly) != 1 || openOnly[0].ID != open.ID {
		t.Fatalf("open bucket wrong: %+v", openOnly)
	}

	closedOnly, err := env.service.ListTickets(ctx, env.actor(env.agent), ListFilter{Status: repository.StatusClosedOnly})
	if err != nil {
		t.Fatalf("list closed: %v", err)
	}
	if len(closedOnly) != 1 || closedOnly[0].ID != closed.ID {
		t.Fatalf("closed bucket wrong: %+v", closedOnly)
	}
}

func TestDashboardStats(t *testing.T) {
	env := newTicketEnv(t)
	ctx := context.Background()

	env.createTicket(t, env.user, "Urgent open thing", domain.PriorityUrgent)
	closed := env.createTicket(t, env.user, "Already closed one", domain.PriorityLow)
	if _, err := env.service.ChangeStatus(ctx, env.actor(env.agent), closed.ID, env.statusID(t, domain.StatusClosed)); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, err := env.service.DashboardStats(ctx, env.actor(env.user)); apperrors.CodeOf(err) != apperrors.CodeForbidden {
		t.Fatalf("user dashboard access: expected forbidden, got %v", err)
	}

	stats, err := env.service.DashboardStats(ctx, env.actor(env.agent))
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 2 || stats.Open != 1 || stats.Closed != 1 || stats.UrgentOpen != 1 {
		t.Fatalf("stats wrong: %+v", stats)
	}
}

func TestLifecycleEventsPublished(t *testing.T) {
	store := repository.NewMemStore()
	dispatcher := events.NewInMemoryDispatcher()
	var seen []events.EventType
	for _, et := range []events.EventType{events.EventTicketCreated, events.EventCommentAdded} {
		eventType := et
		dispatcher.Subscribe(eventType, func(_ context.Context, ev events.Event) error {
			seen = append(seen, ev.Type)
			return nil
		})
	}
	svc := NewTicketService(TicketDependencies{Store: store, Dispatcher: dispatcher})

	user := &domain.User{Name: "Eve", Email: "eve@example.com", Role: domain.RoleUser}
	if err := store.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("user: %v", err)
	}
	priorities, _ := store.Catalog().ListPriorities(context.Background())

	actor := policy.Actor{ID: user.ID, Role: user.Role}
	ticket, err := svc.CreateTicket(context.Background(), actor, TicketCreateInput{
		Title:       "Event emitting bug",
		Description: "Checking that lifecycle events fire.",
		PriorityID:  priorities[0].ID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.AddComment(context.Background(), actor, ticket.ID, "watching events"); err != nil {
		t.Fatalf("comment: %v", err)
	}

	if len(seen) != 2 || seen[0] != events.EventTicketCreated || seen[1] != events.EventCommentAdded {
		t.Fatalf("events seen: %v", seen)
	}
}
