package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ticketflow/helpdesk/internal/domain"
	"github.com/ticketflow/helpdesk/internal/events"
	"github.com/ticketflow/helpdesk/internal/persistence"
	"github.com/ticketflow/helpdesk/internal/policy"
	"github.com/ticketflow/helpdesk/internal/repository"
	"github.com/ticketflow/helpdesk/pkg/apperrors"
)

const statsCacheKey = "ticketflow:stats:dashboard"

// TicketService orchestrates the ticket lifecycle: creation, status
// and priority transitions, assignment, and comment posting. Every
// mutation consults the access policy before touching storage.
type TicketService struct {
	store      repository.Store
	cache      *persistence.Redis
	statsTTL   time.Duration
	dispatcher events.Dispatcher
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Store      repository.Store
	Cache      *persistence.Redis
	StatsTTL   time.Duration
	Dispatcher events.Dispatcher
}

// TicketCreateInput describes the ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	PriorityID  string
}

// ListFilter describes listing parameters accepted from callers.
type ListFilter struct {
	Status     repository.StatusBucket
	Assignment repository.AssignmentBucket
	Limit      int
	Offset     int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		store:      deps.Store,
		cache:      deps.Cache,
		statsTTL:   deps.StatsTTL,
		dispatcher: deps.Dispatcher,
	}
}

// CreateTicket validates input and persists a new ticket with the
// default "New" status. All violated constraints are reported
// together, not just the first.
func (s *TicketService) CreateTicket(ctx context.Context, actor policy.Actor, input TicketCreateInput) (*domain.Ticket, error) {
	if !policy.Can(actor, policy.CapCreateTicket) {
		return nil, apperrors.NewForbidden("not allowed to create tickets")
	}

	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)

	var violations []string
	if title == "" {
		violations = append(violations, "title is required")
	} else if len(title) < 5 {
		violations = append(violations, "title must be at least 5 characters")
	}
	if description == "" {
		violations = append(violations, "description is required")
	} else if len(description) < 10 {
		violations = append(violations, "description must be at least 10 characters")
	}

	if input.PriorityID == "" {
		violations = append(violations, "priority is required")
	} else if _, err := s.store.Catalog().GetPriority(ctx, input.PriorityID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			violations = append(violations, "priority does not exist")
		} else {
			return nil, err
		}
	}

	if len(violations) > 0 {
		return nil, apperrors.NewValidation(violations...)
	}

	defaultStatus, err := s.defaultStatus(ctx)
	if err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{
		Title:       title,
		Description: description,
		CreatorID:   actor.ID,
		PriorityID:  input.PriorityID,
		StatusID:    defaultStatus.ID,
	}
	if err := s.store.Tickets().Create(ctx, ticket); err != nil {
		return nil, err
	}

	s.invalidateStats(ctx)
	s.publish(ctx, actor, events.EventTicketCreated, events.TicketCreatedPayload{
		TicketID: ticket.ID,
		Title:    ticket.Title,
		Priority: input.PriorityID,
	})
	return ticket, nil
}

// ChangeStatus moves a ticket to another workflow stage. Permitted for
// the ticket's creator and for agents/admins on any ticket.
func (s *TicketService) ChangeStatus(ctx context.Context, actor policy.Actor, ticketID, newStatusID string) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !policy.CanOnTicket(actor, policy.CapChangeStatus, ticket) {
		return nil, apperrors.NewForbidden("not allowed to change status on this ticket")
	}

	newStatus, err := s.store.Catalog().GetStatus(ctx, newStatusID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("status")
		}
		return nil, err
	}

	oldStatusName := s.statusName(ctx, ticket.StatusID)
	ticket.StatusID = newStatus.ID
	ticket.UpdatedAt = time.Now()
	if err := s.store.Tickets().Update(ctx, ticket); err != nil {
		return nil, err
	}

	s.invalidateStats(ctx)
	s.publish(ctx, actor, events.EventTicketStatusChanged, events.TicketStatusChangedPayload{
		TicketID:  ticket.ID,
		OldStatus: oldStatusName,
		NewStatus: newStatus.Name,
	})
	return ticket, nil
}

// ChangePriority re-ranks a ticket's urgency. Agent/admin only.
func (s *TicketService) ChangePriority(ctx context.Context, actor policy.Actor, ticketID, newPriorityID string) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !policy.CanOnTicket(actor, policy.CapChangePriority, ticket) {
		return nil, apperrors.NewForbidden("not allowed to change priority")
	}

	newPriority, err := s.store.Catalog().GetPriority(ctx, newPriorityID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("priority")
		}
		return nil, err
	}

	oldPriorityName := s.priorityName(ctx, ticket.PriorityID)
	ticket.PriorityID = newPriority.ID
	ticket.UpdatedAt = time.Now()
	if err := s.store.Tickets().Update(ctx, ticket); err != nil {
		return nil, err
	}

	s.invalidateStats(ctx)
	s.publish(ctx, actor, events.EventTicketPriorityChanged, events.TicketPriorityChangedPayload{
		TicketID:    ticket.ID,
		OldPriority: oldPriorityName,
		NewPriority: newPriority.Name,
	})
	return ticket, nil
}

// Assign sets or clears the assignee. Agent/admin only; the assignee
// must resolve to an agent or admin account. An audit comment
// recording the change is appended in the same transaction; the side
// effect is part of the contract.
func (s *TicketService) Assign(ctx context.Context, actor policy.Actor, ticketID string, assigneeID *string) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !policy.CanOnTicket(actor, policy.CapAssign, ticket) {
		return nil, apperrors.NewForbidden("not allowed to assign tickets")
	}

	var assignee *domain.User
	if assigneeID != nil {
		assignee, err = s.store.Users().GetByID(ctx, *assigneeID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperrors.NewNotFound("assignee")
			}
			return nil, err
		}
		if !policy.CanBeAssignee(assignee.Role) {
			return nil, apperrors.NewValidation("assignee must have role agent or admin")
		}
	}

	auditContent := "Ticket unassigned."
	if assignee != nil {
		auditContent = fmt.Sprintf("Ticket assigned to %s.", assignee.Name)
		ticket.AssigneeID = &assignee.ID
	} else {
		ticket.AssigneeID = nil
	}
	ticket.UpdatedAt = time.Now()

	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.Tickets().Update(ctx, ticket); err != nil {
			return err
		}
		audit := &domain.Comment{
			TicketID: ticket.ID,
			AuthorID: actor.ID,
			Content:  auditContent,
		}
		return tx.Comments().Create(ctx, audit)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateStats(ctx)
	s.publish(ctx, actor, events.EventTicketAssigned, events.TicketAssignedPayload{
		TicketID:   ticket.ID,
		AssigneeID: ticket.AssigneeID,
	})
	return ticket, nil
}

// AddComment appends a comment to a ticket's thread. Users comment
// only on their own tickets and must write at least 5 characters;
// agents and admins may post shorter operational notes on any ticket.
// Commenting never touches the ticket's updated timestamp.
func (s *TicketService) AddComment(ctx context.Context, actor policy.Actor, ticketID, content string) (*domain.Comment, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !policy.CanOnTicket(actor, policy.CapComment, ticket) {
		return nil, apperrors.NewForbidden("not allowed to comment on this ticket")
	}

	content = strings.TrimSpace(content)
	var violations []string
	if content == "" {
		violations = append(violations, "comment cannot be empty")
	} else if actor.Role == domain.RoleUser && len(content) < 5 {
		violations = append(violations, "comment must be at least 5 characters")
	}
	if len(violations) > 0 {
		return nil, apperrors.NewValidation(violations...)
	}

	comment := &domain.Comment{
		TicketID: ticket.ID,
		AuthorID: actor.ID,
		Content:  content,
	}
	if err := s.store.Comments().Create(ctx, comment); err != nil {
		return nil, err
	}

	s.publish(ctx, actor, events.EventCommentAdded, events.CommentAddedPayload{
		TicketID:  ticket.ID,
		CommentID: comment.ID,
	})
	return comment, nil
}

// GetTicket fetches a ticket and its thread, comments in ascending
// creation order.
func (s *TicketService) GetTicket(ctx context.Context, actor policy.Actor, ticketID string) (*domain.Ticket, []domain.Comment, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, nil, err
	}
	if !policy.CanOnTicket(actor, policy.CapViewTicket, ticket) {
		return nil, nil, apperrors.NewForbidden("not allowed to view this ticket")
	}
	comments, err := s.store.Comments().ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, nil, err
	}
	return ticket, comments, nil
}

// ListTickets returns tickets visible to the actor. Users see only
// their own tickets ordered by creation time descending; agents and
// admins see all tickets in triage order (status rank, then priority
// level descending, then creation time descending). The "mine"
// assignment bucket restricts to the agent's own assignments and is
// ignored for other roles.
func (s *TicketService) ListTickets(ctx context.Context, actor policy.Actor, filter ListFilter) ([]domain.Ticket, error) {
	repoFilter := repository.TicketFilter{
		Status:     filter.Status,
		Assignment: filter.Assignment,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}
	if repoFilter.Status == "" {
		repoFilter.Status = repository.StatusAny
	}
	if repoFilter.Assignment == "" {
		repoFilter.Assignment = repository.AssignmentAny
	}

	if actor.Role.IsStaff() {
		repoFilter.Order = repository.OrderTriage
		if repoFilter.Assignment == repository.AssignmentMine {
			if actor.Role == domain.RoleAgent {
				id := actor.ID
				repoFilter.AssigneeID = &id
			} else {
				repoFilter.Assignment = repository.AssignmentAny
			}
		}
	} else {
		id := actor.ID
		repoFilter.CreatorID = &id
		repoFilter.Order = repository.OrderCreatedDesc
		repoFilter.Assignment = repository.AssignmentAny
	}

	return s.store.Tickets().List(ctx, repoFilter)
}

// DashboardStats returns the aggregate ticket counters for the
// agent/admin dashboard, cached in Redis for a short TTL.
func (s *TicketService) DashboardStats(ctx context.Context, actor policy.Actor) (domain.TicketStats, error) {
	var stats domain.TicketStats
	if !policy.Can(actor, policy.CapViewDashboard) {
		return stats, apperrors.NewForbidden("dashboard requires agent or admin role")
	}

	if s.cache.GetJSON(ctx, statsCacheKey, &stats) {
		return stats, nil
	}

	stats, err := s.store.Tickets().Stats(ctx)
	if err != nil {
		return stats, err
	}
	s.cache.SetJSON(ctx, statsCacheKey, stats, s.statsTTL)
	return stats, nil
}

// ListPriorities exposes the priority catalog, ordered by level.
func (s *TicketService) ListPriorities(ctx context.Context) ([]domain.Priority, error) {
	return s.store.Catalog().ListPriorities(ctx)
}

// ListStatuses exposes the status catalog.
func (s *TicketService) ListStatuses(ctx context.Context) ([]domain.Status, error) {
	return s.store.Catalog().ListStatuses(ctx)
}

func (s *TicketService) getTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.store.Tickets().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("ticket")
		}
		return nil, err
	}
	return ticket, nil
}

// defaultStatus resolves the status new tickets start in. Falls back
// to the first catalog row if the seed was customized.
func (s *TicketService) defaultStatus(ctx context.Context) (*domain.Status, error) {
	status, err := s.store.Catalog().GetStatusByName(ctx, domain.StatusNew)
	if err == nil {
		return status, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	statuses, err := s.store.Catalog().ListStatuses(ctx)
	if err != nil {
		return nil, err
	}
	if len(statuses) == 0 {
		return nil, errors.New("status catalog is empty")
	}
	return &statuses[0], nil
}

func (s *TicketService) statusName(ctx context.Context, id string) string {
	status, err := s.store.Catalog().GetStatus(ctx, id)
	if err != nil {
		return ""
	}
	return status.Name
}

func (s *TicketService) priorityName(ctx context.Context, id string) string {
	priority, err := s.store.Catalog().GetPriority(ctx, id)
	if err != nil {
		return ""
	}
	return priority.Name
}

func (s *TicketService) invalidateStats(ctx context.Context) {
	s.cache.Delete(ctx, statsCacheKey)
}

func (s *TicketService) publish(ctx context.Context, actor policy.Actor, eventType events.EventType, payload any) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Actor:     events.Actor{ID: actor.ID, Role: actor.Role},
		Timestamp: time.Now(),
		Payload:   payload,
	})
}
