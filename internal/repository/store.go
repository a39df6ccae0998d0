package repository

import (
	"context"
	"errors"

	"github.com/ticketflow/helpdesk/internal/domain"
)

// ErrNotFound is returned when a referenced row does not exist.
// Implementations translate their driver-level sentinel to this one.
var ErrNotFound = errors.New("not found")

// StatusBucket filters tickets by terminal state. "closed" matches
// exactly the tickets whose status name is "Closed"; "open" matches the
// complement.
type StatusBucket string

const (
	StatusAny        StatusBucket = "all"
	StatusOpenOnly   StatusBucket = "open"
	StatusClosedOnly StatusBucket = "closed"
)

// AssignmentBucket filters tickets by assignment state. "mine" is only
// meaningful for agent actors and requires AssigneeID to be set.
type AssignmentBucket string

const (
	AssignmentAny        AssignmentBucket = "all"
	AssignmentUnassigned AssignmentBucket = "unassigned"
	AssignmentAssigned   AssignmentBucket = "assigned"
	AssignmentMine       AssignmentBucket = "mine"
)

// TicketOrder selects a listing order.
type TicketOrder int

const (
	// OrderCreatedDesc sorts by creation time descending (requester view).
	OrderCreatedDesc TicketOrder = iota
	// OrderTriage sorts by status rank (New, In Progress, Resolved,
	// other), then priority level descending, then creation time
	// descending (agent/admin view).
	OrderTriage
)

// TicketFilter captures listing parameters. Zero values mean "no
// constraint".
type TicketFilter struct {
	CreatorID  *string
	Status     StatusBucket
	Assignment AssignmentBucket
	AssigneeID *string
	Order      TicketOrder
	Limit      int
	Offset     int
}

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ListWithStats(ctx context.Context) ([]domain.UserWithStats, error)
	CountByRole(ctx context.Context) (map[domain.Role]int, error)
}

// CatalogRepository exposes the immutable priority and status
// reference data.
type CatalogRepository interface {
	ListPriorities(ctx context.Context) ([]domain.Priority, error)
	ListStatuses(ctx context.Context) ([]domain.Status, error)
	GetPriority(ctx context.Context, id string) (*domain.Priority, error)
	GetStatus(ctx context.Context, id string) (*domain.Status, error)
	GetStatusByName(ctx context.Context, name string) (*domain.Status, error)
}

// TicketRepository encapsulates ticket persistence. Deleting a ticket
// cascades to its comments in every implementation.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	Stats(ctx context.Context) (domain.TicketStats, error)
	DeleteByCreator(ctx context.Context, creatorID string) error
	ClearAssignee(ctx context.Context, assigneeID string) error
}

// CommentRepository manages ticket thread comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error)
	DeleteByAuthor(ctx context.Context, authorID string) error
}

// Store aggregates the entity repositories behind a single handle.
// WithinTx runs fn against a transactional view of the store; if fn
// returns an error nothing fn wrote is kept.
type Store interface {
	Users() UserRepository
	Catalog() CatalogRepository
	Tickets() TicketRepository
	Comments() CommentRepository
	WithinTx(ctx context.Context, fn func(Store) error) error
}
