package dto

import (
	"time"

	"github.com/ticketflow/helpdesk/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	PriorityID  string `json:"priority_id"`
}

// ChangeStatusRequest payload.
type ChangeStatusRequest struct {
	StatusID string `json:"status_id"`
}

// ChangePriorityRequest payload.
type ChangePriorityRequest struct {
	PriorityID string `json:"priority_id"`
}

// AssignRequest payload. A null assignee_id unassigns the ticket.
type AssignRequest struct {
	AssigneeID *string `json:"assignee_id"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Content string `json:"content"`
}

// TicketResponse summary.
type TicketResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatorID   string    `json:"creator_id"`
	AssigneeID  *string   `json:"assignee_id"`
	PriorityID  string    `json:"priority_id"`
	StatusID    string    `json:"status_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TicketDetailResponse adds the comment thread.
type TicketDetailResponse struct {
	TicketResponse
	Comments []CommentResponse `json:"comments"`
}

// CommentResponse represents a thread entry.
type CommentResponse struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// CatalogResponse lists selectable priorities and statuses.
type CatalogResponse struct {
	Priorities []domain.Priority `json:"priorities"`
	Statuses   []domain.Status   `json:"statuses"`
}

// TicketFromDomain maps a domain ticket to its response shape.
func TicketFromDomain(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		CreatorID:   t.CreatorID,
		AssigneeID:  t.AssigneeID,
		PriorityID:  t.PriorityID,
		StatusID:    t.StatusID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// CommentFromDomain maps a domain comment to its response shape.
func CommentFromDomain(c *domain.Comment) CommentResponse {
	return CommentResponse{
		ID:        c.ID,
		TicketID:  c.TicketID,
		AuthorID:  c.AuthorID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
	}
}
