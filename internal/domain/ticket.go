package domain

import "time"

// Ticket is the aggregate for a reported support request. CreatorID is
// immutable after creation; AssigneeID, when set, must reference an
// agent or admin account.
type Ticket struct {
	ID          string
	Title       string
	Description string
	CreatorID   string
	AssigneeID  *string
	PriorityID  string
	StatusID    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Assigned reports whether the ticket has an assignee.
func (t *Ticket) Assigned() bool {
	return t.AssigneeID != nil && *t.AssigneeID != ""
}

// TicketStats aggregates the dashboard counters. JSON tags support the
// cached representation.
type TicketStats struct {
	Total      int `json:"total"`
	Open       int `json:"open"`
	Closed     int `json:"closed"`
	Unassigned int `json:"unassigned"`
	New        int `json:"new"`
	UrgentOpen int `json:"urgent_open"`
}
