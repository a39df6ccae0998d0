package domain

import "time"

// Comment is an append-only entry in a ticket's thread. Comments are
// never edited or deleted except as a cascade of user deletion, and are
// displayed in ascending creation order.
type Comment struct {
	ID        string
	TicketID  string
	AuthorID  string
	Content   string
	CreatedAt time.Time
}
