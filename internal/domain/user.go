package domain

import "time"

// Role determines the capability set available to an actor.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
	RoleAdmin Role = "admin"
)

// Valid reports whether the role belongs to the closed set.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAgent, RoleAdmin:
		return true
	}
	return false
}

// IsStaff reports whether the role carries agent-level access.
func (r Role) IsStaff() bool {
	return r == RoleAgent || r == RoleAdmin
}

// User is an account that creates, triages, or comments on tickets.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserStats aggregates per-user activity counters for the admin panel.
type UserStats struct {
	TicketCount   int
	CommentCount  int
	AssignedCount int
}

// UserWithStats pairs an account with its activity counters.
type UserWithStats struct {
	User
	Stats UserStats
}
