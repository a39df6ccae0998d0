package dto

import (
	"time"

	"github.com/ticketflow/helpdesk/internal/domain"
)

// UserResponse exposes the public account fields. The password hash
// never leaves the service.
type UserResponse struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}

// UserWithStatsResponse adds per-account activity counters.
type UserWithStatsResponse struct {
	UserResponse
	TicketCount   int `json:"ticket_count"`
	CommentCount  int `json:"comment_count"`
	AssignedCount int `json:"assigned_count"`
}

// UsersListResponse bundles the accounts with role totals.
type UsersListResponse struct {
	Users      []UserWithStatsResponse `json:"users"`
	RoleCounts map[string]int          `json:"role_counts"`
}

// ChangeRoleRequest payload.
type ChangeRoleRequest struct {
	Role domain.Role `json:"role"`
}

// UserFromDomain maps a domain user to its response shape.
func UserFromDomain(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// UserWithStatsFromDomain maps an account plus counters.
func UserWithStatsFromDomain(u *domain.UserWithStats) UserWithStatsResponse {
	return UserWithStatsResponse{
		UserResponse:  UserFromDomain(&u.User),
		TicketCount:   u.Stats.TicketCount,
		CommentCount:  u.Stats.CommentCount,
		AssignedCount: u.Stats.AssignedCount,
	}
}
