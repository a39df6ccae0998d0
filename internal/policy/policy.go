// Package policy is the single decision point for who may do what to a
// ticket. It is pure: no storage access, no side effects. Every
// mutating operation consults it before touching storage and fails
// closed when the capability is absent.
package policy

import "github.com/ticketflow/helpdesk/internal/domain"

// Capability names an operation an actor may hold on a ticket or on
// the system as a whole.
type Capability string

const (
	CapViewTicket     Capability = "view_ticket"
	CapCreateTicket   Capability = "create_ticket"
	CapComment        Capability = "comment"
	CapChangeStatus   Capability = "change_status"
	CapChangePriority Capability = "change_priority"
	CapAssign         Capability = "assign"
	CapViewDashboard  Capability = "view_dashboard"
	CapManageUsers    Capability = "manage_users"
)

// Actor is the authenticated caller, passed explicitly into every
// lifecycle call instead of living in ambient request state.
type Actor struct {
	ID   string
	Role domain.Role
}

// CanOnTicket decides ticket-scoped capabilities. Users act only on
// tickets they created; agents and admins act on any ticket.
func CanOnTicket(actor Actor, cap Capability, ticket *domain.Ticket) bool {
	if ticket == nil {
		return false
	}
	switch cap {
	case CapViewTicket, CapComment, CapChangeStatus:
		if actor.Role.IsStaff() {
			return true
		}
		return actor.Role == domain.RoleUser && ticket.CreatorID == actor.ID
	case CapChangePriority, CapAssign:
		return actor.Role.IsStaff()
	}
	return false
}

// Can decides system-scoped capabilities that do not depend on a
// particular ticket.
func Can(actor Actor, cap Capability) bool {
	switch cap {
	case CapCreateTicket:
		return actor.Role.Valid()
	case CapViewDashboard:
		return actor.Role.IsStaff()
	case CapManageUsers:
		return actor.Role == domain.RoleAdmin
	}
	return false
}

// CanBeAssignee reports whether a role is eligible to hold ticket
// assignments. Validated at assignment time against the resolved user,
// not merely at policy-check time.
func CanBeAssignee(role domain.Role) bool {
	return role.IsStaff()
}
