package policy

import (
	"testing"

	"github.com/ticketflow/helpdesk/internal/domain"
)

func TestCanOnTicketMatrix(t *testing.T) {
	owner := Actor{ID: "u1", Role: domain.RoleUser}
	stranger := Actor{ID: "u2", Role: domain.RoleUser}
	agent := Actor{ID: "a1", Role: domain.RoleAgent}
	admin := Actor{ID: "ad1", Role: domain.RoleAdmin}

	ticket := &domain.Ticket{ID: "t1", CreatorID: "u1"}

	cases := []struct {
		name  string
		actor Actor
		cap   Capability
		want  bool
	}{
		{"owner views own ticket", owner, CapViewTicket, true},
		{"stranger cannot view", stranger, CapViewTicket, false},
		{"agent views any ticket", agent, CapViewTicket, true},
		{"admin views any ticket", admin, CapViewTicket, true},

		{"owner comments on own ticket", owner, CapComment, true},
		{"stranger cannot comment", stranger, CapComment, false},
		{"agent comments on any ticket", agent, CapComment, true},

		{"owner changes status of own ticket", owner, CapChangeStatus, true},
		{"stranger cannot change status", stranger, CapChangeStatus, false},
		{"admin changes status anywhere", admin, CapChangeStatus, true},

		{"owner cannot change priority", owner, CapChangePriority, false},
		{"agent changes priority", agent, CapChangePriority, true},
		{"admin changes priority", admin, CapChangePriority, true},

		{"owner cannot assign", owner, CapAssign, false},
		{"agent assigns", agent, CapAssign, true},
		{"admin assigns", admin, CapAssign, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanOnTicket(tc.actor, tc.cap, ticket); got != tc.want {
				t.Fatalf("CanOnTicket(%v, %s) = %v, want %v", tc.actor, tc.cap, got, tc.want)
			}
		})
	}
}

func TestCanOnTicketNilTicket(t *testing.T) {
	admin := Actor{ID: "ad1", Role: domain.RoleAdmin}
	if CanOnTicket(admin, CapViewTicket, nil) {
		t.Fatal("nil ticket must deny every capability")
	}
}

func TestCanOnTicketUnknownCapabilityFailsClosed(t *testing.T) {
	admin := Actor{ID: "ad1", Role: domain.RoleAdmin}
	ticket := &domain.Ticket{ID: "t1", CreatorID: "ad1"}
	if CanOnTicket(admin, Capability("escalate"), ticket) {
		t.Fatal("unknown capability must be denied")
	}
	if Can(admin, Capability("escalate")) {
		t.Fatal("unknown system capability must be denied")
	}
}

func TestCanSystemCapabilities(t *testing.T) {
	cases := []struct {
		name  string
		actor Actor
		cap   Capability
		want  bool
	}{
		{"user creates tickets", Actor{ID: "u1", Role: domain.RoleUser}, CapCreateTicket, true},
		{"agent creates tickets", Actor{ID: "a1", Role: domain.RoleAgent}, CapCreateTicket, true},
		{"invalid role cannot create", Actor{ID: "x", Role: domain.Role("ghost")}, CapCreateTicket, false},

		{"user cannot view dashboard", Actor{ID: "u1", Role: domain.RoleUser}, CapViewDashboard, false},
		{"agent views dashboard", Actor{ID: "a1", Role: domain.RoleAgent}, CapViewDashboard, true},
		{"admin views dashboard", Actor{ID: "ad1", Role: domain.RoleAdmin}, CapViewDashboard, true},

		{"user cannot manage users", Actor{ID: "u1", Role: domain.RoleUser}, CapManageUsers, false},
		{"agent cannot manage users", Actor{ID: "a1", Role: domain.RoleAgent}, CapManageUsers, false},
		{"admin manages users", Actor{ID: "ad1", Role: domain.RoleAdmin}, CapManageUsers, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Can(tc.actor, tc.cap); got != tc.want {
				t.Fatalf("Can(%v, %s) = %v, want %v", tc.actor, tc.cap, got, tc.want)
			}
		})
	}
}

func TestCanBeAssignee(t *testing.T) {
	if CanBeAssignee(domain.RoleUser) {
		t.Fatal("user role must not be assignable")
	}
	if !CanBeAssignee(domain.RoleAgent) || !CanBeAssignee(domain.RoleAdmin) {
		t.Fatal("agent and admin roles must be assignable")
	}
}
