package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ticketflow/helpdesk/internal/domain"
	"github.com/ticketflow/helpdesk/internal/events"
	"github.com/ticketflow/helpdesk/internal/persistence"
	"github.com/ticketflow/helpdesk/internal/policy"
	"github.com/ticketflow/helpdesk/internal/repository"
	"github.com/ticketflow/helpdesk/pkg/apperrors"
)

// UserService covers the admin-only account management operations:
// listing accounts with activity stats, role changes, and the
// destructive account deletion cascade.
type UserService struct {
	store      repository.Store
	cache      *persistence.Redis
	dispatcher events.Dispatcher
}

// NewUserService constructs the service.
func NewUserService(store repository.Store, cache *persistence.Redis, dispatcher events.Dispatcher) *UserService {
	return &UserService{store: store, cache: cache, dispatcher: dispatcher}
}

// ListUsers returns every account with per-account activity counters,
// newest first, plus totals per role.
func (s *UserService) ListUsers(ctx context.Context, actor policy.Actor) ([]domain.UserWithStats, map[domain.Role]int, error) {
	if !policy.Can(actor, policy.CapManageUsers) {
		return nil, nil, apperrors.NewForbidden("user management requires admin role")
	}
	users, err := s.store.Users().ListWithStats(ctx)
	if err != nil {
		return nil, nil, err
	}
	roleCounts, err := s.store.Users().CountByRole(ctx)
	if err != nil {
		return nil, nil, err
	}
	return users, roleCounts, nil
}

// GetUser fetches a single account. Admin only.
func (s *UserService) GetUser(ctx context.Context, actor policy.Actor, userID string) (*domain.User, error) {
	if !policy.Can(actor, policy.CapManageUsers) {
		return nil, apperrors.NewForbidden("user management requires admin role")
	}
	return s.getUser(ctx, userID)
}

// ChangeRole switches an account to another role. Admins may change
// any account's role, including their own.
func (s *UserService) ChangeRole(ctx context.Context, actor policy.Actor, userID string, newRole domain.Role) (*domain.User, error) {
	if !policy.Can(actor, policy.CapManageUsers) {
		return nil, apperrors.NewForbidden("user management requires admin role")
	}
	if !newRole.Valid() {
		return nil, apperrors.NewValidation(fmt.Sprintf("role must be one of %s, %s, %s", domain.RoleUser, domain.RoleAgent, domain.RoleAdmin))
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	oldRole := user.Role
	user.Role = newRole
	user.UpdatedAt = time.Now()
	if err := s.store.Users().Update(ctx, user); err != nil {
		return nil, err
	}

	s.publish(ctx, actor, events.EventUserRoleChanged, events.UserRoleChangedPayload{
		UserID:  user.ID,
		OldRole: oldRole,
		NewRole: newRole,
	})
	return user, nil
}

// DeleteUser removes an account together with everything it authored:
// its comments, its tickets (with those tickets' threads), and any
// assignment references pointing at it. The cascade runs in one
// transaction so a failure leaves all records in place. Admins cannot
// delete their own account.
func (s *UserService) DeleteUser(ctx context.Context, actor policy.Actor, userID string) error {
	if !policy.Can(actor, policy.CapManageUsers) {
		return apperrors.NewForbidden("user management requires admin role")
	}
	if userID == actor.ID {
		return apperrors.NewConflict("you cannot delete your own account")
	}

	if _, err := s.getUser(ctx, userID); err != nil {
		return err
	}

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.Comments().DeleteByAuthor(ctx, userID); err != nil {
			return err
		}
		if err := tx.Tickets().DeleteByCreator(ctx, userID); err != nil {
			return err
		}
		if err := tx.Tickets().ClearAssignee(ctx, userID); err != nil {
			return err
		}
		return tx.Users().Delete(ctx, userID)
	})
	if err != nil {
		return err
	}

	s.cache.Delete(ctx, statsCacheKey)
	s.publish(ctx, actor, events.EventUserDeleted, events.UserDeletedPayload{UserID: userID})
	return nil
}

func (s *UserService) getUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("user")
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) publish(ctx context.Context, actor policy.Actor, eventType events.EventType, payload any) {
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
