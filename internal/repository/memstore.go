package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ticketflow/helpdesk/internal/domain"
)

// MemStore is an in-memory Store. It backs the test suite and serves
// as a fallback when no Postgres DSN is configured. The catalog is
// seeded with the same reference rows as the SQL migrations.
type MemStore struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	users    map[string]domain.User
	tickets  map[string]domain.Ticket
	comments map[string]domain.Comment

	priorities []domain.Priority
	statuses   []domain.Status
}

// NewMemStore builds a store with a seeded catalog.
func NewMemStore() *MemStore {
	s := &MemStore{
		users:    make(map[string]domain.User),
		tickets:  make(map[string]domain.Ticket),
		comments: make(map[string]domain.Comment),
	}
	seed := []struct {
		name  string
		level int
		color string
	}{
		{domain.PriorityLow, 1, "#28a745"},
		{domain.PriorityMedium, 2, "#ffc107"},
		{domain.PriorityHigh, 3, "#fd7e14"},
		{domain.PriorityUrgent, 4, "#dc3545"},
	}
	for _, p := range seed {
		s.priorities = append(s.priorities, domain.Priority{
			ID:    uuid.NewString(),
			Name:  p.name,
			Level: p.level,
			Color: p.color,
		})
	}
	statuses := []struct{ name, color string }{
		{domain.StatusNew, "#17a2b8"},
		{domain.StatusInProgress, "#007bff"},
		{domain.StatusResolved, "#28a745"},
		{domain.StatusClosed, "#6c757d"},
	}
	for _, st := range statuses {
		s.statuses = append(s.statuses, domain.Status{
			ID:    uuid.NewString(),
			Name:  st.name,
			Color: st.color,
		})
	}
	return s
}

func (s *MemStore) Users() UserRepository       { return &memUsers{store: s} }
func (s *MemStore) Catalog() CatalogRepository  { return &memCatalog{store: s} }
func (s *MemStore) Tickets() TicketRepository   { return &memTickets{store: s} }
func (s *MemStore) Comments() CommentRepository { return &memComments{store: s} }

// WithinTx serializes transactions, snapshots the state, and restores
// it when fn fails so a failed operation leaves the store unchanged.
func (s *MemStore) WithinTx(ctx context.Context, fn func(Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snapshot := s.snapshot()
	if err := fn(s); err != nil {
		s.restore(snapshot)
		return err
	}
	return nil
}

type memSnapshot struct {
	users    map[string]domain.User
	tickets  map[string]domain.Ticket
	comments map[string]domain.Comment
}

func (s *MemStore) snapshot() memSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := memSnapshot{
		users:    make(map[string]domain.User, len(s.users)),
		tickets:  make(map[string]domain.Ticket, len(s.tickets)),
		comments: make(map[string]domain.Comment, len(s.comments)),
	}
	for k, v := range s.users {
		snap.users[k] = v
	}
	for k, v := range s.tickets {
		snap.tickets[k] = v
	}
	for k, v := range s.comments {
		snap.comments[k] = v
	}
	return snap
}

func (s *MemStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = snap.users
	s.tickets = snap.tickets
	s.comments = snap.comments
}

func (s *MemStore) statusByID(id string) (domain.Status, bool) {
	for _, st := range s.statuses {
		if st.ID == id {
			return st, true
		}
	}
	return domain.Status{}, false
}

func (s *MemStore) priorityByID(id string) (domain.Priority, bool) {
	for _, p := range s.priorities {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Priority{}, false
}

type memUsers struct {
	store *MemStore
}

func (r *memUsers) Create(_ context.Context, user *domain.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	now := time.Now()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.store.users[user.ID] = *user
	return nil
}

func (r *memUsers) Update(_ context.Context, user *domain.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.users[user.ID]; !ok {
		return ErrNotFound
	}
	user.UpdatedAt = time.Now()
	r.store.users[user.ID] = *user
	return nil
}

func (r *memUsers) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.users[id]; !ok {
		return ErrNotFound
	}
	delete(r.store.users, id)
	return nil
}

func (r *memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	user, ok := r.store.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (r *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, user := range r.store.users {
		if strings.EqualFold(user.Email, email) {
			u := user
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memUsers) ListWithStats(_ context.Context) ([]domain.UserWithStats, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var result []domain.UserWithStats
	for _, user := range r.store.users {
		entry := domain.UserWithStats{User: user}
		for _, t := range r.store.tickets {
			if t.CreatorID == user.ID {
				entry.Stats.TicketCount++
			}
			if t.AssigneeID != nil && *t.AssigneeID == user.ID {
				entry.Stats.AssignedCount++
			}
		}
		for _, c := range r.store.comments {
			if c.AuthorID == user.ID {
				entry.Stats.CommentCount++
			}
		}
		result = append(result, entry)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *memUsers) CountByRole(_ context.Context) (map[domain.Role]int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	counts := map[domain.Role]int{
		domain.RoleUser:  0,
		domain.RoleAgent: 0,
		domain.RoleAdmin: 0,
	}
	for _, user := range r.store.users {
		counts[user.Role]++
	}
	return counts, nil
}

type memCatalog struct {
	store *MemStore
}

func (r *memCatalog) ListPriorities(_ context.Context) ([]domain.Priority, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	result := make([]domain.Priority, len(r.store.priorities))
	copy(result, r.store.priorities)
	return result, nil
}

func (r *memCatalog) ListStatuses(_ context.Context) ([]domain.Status, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	result := make([]domain.Status, len(r.store.statuses))
	copy(result, r.store.statuses)
	return result, nil
}

func (r *memCatalog) GetPriority(_ context.Context, id string) (*domain.Priority, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	if p, ok := r.store.priorityByID(id); ok {
		return &p, nil
	}
	return nil, ErrNotFound
}

func (r *memCatalog) GetStatus(_ context.Context, id string) (*domain.Status, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	if st, ok := r.store.statusByID(id); ok {
		return &st, nil
	}
	return nil, ErrNotFound
}

func (r *memCatalog) GetStatusByName(_ context.Context, name string) (*domain.Status, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, st := range r.store.statuses {
		if st.Name == name {
			s := st
			return &s, nil
		}
	}
	return nil, ErrNotFound
}

type memTickets struct {
	store *MemStore
}

func (r *memTickets) Create(_ context.Context, ticket *domain.Ticket) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	now := time.Now()
	ticket.ID = uuid.NewString()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	r.store.tickets[ticket.ID] = *ticket
	return nil
}

func (r *memTickets) Update(_ context.Context, ticket *domain.Ticket) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.tickets[ticket.ID]; !ok {
		return ErrNotFound
	}
	r.store.tickets[ticket.ID] = *ticket
	return nil
}

func (r *memTickets) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	ticket, ok := r.store.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &ticket, nil
}

func (r *memTickets) List(_ context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var result []domain.Ticket
	for _, ticket := range r.store.tickets {
		if filter.CreatorID != nil && ticket.CreatorID != *filter.CreatorID {
			continue
		}
		status, _ := r.store.statusByID(ticket.StatusID)
		switch filter.Status {
		case StatusOpenOnly:
			if status.Name == domain.StatusClosed {
				continue
			}
		case StatusClosedOnly:
			if status.Name != domain.StatusClosed {
				continue
			}
		}
		switch filter.Assignment {
		case AssignmentUnassigned:
			if ticket.Assigned() {
				continue
			}
		case AssignmentAssigned:
			if !ticket.Assigned() {
				continue
			}
		case AssignmentMine:
			if filter.AssigneeID == nil || !ticket.Assigned() || *ticket.AssigneeID != *filter.AssigneeID {
				continue
			}
		}
		result = append(result, ticket)
	}

	if filter.Order == OrderTriage {
		sort.SliceStable(result, func(i, j int) bool {
			si, _ := r.store.statusByID(result[i].StatusID)
			sj, _ := r.store.statusByID(result[j].StatusID)
			ri, rj := domain.StatusRank(si.Name), domain.StatusRank(sj.Name)
			if ri != rj {
				return ri < rj
			}
			pi, _ := r.store.priorityByID(result[i].PriorityID)
			pj, _ := r.store.priorityByID(result[j].PriorityID)
			if pi.Level != pj.Level {
				return pi.Level > pj.Level
			}
			return result[i].CreatedAt.After(result[j].CreatedAt)
		})
	} else {
		sort.SliceStable(result, func(i, j int) bool {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		})
	}

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return nil, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (r *memTickets) Stats(_ context.Context) (domain.TicketStats, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var stats domain.TicketStats
	for _, ticket := range r.store.tickets {
		stats.Total++
		status, _ := r.store.statusByID(ticket.StatusID)
		priority, _ := r.store.priorityByID(ticket.PriorityID)
		if status.Name == domain.StatusClosed {
			stats.Closed++
		} else {
			stats.Open++
			if priority.Name == domain.PriorityUrgent {
				stats.UrgentOpen++
			}
		}
		if status.Name == domain.StatusNew {
			stats.New++
		}
		if !ticket.Assigned() {
			stats.Unassigned++
		}
	}
	return stats, nil
}

func (r *memTickets) DeleteByCreator(_ context.Context, creatorID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for id, ticket := range r.store.tickets {
		if ticket.CreatorID != creatorID {
			continue
		}
		for cid, comment := range r.store.comments {
			if comment.TicketID == id {
				delete(r.store.comments, cid)
			}
		}
		delete(r.store.tickets, id)
	}
	return nil
}

func (r *memTickets) ClearAssignee(_ context.Context, assigneeID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for id, ticket := range r.store.tickets {
		if ticket.AssigneeID != nil && *ticket.AssigneeID == assigneeID {
			ticket.AssigneeID = nil
			r.store.tickets[id] = ticket
		}
	}
	return nil
}

type memComments struct {
	store *MemStore
}

func (r *memComments) Create(_ context.Context, comment *domain.Comment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	comment.ID = uuid.NewString()
	comment.CreatedAt = time.Now()
	r.store.comments[comment.ID] = *comment
	return nil
}

func (r *memComments) ListByTicket(_ context.Context, ticketID string) ([]domain.Comment, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var result []domain.Comment
	for _, comment := range r.store.comments {
		if comment.TicketID == ticketID {
			result = append(result, comment)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (r *memComments) DeleteByAuthor(_ context.Context, authorID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for id, comment := range r.store.comments {
		if comment.AuthorID == authorID {
			delete(r.store.comments, id)
		}
	}
	return nil
}
