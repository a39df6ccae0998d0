package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/ticketflow/helpdesk/internal/domain"
)

type ticketRepository struct {
	db Querier
}

const ticketColumns = `t.id, t.title, t.description, t.creator_id, t.assignee_id,
               t.priority_id, t.status_id, t.created_at, t.updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, creator_id, assignee_id, priority_id, status_id)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.CreatorID,
		ticket.AssigneeID,
		ticket.PriorityID,
		ticket.StatusID,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, assignee_id=$3, priority_id=$4,
            status_id=$5, updated_at=$6
        WHERE id=$7`
	cmd, err := r.db.Exec(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.AssigneeID,
		ticket.PriorityID,
		ticket.StatusID,
		ticket.UpdatedAt,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets t WHERE t.id=$1`, ticketColumns)
	var ticket domain.Ticket
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.CreatorID,
		&ticket.AssigneeID,
		&ticket.PriorityID,
		&ticket.StatusID,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := fmt.Sprintf(`SELECT %s
             FROM tickets t
             LEFT JOIN statuses s ON t.status_id = s.id
             LEFT JOIN priorities p ON t.priority_id = p.id`, ticketColumns)

	clauses := []string{"1=1"}
	args := []any{}

	if filter.CreatorID != nil {
		args = append(args, *filter.CreatorID)
		clauses = append(clauses, fmt.Sprintf("t.creator_id=$%d", len(args)))
	}
	switch filter.Status {
	case StatusOpenOnly:
		args = append(args, domain.StatusClosed)
		clauses = append(clauses, fmt.Sprintf("s.name != $%d", len(args)))
	case StatusClosedOnly:
		args = append(args, domain.StatusClosed)
		clauses = append(clauses, fmt.Sprintf("s.name = $%d", len(args)))
	}
	switch filter.Assignment {
	case AssignmentUnassigned:
		clauses = append(clauses, "t.assignee_id IS NULL")
	case AssignmentAssigned:
		clauses = append(clauses, "t.assignee_id IS NOT NULL")
	case AssignmentMine:
		if filter.AssigneeID != nil {
			args = append(args, *filter.AssigneeID)
			clauses = append(clauses, fmt.Sprintf("t.assignee_id=$%d", len(args)))
		}
	}

	order := "t.created_at DESC"
	if filter.Order == OrderTriage {
		order = fmt.Sprintf(`CASE
                WHEN s.name = '%s' THEN 1
                WHEN s.name = '%s' THEN 2
                WHEN s.name = '%s' THEN 3
                ELSE 4
            END,
            p.level DESC,
            t.created_at DESC`, domain.StatusNew, domain.StatusInProgress, domain.StatusResolved)
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY %s`, base, strings.Join(clauses, " AND "), order)
	if filter.Limit > 0 {
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.Limit, offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) Stats(ctx context.Context) (domain.TicketStats, error) {
	const query = `
        SELECT
            COUNT(*) AS total,
            COALESCE(SUM(CASE WHEN s.name != 'Closed' THEN 1 ELSE 0 END), 0) AS open,
            COALESCE(SUM(CASE WHEN s.name = 'Closed' THEN 1 ELSE 0 END), 0) AS closed,
            COALESCE(SUM(CASE WHEN t.assignee_id IS NULL THEN 1 ELSE 0 END), 0) AS unassigned,
            COALESCE(SUM(CASE WHEN s.name = 'New' THEN 1 ELSE 0 END), 0) AS new_tickets,
            COALESCE(SUM(CASE WHEN p.name = 'Urgent' AND s.name != 'Closed' THEN 1 ELSE 0 END), 0) AS urgent
        FROM tickets t
        LEFT JOIN statuses s ON t.status_id = s.id
        LEFT JOIN priorities p ON t.priority_id = p.id`

	var stats domain.TicketStats
	err := r.db.QueryRow(ctx, query).Scan(
		&stats.Total,
		&stats.Open,
		&stats.Closed,
		&stats.Unassigned,
		&stats.New,
		&stats.UrgentOpen,
	)
	return stats, err
}

func (r *ticketRepository) DeleteByCreator(ctx context.Context, creatorID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM tickets WHERE creator_id=$1`, creatorID)
	return err
}

func (r *ticketRepository) ClearAssignee(ctx context.Context, assigneeID string) error {
	_, err := r.db.Exec(ctx, `UPDATE tickets SET assignee_id=NULL WHERE assignee_id=$1`, assigneeID)
	return err
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.Title,
			&ticket.Description,
			&ticket.CreatorID,
			&ticket.AssigneeID,
			&ticket.PriorityID,
			&ticket.StatusID,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
