package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/ticketflow/helpdesk/internal/domain"
)

type catalogRepository struct {
	db Querier
}

func (r *catalogRepository) ListPriorities(ctx context.Context) ([]domain.Priority, error) {
	const query = `SELECT id, name, level, color FROM priorities ORDER BY level ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Priority
	for rows.Next() {
		var p domain.Priority
		if err := rows.Scan(&p.ID, &p.Name, &p.Level, &p.Color); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (r *catalogRepository) ListStatuses(ctx context.Context) ([]domain.Status, error) {
	const query = `SELECT id, name, color FROM statuses ORDER BY id`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Status
	for rows.Next() {
		var s domain.Status
		if err := rows.Scan(&s.ID, &s.Name, &s.Color); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func (r *catalogRepository) GetPriority(ctx context.Context, id string) (*domain.Priority, error) {
	var p domain.Priority
	err := r.db.QueryRow(ctx, `SELECT id, name, level, color FROM priorities WHERE id=$1`, id).
		Scan(&p.ID, &p.Name, &p.Level, &p.Color)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *catalogRepository) GetStatus(ctx context.Context, id string) (*domain.Status, error) {
	return r.fetchStatus(ctx, `SELECT id, name, color FROM statuses WHERE id=$1`, id)
}

func (r *catalogRepository) GetStatusByName(ctx context.Context, name string) (*domain.Status, error) {
	return r.fetchStatus(ctx, `SELECT id, name, color FROM statuses WHERE name=$1`, name)
}

func (r *catalogRepository) fetchStatus(ctx context.Context, query string, arg any) (*domain.Status, error) {
	var s domain.Status
	if err := r.db.QueryRow(ctx, query, arg).Scan(&s.ID, &s.Name, &s.Color); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}
