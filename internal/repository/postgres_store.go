package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of pgx operations shared by *pgxpool.Pool and
// pgx.Tx, letting the same repository code run inside and outside a
// transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store on a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
	db   Querier
}

// NewPostgresStore builds the store over a connection pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, db: pool}
}

func (s *PostgresStore) Users() UserRepository       { return &userRepository{db: s.db} }
func (s *PostgresStore) Catalog() CatalogRepository  { return &catalogRepository{db: s.db} }
func (s *PostgresStore) Tickets() TicketRepository   { return &ticketRepository{db: s.db} }
func (s *PostgresStore) Comments() CommentRepository { return &commentRepository{db: s.db} }

// WithinTx runs fn against a transaction-scoped store. The transaction
// commits only when fn returns nil; any error rolls back every write.
// Nested calls reuse the enclosing transaction.
func (s *PostgresStore) WithinTx(ctx context.Context, fn func(Store) error) error {
	if s.pool == nil {
		return fn(s)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	txStore := &PostgresStore{db: tx}
	if err := fn(txStore); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
