// Package postgres implements the domain repositories on PostgreSQL.
//
// Repositories share one pool. A repository handed to a WithTx callback is
// bound to that transaction; row locks taken through it (SELECT ... FOR
// UPDATE) are held until the callback returns.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Togather-Foundation/meetups/internal/domain/errs"
	"github.com/Togather-Foundation/meetups/internal/metrics"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("postgres store: pool is nil")
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Users() *UserRepository          { return &UserRepository{conn{pool: s.pool}} }
func (s *Store) Categories() *CategoryRepository { return &CategoryRepository{conn{pool: s.pool}} }
func (s *Store) Events() *EventRepository        { return &EventRepository{conn{pool: s.pool}} }
func (s *Store) Requests() *RequestRepository    { return &RequestRepository{conn{pool: s.pool}} }
func (s *Store) Comments() *CommentRepository    { return &CommentRepository{conn{pool: s.pool}} }
func (s *Store) Compilations() *CompilationRepository {
	return &CompilationRepository{conn{pool: s.pool}}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// conn routes queries to the open transaction, or to the pool outside one.
type conn struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

func (c conn) queryer() queryer {
	if c.tx != nil {
		return c.tx
	}
	return c.pool
}

// inTx runs fn in a transaction, joining the current one if there is one.
func (c conn) inTx(ctx context.Context, fn func(tx conn) error) (err error) {
	if c.tx != nil {
		return fn(c)
	}

	start := time.Now()
	defer func() { metrics.ObserveTx(start, err) }()

	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(conn{pool: c.pool, tx: tx}); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return fmt.Errorf("rollback after error %v: %w", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (c conn) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var ok bool
	if err := c.queryer().QueryRow(ctx, query, args...).Scan(&ok); err != nil {
		return false, fmt.Errorf("exists: %w", err)
	}
	return ok, nil
}

func (c conn) userExists(ctx context.Context, id int64) (bool, error) {
	return c.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id)
}

// translate maps constraint violations onto the domain taxonomy.
func translate(err error, conflict string, args ...any) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation, codeForeignKeyViolation, codeCheckViolation:
			return errs.Conflict(conflict, args...)
		}
	}
	return err
}

func notFoundOr(err error, format string, args ...any) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return errs.NotFound(format, args...)
	}
	return err
}
