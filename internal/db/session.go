package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Session pins one pooled connection for the duration of an import run and
// exposes explicit batch boundaries. Between Begin and Commit all statements
// run inside the open transaction; committing a batch makes the rows imported
// so far durable even if the run later fails. Outside a batch, statements run
// directly on the connection.
type Session struct {
	conn *pgxpool.Conn
	tx   pgx.Tx
}

// NewSession acquires a connection from the pool. The caller must Close the
// session when the run ends.
func NewSession(ctx context.Context, pool *pgxpool.Pool) (*Session, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	return &Session{conn: conn}, nil
}

// Begin opens a new batch transaction.
func (s *Session) Begin(ctx context.Context) error {
	if s.tx != nil {
		return fmt.Errorf("batch transaction already open")
	}
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin batch: %w", err)
	}
	s.tx = tx
	return nil
}

// Commit makes the current batch durable.
func (s *Session) Commit(ctx context.Context) error {
	if s.tx == nil {
		return fmt.Errorf("no batch transaction open")
	}
	err := s.tx.Commit(ctx)
	s.tx = nil
	if err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// Rollback discards the current batch. Rows committed in earlier batches stay
// persisted.
func (s *Session) Rollback(ctx context.Context) error {
	if s.tx == nil {
		return nil
	}
	err := s.tx.Rollback(ctx)
	s.tx = nil
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback batch: %w", err)
	}
	return nil
}

// WithSavepoint runs fn inside a nested transaction when a batch is open. A
// failed statement aborts the whole surrounding transaction in Postgres, so
// per-row work must be fenced off this way for a bad row to leave the rest of
// the batch intact. Without an open batch fn runs directly.
func (s *Session) WithSavepoint(ctx context.Context, fn func(context.Context) error) error {
	if s.tx == nil {
		return fn(ctx)
	}

	outer := s.tx
	inner, err := outer.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to open savepoint: %w", err)
	}

	s.tx = inner
	err = fn(ctx)
	s.tx = outer

	if err != nil {
		_ = inner.Rollback(ctx)
		return err
	}
	if err := inner.Commit(ctx); err != nil {
		return fmt.Errorf("failed to release savepoint: %w", err)
	}
	return nil
}

// Close rolls back any open batch and returns the connection to the pool.
func (s *Session) Close(ctx context.Context) {
	_ = s.Rollback(ctx)
	if s.conn != nil {
		s.conn.Release()
		s.conn = nil
	}
}

// Exec implements DBTX against the open batch, or the bare connection when no
// batch is open.
func (s *Session) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if s.tx != nil {
		return s.tx.Exec(ctx, sql, args...)
	}
	return s.conn.Exec(ctx, sql, args...)
}

// Query implements DBTX.
func (s *Session) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if s.tx != nil {
		return s.tx.Query(ctx, sql, args...)
	}
	return s.conn.Query(ctx, sql, args...)
}

// QueryRow implements DBTX.
func (s *Session) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if s.tx != nil {
		return s.tx.QueryRow(ctx, sql, args...)
	}
	return s.conn.QueryRow(ctx, sql, args...)
}
