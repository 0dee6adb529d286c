package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Infrastructure errors. These always mean the transaction rolled back and
// the connection was returned to the pool; callers may retry once the pool
// reports healthy again.
var (
	ErrPoolExhausted = errors.New("connection pool exhausted")
	ErrConnectFailed = errors.New("failed to connect to database")
	ErrTxFailed      = errors.New("transaction failed")
)

// UnitOfWork is one business operation executed atomically inside a
// transaction. The tx is only valid for the duration of the call.
type UnitOfWork func(ctx context.Context, tx pgx.Tx) error

// WithinTx runs fn inside a transaction on a pooled connection.
//
// On success the transaction commits; on any error (data-layer, domain, or
// context cancellation) it rolls back. The connection is released on every
// exit path. Domain errors returned by fn propagate unchanged so callers can
// tell invalid input apart from database failure; raw data-layer errors are
// classified as infrastructure errors.
//
// Read-only units of work need no explicit write: the final commit is a no-op
// for them and still ends the transaction cleanly.
func WithinTx(ctx context.Context, pool *pgxpool.Pool, fn UnitOfWork) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return classifyAcquireError(err)
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrTxFailed, err)
	}
	// Rollback after a successful commit is a no-op.
	defer tx.Rollback(context.WithoutCancel(ctx))

	if err := fn(ctx, tx); err != nil {
		return classifyWorkError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrTxFailed, err)
	}

	return nil
}

// WithinTxResult is WithinTx for units of work that produce a value
func WithinTxResult[T any](ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context, tx pgx.Tx) (T, error)) (T, error) {
	var result T
	err := WithinTx(ctx, pool, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		result, err = fn(ctx, tx)
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

func classifyAcquireError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrPoolExhausted, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrConnectFailed, err)
}

// classifyWorkError separates data-layer failures from errors the unit of
// work raised deliberately. Anything that is not recognizably a database
// failure is assumed to be a domain error and passes through unchanged.
func classifyWorkError(err error) error {
	if errors.Is(err, ErrTxFailed) || errors.Is(err, ErrPoolExhausted) || errors.Is(err, ErrConnectFailed) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%w: %v", ErrTxFailed, err)
	}
	if errors.Is(err, pgx.ErrTxClosed) || errors.Is(err, pgx.ErrTxCommitRollback) {
		return fmt.Errorf("%w: %v", ErrTxFailed, err)
	}
	if pgconn.Timeout(err) {
		return fmt.Errorf("%w: %v", ErrTxFailed, err)
	}

	return err
}

// IsUniqueViolation reports whether err is a unique constraint violation
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
