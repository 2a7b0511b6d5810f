// Package pgtx runs short Postgres transactions and retries the ones the
// server aborted because of a serialization failure or a deadlock.
package pgtx

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx, so repositories can run
// either standalone or inside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Runner executes a function inside a transaction.
type Runner struct {
	pool       *pgxpool.Pool
	isoLevel   pgx.TxIsoLevel
	maxRetries uint
	onRetry    func(err error)
}

type Option func(*Runner)

// WithIsoLevel overrides the default read committed isolation.
func WithIsoLevel(level pgx.TxIsoLevel) Option {
	return func(r *Runner) { r.isoLevel = level }
}

// WithMaxRetries bounds how many times an aborted transaction is replayed.
func WithMaxRetries(n uint) Option {
	return func(r *Runner) { r.maxRetries = n }
}

// WithRetryObserver is called once per replayed attempt.
func WithRetryObserver(fn func(err error)) Option {
	return func(r *Runner) { r.onRetry = fn }
}

func NewRunner(pool *pgxpool.Pool, opts ...Option) *Runner {
	r := &Runner{
		pool:       pool,
		isoLevel:   pgx.ReadCommitted,
		maxRetries: 3,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// InTx runs body in a transaction. The transaction commits only if body
// returns nil; otherwise it is rolled back and nothing body wrote is kept.
// body may be invoked more than once, so it must not have side effects
// outside the transaction.
func (r *Runner) InTx(ctx context.Context, body func(ctx context.Context, tx pgx.Tx) error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxInterval = 250 * time.Millisecond

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := r.execTx(ctx, body)
		if err == nil {
			return struct{}{}, nil
		}
		if !IsRetryable(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		log.WithError(err).Warn("transaction aborted by server, retrying")
		if r.onRetry != nil {
			r.onRetry(err)
		}
		return struct{}{}, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(r.maxRetries+1))
	return err
}

func (r *Runner) execTx(ctx context.Context, body func(ctx context.Context, tx pgx.Tx) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: r.isoLevel})
	if err != nil {
		return err
	}

	// Rollback after a successful commit is a no-op returning ErrTxClosed.
	defer func() {
		err := tx.Rollback(context.WithoutCancel(ctx))
		switch {
		case errors.Is(err, pgx.ErrTxClosed):
			return
		case err != nil:
			log.WithError(err).Error("unable to rollback db tx")
		}
	}()

	if err := body(ctx, tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// IsRetryable reports whether Postgres aborted the transaction in a way that
// is safe to replay from the start.
func IsRetryable(err error) bool {
	return hasCode(err, codeSerializationFailure) || hasCode(err, codeDeadlockDetected)
}

func IsUniqueViolation(err error) bool {
	return hasCode(err, codeUniqueViolation)
}

func IsForeignKeyViolation(err error) bool {
	return hasCode(err, codeForeignKeyViolation)
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
