package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const notifyChannel = "storefront_changes"

const (
	txAttempts = 3
	txBackoff  = 25 * time.Millisecond
)

const schema = `
CREATE TABLE IF NOT EXISTS storefront_kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS storefront_locks (
	key        TEXT PRIMARY KEY,
	expires_at TIMESTAMPTZ NOT NULL
);`

// Store keeps storefront collections in a single key/value table.
type Store struct {
	pool    *pgxpool.Pool
	channel string
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:    pool,
		channel: notifyChannel,
	}
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	const op = "postgres.Store.EnsureSchema"

	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return wrapDBErr(op, err)
	}
	return nil
}

// RunTx runs fn in a transaction. A serialization failure or deadlock
// reruns the whole transaction, up to txAttempts times.
func (s *Store) RunTx(
	ctx context.Context,
	opts *pgx.TxOptions,
	fn func(ctx context.Context, tx DB) error,
) error {
	txOpts := pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	}

	if opts != nil {
		txOpts = *opts
	}

	return retryTx(ctx, txAttempts, txBackoff, func() error {
		return s.runTx(ctx, txOpts, fn)
	})
}

func (s *Store) runTx(ctx context.Context, txOpts pgx.TxOptions, fn func(ctx context.Context, tx DB) error) error {
	tx, err := s.pool.BeginTx(ctx, txOpts)
	if err != nil {
		return err
	}

	defer tx.Rollback(ctx)

	if err := fn(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

// retryTx calls attempt until it succeeds, fails with an error IsRetryable
// rejects, or has been called attempts times. The wait grows linearly.
func retryTx(ctx context.Context, attempts int, backoff time.Duration, attempt func() error) error {
	for i := 1; ; i++ {
		err := attempt()
		if err == nil || !IsRetryable(err) || i >= attempts {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff * time.Duration(i)):
		}
	}
}
