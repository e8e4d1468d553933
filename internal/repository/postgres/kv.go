package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/kirinyoku/tix-storefront/internal/repository"
)

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	const op = "postgres.Store.Get"

	var v string
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM storefront_kv WHERE key = $1`,
		key,
	).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}

	if err != nil {
		return "", false, wrapDBErr(op, err)
	}

	return v, true, nil
}

// Set upserts the value and notifies listeners in the same transaction, so
// a notification is only delivered for a committed write.
func (s *Store) Set(ctx context.Context, key string, val string) error {
	const op = "postgres.Store.Set"

	err := s.RunTx(ctx, nil, func(ctx context.Context, tx DB) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO storefront_kv (key, value, updated_at)
			 VALUES ($1, $2, now())
			 ON CONFLICT (key) DO UPDATE
			 SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
			key, val,
		); err != nil {
			return err
		}

		return s.notify(ctx, tx, repository.NewChange(key, false))
	})

	return wrapDBErr(op, err)
}

func (s *Store) Del(ctx context.Context, keys ...string) error {
	const op = "postgres.Store.Del"

	if len(keys) == 0 {
		return nil
	}

	err := s.RunTx(ctx, nil, func(ctx context.Context, tx DB) error {
		rows, err := tx.Query(ctx,
			`DELETE FROM storefront_kv WHERE key = ANY($1) RETURNING key`,
			keys,
		)
		if err != nil {
			return err
		}

		removed, err := pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return err
		}

		for _, k := range removed {
			if err := s.notify(ctx, tx, repository.NewChange(k, true)); err != nil {
				return err
			}
		}
		return nil
	})

	return wrapDBErr(op, err)
}

func (s *Store) notify(ctx context.Context, tx DB, c repository.Change) error {
	b, err := json.Marshal(c)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `SELECT pg_notify($1, $2)`, s.channel, string(b))
	return err
}

// Subscribe holds one pooled connection in LISTEN mode until ctx is done.
func (s *Store) Subscribe(ctx context.Context, handler func(ctx context.Context, c repository.Change)) error {
	const op = "postgres.Store.Subscribe"

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return wrapDBErr(op, err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{s.channel}.Sanitize()); err != nil {
		return wrapDBErr(op, err)
	}

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return wrapDBErr(op, err)
		}

		var c repository.Change
		if err := json.Unmarshal([]byte(n.Payload), &c); err == nil && c.Key != "" {
			handler(ctx, c)
		}
	}
}

func (s *Store) AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	const op = "postgres.Store.AcquireLock"

	var got string
	err := s.pool.QueryRow(ctx,
		`INSERT INTO storefront_locks (key, expires_at)
		 VALUES ($1, now() + $2::interval)
		 ON CONFLICT (key) DO UPDATE
		 SET expires_at = EXCLUDED.expires_at
		 WHERE storefront_locks.expires_at < now()
		 RETURNING key`,
		key, ttl,
	).Scan(&got)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}

	if err != nil {
		return false, wrapDBErr(op, err)
	}

	return true, nil
}

func (s *Store) Release(ctx context.Context, key string) error {
	const op = "postgres.Store.Release"

	if _, err := s.pool.Exec(ctx, `DELETE FROM storefront_locks WHERE key = $1`, key); err != nil {
		return wrapDBErr(op, err)
	}
	return nil
}
