package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Store is the key-value persistence behind every storefront collection.
// Values are whole JSON documents; a write replaces the previous value.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, val string) error
	Del(ctx context.Context, keys ...string) error
}

// Change describes a single write observed on the store.
type Change struct {
	Key     string `json:"key"`
	Deleted bool   `json:"deleted"`
	TsUnix  int64  `json:"ts_unix"`
}

// ChangeFeed delivers store writes made by any writer, including other
// processes sharing the same backend. Delivery is best effort.
type ChangeFeed interface {
	Subscribe(ctx context.Context, handler func(ctx context.Context, c Change)) error
}

// Locker guards short critical sections such as an in-flight checkout.
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

func GetJSON[T any](ctx context.Context, s Store, key string) (T, bool, error) {
	var zero T

	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return zero, ok, err
	}

	var out T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return zero, false, fmt.Errorf("%s: %w", key, ErrCorrupt)
	}

	return out, true, nil
}

// GetJSONOr returns def when the key is absent.
func GetJSONOr[T any](ctx context.Context, s Store, key string, def T) (T, error) {
	v, ok, err := GetJSON[T](ctx, s, key)
	if err != nil {
		return def, err
	}
	if !ok {
		return def, nil
	}
	return v, nil
}

func SetJSON(ctx context.Context, s Store, key string, val any) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}

	return s.Set(ctx, key, string(b))
}

func NewChange(key string, deleted bool) Change {
	return Change{Key: key, Deleted: deleted, TsUnix: time.Now().Unix()}
}
