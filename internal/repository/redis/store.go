package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kirinyoku/tix-storefront/internal/repository"
	"github.com/redis/go-redis/v9"
)

// Store keeps storefront collections as plain redis strings and announces
// every write on the changes channel.
type Store struct {
	rdb     *redis.Client
	channel string
	now     func() time.Time

	release  *redis.Script
	newToken func() string

	mu   sync.Mutex
	held map[string]string // lock key -> token
}

func New(client *redis.Client) *Store {
	return &Store{
		rdb:      client,
		channel:  repository.ChannelChanges(),
		now:      time.Now,
		release:  redis.NewScript(luaRelease),
		newToken: uuid.NewString,
		held:     make(map[string]string),
	}
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	const op = "redisrepo.Store.Get"

	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}

	if err != nil {
		return "", false, wrapErr(op, err)
	}

	return v, true, nil
}

func (s *Store) Set(ctx context.Context, key string, val string) error {
	const op = "redisrepo.Store.Set"

	if err := s.rdb.Set(ctx, key, val, 0).Err(); err != nil {
		return wrapErr(op, err)
	}

	s.publish(ctx, key, false)
	return nil
}

func (s *Store) Del(ctx context.Context, keys ...string) error {
	const op = "redisrepo.Store.Del"

	if len(keys) == 0 {
		return nil
	}

	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		return wrapErr(op, err)
	}

	for _, k := range keys {
		s.publish(ctx, k, true)
	}
	return nil
}

// publish is fire-and-forget; a lost notification only delays propagation
// until the next read.
func (s *Store) publish(ctx context.Context, key string, deleted bool) {
	c := repository.Change{Key: key, Deleted: deleted, TsUnix: s.now().Unix()}
	b, _ := json.Marshal(c)
	_ = s.rdb.Publish(ctx, s.channel, string(b)).Err()
}
