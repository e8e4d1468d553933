package redis

import (
	"context"
	"time"
)

// Deletes the lock only while it still holds this owner's token.
// KEYS[1] = lock key, ARGV[1] = token
const luaRelease = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0
`

func (s *Store) AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	const op = "redisrepo.Store.AcquireLock"

	token := s.newToken()
	ok, err := s.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return false, wrapErr(op, err)
	}

	if ok {
		s.mu.Lock()
		s.held[key] = token
		s.mu.Unlock()
	}
	return ok, nil
}

// Release drops a lock this store acquired. A lock that expired and was
// taken by someone else is left alone.
func (s *Store) Release(ctx context.Context, key string) error {
	const op = "redisrepo.Store.Release"

	s.mu.Lock()
	token, ok := s.held[key]
	delete(s.held, key)
	s.mu.Unlock()

	if !ok {
		return nil
	}

	if err := s.release.Run(ctx, s.rdb, []string{key}, token).Err(); err != nil {
		return wrapErr(op, err)
	}
	return nil
}
