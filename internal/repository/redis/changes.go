package redis

import (
	"context"
	"encoding/json"

	"github.com/kirinyoku/tix-storefront/internal/repository"
	"github.com/redis/go-redis/v9"
)

// Subscribe listens on the changes channel until ctx is done.
func (s *Store) Subscribe(ctx context.Context, handler func(ctx context.Context, c repository.Change)) error {
	sub := s.rdb.Subscribe(ctx, s.channel)
	defer sub.Close()

	ch := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return repository.ErrFeedClosed
			}
			if c, ok := decodeChange(m.Payload); ok {
				handler(ctx, c)
			}
		}
	}
}

// decodeChange skips payloads that are not a change of some key.
func decodeChange(payload string) (repository.Change, bool) {
	var c repository.Change
	if err := json.Unmarshal([]byte(payload), &c); err != nil || c.Key == "" {
		return repository.Change{}, false
	}
	return c, true
}
