// Package memory keeps the storefront collections in process memory. It
// backs tests and single-instance deployments.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/kirinyoku/tix-storefront/internal/repository"
)

type entry struct {
	val     string
	expires time.Time
}

type Store struct {
	mu   sync.RWMutex
	data map[string]string

	subMu sync.Mutex
	subs  map[int]chan repository.Change
	next  int

	lockMu sync.Mutex
	locks  map[string]entry
	now    func() time.Time
}

func New() *Store {
	return &Store{
		data:  make(map[string]string),
		subs:  make(map[int]chan repository.Change),
		locks: make(map[string]entry),
		now:   time.Now,
	}
}

func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	return v, ok, nil
}

func (s *Store) Set(_ context.Context, key string, val string) error {
	s.mu.Lock()
	s.data[key] = val
	s.mu.Unlock()

	s.publish(repository.NewChange(key, false))
	return nil
}

func (s *Store) Del(_ context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	var removed []string
	s.mu.Lock()
	for _, k := range keys {
		if _, ok := s.data[k]; ok {
			delete(s.data, k)
			removed = append(removed, k)
		}
	}
	s.mu.Unlock()

	for _, k := range removed {
		s.publish(repository.NewChange(k, true))
	}
	return nil
}

// Subscribe blocks until ctx is done, calling handler for every write.
func (s *Store) Subscribe(ctx context.Context, handler func(ctx context.Context, c repository.Change)) error {
	ch := make(chan repository.Change, 256)

	s.subMu.Lock()
	id := s.next
	s.next++
	s.subs[id] = ch
	s.subMu.Unlock()

	defer func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case c := <-ch:
			handler(ctx, c)
		}
	}
}

// publish drops the change for a subscriber whose buffer is full.
func (s *Store) publish(c repository.Change) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for _, ch := range s.subs {
		select {
		case ch <- c:
		default:
		}
	}
}

func (s *Store) AcquireLock(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()

	now := s.now()
	if l, ok := s.locks[key]; ok && now.Before(l.expires) {
		return false, nil
	}

	s.locks[key] = entry{val: "LOCK", expires: now.Add(ttl)}
	return true, nil
}

func (s *Store) Release(_ context.Context, key string) error {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()

	delete(s.locks, key)
	return nil
}

// Subscribers reports how many Subscribe calls are active.
func (s *Store) Subscribers() int {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	return len(s.subs)
}
