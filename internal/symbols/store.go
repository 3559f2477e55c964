package symbols

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/redis/go-redis/v9"
)

const DefaultRedisKey = "symbols:usdt"

// Store holds the tradable symbol set.
type Store interface {
	Replace(ctx context.Context, symbols []string) error
	Members(ctx context.Context) ([]string, error)
	Has(ctx context.Context, symbol string) (bool, error)
}

type MemoryStore struct {
	mu  sync.RWMutex
	set map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{set: map[string]struct{}{}}
}

func (s *MemoryStore) Replace(_ context.Context, symbols []string) error {
	next := make(map[string]struct{}, len(symbols))
	for _, sym := range symbols {
		next[sym] = struct{}{}
	}
	s.mu.Lock()
	s.set = next
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Members(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.set))
	for sym := range s.set {
		out = append(out, sym)
	}
	slices.Sort(out)
	return out, nil
}

func (s *MemoryStore) Has(_ context.Context, symbol string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.set[symbol]
	return ok, nil
}

// RedisStore keeps the set under one redis key so several bot replicas share it.
type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Replace(ctx context.Context, symbols []string) error {
	members := make([]any, len(symbols))
	for i, sym := range symbols {
		members[i] = sym
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		if len(members) > 0 {
			pipe.SAdd(ctx, s.key, members...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace %s: %w", s.key, err)
	}
	return nil
}

func (s *RedisStore) Members(ctx context.Context) ([]string, error) {
	out, err := s.client.SMembers(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.key, err)
	}
	slices.Sort(out)
	return out, nil
}

func (s *RedisStore) Has(ctx context.Context, symbol string) (bool, error) {
	ok, err := s.client.SIsMember(ctx, s.key, symbol).Result()
	if err != nil {
		return false, fmt.Errorf("check %s in %s: %w", symbol, s.key, err)
	}
	return ok, nil
}
