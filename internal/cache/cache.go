// Package cache is a read-through JSON cache over redis. A nil client turns
// every call into a miss or a no-op so callers never branch on it.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Store[T any] struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
	log    *zap.Logger
}

func New[T any](rdb *redis.Client, prefix string, ttl time.Duration, log *zap.Logger) *Store[T] {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store[T]{rdb: rdb, prefix: prefix, ttl: ttl, log: log}
}

// Get returns the cached value. Redis or decode failures count as a miss.
func (s *Store[T]) Get(ctx context.Context, key string) (T, bool) {
	var v T
	if s.rdb == nil {
		return v, false
	}
	raw, err := s.rdb.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return v, false
	}
	if err != nil {
		s.log.Warn("cache get failed", zap.String("key", s.prefix+key), zap.Error(err))
		return v, false
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		s.log.Warn("cache entry unreadable", zap.String("key", s.prefix+key), zap.Error(err))
		return v, false
	}
	return v, true
}

func (s *Store[T]) Set(ctx context.Context, key string, v T) {
	if s.rdb == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		s.log.Warn("cache encode failed", zap.String("key", s.prefix+key), zap.Error(err))
		return
	}
	if err := s.rdb.Set(ctx, s.prefix+key, raw, s.ttl).Err(); err != nil {
		s.log.Warn("cache set failed", zap.String("key", s.prefix+key), zap.Error(err))
	}
}

func (s *Store[T]) Delete(ctx context.Context, keys ...string) {
	if s.rdb == nil || len(keys) == 0 {
		return
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.prefix + k
	}
	if err := s.rdb.Del(ctx, full...).Err(); err != nil {
		s.log.Warn("cache delete failed", zap.Strings("keys", full), zap.Error(err))
	}
}
