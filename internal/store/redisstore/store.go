package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Store struct {
	rdb *redis.Client
}

func New(addr, password string, db int) *Store {
	return &Store{rdb: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

func streamLockKey(conversationID uint64) string {
	return fmt.Sprintf("hati:stream-lock:%d", conversationID)
}

// AcquireStreamLock takes the per-conversation advisory lock guarding one
// active relay per conversation. Returns false when another stream holds
// it; the TTL bounds the hold time if a release is ever missed.
func (s *Store) AcquireStreamLock(ctx context.Context, conversationID uint64, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return s.rdb.SetNX(ctx, streamLockKey(conversationID), 1, ttl).Result()
}

func (s *Store) ReleaseStreamLock(ctx context.Context, conversationID uint64) error {
	return s.rdb.Del(ctx, streamLockKey(conversationID)).Err()
}
