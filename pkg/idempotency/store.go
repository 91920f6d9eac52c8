package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store remembers applied messages for a bounded window so duplicate
// deliveries can be skipped cheaply. Checking and marking are separate:
// consumers mark a key only after the handler succeeds, so a failed handler's
// republished copy is never mistaken for a duplicate. Handlers stay
// idempotent regardless; this only cuts the redundant work.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func (s *Store) Key(topic string, partition int, offset int64) string {
	return fmt.Sprintf("idem:%s:%d:%d", topic, partition, offset)
}

func (s *Store) EventKey(topic, eventID string) string {
	return fmt.Sprintf("idem:%s:evt:%s", topic, eventID)
}

// Seen reports whether the key has been marked. It never claims the key.
func (s *Store) Seen(ctx context.Context, key string) (bool, error) {
	n, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Mark records the key for the dedup window.
func (s *Store) Mark(ctx context.Context, key string) error {
	return s.rdb.Set(ctx, key, "1", s.ttl).Err()
}
