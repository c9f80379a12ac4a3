package policy

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore is the shared WindowStore for multi-replica deployments.
// Each tenant's window is a sorted set scored by event time in
// milliseconds; keys expire one window after the last mutation so idle
// tenants cost nothing.
type RedisStore struct {
	client *redis.Client
	prefix string
	window time.Duration
}

// NewRedisStore creates a new RedisStore instance
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "mutations"
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
		window: mutationWindow,
	}
}

// Record appends a mutation event for the tenant
func (s *RedisStore) Record(ctx context.Context, tenantID string, at time.Time) error {
	key := s.key(tenantID)

	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(at.UnixMilli()),
		Member: uuid.NewString(),
	})
	pipe.Expire(ctx, key, s.window+time.Minute)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record mutation event: %w", err)
	}
	return nil
}

// Count returns how many events fall inside [from, to], pruning expired
// members on the way
func (s *RedisStore) Count(ctx context.Context, tenantID string, from, to time.Time) (int, error) {
	key := s.key(tenantID)

	if err := s.client.ZRemRangeByScore(ctx, key, "-inf", fmt.Sprintf("(%d", from.UnixMilli())).Err(); err != nil {
		return 0, fmt.Errorf("failed to prune mutation window: %w", err)
	}

	count, err := s.client.ZCount(ctx, key, fmt.Sprintf("%d", from.UnixMilli()), fmt.Sprintf("%d", to.UnixMilli())).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count mutation window: %w", err)
	}

	return int(count), nil
}

func (s *RedisStore) key(tenantID string) string {
	return s.prefix + ":" + tenantID
}
