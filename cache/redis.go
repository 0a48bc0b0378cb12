package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis creates a redis client and verifies it with a ping
func ConnectRedis(addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return rdb, nil
}

// ClaimLimiter gates the global bonus claim to once per cooldown period.
// The reservation is a SET NX with the cooldown as TTL; when the key
// already exists the claim is denied.
type ClaimLimiter struct {
	rdb      *redis.Client
	cooldown time.Duration
}

// NewClaimLimiter creates a redis-backed claim limiter
func NewClaimLimiter(rdb *redis.Client, cooldown time.Duration) *ClaimLimiter {
	return &ClaimLimiter{
		rdb:      rdb,
		cooldown: cooldown,
	}
}

// Allow reserves the claim slot for the account. Returns false when the
// account already claimed within the cooldown period.
func (l *ClaimLimiter) Allow(ctx context.Context, accountID int64) (bool, error) {
	key := fmt.Sprintf("betbook:global-claim:%d", accountID)

	ok, err := l.rdb.SetNX(ctx, key, time.Now().Unix(), l.cooldown).Result()
	if err != nil {
		return false, fmt.Errorf("failed to reserve claim slot: %w", err)
	}

	return ok, nil
}

// Release frees a reserved slot, used when the claim itself failed after
// the reservation succeeded
func (l *ClaimLimiter) Release(ctx context.Context, accountID int64) error {
	key := fmt.Sprintf("betbook:global-claim:%d", accountID)
	return l.rdb.Del(ctx, key).Err()
}

// NoopLimiter allows every claim. Used when no redis address is
// configured, for local development.
type NoopLimiter struct{}

// Allow always reports true
func (NoopLimiter) Allow(ctx context.Context, accountID int64) (bool, error) {
	return true, nil
}

// Release has nothing to free
func (NoopLimiter) Release(ctx context.Context, accountID int64) error {
	return nil
}
