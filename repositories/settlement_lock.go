package repositories

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisSettlementLock drops duplicate settlement deliveries with a SETNX
// key per (transaction, status). The TTL only needs to cover the redelivery
// window of the trigger; the conditional Mongo write is the durable guard.
type RedisSettlementLock struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSettlementLock(client *redis.Client) *RedisSettlementLock {
	return &RedisSettlementLock{
		client: client,
		ttl:    2 * time.Minute,
	}
}

func (l *RedisSettlementLock) Acquire(ctx context.Context, key string) (bool, error) {
	return l.client.SetNX(ctx, key, 1, l.ttl).Result()
}
