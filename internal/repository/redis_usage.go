package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisUsageRepo tracks per-caller daily operation counts and notional volume
// for the policy engine. Keys expire two days after their UTC date.
type RedisUsageRepo struct {
	client *redis.Client
	prefix string
}

func NewRedisUsageRepo(client *redis.Client) *RedisUsageRepo {
	return &RedisUsageRepo{
		client: client,
		prefix: "usage",
	}
}

func (r *RedisUsageRepo) GetDailyUsage(ctx context.Context, caller string) (int, uint64, error) {
	key := r.makeKey(caller)
	ops, err := r.client.HGet(ctx, key, "ops").Int()
	if err != nil && err != redis.Nil {
		return 0, 0, err
	}
	volume, err := r.client.HGet(ctx, key, "volume").Uint64()
	if err != nil && err != redis.Nil {
		return 0, 0, err
	}
	return ops, volume, nil
}

func (r *RedisUsageRepo) AddDailyUsage(ctx context.Context, caller string, ops int, volume uint64) error {
	key := r.makeKey(caller)
	pipe := r.client.TxPipeline()
	if ops != 0 {
		pipe.HIncrBy(ctx, key, "ops", int64(ops))
	}
	if volume != 0 {
		pipe.HIncrBy(ctx, key, "volume", int64(volume))
	}
	pipe.Expire(ctx, key, 48*time.Hour)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisUsageRepo) makeKey(caller string) string {
	date := time.Now().UTC().Format("2006-01-02")
	return fmt.Sprintf("%s:%s:%s", r.prefix, caller, date)
}
