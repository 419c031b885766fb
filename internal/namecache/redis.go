package namecache

import (
	"context"
	"errors"

	"github.com/go-redis/redis/v8"
)

// Redis Redis 实现，每个市场一个 hash
type Redis struct {
	client *redis.Client
	prefix string
}

func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(market string) string {
	return r.prefix + market
}

func (r *Redis) Get(ctx context.Context, market, code string) (string, bool, error) {
	name, err := r.client.HGet(ctx, r.key(market), code).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return name, true, nil
}

func (r *Redis) Put(ctx context.Context, market, code, name string) error {
	return r.client.HSet(ctx, r.key(market), code, name).Err()
}
