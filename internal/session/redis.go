package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps one token under one redis key.
type RedisStore struct {
	rdb redis.Cmdable
	key string
	ttl time.Duration
}

// NewRedisStore returns a store for key. A zero ttl keeps the key until deleted.
func NewRedisStore(rdb redis.Cmdable, key string, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, key: key, ttl: ttl}
}

func (r *RedisStore) Load(ctx context.Context) (string, error) {
	tok, err := r.rdb.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return tok, err
}

func (r *RedisStore) Save(ctx context.Context, token string) error {
	return r.rdb.Set(ctx, r.key, token, r.ttl).Err()
}

func (r *RedisStore) Delete(ctx context.Context) error {
	return r.rdb.Del(ctx, r.key).Err()
}
