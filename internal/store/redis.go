package store

import (
	"context"
	errs "errors"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/eliaskord/storyloom/internal/session"
)

var _ session.KV = (*RedisKV)(nil)

// RedisKV is the redis-backed alternative to GormKV, selected with
// CACHE_BACKEND=redis. Keys carry a namespace prefix so the client can share
// an instance with other tools.
type RedisKV struct {
	client *redis.Client
	prefix string
}

func NewRedisKV(client *redis.Client) *RedisKV {
	return &RedisKV{client: client, prefix: "storyloom:"}
}

func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errs.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "redis get %s", key)
	}
	return raw, true, nil
}

func (r *RedisKV) Set(ctx context.Context, key string, value []byte) error {
	// TTL semantics live in the session layer; entries here never expire on
	// their own.
	err := r.client.Set(ctx, r.prefix+key, value, 0).Err()
	return errors.Wrapf(err, "redis set %s", key)
}

func (r *RedisKV) Delete(ctx context.Context, key string) error {
	err := r.client.Del(ctx, r.prefix+key).Err()
	return errors.Wrapf(err, "redis delete %s", key)
}
