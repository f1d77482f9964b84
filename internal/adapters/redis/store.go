package redisad

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"angels_reviews/internal/adapters/observability"
)

// Store keeps blobs in Redis without a TTL; expiry is the reader's call.
type Store struct {
	c      *redis.Client
	prefix string
}

func New(addr, pass string, db int) *Store {
	return NewWithClient(redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}), "")
}

// NewWithClient wraps an existing client; prefix namespaces every key.
func NewWithClient(c *redis.Client, prefix string) *Store {
	return &Store{c: c, prefix: prefix}
}

func (r *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := r.c.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		observability.ObserveCache("redis", "miss")
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	observability.ObserveCache("redis", "hit")
	return v, true, nil
}

func (r *Store) Set(ctx context.Context, key string, blob []byte) error {
	observability.ObserveCache("redis", "set")
	return r.c.Set(ctx, r.prefix+key, blob, 0).Err()
}

func (r *Store) Del(ctx context.Context, key string) error {
	observability.ObserveCache("redis", "del")
	return r.c.Del(ctx, r.prefix+key).Err()
}

func (r *Store) Ping(ctx context.Context) error { return r.c.Ping(ctx).Err() }

func (r *Store) Close() error { return r.c.Close() }
