// Package idempotency remembers responses by client-supplied Idempotency-Key so a retried
// request replays the first answer instead of repeating its side effects.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL is how long a stored response stays replayable.
const DefaultTTL = 24 * time.Hour

type Store interface {
	// Lookup returns the stored response for key; found is false when none is stored.
	Lookup(ctx context.Context, operation, key string) (value []byte, found bool, err error)
	Save(ctx context.Context, operation, key string, value []byte) error
	Ping(ctx context.Context) error
}

type redisStore struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
}

// NewRedis returns a Store keyed as "<namespace>:<operation>:<key>".
func NewRedis(addr, namespace string) Store {
	return &redisStore{
		client:    redis.NewClient(&redis.Options{Addr: addr}),
		namespace: namespace,
		ttl:       DefaultTTL,
	}
}

func (r *redisStore) Lookup(ctx context.Context, operation, key string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, r.key(operation, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("idempotency lookup: %w", err)
	}
	return val, true, nil
}

func (r *redisStore) Save(ctx context.Context, operation, key string, value []byte) error {
	if err := r.client.Set(ctx, r.key(operation, key), value, r.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency save: %w", err)
	}
	return nil
}

func (r *redisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *redisStore) key(operation, key string) string {
	return GenerateKey(r.namespace, operation, key)
}

func GenerateKey(namespace, operation, key string) string {
	return fmt.Sprintf("%s:%s:%s", namespace, operation, key)
}
