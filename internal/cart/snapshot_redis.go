package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	pkgredis "github.com/angelmondragon/payflow-checkout/pkg/redis"
)

type redisKV interface {
	Key(parts ...string) string
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// RedisSnapshotStore keeps cart snapshots in redis, one key per session.
type RedisSnapshotStore struct {
	client redisKV
	ttl    time.Duration
}

// NewRedisSnapshotStore builds the redis-backed store. A zero ttl keeps snapshots forever.
func NewRedisSnapshotStore(client redisKV, ttl time.Duration) (*RedisSnapshotStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &RedisSnapshotStore{client: client, ttl: ttl}, nil
}

func (r *RedisSnapshotStore) Load(ctx context.Context, key string) ([]byte, error) {
	payload, err := r.client.Get(ctx, r.client.Key(key))
	if errors.Is(err, pkgredis.ErrNil) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("redis get snapshot: %w", err)
	}
	return payload, nil
}

func (r *RedisSnapshotStore) Save(ctx context.Context, key string, payload []byte) error {
	if err := r.client.Set(ctx, r.client.Key(key), string(payload), r.ttl); err != nil {
		return fmt.Errorf("redis set snapshot: %w", err)
	}
	return nil
}

func (r *RedisSnapshotStore) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.client.Key(key)); err != nil {
		return fmt.Errorf("redis del snapshot: %w", err)
	}
	return nil
}
