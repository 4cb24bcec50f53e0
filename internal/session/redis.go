package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisStore persists session snapshots in Redis with a rolling TTL so
// abandoned table sessions expire on their own.
type RedisStore struct {
	Client *redis.Client
	TTL    time.Duration
}

func (r *RedisStore) ttl() time.Duration {
	if r == nil || r.TTL <= 0 {
		return 12 * time.Hour
	}
	return r.TTL
}

// Save implements Store.
func (r *RedisStore) Save(ctx context.Context, key string, v any) error {
	if r == nil || r.Client == nil {
		return errors.New("session: redis store not configured")
	}
	data, err := marshal(v)
	if err != nil {
		return fmt.Errorf("session: marshal %s: %w", key, err)
	}
	if err := r.Client.Set(ctx, key, data, r.ttl()).Err(); err != nil {
		return fmt.Errorf("session: save %s: %w", key, err)
	}
	return nil
}

// Load implements Store.
func (r *RedisStore) Load(ctx context.Context, key string, dest any) (bool, error) {
	if r == nil || r.Client == nil {
		return false, errors.New("session: redis store not configured")
	}
	data, err := r.Client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("session: load %s: %w", key, err)
	}
	if err := unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("session: decode %s: %w", key, err)
	}
	return true, nil
}

// Delete implements Store.
func (r *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if r == nil || r.Client == nil {
		return errors.New("session: redis store not configured")
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.Client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("session: delete: %w", err)
	}
	return nil
}

func marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func unmarshal(data []byte, dest any) error {
	return json.Unmarshal(data, dest)
}
