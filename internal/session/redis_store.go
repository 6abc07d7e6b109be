package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	redisClient "feedbackbot/internal/platform/redis"
)

type RedisStore struct {
	client *redisClient.Client
	ttl    time.Duration
}

func NewRedisStore(client *redisClient.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) Load(ctx context.Context, id string) (*State, error) {
	raw, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redisv9.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session failed: %w", err)
	}

	var state State
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("unmarshal session state failed: %w", err)
	}
	return &state, nil
}

func (r *RedisStore) Save(ctx context.Context, id string, state *State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal session state failed: %w", err)
	}
	if err := r.client.Set(ctx, r.key(id), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session failed: %w", err)
	}
	return nil
}

func (r *RedisStore) key(id string) string {
	return r.client.Key("session", id)
}
