package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"feedbackbot/internal/config"
)

// Client is a go-redis client whose keys live under the configured prefix.
type Client struct {
	*redis.Client
	prefix string
}

func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s failed: %w", cfg.Addr, err)
	}

	return Wrap(client, cfg.KeyPrefix), nil
}

// Wrap binds an existing client to a key prefix.
func Wrap(client *redis.Client, prefix string) *Client {
	return &Client{Client: client, prefix: strings.TrimSuffix(prefix, ":")}
}

// Key joins parts with ':' under the client's prefix.
func (c *Client) Key(parts ...string) string {
	key := strings.Join(parts, ":")
	if c.prefix == "" {
		return key
	}
	return c.prefix + ":" + key
}
