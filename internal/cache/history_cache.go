package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"feedbackbot/internal/model"
	redisClient "feedbackbot/internal/platform/redis"
)

// HistoryCache caches history pages and stats under a version number.
// MarkDirty bumps the version, orphaning every cached entry, and sets a
// short-lived marker during which readers should skip the cache because a
// queued write may not have reached the database yet.
type HistoryCache struct {
	client         *redisClient.Client
	historyTTL     time.Duration
	dirtyMarkerTTL time.Duration

	versionKey string
	dirtyKey   string
	statsKey   string
}

func NewHistoryCache(client *redisClient.Client, historyTTL, dirtyMarkerTTL time.Duration) *HistoryCache {
	if historyTTL <= 0 {
		historyTTL = 60 * time.Second
	}
	if dirtyMarkerTTL <= 0 {
		dirtyMarkerTTL = 5 * time.Second
	}
	return &HistoryCache{
		client:         client,
		historyTTL:     historyTTL,
		dirtyMarkerTTL: dirtyMarkerTTL,
		versionKey:     client.Key("history", "version"),
		dirtyKey:       client.Key("history", "dirty"),
		statsKey:       client.Key("history", "stats"),
	}
}

func (c *HistoryCache) GetPage(ctx context.Context, limit, offset int) (*model.FeedbackPage, bool, error) {
	key, err := c.pageKey(ctx, limit, offset)
	if err != nil {
		return nil, false, err
	}
	var page model.FeedbackPage
	ok, err := c.get(ctx, key, &page)
	if !ok || err != nil {
		return nil, false, err
	}
	return &page, true, nil
}

func (c *HistoryCache) SetPage(ctx context.Context, limit, offset int, page *model.FeedbackPage) error {
	key, err := c.pageKey(ctx, limit, offset)
	if err != nil {
		return err
	}
	return c.set(ctx, key, page)
}

func (c *HistoryCache) GetStats(ctx context.Context) (*model.FeedbackStats, bool, error) {
	key, err := c.versioned(ctx, c.statsKey)
	if err != nil {
		return nil, false, err
	}
	var stats model.FeedbackStats
	ok, err := c.get(ctx, key, &stats)
	if !ok || err != nil {
		return nil, false, err
	}
	return &stats, true, nil
}

func (c *HistoryCache) SetStats(ctx context.Context, stats *model.FeedbackStats) error {
	key, err := c.versioned(ctx, c.statsKey)
	if err != nil {
		return err
	}
	return c.set(ctx, key, stats)
}

func (c *HistoryCache) MarkDirty(ctx context.Context) error {
	pipe := c.client.TxPipeline()
	pipe.Incr(ctx, c.versionKey)
	pipe.Set(ctx, c.dirtyKey, "1", c.dirtyMarkerTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis set dirty marker failed: %w", err)
	}
	return nil
}

func (c *HistoryCache) IsDirty(ctx context.Context) (bool, error) {
	exists, err := c.client.Exists(ctx, c.dirtyKey).Result()
	if err != nil {
		return false, fmt.Errorf("redis check dirty marker failed: %w", err)
	}
	return exists > 0, nil
}

func (c *HistoryCache) get(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redisv9.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get history failed: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("unmarshal cached history failed: %w", err)
	}
	return true, nil
}

func (c *HistoryCache) set(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal history cache failed: %w", err)
	}
	if err := c.client.Set(ctx, key, payload, c.historyTTL).Err(); err != nil {
		return fmt.Errorf("redis set history failed: %w", err)
	}
	return nil
}

func (c *HistoryCache) pageKey(ctx context.Context, limit, offset int) (string, error) {
	return c.versioned(ctx, c.client.Key("history", "page", strconv.Itoa(limit), strconv.Itoa(offset)))
}

func (c *HistoryCache) versioned(ctx context.Context, base string) (string, error) {
	version, err := c.client.Get(ctx, c.versionKey).Int64()
	if err != nil && !errors.Is(err, redisv9.Nil) {
		return "", fmt.Errorf("redis get history version failed: %w", err)
	}
	return fmt.Sprintf("%s:v%d", base, version), nil
}
