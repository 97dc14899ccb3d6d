package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"meetup-api/models"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix prefixes every cached event stats key.
const KeyPrefix = "event:stats:"

var ErrMiss = errors.New("cache: miss")

// Entry is the cached form of an event's counters.
type Entry struct {
	EventSlug string            `json:"event_slug"`
	Stats     models.EventStats `json:"stats"`
	CachedAt  time.Time         `json:"cached_at"`
}

type StatsCache struct {
	Redis *redis.Client
	TTL   time.Duration
	now   func() time.Time
}

func NewStatsCache(redisClient *redis.Client, ttl time.Duration) *StatsCache {
	return &StatsCache{Redis: redisClient, TTL: ttl, now: time.Now}
}

func Key(eventID string) string {
	return KeyPrefix + eventID
}

func (c *StatsCache) Get(ctx context.Context, eventID string) (*models.EventStats, error) {
	entry, err := c.GetEntry(ctx, Key(eventID))
	if err != nil {
		return nil, err
	}
	return &entry.Stats, nil
}

// GetEntry reads a cached entry by its full key.
func (c *StatsCache) GetEntry(ctx context.Context, key string) (*Entry, error) {
	raw, err := c.Redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}

	var entry Entry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return &entry, nil
}

func (c *StatsCache) Set(ctx context.Context, event *models.Event, stats *models.EventStats) error {
	data, err := json.Marshal(Entry{EventSlug: event.Slug, Stats: *stats, CachedAt: c.now().UTC()})
	if err != nil {
		return err
	}
	if err := c.Redis.Set(ctx, Key(event.ID), string(data), c.TTL).Err(); err != nil {
		return fmt.Errorf("set %s: %w", Key(event.ID), err)
	}
	return nil
}

func (c *StatsCache) Invalidate(ctx context.Context, eventID string) error {
	return c.Redis.Del(ctx, Key(eventID)).Err()
}

// Keys lists the cached stats keys.
func (c *StatsCache) Keys(ctx context.Context) ([]string, error) {
	return c.Redis.Keys(ctx, KeyPrefix+"*").Result()
}
