package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/roma-frontend/fitAccess-sub002/internal/clock"
	"github.com/roma-frontend/fitAccess-sub002/internal/events"
	"github.com/roma-frontend/fitAccess-sub002/internal/logger"
	"github.com/roma-frontend/fitAccess-sub002/internal/metrics"
	"github.com/roma-frontend/fitAccess-sub002/internal/schedule"
)

const keyPrefix = "analytics"

var ErrCacheMiss = errors.New("cache miss")

// Cache stores analytics payloads in Redis. A Cache without a client misses
// every lookup and drops every write.
type Cache struct {
	client *redis.Client
}

func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Get unmarshals the cached value into dest.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	if c.client == nil {
		return ErrCacheMiss
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return fmt.Errorf("redis get %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}
	return nil
}

func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.client == nil {
		return nil
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}

	if err := c.client.Set(ctx, key, string(payload), ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Invalidate drops every cached payload of one trainer.
func (c *Cache) Invalidate(ctx context.Context, trainerID string) error {
	if c.client == nil {
		return nil
	}

	pattern := fmt.Sprintf("%s:%s:*", keyPrefix, trainerID)
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if err := c.client.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("redis delete %s: %w", key, err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan pattern %s: %w", pattern, err)
	}
	return nil
}

// HandleEvent is an events.Handler that drops the figures of the trainer a
// booking or working hours event belongs to.
func (c *Cache) HandleEvent(ctx context.Context, e events.Event) error {
	if e.TrainerID == "" {
		return nil
	}
	return c.Invalidate(ctx, e.TrainerID)
}

func cacheKey(trainerID, kind string, days int, today schedule.Date) string {
	return fmt.Sprintf("%s:%s:%s:%d:%s", keyPrefix, trainerID, kind, days, today)
}

type cachedService struct {
	next  Service
	cache *Cache
	clock clock.Clock
	ttl   time.Duration
}

// NewCachedService serves repeated queries from cache for ttl. Keys include
// the current date so a window never outlives the day it was computed on.
func NewCachedService(next Service, cache *Cache, clk clock.Clock, ttl time.Duration) Service {
	if cache == nil || ttl <= 0 {
		return next
	}
	return &cachedService{next: next, cache: cache, clock: clk, ttl: ttl}
}

func (s *cachedService) EfficiencyStats(ctx context.Context, trainerID string, windowDays int) (*Stats, error) {
	return cached(ctx, s, cacheKey(trainerID, "stats", windowDays, s.today()), func() (*Stats, error) {
		return s.next.EfficiencyStats(ctx, trainerID, windowDays)
	})
}

func (s *cachedService) EfficiencyReport(ctx context.Context, trainerID string, windowDays int) (*Report, error) {
	return cached(ctx, s, cacheKey(trainerID, "report", windowDays, s.today()), func() (*Report, error) {
		return s.next.EfficiencyReport(ctx, trainerID, windowDays)
	})
}

func (s *cachedService) WorkloadForecast(ctx context.Context, trainerID string, horizonDays int) (*Forecast, error) {
	return cached(ctx, s, cacheKey(trainerID, "forecast", horizonDays, s.today()), func() (*Forecast, error) {
		return s.next.WorkloadForecast(ctx, trainerID, horizonDays)
	})
}

func (s *cachedService) today() schedule.Date {
	return schedule.DateOf(s.clock.Now())
}

// cached returns the value under key or computes and stores it. Cache
// failures degrade to computing the value.
func cached[T any](ctx context.Context, s *cachedService, key string, compute func() (*T, error)) (*T, error) {
	var hit T
	err := s.cache.Get(ctx, key, &hit)
	if err == nil {
		metrics.RecordCacheLookup(true)
		return &hit, nil
	}
	metrics.RecordCacheLookup(false)
	if !errors.Is(err, ErrCacheMiss) {
		logger.WithError(err).Warnw("Analytics cache read failed", "key", key)
	}

	value, err := compute()
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		logger.WithError(err).Warnw("Analytics cache write failed", "key", key)
	}
	return value, nil
}
