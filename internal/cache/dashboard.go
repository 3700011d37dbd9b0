// Package cache keeps computed dashboards in redis between mutations.
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/andresuchdata/stockwatch/internal/clock"
	"github.com/andresuchdata/stockwatch/internal/config"
	"github.com/andresuchdata/stockwatch/internal/domain"
)

const (
	dashboardKeyPrefix = "dashboard:"
	scanBatchSize      = 100
)

// DashboardCache stores the dashboard computed for a calendar day and a store
// generation. Statuses depend on the day and counts on the generation, so
// entries are keyed by both and a dashboard computed before a mutation can
// never be served after it.
type DashboardCache interface {
	Get(ctx context.Context, day time.Time, generation uint64) (*domain.Dashboard, bool, error)
	Set(ctx context.Context, day time.Time, generation uint64, dashboard *domain.Dashboard) error
	InvalidateAll(ctx context.Context) error
	Close() error
}

type redisDashboardCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

type noopDashboardCache struct{}

// NewDashboardCache returns a redis-backed cache, or a noop one when caching
// is disabled.
func NewDashboardCache(ctx context.Context, cfg config.CacheConfig, redisCfg config.RedisConfig) (DashboardCache, error) {
	if !cfg.Enabled {
		return NewNoopDashboardCache(), nil
	}

	client, ttl, err := newRedisClient(ctx, cfg, redisCfg)
	if err != nil {
		return nil, err
	}

	return &redisDashboardCache{
		client: client,
		prefix: redisCfg.KeyPrefix + dashboardKeyPrefix,
		ttl:    ttl,
	}, nil
}

func NewNoopDashboardCache() DashboardCache {
	return &noopDashboardCache{}
}

func (c *redisDashboardCache) Get(ctx context.Context, day time.Time, generation uint64) (*domain.Dashboard, bool, error) {
	payload, err := c.client.Get(ctx, buildDashboardKey(c.prefix, day, generation)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var dashboard domain.Dashboard
	if err := json.Unmarshal(payload, &dashboard); err != nil {
		return nil, false, fmt.Errorf("decode dashboard cache: %w", err)
	}

	return &dashboard, true, nil
}

func (c *redisDashboardCache) Set(ctx context.Context, day time.Time, generation uint64, dashboard *domain.Dashboard) error {
	payload, err := json.Marshal(dashboard)
	if err != nil {
		return fmt.Errorf("encode dashboard cache: %w", err)
	}

	if err := c.client.Set(ctx, buildDashboardKey(c.prefix, day, generation), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

func (c *redisDashboardCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, c.prefix, scanBatchSize)
}

func (c *redisDashboardCache) Close() error {
	return c.client.Close()
}

func (n *noopDashboardCache) Get(ctx context.Context, day time.Time, generation uint64) (*domain.Dashboard, bool, error) {
	return nil, false, nil
}

func (n *noopDashboardCache) Set(ctx context.Context, day time.Time, generation uint64, dashboard *domain.Dashboard) error {
	return nil
}

func (n *noopDashboardCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func (n *noopDashboardCache) Close() error {
	return nil
}

func buildDashboardKey(prefix string, day time.Time, generation uint64) string {
	hash := sha1.Sum([]byte(day.UTC().Format(clock.DateLayout) + "|" + strconv.FormatUint(generation, 10)))
	return prefix + hex.EncodeToString(hash[:])
}
