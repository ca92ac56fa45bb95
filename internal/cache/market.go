// Package cache wraps a storage.MarketData with a Redis read-through cache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aman-zulfiqar/token-ratio-chart/internal/constants"
	"github.com/aman-zulfiqar/token-ratio-chart/internal/models"
	"github.com/aman-zulfiqar/token-ratio-chart/internal/observability"
	"github.com/aman-zulfiqar/token-ratio-chart/internal/storage"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Client  redis.Cmdable
	Next    storage.MarketData
	Network string
	TTL     time.Duration
	Logger  *logrus.Logger
	Metrics *observability.Metrics
}

// MarketCache caches pool candidates and price histories. Current prices
// always go to the upstream. Redis failures are logged and bypassed.
type MarketCache struct {
	client  redis.Cmdable
	next    storage.MarketData
	network string
	ttl     time.Duration
	logger  *logrus.Logger
	metrics *observability.Metrics
}

var _ storage.MarketData = (*MarketCache)(nil)

func NewMarketCache(cfg Config) (*MarketCache, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	if cfg.Next == nil {
		return nil, fmt.Errorf("upstream market data is nil")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	if cfg.Network == "" {
		cfg.Network = constants.DefaultNetwork
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &MarketCache{
		client:  cfg.Client,
		next:    cfg.Next,
		network: cfg.Network,
		ttl:     cfg.TTL,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}, nil
}

func (m *MarketCache) FetchPoolCandidates(ctx context.Context, tokenAddress string) ([]models.PoolCandidate, error) {
	key := m.poolsKey(tokenAddress)

	var cached []models.PoolCandidate
	if m.load(ctx, "pools", key, &cached) {
		return cached, nil
	}

	cands, err := m.next.FetchPoolCandidates(ctx, tokenAddress)
	if err != nil {
		return nil, err
	}
	m.store(ctx, "pools", key, cands)
	return cands, nil
}

func (m *MarketCache) FetchPriceHistory(ctx context.Context, pool models.PoolCandidate, interval models.Interval, limit int) ([]models.PriceSample, error) {
	key := m.historyKey(pool, interval, limit)

	var cached []models.PriceSample
	if m.load(ctx, "history", key, &cached) && len(cached) > 0 {
		return cached, nil
	}

	samples, err := m.next.FetchPriceHistory(ctx, pool, interval, limit)
	if err != nil {
		return nil, err
	}
	m.store(ctx, "history", key, samples)
	return samples, nil
}

func (m *MarketCache) FetchCurrentPrice(ctx context.Context, tokenAddress string) (float64, error) {
	return m.next.FetchCurrentPrice(ctx, tokenAddress)
}

// Invalidate drops every cached entry for a token.
func (m *MarketCache) Invalidate(ctx context.Context, tokenAddress string) error {
	keys := []string{m.poolsKey(tokenAddress)}

	pattern := constants.RedisKeyHistoryPrefix + m.network + ":*:" + tokenAddress + ":*"
	iter := m.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan history keys: %w", err)
	}

	if err := m.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete cache keys: %w", err)
	}
	return nil
}

func (m *MarketCache) load(ctx context.Context, kind, key string, out any) bool {
	val, err := m.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		m.metrics.ObserveCache(kind, "miss")
		return false
	}
	if err != nil {
		m.metrics.ObserveCache(kind, "error")
		m.logger.WithError(err).WithField("key", key).Warn("cache read failed")
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		m.metrics.ObserveCache(kind, "error")
		m.logger.WithError(err).WithField("key", key).Warn("cache entry corrupt")
		return false
	}
	m.metrics.ObserveCache(kind, "hit")
	return true
}

func (m *MarketCache) store(ctx context.Context, kind, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		m.logger.WithError(err).WithField("key", key).Warn("cache encode failed")
		return
	}
	if err := m.client.Set(ctx, key, b, m.ttl).Err(); err != nil {
		m.metrics.ObserveCache(kind, "error")
		m.logger.WithError(err).WithField("key", key).Warn("cache write failed")
	}
}

func (m *MarketCache) poolsKey(token string) string {
	return constants.RedisKeyPoolsPrefix + m.network + ":" + token
}

func (m *MarketCache) historyKey(pool models.PoolCandidate, interval models.Interval, limit int) string {
	return strings.Join([]string{
		constants.RedisKeyHistoryPrefix + m.network,
		pool.Address,
		pool.TokenAddress,
		string(interval),
		fmt.Sprint(limit),
	}, ":")
}
