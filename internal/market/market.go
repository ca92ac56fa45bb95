// Package market assembles the market data stack from configuration: the
// GeckoTerminal client, optionally behind the Redis cache.
package market

import (
	"context"
	"fmt"
	"time"

	"github.com/aman-zulfiqar/token-ratio-chart/internal/cache"
	"github.com/aman-zulfiqar/token-ratio-chart/internal/config"
	"github.com/aman-zulfiqar/token-ratio-chart/internal/gecko"
	"github.com/aman-zulfiqar/token-ratio-chart/internal/observability"
	"github.com/aman-zulfiqar/token-ratio-chart/internal/storage"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Source is the assembled market data plus what it needs to release.
type Source struct {
	storage.MarketData
	Cached bool

	cache *cache.MarketCache
	redis *redis.Client
}

// Invalidate drops the cached pools and histories of a token so the next
// request goes upstream. Without a cache there is nothing to drop.
func (s *Source) Invalidate(ctx context.Context, tokenAddress string) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx, tokenAddress)
}

// Close releases the Redis connection, if any.
func (s *Source) Close() error {
	if s.redis == nil {
		return nil
	}
	return s.redis.Close()
}

// New builds the client. When RedisAddr is set but unreachable the cache is
// skipped with a warning rather than failing startup.
func New(ctx context.Context, cfg *config.Config, logger *logrus.Logger, metrics *observability.Metrics) (*Source, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if logger == nil {
		logger = logrus.New()
	}

	client := gecko.NewClient(gecko.Config{
		BaseURL:           cfg.APIBaseURL,
		Network:           cfg.Network,
		HTTPTimeout:       cfg.HTTPTimeout,
		MaxRetries:        cfg.MaxRetries,
		RetryBackoff:      cfg.RetryBackoff,
		RequestsPerMinute: cfg.RequestsPerMinute,
		Logger:            logger,
		Metrics:           metrics,
	})
	src := &Source{MarketData: client}

	if cfg.RedisAddr == "" {
		return src, nil
	}

	rclient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rclient.Ping(pingCtx).Err(); err != nil {
		logger.WithError(err).WithField("addr", cfg.RedisAddr).Warn("redis unavailable, caching disabled")
		_ = rclient.Close()
		return src, nil
	}

	cached, err := cache.NewMarketCache(cache.Config{
		Client:  rclient,
		Next:    client,
		Network: cfg.Network,
		TTL:     cfg.CacheTTL,
		Logger:  logger,
		Metrics: metrics,
	})
	if err != nil {
		_ = rclient.Close()
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"addr": cfg.RedisAddr,
		"ttl":  cfg.CacheTTL.String(),
	}).Info("market data cache enabled")
	return &Source{MarketData: cached, Cached: true, cache: cached, redis: rclient}, nil
}
