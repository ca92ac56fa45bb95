package storage

import (
	"context"

	"github.com/aman-zulfiqar/token-ratio-chart/internal/models"
)

// MarketData is the upstream source of pools and prices.
type MarketData interface {
	// FetchPoolCandidates returns the pools trading a token, most liquid first
	FetchPoolCandidates(ctx context.Context, tokenAddress string) ([]models.PoolCandidate, error)

	// FetchPriceHistory returns up to limit closes for the pool's token,
	// oldest first. Returns ErrNoData when the pool has no history.
	FetchPriceHistory(ctx context.Context, pool models.PoolCandidate, interval models.Interval, limit int) ([]models.PriceSample, error)

	// FetchCurrentPrice returns the latest USD price for a token
	FetchCurrentPrice(ctx context.Context, tokenAddress string) (float64, error)
}

// HistoryFetcher is the subset of MarketData used to probe pools.
type HistoryFetcher interface {
	FetchPriceHistory(ctx context.Context, pool models.PoolCandidate, interval models.Interval, limit int) ([]models.PriceSample, error)
}
