package poolselect

import (
	"context"
	"fmt"

	"github.com/aman-zulfiqar/token-ratio-chart/internal/models"
	"github.com/aman-zulfiqar/token-ratio-chart/internal/observability"
	"github.com/aman-zulfiqar/token-ratio-chart/internal/storage"
	"github.com/sirupsen/logrus"
)

// Probe is a candidate whose history was fetched successfully.
type Probe struct {
	Candidate models.PoolCandidate `json:"candidate"`
	Samples   []models.PriceSample `json:"-"`
}

// Skip is a candidate dropped during probing.
type Skip struct {
	Candidate models.PoolCandidate `json:"candidate"`
	Reason    string               `json:"reason"`
}

// ProbeResult partitions probed candidates, preserving input order.
type ProbeResult struct {
	Accepted []Probe `json:"accepted"`
	Skipped  []Skip  `json:"skipped"`
}

// Selection is the outcome of Selector.Select.
type Selection struct {
	Probe
	Reason Reason      `json:"reason"`
	Probes ProbeResult `json:"probes"`
}

// SelectorConfig holds dependencies for a Selector.
type SelectorConfig struct {
	Fetcher storage.HistoryFetcher
	Limit   int
	Logger  *logrus.Logger
	Metrics *observability.Metrics
}

// Selector measures candidate history through the fetcher and applies
// SelectPool's rules. The winner's samples are kept so they need not be
// fetched twice.
type Selector struct {
	fetcher storage.HistoryFetcher
	limit   int
	logger  *logrus.Logger
	metrics *observability.Metrics
}

// NewSelector creates a Selector, defaulting Limit and Logger.
func NewSelector(cfg SelectorConfig) (*Selector, error) {
	if cfg.Fetcher == nil {
		return nil, fmt.Errorf("history fetcher is nil")
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &Selector{
		fetcher: cfg.Fetcher,
		limit:   cfg.Limit,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}, nil
}

// Limit reports how many candidates are probed.
func (s *Selector) Limit() int { return s.limit }

// Probe fetches history for the top candidates one at a time. A failed or
// empty fetch skips that candidate; only context cancellation is returned.
func (s *Selector) Probe(ctx context.Context, candidates []models.PoolCandidate, interval models.Interval, historyLimit int) (ProbeResult, error) {
	if len(candidates) > s.limit {
		candidates = candidates[:s.limit]
	}

	var res ProbeResult
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		samples, err := s.fetcher.FetchPriceHistory(ctx, c, interval, historyLimit)
		if err == nil && len(samples) == 0 {
			err = storage.ErrNoData
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return res, ctxErr
			}
			s.logger.WithError(err).WithFields(logrus.Fields{
				"pool":      c.Address,
				"name":      c.DisplayName,
				"liquidity": c.LiquidityUSD,
			}).Warn("skipping pool candidate")
			s.metrics.ObserveProbe("skipped")
			res.Skipped = append(res.Skipped, Skip{Candidate: c, Reason: err.Error()})
			continue
		}

		c.HistoryDepth = len(samples)
		s.metrics.ObserveProbe("accepted")
		res.Accepted = append(res.Accepted, Probe{Candidate: c, Samples: samples})
	}
	return res, nil
}

// Select probes candidates and picks one.
func (s *Selector) Select(ctx context.Context, candidates []models.PoolCandidate, interval models.Interval, historyLimit int) (*Selection, error) {
	probes, err := s.Probe(ctx, candidates, interval, historyLimit)
	if err != nil {
		return nil, err
	}
	return s.Choose(probes)
}

// Choose applies the selection rules to an existing probe result.
func (s *Selector) Choose(probes ProbeResult) (*Selection, error) {
	if len(probes.Accepted) == 0 {
		return nil, fmt.Errorf("%w: all %d candidates skipped", ErrNoUsableCandidates, len(probes.Skipped))
	}

	cands := make([]models.PoolCandidate, len(probes.Accepted))
	for i, p := range probes.Accepted {
		cands[i] = p.Candidate
	}
	i, reason := pick(cands)
	chosen := probes.Accepted[i]

	s.metrics.ObserveSelection(string(reason))
	s.logger.WithFields(logrus.Fields{
		"pool":          chosen.Candidate.Address,
		"name":          chosen.Candidate.DisplayName,
		"liquidity":     chosen.Candidate.LiquidityUSD,
		"history_depth": chosen.Candidate.HistoryDepth,
		"reason":        reason,
		"probed":        len(probes.Accepted) + len(probes.Skipped),
	}).Info("selected pool")

	return &Selection{Probe: chosen, Reason: reason, Probes: probes}, nil
}
