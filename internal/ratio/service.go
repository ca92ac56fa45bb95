// Package ratio builds a price-ratio series for two tokens: it picks a pool
// per token, aligns their histories and renders the chart.
package ratio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aman-zulfiqar/token-ratio-chart/internal/chart"
	"github.com/aman-zulfiqar/token-ratio-chart/internal/constants"
	"github.com/aman-zulfiqar/token-ratio-chart/internal/models"
	"github.com/aman-zulfiqar/token-ratio-chart/internal/observability"
	"github.com/aman-zulfiqar/token-ratio-chart/internal/poolselect"
	"github.com/aman-zulfiqar/token-ratio-chart/internal/series"
	"github.com/aman-zulfiqar/token-ratio-chart/internal/storage"
	"github.com/aman-zulfiqar/token-ratio-chart/internal/ticks"
	"github.com/aman-zulfiqar/token-ratio-chart/internal/tokens"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// MaxDays bounds the requested range.
const MaxDays = 1000

type Config struct {
	Market      storage.MarketData
	Network     string
	PoolLimit   int
	DefaultDays int
	TickCount   int
	ChartHeight int
	Logger      *logrus.Logger
	Metrics     *observability.Metrics

	// Now stamps fallback points; defaults to time.Now.
	Now func() time.Time
}

type Service struct {
	market      storage.MarketData
	network     string
	defaultDays int
	tickCount   int
	selector    *poolselect.Selector
	renderer    *chart.Renderer
	logger      *logrus.Logger
	metrics     *observability.Metrics
	now         func() time.Time
}

func NewService(cfg Config) (*Service, error) {
	if cfg.Market == nil {
		return nil, fmt.Errorf("market data is nil")
	}
	if cfg.Network == "" {
		cfg.Network = constants.DefaultNetwork
	}
	if cfg.DefaultDays <= 0 {
		cfg.DefaultDays = constants.DefaultDays
	}
	if cfg.TickCount < 2 {
		cfg.TickCount = ticks.DefaultTickCount
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	selector, err := poolselect.NewSelector(poolselect.SelectorConfig{
		Fetcher: cfg.Market,
		Limit:   cfg.PoolLimit,
		Logger:  cfg.Logger,
		Metrics: cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}

	return &Service{
		market:      cfg.Market,
		network:     cfg.Network,
		defaultDays: cfg.DefaultDays,
		tickCount:   cfg.TickCount,
		selector:    selector,
		renderer:    chart.New(chart.Options{Height: cfg.ChartHeight, TickCount: cfg.TickCount}),
		logger:      cfg.Logger,
		metrics:     cfg.Metrics,
		now:         cfg.Now,
	}, nil
}

// Run builds the ratio series of TokenA priced in TokenB.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	res, err := s.run(ctx, req)
	switch {
	case err != nil:
		s.metrics.ObserveRun("error", time.Since(start))
	case res.Fallback:
		s.metrics.ObserveRun("fallback", time.Since(start))
	default:
		s.metrics.ObserveRun("ok", time.Since(start))
	}
	return res, err
}

func (s *Service) run(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.TokenB) == "" {
		return nil, fmt.Errorf("%w: token b is required", storage.ErrInvalidInput)
	}
	req, err := s.normalize(req)
	if err != nil {
		return nil, err
	}
	historyLimit := req.Days * req.Interval.SamplesPerDay()

	log := s.logger.WithFields(logrus.Fields{
		"token_a":  req.TokenA,
		"token_b":  req.TokenB,
		"interval": req.Interval,
		"days":     req.Days,
	})
	log.Info("building ratio series")

	legA := Leg{Token: req.TokenA, Symbol: tokens.Symbol(req.TokenA)}
	legB := Leg{Token: req.TokenB, Symbol: tokens.Symbol(req.TokenB)}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.resolveLeg(gctx, &legA, req.Interval, historyLimit) })
	g.Go(func() error { return s.resolveLeg(gctx, &legB, req.Interval, historyLimit) })
	if err := g.Wait(); err != nil {
		if ctx.Err() != nil || !fallbackEligible(err) {
			return nil, err
		}
		log.WithError(err).Warn("history unavailable, falling back to current prices")
		return s.fallback(ctx, req, legA, legB, err)
	}

	samplesA, samplesB := legA.samples, legB.samples
	if req.Interval == models.IntervalWeekly {
		samplesA = series.ResampleToBuckets(samplesA, constants.WeeklyBucketDays)
		samplesB = series.ResampleToBuckets(samplesB, constants.WeeklyBucketDays)
	}

	points, err := series.AlignRatios(samplesA, samplesB)
	if err != nil {
		return nil, fmt.Errorf("align %s/%s: %w", legA.Symbol, legB.Symbol, err)
	}
	if len(samplesA) != len(samplesB) {
		log.WithFields(logrus.Fields{
			"samples_a": len(samplesA),
			"samples_b": len(samplesB),
		}).Warn("histories differ in length; aligned by position")
	}

	res := &Result{Request: req, LegA: legA, LegB: legB, Points: points}
	if err := s.finish(res); err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"points": len(points),
		"pool_a": legA.Pool.Address,
		"pool_b": legB.Pool.Address,
	}).Info("ratio series ready")
	return res, nil
}

// Pools reports the candidates for one token, how each probe went and
// which pool would be selected.
func (s *Service) Pools(ctx context.Context, token string, interval models.Interval, days int) (*PoolReport, error) {
	req, err := s.normalize(Request{TokenA: token, Interval: interval, Days: days})
	if err != nil {
		return nil, err
	}

	cands, err := s.market.FetchPoolCandidates(ctx, req.TokenA)
	if err != nil {
		return nil, fmt.Errorf("fetch pools for %s: %w", req.TokenA, err)
	}

	report := &PoolReport{
		Token:      req.TokenA,
		Symbol:     tokens.Symbol(req.TokenA),
		Candidates: cands,
		Limit:      s.selector.Limit(),
	}
	probes, err := s.selector.Probe(ctx, cands, req.Interval, req.Days*req.Interval.SamplesPerDay())
	if err != nil {
		return nil, err
	}
	report.Probes = probes

	sel, err := s.selector.Choose(probes)
	if err != nil {
		report.Error = err.Error()
		return report, nil
	}
	report.Selected = &sel.Candidate
	report.Reason = sel.Reason
	return report, nil
}

func (s *Service) normalize(req Request) (Request, error) {
	req.TokenA = strings.TrimSpace(req.TokenA)
	req.TokenB = strings.TrimSpace(req.TokenB)
	if req.Interval == "" {
		req.Interval = models.IntervalDaily
	}
	if _, err := models.ParseInterval(string(req.Interval)); err != nil {
		return req, fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
	}
	if req.Days == 0 {
		req.Days = s.defaultDays
	}
	if req.Days < 1 || req.Days > MaxDays {
		return req, fmt.Errorf("%w: days must be between 1 and %d", storage.ErrInvalidInput, MaxDays)
	}

	if err := tokens.ValidateAddress(s.network, req.TokenA); err != nil {
		return req, fmt.Errorf("token a: %w", err)
	}
	if req.TokenB == "" {
		return req, nil
	}
	if err := tokens.ValidateAddress(s.network, req.TokenB); err != nil {
		return req, fmt.Errorf("token b: %w", err)
	}
	if sameToken(s.network, req.TokenA, req.TokenB) {
		return req, fmt.Errorf("%w: tokens must differ", storage.ErrInvalidInput)
	}
	return req, nil
}

func (s *Service) resolveLeg(ctx context.Context, leg *Leg, interval models.Interval, historyLimit int) error {
	cands, err := s.market.FetchPoolCandidates(ctx, leg.Token)
	if err != nil {
		return fmt.Errorf("fetch pools for %s: %w", leg.Symbol, err)
	}
	leg.Candidates = len(cands)
	if len(cands) == 0 {
		return fmt.Errorf("%s: %w", leg.Symbol, poolselect.ErrNoUsableCandidates)
	}

	sel, err := s.selector.Select(ctx, cands, interval, historyLimit)
	if err != nil {
		return fmt.Errorf("select pool for %s: %w", leg.Symbol, err)
	}

	pool := sel.Candidate
	leg.Pool = &pool
	leg.Reason = sel.Reason
	leg.Skipped = sel.Probes.Skipped
	leg.samples = sel.Samples
	return nil
}

// fallback prices both tokens now and yields a single ratio point.
func (s *Service) fallback(ctx context.Context, req Request, legA, legB Leg, cause error) (*Result, error) {
	var priceA, priceB float64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.market.FetchCurrentPrice(gctx, req.TokenA)
		if err != nil {
			return fmt.Errorf("current price for %s: %w", legA.Symbol, err)
		}
		priceA = p
		return nil
	})
	g.Go(func() error {
		p, err := s.market.FetchCurrentPrice(gctx, req.TokenB)
		if err != nil {
			return fmt.Errorf("current price for %s: %w", legB.Symbol, err)
		}
		priceB = p
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w (after history failure: %v)", err, cause)
	}
	if priceA <= 0 || priceB <= 0 {
		return nil, fmt.Errorf("current prices: %w", storage.ErrNoData)
	}

	legA.samples, legB.samples = nil, nil
	res := &Result{
		Request:        req,
		LegA:           legA,
		LegB:           legB,
		Fallback:       true,
		FallbackReason: cause.Error(),
		Points: []models.RatioPoint{{
			TimestampMs: s.now().UnixMilli(),
			Ratio:       priceA / priceB,
			PriceA:      priceA,
			PriceB:      priceB,
		}},
	}
	if err := s.finish(res); err != nil {
		return nil, err
	}
	return res, nil
}

// finish fills ticks, chart and summary from res.Points.
func (s *Service) finish(res *Result) error {
	res.Summary = series.Summarize(res.Points)

	t, err := ticks.Ticks(res.Summary.Min, res.Summary.Max, s.tickCount)
	if err != nil {
		return fmt.Errorf("ticks: %w", err)
	}
	res.Ticks = t

	ratios, stamps := series.Ratios(res.Points)
	start := time.Now()
	res.Chart = s.renderer.Render(ratios, stamps, res.Interval)
	s.metrics.ObserveRender(time.Since(start))
	return nil
}

func fallbackEligible(err error) bool {
	return errors.Is(err, poolselect.ErrNoUsableCandidates) || errors.Is(err, storage.ErrNoData)
}

func sameToken(network, a, b string) bool {
	if tokens.IsSolana(network) {
		return a == b
	}
	return strings.EqualFold(a, b)
}
