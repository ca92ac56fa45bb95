// Package gecko implements storage.MarketData on the GeckoTerminal public API.
package gecko

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aman-zulfiqar/token-ratio-chart/internal/constants"
	"github.com/aman-zulfiqar/token-ratio-chart/internal/models"
	"github.com/aman-zulfiqar/token-ratio-chart/internal/observability"
	"github.com/aman-zulfiqar/token-ratio-chart/internal/storage"
	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

type Config struct {
	BaseURL           string
	Network           string
	HTTPTimeout       time.Duration
	MaxRetries        int
	RetryBackoff      time.Duration
	RequestsPerMinute float64
	HTTP              *http.Client
	Logger            *logrus.Logger
	Metrics           *observability.Metrics
}

type Client struct {
	baseURL    string
	network    string
	http       *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	maxRetries int
	retryWait  time.Duration
	logger     *logrus.Logger
	metrics    *observability.Metrics
}

var _ storage.MarketData = (*Client)(nil)

func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = constants.DefaultAPIBaseURL
	}
	network := strings.TrimSpace(cfg.Network)
	if network == "" {
		network = constants.DefaultNetwork
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = constants.GeckoRequestTimeout
	}
	if cfg.HTTP == nil {
		cfg.HTTP = &http.Client{Timeout: cfg.HTTPTimeout}
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = constants.GeckoRequestsPerMin
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 2 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	c := &Client{
		baseURL:    baseURL,
		network:    network,
		http:       cfg.HTTP,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerMinute/60), 1),
		maxRetries: cfg.MaxRetries,
		retryWait:  cfg.RetryBackoff,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "geckoterminal",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// client errors say nothing about upstream health
		IsSuccessful: func(err error) bool {
			var he *HTTPError
			if errors.As(err, &he) {
				return !he.Retryable()
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state changed")
			c.metrics.SetBreakerState(name, float64(to))
		},
	})
	c.metrics.SetBreakerState("geckoterminal", float64(gobreaker.StateClosed))
	return c
}

// Network reports the chain the client queries.
func (c *Client) Network() string { return c.network }

type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	b := strings.TrimSpace(string(e.Body))
	if len(b) > 200 {
		b = b[:200]
	}
	if b == "" {
		return fmt.Sprintf("geckoterminal http %d", e.StatusCode)
	}
	return fmt.Sprintf("geckoterminal http %d: %s", e.StatusCode, b)
}

// Retryable reports whether the request may succeed if sent again.
func (e *HTTPError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

func (c *Client) FetchPoolCandidates(ctx context.Context, tokenAddress string) ([]models.PoolCandidate, error) {
	if strings.TrimSpace(tokenAddress) == "" {
		return nil, fmt.Errorf("%w: token address is required", storage.ErrInvalidInput)
	}

	path := fmt.Sprintf("/networks/%s/tokens/%s/pools", url.PathEscape(c.network), url.PathEscape(tokenAddress))
	var resp poolsResponse
	if err := c.get(ctx, "pools", path, nil, &resp); err != nil {
		return nil, notFoundAsNoData(err)
	}

	out := make([]models.PoolCandidate, 0, len(resp.Data))
	for _, p := range resp.Data {
		addr := p.Attributes.Address
		if addr == "" {
			addr = stripNetworkPrefix(p.ID)
		}
		if addr == "" {
			continue
		}
		liq, err := strconv.ParseFloat(p.Attributes.ReserveInUSD, 64)
		if err != nil || liq < 0 {
			liq = 0
		}
		out = append(out, models.PoolCandidate{
			Address:      addr,
			DisplayName:  p.Attributes.Name,
			TokenAddress: tokenAddress,
			DexID:        p.Relationships.Dex.Data.ID,
			LiquidityUSD: liq,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LiquidityUSD > out[j].LiquidityUSD
	})
	return out, nil
}

func (c *Client) FetchPriceHistory(ctx context.Context, pool models.PoolCandidate, interval models.Interval, limit int) ([]models.PriceSample, error) {
	if strings.TrimSpace(pool.Address) == "" {
		return nil, fmt.Errorf("%w: pool address is required", storage.ErrInvalidInput)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be > 0", storage.ErrInvalidInput)
	}
	if limit > constants.GeckoMaxOHLCVLimit {
		limit = constants.GeckoMaxOHLCVLimit
	}

	timeframe := "day"
	if interval == models.IntervalHourly {
		timeframe = "hour"
	}

	q := url.Values{}
	q.Set("aggregate", "1")
	q.Set("limit", strconv.Itoa(limit))
	q.Set("currency", "usd")
	if pool.TokenAddress != "" {
		q.Set("token", pool.TokenAddress)
	}

	path := fmt.Sprintf("/networks/%s/pools/%s/ohlcv/%s", url.PathEscape(c.network), url.PathEscape(pool.Address), timeframe)
	var resp ohlcvResponse
	if err := c.get(ctx, "ohlcv", path, q, &resp); err != nil {
		return nil, notFoundAsNoData(err)
	}

	samples := parseOHLCV(resp.Data.Attributes.OHLCVList)
	if len(samples) == 0 {
		return nil, fmt.Errorf("pool %s: %w", pool.Address, storage.ErrNoData)
	}
	return samples, nil
}

func (c *Client) FetchCurrentPrice(ctx context.Context, tokenAddress string) (float64, error) {
	if strings.TrimSpace(tokenAddress) == "" {
		return 0, fmt.Errorf("%w: token address is required", storage.ErrInvalidInput)
	}

	path := fmt.Sprintf("/simple/networks/%s/token_price/%s", url.PathEscape(c.network), url.PathEscape(tokenAddress))
	var resp tokenPriceResponse
	if err := c.get(ctx, "token_price", path, nil, &resp); err != nil {
		return 0, notFoundAsNoData(err)
	}

	for addr, raw := range resp.Data.Attributes.TokenPrices {
		if !strings.EqualFold(addr, tokenAddress) {
			continue
		}
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil || price <= 0 {
			break
		}
		return price, nil
	}
	return 0, fmt.Errorf("price for %s: %w", tokenAddress, storage.ErrNoData)
}

// parseOHLCV converts newest-first rows into ascending samples, dropping
// malformed rows and non-positive closes.
func parseOHLCV(rows [][]json.Number) []models.PriceSample {
	out := make([]models.PriceSample, 0, len(rows))
	for _, row := range rows {
		if len(row) < 5 {
			continue
		}
		ts, err := row[0].Float64()
		if err != nil {
			continue
		}
		closePx, err := row[4].Float64()
		if err != nil || closePx <= 0 {
			continue
		}
		out = append(out, models.PriceSample{TimestampMs: int64(ts) * 1000, Close: closePx})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TimestampMs < out[j].TimestampMs
	})
	return out
}

// get performs a rate limited GET through the circuit breaker, retrying
// transient failures with exponential backoff.
func (c *Client) get(ctx context.Context, endpoint, path string, q url.Values, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retryWait
	bo.MaxInterval = 8 * c.retryWait
	bo.MaxElapsedTime = 0

	var body []byte
	operation := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		res, err := c.breaker.Execute(func() (interface{}, error) {
			return c.do(ctx, endpoint, u)
		})
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(err)
			}
			var he *HTTPError
			if errors.As(err, &he) && !he.Retryable() {
				return backoff.Permanent(err)
			}
			return err
		}
		body = res.([]byte)
		return nil
	}

	notify := func(err error, wait time.Duration) {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"endpoint": endpoint,
			"retry_in": wait.String(),
		}).Warn("upstream request failed, retrying")
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(c.maxRetries)), ctx)
	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return fmt.Errorf("%s request: %w", endpoint, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, endpoint, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("accept", constants.GeckoAcceptHeader)

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveUpstream(endpoint, "error", time.Since(start))
		return nil, err
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(res.Body)
	c.metrics.ObserveUpstream(endpoint, strconv.Itoa(res.StatusCode), time.Since(start))
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: res.StatusCode, Body: bytes.TrimSpace(body)}
	}
	return body, nil
}

func notFoundAsNoData(err error) error {
	var he *HTTPError
	if errors.As(err, &he) && he.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %v", storage.ErrNoData, err)
	}
	return err
}

// stripNetworkPrefix turns a resource id like "solana_<address>" into the
// bare address.
func stripNetworkPrefix(id string) string {
	if i := strings.Index(id, "_"); i >= 0 {
		return id[i+1:]
	}
	return id
}
