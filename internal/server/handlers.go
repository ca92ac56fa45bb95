package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aman-zulfiqar/token-ratio-chart/internal/constants"
	"github.com/aman-zulfiqar/token-ratio-chart/internal/export"
	"github.com/aman-zulfiqar/token-ratio-chart/internal/gecko"
	"github.com/aman-zulfiqar/token-ratio-chart/internal/models"
	"github.com/aman-zulfiqar/token-ratio-chart/internal/poolselect"
	"github.com/aman-zulfiqar/token-ratio-chart/internal/ratio"
	"github.com/aman-zulfiqar/token-ratio-chart/internal/series"
	"github.com/aman-zulfiqar/token-ratio-chart/internal/storage"
	"github.com/aman-zulfiqar/token-ratio-chart/internal/ticks"
	"github.com/aman-zulfiqar/token-ratio-chart/internal/tokens"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// RatioService is the orchestration the handlers need
type RatioService interface {
	Run(ctx context.Context, req ratio.Request) (*ratio.Result, error)
	Pools(ctx context.Context, token string, interval models.Interval, days int) (*ratio.PoolReport, error)
}

// CacheInvalidator drops cached market data for a token
type CacheInvalidator interface {
	Invalidate(ctx context.Context, tokenAddress string) error
}

// Handlers contains all dependencies for API endpoint handlers
type Handlers struct {
	Service      RatioService     // Pool selection, alignment and rendering
	Network      string           // Chain reported by the health check
	CacheEnabled bool             // Whether market data goes through Redis
	Cache        CacheInvalidator // Backs DELETE /v1/cache/:token; nil disables the route
	TickCount    int              // Default tick count for /v1/ticks
	Timeout      time.Duration    // Upper bound for one ratio request
	DevMode      bool             // Enable detailed error responses in development
	Logger       *logrus.Logger   // Structured logger
}

// err returns a standardized JSON error response
// In dev mode, includes additional error details for debugging
func (h *Handlers) err(c echo.Context, code int, msg string, details any) error {
	resp := ErrorResponse{Error: msg, Code: code}
	if h.DevMode && details != nil {
		resp.Details = details
	}
	return c.JSON(code, resp)
}

// withTimeout bounds ctx by d, or by the default request timeout if d <= 0
func (h *Handlers) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = constants.DefaultRequestTimeout
	}
	return context.WithTimeout(ctx, d)
}

func (h *Handlers) logger() *logrus.Logger {
	if h.Logger == nil {
		h.Logger = logrus.New()
	}
	return h.Logger
}

// Health returns a simple health check endpoint
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{OK: true, Network: h.Network, Cache: h.CacheEnabled})
}

// Ratio returns the full ratio result as JSON
func (h *Handlers) Ratio(c echo.Context) error {
	res, failed := h.runRatio(c)
	if failed != nil {
		return failed()
	}
	return c.JSON(http.StatusOK, res)
}

// RatioChart returns only the rendered chart as plain text
func (h *Handlers) RatioChart(c echo.Context) error {
	res, failed := h.runRatio(c)
	if failed != nil {
		return failed()
	}
	return c.String(http.StatusOK, res.Chart)
}

// RatioCSV streams the ratio points as CSV
func (h *Handlers) RatioCSV(c echo.Context) error {
	res, failed := h.runRatio(c)
	if failed != nil {
		return failed()
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, res.Points); err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to encode csv", nil)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="ratio.csv"`)
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// Pools lists a token's pool candidates with their probe outcome
func (h *Handlers) Pools(c echo.Context) error {
	token := strings.TrimSpace(c.Param("token"))
	interval, days, failed := h.rangeParams(c)
	if failed != nil {
		return failed()
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	report, err := h.Service.Pools(ctx, token, interval, days)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, report)
}

// InvalidateCache drops a token's cached pools and histories
func (h *Handlers) InvalidateCache(c echo.Context) error {
	token := strings.TrimSpace(c.Param("token"))
	if err := tokens.ValidateAddress(h.Network, token); err != nil {
		return h.fail(c, err)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Cache.Invalidate(ctx, token); err != nil {
		h.logger().WithError(err).WithField("token", token).Error("cache invalidation failed")
		return h.err(c, http.StatusInternalServerError, "cache invalidation failed", map[string]any{"err": err.Error()})
	}
	h.logger().WithField("token", token).Info("cache invalidated")
	return c.NoContent(http.StatusNoContent)
}

// Ticks returns nice ticks and labels for min/max query parameters
func (h *Handlers) Ticks(c echo.Context) error {
	lo, err := strconv.ParseFloat(c.QueryParam("min"), 64)
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid min", map[string]any{"min": "must be a number"})
	}
	hi, err := strconv.ParseFloat(c.QueryParam("max"), 64)
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid max", map[string]any{"max": "must be a number"})
	}

	count := h.TickCount
	if count < 2 {
		count = ticks.DefaultTickCount
	}
	if v := c.QueryParam("count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 2 || n > 50 {
			return h.err(c, http.StatusBadRequest, "invalid count", map[string]any{"count": "min 2 max 50"})
		}
		count = n
	}

	out, err := ticks.Ticks(lo, hi, count)
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid range", map[string]any{"err": err.Error()})
	}
	return c.JSON(http.StatusOK, TicksResponse{Min: lo, Max: hi, Count: count, Ticks: out})
}

// runRatio parses the shared ratio query and runs the service. On failure
// the returned func writes the error response.
func (h *Handlers) runRatio(c echo.Context) (*ratio.Result, func() error) {
	tokenA := strings.TrimSpace(c.QueryParam("token_a"))
	tokenB := strings.TrimSpace(c.QueryParam("token_b"))
	if tokenA == "" || tokenB == "" {
		return nil, func() error {
			return h.err(c, http.StatusBadRequest, "token_a and token_b are required", nil)
		}
	}
	interval, days, failed := h.rangeParams(c)
	if failed != nil {
		return nil, failed
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	res, err := h.Service.Run(ctx, ratio.Request{TokenA: tokenA, TokenB: tokenB, Interval: interval, Days: days})
	if err != nil {
		return nil, func() error { return h.fail(c, err) }
	}
	return res, nil
}

func (h *Handlers) rangeParams(c echo.Context) (models.Interval, int, func() error) {
	interval, err := models.ParseInterval(c.QueryParam("interval"))
	if err != nil {
		return "", 0, func() error {
			return h.err(c, http.StatusBadRequest, "invalid interval", map[string]any{"interval": "hourly, daily or weekly"})
		}
	}

	days := 0
	if v := c.QueryParam("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > ratio.MaxDays {
			return "", 0, func() error {
				return h.err(c, http.StatusBadRequest, "invalid days", map[string]any{"days": "min 1 max " + strconv.Itoa(ratio.MaxDays)})
			}
		}
		days = n
	}
	return interval, days, nil
}

// fail maps service errors onto HTTP status codes
func (h *Handlers) fail(c echo.Context, err error) error {
	details := map[string]any{"err": err.Error()}

	var he *gecko.HTTPError
	switch {
	case errors.Is(err, storage.ErrInvalidInput):
		return h.err(c, http.StatusBadRequest, "invalid request", details)
	case errors.Is(err, poolselect.ErrNoUsableCandidates),
		errors.Is(err, storage.ErrNoData),
		errors.Is(err, series.ErrEmptyResult):
		return h.err(c, http.StatusNotFound, "no price data", details)
	case errors.Is(err, context.DeadlineExceeded):
		return h.err(c, http.StatusGatewayTimeout, "upstream timeout", details)
	case errors.As(err, &he),
		errors.Is(err, gobreaker.ErrOpenState),
		errors.Is(err, gobreaker.ErrTooManyRequests):
		h.logger().WithError(err).Warn("market data upstream failed")
		return h.err(c, http.StatusBadGateway, "market data unavailable", details)
	}

	h.logger().WithError(err).Error("ratio request failed")
	return h.err(c, http.StatusInternalServerError, "internal server error", details)
}
