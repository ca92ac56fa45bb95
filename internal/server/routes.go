package server

import (
	"net/http"
	"time"

	"github.com/aman-zulfiqar/token-ratio-chart/internal/constants"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// RegisterRoutes configures all API routes, middleware, and error handlers
func RegisterRoutes(e *echo.Echo, h *Handlers, cfg ServerConfig) {
	// JSON errors everywhere, logged through the handlers' logger
	e.HTTPErrorHandler = JSONErrorHandler(h.logger(), cfg.DevMode)
	e.Use(apiHeaders)

	// Prometheus scrape endpoint, outside API key auth
	if cfg.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(cfg.Metrics.Handler()))
	}

	// API v1 routes
	v1 := e.Group("/v1")

	// Optional API key authentication
	if cfg.APIKey != "" {
		v1.Use(middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
			KeyLookup: "header:X-API-Key",
			Skipper: func(c echo.Context) bool {
				return c.Path() == "/v1/health"
			},
			Validator: func(key string, c echo.Context) (bool, error) {
				return key == cfg.APIKey, nil
			},
			ErrorHandler: func(err error, c echo.Context) error {
				return &echo.HTTPError{Code: http.StatusUnauthorized, Message: "invalid or missing api key", Internal: err}
			},
		}))
	}

	v1.GET("/health", h.Health) // Health check endpoint
	v1.GET("/ticks", h.Ticks)   // Nice ticks for a numeric range

	// Endpoints that hit the market data API are rate limited per client
	rps := cfg.RatioRate
	if rps <= 0 {
		rps = constants.DefaultRatioRate
	}
	limiter := middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(rps),
		Burst:     3,
		ExpiresIn: 3 * time.Minute,
	}))
	v1.GET("/ratio", h.Ratio, limiter)            // Ratio series as JSON
	v1.GET("/ratio/chart", h.RatioChart, limiter) // Rendered ASCII chart
	v1.GET("/ratio/csv", h.RatioCSV, limiter)     // Ratio points as CSV
	v1.GET("/pools/:token", h.Pools, limiter)     // Candidate pools for one token

	if h.Cache != nil {
		v1.DELETE("/cache/:token", h.InvalidateCache) // Drop a token's cached market data
	}

	// Catch-all route for 404 responses
	e.RouteNotFound("/*", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found", Code: http.StatusNotFound})
	})
}
