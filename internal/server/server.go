package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/aman-zulfiqar/token-ratio-chart/internal/observability"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const defaultShutdownTimeout = 10 * time.Second

// ServerConfig holds configuration for the HTTP server
type ServerConfig struct {
	Addr    string // Server bind address (e.g., ":8090")
	DevMode bool   // Enable development mode (detailed error responses)
	APIKey  string // Optional API key for authentication

	RatioRate       float64                // Requests per second per client on market data routes
	Metrics         *observability.Metrics // Served on /metrics when set
	ShutdownTimeout time.Duration          // Grace period for in-flight ratio requests
}

// ServerDeps contains dependencies required to create a new Server
type ServerDeps struct {
	Handlers *Handlers
	Config   ServerConfig
}

// Server is the echo router plus its shutdown bookkeeping.
type Server struct {
	e   *echo.Echo
	cfg ServerConfig

	shutdownOnce sync.Once
	shutdownErr  error
	closed       chan struct{}
}

// NewServer creates a new HTTP server with the given dependencies
func NewServer(deps ServerDeps) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.Logger())

	// writes cover a cold ratio request queued behind the upstream limiter
	e.Server.ReadTimeout = 15 * time.Second
	e.Server.WriteTimeout = 90 * time.Second
	e.Server.IdleTimeout = 60 * time.Second

	if deps.Config.ShutdownTimeout <= 0 {
		deps.Config.ShutdownTimeout = defaultShutdownTimeout
	}

	RegisterRoutes(e, deps.Handlers, deps.Config)

	return &Server{e: e, cfg: deps.Config, closed: make(chan struct{})}, nil
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.e
}

// Start serves until Shutdown; it then returns http.ErrServerClosed.
func (s *Server) Start() error {
	return s.e.Start(s.cfg.Addr)
}

// Shutdown drains in-flight requests for at most ShutdownTimeout. Only the
// first call does any work; later calls return its result.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		defer close(s.closed)
		ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
		defer cancel()
		s.shutdownErr = s.e.Shutdown(ctx)
	})
	return s.shutdownErr
}

// WaitClosed blocks until Shutdown has finished or ctx is done.
func (s *Server) WaitClosed(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.closed:
		return nil
	}
}

// apiHeaders marks every response uncacheable and defaults its type to
// JSON; the chart and CSV handlers set their own type.
func apiHeaders(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		h := c.Response().Header()
		h.Set("Cache-Control", "no-store")
		h.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		return next(c)
	}
}
