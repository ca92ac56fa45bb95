package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/aman-zulfiqar/token-ratio-chart/internal/config"
	"github.com/aman-zulfiqar/token-ratio-chart/internal/market"
	"github.com/aman-zulfiqar/token-ratio-chart/internal/observability"
	"github.com/aman-zulfiqar/token-ratio-chart/internal/ratio"
	"github.com/aman-zulfiqar/token-ratio-chart/internal/server"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// env bootstrap function
func loadEnv(logger *logrus.Logger) {
	// Get the project root directory (where go.mod is)
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err != nil {
		logger.Warnf("no .env file found at %s, using system environment variables", envPath)
	} else {
		logger.Infof("loaded .env from %s", envPath)
	}
}

// main is the entry point for the API server
// It wires the market data stack and serves the ratio endpoints with graceful shutdown
func main() {
	// Initialize structured logger with custom formatting
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.InfoLevel)

	// load .env BEFORE anything reads os.Getenv
	loadEnv(logger)

	// Load and validate configuration, optionally overridden by a YAML file
	cfg, err := config.LoadFile(os.Getenv("CONFIG_FILE"))
	if err != nil {
		logger.WithError(err).Fatal("failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown (Ctrl+C, SIGTERM)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	metrics := observability.NewMetrics("token_ratio")

	// Market data client, behind Redis when REDIS_ADDR is set
	src, err := market.New(ctx, cfg, logger, metrics)
	if err != nil {
		logger.WithError(err).Fatal("failed to build market data client")
	}
	defer func() {
		_ = src.Close()
	}()

	svc, err := ratio.NewService(ratio.Config{
		Market:      src,
		Network:     cfg.Network,
		PoolLimit:   cfg.PoolLimit,
		DefaultDays: cfg.DefaultDays,
		TickCount:   cfg.TickCount,
		ChartHeight: cfg.ChartHeight,
		Logger:      logger,
		Metrics:     metrics,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create ratio service")
	}

	// Create handlers with all dependencies injected
	h := &server.Handlers{
		Service:      svc,
		Network:      cfg.Network,
		CacheEnabled: src.Cached,
		TickCount:    cfg.TickCount,
		Timeout:      cfg.RequestTimeout,
		DevMode:      cfg.DevMode,
		Logger:       logger,
	}
	if src.Cached {
		h.Cache = src
	}

	srv, err := server.NewServer(server.ServerDeps{
		Handlers: h,
		Config: server.ServerConfig{
			Addr:      cfg.APIAddr,
			DevMode:   cfg.DevMode,
			APIKey:    cfg.APIKey,
			RatioRate: cfg.RatioRate,
			Metrics:   metrics,
		},
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create http server")
	}

	// Setup graceful shutdown in a separate goroutine
	go func() {
		<-sigCh // Wait for shutdown signal
		logger.Info("shutting down")
		cancel()                               // Cancel context to stop ongoing operations
		_ = srv.Shutdown(context.Background()) // Gracefully shutdown HTTP server
	}()

	logger.WithFields(logrus.Fields{
		"addr":    cfg.APIAddr,
		"network": cfg.Network,
		"cache":   src.Cached,
	}).Info("api server starting")
	if err := srv.Start(); err != nil {
		// expected during graceful shutdown
		if !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("api server failed")
		}
	}

	// Wait for server to be fully shut down
	if err := srv.WaitClosed(context.Background()); err != nil {
		fmt.Println(err)
	}
}
