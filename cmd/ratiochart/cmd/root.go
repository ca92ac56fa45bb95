package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aman-zulfiqar/token-ratio-chart/internal/config"
	"github.com/aman-zulfiqar/token-ratio-chart/internal/market"
	"github.com/aman-zulfiqar/token-ratio-chart/internal/ratio"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// globals holds what the persistent flags resolve to.
type globals struct {
	configFile string
	network    string
	logLevel   string
	noCache    bool

	cfg    *config.Config
	logger *logrus.Logger
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&globals{})
}

func newRootCmd(g *globals) *cobra.Command {
	root := &cobra.Command{
		Use:   "ratiochart",
		Short: "Chart the price ratio of two tokens from their most representative pools",
		Long: `ratiochart picks one liquidity pool per token, weighing liquidity against
depth of price history, aligns the two close series into a ratio and draws
it as an ASCII chart with readable axis ticks.

Examples:
  ratiochart chart So11111111111111111111111111111111111111112 EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v
  ratiochart chart <mintA> <mintB> --interval weekly --days 180 --csv ratio.csv
  ratiochart pools <mint>
  ratiochart ticks 0.00012 0.00031`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.load(cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVar(&g.configFile, "config", "", "YAML config file (overrides environment)")
	root.PersistentFlags().StringVar(&g.network, "network", "", "network id, e.g. solana, eth (default from config)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "stderr log level (default warn; LOG_LEVEL only applies to the API server)")
	root.PersistentFlags().BoolVar(&g.noCache, "no-cache", false, "skip the Redis cache even if REDIS_ADDR is set")

	root.AddCommand(newChartCmd(g), newPoolsCmd(g), newTicksCmd(g))
	return root
}

// Execute runs the CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

func (g *globals) load(stderr io.Writer) error {
	// a missing .env is normal
	_ = godotenv.Load()

	cfg, err := config.LoadFile(g.configFile)
	if err != nil {
		return err
	}
	if g.network != "" {
		cfg.Network = strings.TrimSpace(g.network)
	}
	if g.noCache {
		cfg.RedisAddr = ""
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logrus.New()
	logger.SetOutput(stderr)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	// stdout carries the chart, so only warnings reach stderr unless asked
	logger.SetLevel(logrus.WarnLevel)
	if g.logLevel != "" {
		lvl, err := logrus.ParseLevel(g.logLevel)
		if err != nil {
			return fmt.Errorf("invalid --log-level: %w", err)
		}
		logger.SetLevel(lvl)
	}

	g.cfg = cfg
	g.logger = logger
	return nil
}

// refresh drops cached market data for each token before a run. Failures
// are logged and skipped.
func (g *globals) refresh(ctx context.Context, src *market.Source, tokens ...string) {
	for _, token := range tokens {
		if err := src.Invalidate(ctx, strings.TrimSpace(token)); err != nil {
			g.logger.WithError(err).WithField("token", token).Warn("cache invalidation failed")
		}
	}
}

// service wires the market data stack into a ratio.Service. The returned
// source must be closed by the caller.
func (g *globals) service(ctx context.Context) (*ratio.Service, *market.Source, error) {
	src, err := market.New(ctx, g.cfg, g.logger, nil)
	if err != nil {
		return nil, nil, err
	}
	svc, err := ratio.NewService(ratio.Config{
		Market:      src,
		Network:     g.cfg.Network,
		PoolLimit:   g.cfg.PoolLimit,
		DefaultDays: g.cfg.DefaultDays,
		TickCount:   g.cfg.TickCount,
		ChartHeight: g.cfg.ChartHeight,
		Logger:      g.logger,
	})
	if err != nil {
		_ = src.Close()
		return nil, nil, err
	}
	return svc, src, nil
}
