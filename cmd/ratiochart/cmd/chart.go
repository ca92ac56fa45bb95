package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/aman-zulfiqar/token-ratio-chart/internal/export"
	"github.com/aman-zulfiqar/token-ratio-chart/internal/models"
	"github.com/aman-zulfiqar/token-ratio-chart/internal/ratio"
	"github.com/aman-zulfiqar/token-ratio-chart/internal/ticks"
	"github.com/spf13/cobra"
)

func newChartCmd(g *globals) *cobra.Command {
	var (
		interval string
		days     int
		height   int
		csvPath  string
		asJSON   bool
		refresh  bool
	)

	c := &cobra.Command{
		Use:   "chart TOKEN_A TOKEN_B",
		Short: "Draw the TOKEN_A/TOKEN_B price ratio",
		Long: `Chart prices TOKEN_A in TOKEN_B over the requested range.

When neither token has usable pool history the current prices are used
and a single ratio point is reported instead of a chart.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			iv, err := models.ParseInterval(interval)
			if err != nil {
				return err
			}
			if height > 0 {
				g.cfg.ChartHeight = height
			}

			svc, src, err := g.service(cmd.Context())
			if err != nil {
				return err
			}
			defer src.Close()
			if refresh {
				g.refresh(cmd.Context(), src, args[0], args[1])
			}

			res, err := svc.Run(cmd.Context(), ratio.Request{TokenA: args[0], TokenB: args[1], Interval: iv, Days: days})
			if err != nil {
				return err
			}

			if csvPath != "" {
				if err := export.WriteCSVFile(csvPath, res.Points); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d points to %s\n", len(res.Points), csvPath)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			printResult(out, res)
			return nil
		},
	}

	c.Flags().StringVarP(&interval, "interval", "i", "daily", "hourly, daily or weekly")
	c.Flags().IntVarP(&days, "days", "d", 0, "days of history (default from config)")
	c.Flags().IntVar(&height, "height", 0, "chart height in rows (default from config)")
	c.Flags().StringVar(&csvPath, "csv", "", "also write the ratio points to this CSV file")
	c.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	c.Flags().BoolVar(&refresh, "refresh", false, "drop cached market data for the token(s) first")
	return c
}

func printResult(w io.Writer, res *ratio.Result) {
	fmt.Fprintf(w, "%s / %s  %s, %d days\n", res.LegA.Symbol, res.LegB.Symbol, res.Interval, res.Days)
	printLeg(w, "A", res.LegA)
	printLeg(w, "B", res.LegB)
	if res.Fallback {
		fmt.Fprintf(w, "no pool history (%s); using current prices\n", res.FallbackReason)
	}
	fmt.Fprintln(w)
	fmt.Fprint(w, res.Chart)
	fmt.Fprintln(w)

	s := res.Summary
	labels := ticks.FormatLabels([]float64{s.First, s.Last, s.Min, s.Max})
	fmt.Fprintf(w, "points %d  first %s  last %s  min %s  max %s  change %+.2f%%\n",
		s.Points, labels[0], labels[1], labels[2], labels[3], s.ChangePct)
}

func printLeg(w io.Writer, name string, leg ratio.Leg) {
	if leg.Pool == nil {
		fmt.Fprintf(w, "  %s %s: no pool selected (%d candidates)\n", name, leg.Symbol, leg.Candidates)
		return
	}
	p := leg.Pool
	fmt.Fprintf(w, "  %s %s: %s %s  liquidity $%.0f  history %d  (%s, %d skipped)\n",
		name, leg.Symbol, p.DisplayName, p.Address, p.LiquidityUSD, p.HistoryDepth, leg.Reason, len(leg.Skipped))
}
