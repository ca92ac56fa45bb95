package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/aman-zulfiqar/token-ratio-chart/internal/models"
	"github.com/spf13/cobra"
)

func newPoolsCmd(g *globals) *cobra.Command {
	var (
		interval string
		days     int
		refresh  bool
	)

	c := &cobra.Command{
		Use:   "pools TOKEN",
		Short: "List a token's pool candidates, how probing went and which one wins",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			iv, err := models.ParseInterval(interval)
			if err != nil {
				return err
			}

			svc, src, err := g.service(cmd.Context())
			if err != nil {
				return err
			}
			defer src.Close()
			if refresh {
				g.refresh(cmd.Context(), src, args[0])
			}

			report, err := svc.Pools(cmd.Context(), args[0], iv, days)
			if err != nil {
				return err
			}

			accepted := make(map[string]int, len(report.Probes.Accepted))
			for _, p := range report.Probes.Accepted {
				accepted[p.Candidate.Address] = p.Candidate.HistoryDepth
			}
			skipped := make(map[string]string, len(report.Probes.Skipped))
			for _, s := range report.Probes.Skipped {
				skipped[s.Candidate.Address] = s.Reason
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d candidates, top %d probed\n\n", report.Symbol, len(report.Candidates), report.Limit)

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "\tPOOL\tNAME\tDEX\tLIQUIDITY USD\tHISTORY")
			for _, cand := range report.Candidates {
				mark := ""
				if report.Selected != nil && report.Selected.Address == cand.Address {
					mark = "*"
				}
				history := "-"
				if depth, ok := accepted[cand.Address]; ok {
					history = fmt.Sprint(depth)
				} else if reason, ok := skipped[cand.Address]; ok {
					history = "skipped: " + reason
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.0f\t%s\n", mark, cand.Address, cand.DisplayName, cand.DexID, cand.LiquidityUSD, history)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			fmt.Fprintln(out)
			if report.Selected == nil {
				fmt.Fprintf(out, "no pool selected: %s\n", report.Error)
				return nil
			}
			fmt.Fprintf(out, "selected %s (%s)\n", report.Selected.Address, report.Reason)
			return nil
		},
	}

	c.Flags().StringVarP(&interval, "interval", "i", "daily", "hourly, daily or weekly")
	c.Flags().IntVarP(&days, "days", "d", 0, "days of history to probe (default from config)")
	c.Flags().BoolVar(&refresh, "refresh", false, "drop cached market data for the token(s) first")
	return c
}
