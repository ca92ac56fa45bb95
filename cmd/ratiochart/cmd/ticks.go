package cmd

import (
	"fmt"
	"strconv"

	"github.com/aman-zulfiqar/token-ratio-chart/internal/ticks"
	"github.com/spf13/cobra"
)

func newTicksCmd(g *globals) *cobra.Command {
	var count int

	c := &cobra.Command{
		Use:   "ticks MIN MAX",
		Short: "Print nice axis ticks and their labels for a range",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lo, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid MIN %q: %w", args[0], err)
			}
			hi, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid MAX %q: %w", args[1], err)
			}
			if count == 0 {
				count = g.cfg.TickCount
			}

			out, err := ticks.Ticks(lo, hi, count)
			if err != nil {
				return err
			}
			for _, t := range out {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", t.Label, strconv.FormatFloat(t.Value, 'g', -1, 64))
			}
			return nil
		},
	}

	c.Flags().IntVarP(&count, "count", "n", 0, "target number of ticks (default from config)")
	return c
}
