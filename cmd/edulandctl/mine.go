package main

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"
)

func newMineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mine",
		Short: "Mine tier tools",
	}

	var bonus float64
	table := &cobra.Command{
		Use:   "table",
		Short: "Show rate, capacity and fill time per mine level",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			titleColor.Fprintf(out, "Mines (bonus %+.0f%%)\n", bonus*100)
			t := newTable(out, "Level", "Rate/h", "Capacity", "Full in", "Cost")
			for _, l := range cat.Mines.Levels {
				rate := l.RatePerHour * (1 + bonus)
				_ = t.Append([]string{
					fmt.Sprintf("%d", l.Level),
					fmt.Sprintf("%.1f", rate),
					fmt.Sprintf("%d", l.Capacity),
					formatHours(hoursToFill(l.Capacity, rate)),
					formatResources(l.Cost),
				})
			}
			return t.Render()
		},
	}
	table.Flags().Float64Var(&bonus, "bonus", 0, "mine production bonus, e.g. 0.2 for +20%")

	cmd.AddCommand(table)
	return cmd
}

// hoursToFill returns +Inf when the mine never fills
func hoursToFill(capacity int, rate float64) float64 {
	if rate <= 0 {
		return math.Inf(1)
	}
	return float64(capacity) / rate
}

func formatHours(h float64) string {
	if math.IsInf(h, 1) {
		return "never"
	}
	return fmt.Sprintf("%.1fh", h)
}
