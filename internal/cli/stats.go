package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show fuel economy and spending statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		summary, err := appInstance.StatsService.Summary(ctx)
		if err != nil {
			return fmt.Errorf("failed to compute statistics: %w", err)
		}

		if summary.EntryCount == 0 {
			fmt.Fprintln(out, "No entries yet")
			return nil
		}

		fmt.Fprintf(out, "Entries:              %d\n", summary.EntryCount)
		fmt.Fprintf(out, "Distance covered:     %.1f km\n", summary.DistanceKm)
		fmt.Fprintf(out, "Fuel bought:          %.2f l\n", summary.TotalLiters)
		fmt.Fprintf(out, "Total spent:          %.2f\n", summary.TotalSpent)
		fmt.Fprintf(out, "Last consumption:     %s km/l\n", formatConsumption(summary.LastConsumption))
		fmt.Fprintf(out, "Average consumption:  %s km/l\n", formatConsumption(summary.AverageConsumption))

		limit, _ := cmd.Flags().GetInt("recent")
		if !cmd.Flags().Changed("recent") {
			limit = appInstance.Config.Stats.RecentLimit
		}
		if limit <= 0 {
			return nil
		}

		recent, err := appInstance.StatsService.RecentConsumption(ctx, limit)
		if err != nil {
			return fmt.Errorf("failed to compute recent consumption: %w", err)
		}

		fmt.Fprintln(out)
		fmt.Fprintf(out, "%-16s %10s %7s\n", "Date", "Odometer", "km/l")
		for _, point := range recent {
			fmt.Fprintf(out, "%-16s %10.1f %7s\n",
				point.Entry.Date.Local().Format(dateTimeLayout),
				point.Entry.OdometerKm,
				formatConsumption(point.Consumption),
			)
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().Int("recent", 0, "Number of recent fill-ups to list (default from config)")
}
