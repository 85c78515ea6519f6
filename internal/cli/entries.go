package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/andy/fuellog/internal/domain"
	"github.com/andy/fuellog/internal/service"
	"github.com/spf13/cobra"
)

var entriesCmd = &cobra.Command{
	Use:   "entries",
	Short: "Manage fuel entries",
	Long:  `List, add, edit, and delete refuelling entries and show their edit history.`,
}

var entriesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List fuel entries, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		limit, _ := cmd.Flags().GetInt("limit")

		var entries []*domain.FuelEntry
		var err error
		if limit > 0 {
			// one extra so the last row shown still has a predecessor
			entries, err = appInstance.FuelService.GetRecentEntries(ctx, limit+1)
		} else {
			entries, err = appInstance.FuelService.GetAllEntries(ctx)
		}
		if err != nil {
			return fmt.Errorf("failed to list entries: %w", err)
		}

		if len(entries) == 0 {
			fmt.Fprintln(out, "No entries found")
			return nil
		}

		series := service.ConsumptionSeries(entries)
		if limit > 0 && len(series) > limit {
			series = series[:limit]
		}

		fmt.Fprintf(out, "%-5s %-16s %10s %8s %-9s %8s %9s %7s  %s\n",
			"ID", "Date", "Odometer", "Liters", "Fuel", "Price/l", "Total", "km/l", "Notes")
		fmt.Fprintln(out, strings.Repeat("-", 90))

		for _, point := range series {
			e := point.Entry
			fmt.Fprintf(out, "%-5d %-16s %10.1f %8.2f %-9s %8.3f %9.2f %7s  %s\n",
				e.ID,
				e.Date.Local().Format(dateTimeLayout),
				e.OdometerKm,
				e.Liters,
				e.FuelType,
				e.PricePerLiter,
				e.TotalPrice,
				formatConsumption(point.Consumption),
				truncate(e.Notes, 24),
			)
		}

		fmt.Fprintln(out, strings.Repeat("-", 90))
		fmt.Fprintf(out, "Total: %d entries\n", len(series))
		return nil
	},
}

var entriesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a refuelling",
	Example: `  fuellog entries add --odometer 15230.5 --liters 40 --price 5.79
  fuellog entries add --date "2026-01-10 08:30" --odometer 15600 --liters 38.2 --price 3.99 --type ethanol`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		dateStr, _ := cmd.Flags().GetString("date")
		date, err := parseDateTime(dateStr)
		if err != nil {
			return fmt.Errorf("invalid date: %w", err)
		}

		typeStr, _ := cmd.Flags().GetString("type")
		fuelType, err := parseFuelType(typeStr)
		if err != nil {
			return err
		}

		odometer, _ := cmd.Flags().GetFloat64("odometer")
		liters, _ := cmd.Flags().GetFloat64("liters")
		price, _ := cmd.Flags().GetFloat64("price")

		entry := domain.NewFuelEntry(date, odometer, liters, fuelType, price)
		if cmd.Flags().Changed("total") {
			entry.TotalPrice, _ = cmd.Flags().GetFloat64("total")
		}
		entry.Notes, _ = cmd.Flags().GetString("notes")

		if err := entry.Validate(); err != nil {
			return fmt.Errorf("invalid entry: %w", err)
		}

		previous, err := appInstance.FuelService.GetLastEntry(ctx)
		if err != nil {
			return fmt.Errorf("failed to read last entry: %w", err)
		}

		id, err := appInstance.FuelService.Insert(ctx, entry)
		if err != nil {
			return fmt.Errorf("failed to create entry: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✓ Fuel entry created (ID: %d)\n", id)
		fmt.Fprintf(out, "  Total: %.2f\n", entry.TotalPrice)
		if previous != nil && !entry.Date.Before(previous.Date) {
			if v, ok := appInstance.FuelService.CalculateConsumption(entry, previous); ok {
				fmt.Fprintf(out, "  Consumption since last fill-up: %.2f km/l\n", v)
			}
		}
		return nil
	},
}

var entriesEditCmd = &cobra.Command{
	Use:   "edit [id]",
	Short: "Edit a fuel entry, recording every changed field",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		entry, err := appInstance.FuelService.GetEntryByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get entry: %w", err)
		}
		if entry == nil {
			return fmt.Errorf("entry %d: %w", id, domain.ErrNotFound)
		}

		flags := cmd.Flags()
		if flags.Changed("date") {
			s, _ := flags.GetString("date")
			if entry.Date, err = parseDateTime(s); err != nil {
				return fmt.Errorf("invalid date: %w", err)
			}
		}
		if flags.Changed("type") {
			s, _ := flags.GetString("type")
			fuelType, err := parseFuelType(s)
			if err != nil {
				return err
			}
			entry.FuelType = fuelType
		}
		if flags.Changed("odometer") {
			entry.OdometerKm, _ = flags.GetFloat64("odometer")
		}
		if flags.Changed("liters") {
			entry.Liters, _ = flags.GetFloat64("liters")
		}
		if flags.Changed("price") {
			entry.PricePerLiter, _ = flags.GetFloat64("price")
		}
		if flags.Changed("notes") {
			entry.Notes, _ = flags.GetString("notes")
		}

		switch {
		case flags.Changed("total"):
			entry.TotalPrice, _ = flags.GetFloat64("total")
		case flags.Changed("liters") || flags.Changed("price"):
			entry.TotalPrice = domain.ComputeTotal(entry.Liters, entry.PricePerLiter)
		}

		if err := entry.Validate(); err != nil {
			return fmt.Errorf("invalid entry: %w", err)
		}

		changes, err := appInstance.FuelService.UpdateWithHistory(ctx, entry)
		if err != nil {
			return fmt.Errorf("failed to update entry: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(changes) == 0 {
			fmt.Fprintf(out, "Entry %d unchanged\n", id)
			return nil
		}

		fmt.Fprintf(out, "✓ Entry updated (ID: %d)\n", id)
		for _, c := range changes {
			fmt.Fprintf(out, "  %s: %s -> %s\n", c.FieldName, c.OldValue, c.NewValue)
		}
		return nil
	},
}

var entriesDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a fuel entry",
	Long: `Delete a fuel entry. Its edit history is kept unless --with-history is given,
so "entries history" still works for deleted entries.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		if err := appInstance.FuelService.Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete entry: %w", err)
		}

		withHistory, _ := cmd.Flags().GetBool("with-history")
		if withHistory {
			if err := appInstance.FuelService.DeleteHistoryForEntry(ctx, id); err != nil {
				return fmt.Errorf("failed to delete history: %w", err)
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Entry deleted (ID: %d)\n", id)
		return nil
	},
}

var entriesHistoryCmd = &cobra.Command{
	Use:   "history [id]",
	Short: "Show edit history for an entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		history, err := appInstance.FuelService.GetHistoryForEntry(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get history: %w", err)
		}

		if len(history) == 0 {
			fmt.Fprintln(out, "No history for this entry")
			return nil
		}

		fmt.Fprintf(out, "History for Entry #%d:\n\n", id)
		for _, h := range history {
			fmt.Fprintf(out, "%s - %s\n", h.ModifiedAt.Local().Format("2006-01-02 15:04:05"), describeChange(h))
		}

		return nil
	},
}

func describeChange(h *domain.FuelEntryHistory) string {
	if h.Action == domain.ActionCreated {
		return h.NewValue
	}
	return fmt.Sprintf("%s: %s -> %s", h.FieldName, h.OldValue, h.NewValue)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid entry ID %q", domain.ErrValidation, s)
	}
	return id, nil
}

func init() {
	entriesCmd.AddCommand(entriesListCmd)
	entriesCmd.AddCommand(entriesAddCmd)
	entriesCmd.AddCommand(entriesEditCmd)
	entriesCmd.AddCommand(entriesDeleteCmd)
	entriesCmd.AddCommand(entriesHistoryCmd)

	// List flags
	entriesListCmd.Flags().Int("limit", 0, "Show only the N most recent entries")

	// Add flags
	entriesAddCmd.Flags().String("date", "now", "Refuelling date (YYYY-MM-DD [HH:MM], 'now', 'today')")
	entriesAddCmd.Flags().Float64("odometer", 0, "Odometer reading in km (required)")
	entriesAddCmd.Flags().Float64("liters", 0, "Liters filled (required)")
	entriesAddCmd.Flags().Float64("price", 0, "Price per liter (required)")
	entriesAddCmd.Flags().Float64("total", 0, "Total paid (default liters x price)")
	entriesAddCmd.Flags().String("type", string(domain.FuelTypeGasoline), "Fuel type: "+strings.Join(domain.FuelTypeNames(), ", "))
	entriesAddCmd.Flags().String("notes", "", "Free-text notes")
	_ = entriesAddCmd.MarkFlagRequired("odometer")
	_ = entriesAddCmd.MarkFlagRequired("liters")
	_ = entriesAddCmd.MarkFlagRequired("price")

	// Edit flags
	entriesEditCmd.Flags().String("date", "", "New date")
	entriesEditCmd.Flags().Float64("odometer", 0, "New odometer reading")
	entriesEditCmd.Flags().Float64("liters", 0, "New liters")
	entriesEditCmd.Flags().Float64("price", 0, "New price per liter")
	entriesEditCmd.Flags().Float64("total", 0, "New total (recomputed from liters and price when omitted)")
	entriesEditCmd.Flags().String("type", "", "New fuel type: "+strings.Join(domain.FuelTypeNames(), ", "))
	entriesEditCmd.Flags().String("notes", "", "New notes")

	// Delete flags
	entriesDeleteCmd.Flags().Bool("with-history", false, "Also delete the entry's edit history")
}
