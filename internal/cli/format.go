package cli

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/andy/fuellog/internal/domain"
	"github.com/spf13/cobra"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04"
)

// parseDateTime accepts "now", "today", "yesterday", a date or a date with time
// in the local zone
func parseDateTime(s string) (time.Time, error) {
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)

	switch strings.ToLower(strings.TrimSpace(s)) {
	case "now":
		return now, nil
	case "today":
		return midnight, nil
	case "yesterday":
		return midnight.AddDate(0, 0, -1), nil
	}

	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02 15:04:05", dateTimeLayout, dateLayout} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: expected format: YYYY-MM-DD, YYYY-MM-DD HH:MM, 'now', 'today' or 'yesterday'", domain.ErrValidation)
}

func formatConsumption(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

// truncate shortens s to max runes
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

func confirmPrompt(cmd *cobra.Command, message string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N] ", message)
	reader := bufio.NewReader(cmd.InOrStdin())
	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return false
	}
	input = strings.TrimSpace(strings.ToLower(input))
	return input == "y" || input == "yes"
}

func parseFuelType(s string) (domain.FuelType, error) {
	fuelType, ok := domain.ParseFuelType(strings.ToUpper(strings.TrimSpace(s)))
	if !ok {
		return "", fmt.Errorf("%w: unknown fuel type %q (want one of %s)",
			domain.ErrValidation, s, strings.Join(domain.FuelTypeNames(), ", "))
	}
	return fuelType, nil
}
