package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/andy/fuellog/internal/domain"
)

const formDateLayout = "2006-01-02 15:04"

// formatMoney formats an amount as "X,XXX.XX" with comma separators
func formatMoney(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	s := fmt.Sprintf("%.2f", amount)

	// Split at decimal point
	dotPos := len(s) - 3
	intPart := s[:dotPos]
	decPart := s[dotPos:]

	result := make([]byte, 0, len(intPart)+len(intPart)/3)
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, byte(c))
	}

	if negative {
		return "-" + string(result) + decPart
	}
	return string(result) + decPart
}

func formatConsumption(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

// truncateStr truncates a string to the specified length with ellipsis
func truncateStr(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// describeHistory renders one history record as a single line
func describeHistory(h *domain.FuelEntryHistory) string {
	if h.Action == domain.ActionCreated {
		return h.NewValue
	}
	oldValue, newValue := h.OldValue, h.NewValue
	if h.FieldName == "date" {
		oldValue, newValue = formatMillis(oldValue), formatMillis(newValue)
	}
	return fmt.Sprintf("%s: %s → %s", h.FieldName, oldValue, newValue)
}

// formatMillis shows a recorded epoch-millis date value as local time
func formatMillis(s string) string {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return s
	}
	return time.UnixMilli(ms).Local().Format(formDateLayout)
}

// entryForm holds the raw text of the new/edit form
type entryForm struct {
	Date     string
	Odometer string
	Liters   string
	Price    string
	FuelType string
	Notes    string
}

func parseFloatField(name, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s: %q", domain.ErrValidation, name, s)
	}
	return v, nil
}

// apply copies the form onto entry and recomputes the total
func (f entryForm) apply(entry *domain.FuelEntry) error {
	date, err := time.ParseInLocation(formDateLayout, strings.TrimSpace(f.Date), time.Local)
	if err != nil {
		return fmt.Errorf("%w: invalid date (use YYYY-MM-DD HH:MM): %q", domain.ErrValidation, f.Date)
	}

	odometer, err := parseFloatField("odometer", f.Odometer)
	if err != nil {
		return err
	}
	liters, err := parseFloatField("liters", f.Liters)
	if err != nil {
		return err
	}
	price, err := parseFloatField("price per liter", f.Price)
	if err != nil {
		return err
	}

	fuelType, ok := domain.ParseFuelType(strings.ToUpper(strings.TrimSpace(f.FuelType)))
	if !ok {
		return fmt.Errorf("%w: unknown fuel type %q (gasoline or ethanol)", domain.ErrValidation, f.FuelType)
	}

	entry.Date = date
	entry.OdometerKm = odometer
	entry.Liters = liters
	entry.PricePerLiter = price
	entry.FuelType = fuelType
	entry.Notes = strings.TrimSpace(f.Notes)
	entry.TotalPrice = domain.ComputeTotal(liters, price)

	return entry.Validate()
}

// formFromEntry fills the form for editing
func formFromEntry(e *domain.FuelEntry) entryForm {
	return entryForm{
		Date:     e.Date.Local().Format(formDateLayout),
		Odometer: strconv.FormatFloat(e.OdometerKm, 'f', -1, 64),
		Liters:   strconv.FormatFloat(e.Liters, 'f', -1, 64),
		Price:    strconv.FormatFloat(e.PricePerLiter, 'f', -1, 64),
		FuelType: string(e.FuelType),
		Notes:    e.Notes,
	}
}
