package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FuelType is the kind of fuel bought at a refueling
type FuelType string

const (
	FuelTypeGasoline FuelType = "GASOLINE"
	FuelTypeEthanol  FuelType = "ETHANOL"
)

// FuelTypes lists every known fuel type
var FuelTypes = []FuelType{FuelTypeGasoline, FuelTypeEthanol}

// IsValid reports whether t is one of the known fuel types
func (t FuelType) IsValid() bool {
	for _, known := range FuelTypes {
		if t == known {
			return true
		}
	}
	return false
}

// FuelTypeNames returns the known fuel types in lower case, for help text
func FuelTypeNames() []string {
	names := make([]string, len(FuelTypes))
	for i, t := range FuelTypes {
		names[i] = strings.ToLower(string(t))
	}
	return names
}

// ParseFuelType maps a stored or imported name to a FuelType.
// The second return value is false when the name is not recognized.
func ParseFuelType(s string) (FuelType, bool) {
	t := FuelType(s)
	if t.IsValid() {
		return t, true
	}
	return FuelTypeGasoline, false
}

// FuelEntry is one refueling event
type FuelEntry struct {
	ID             int64 // 0 until inserted
	Date           time.Time
	OdometerKm     float64
	Liters         float64
	FuelType       FuelType
	PricePerLiter  float64
	TotalPrice     float64 // stored as given, never recomputed
	Notes          string
	CreatedAt      time.Time
	LastModifiedAt time.Time
}

// NewFuelEntry creates an entry with the total price derived from liters and price
func NewFuelEntry(date time.Time, odometerKm, liters float64, fuelType FuelType, pricePerLiter float64) *FuelEntry {
	return &FuelEntry{
		Date:          date,
		OdometerKm:    odometerKm,
		Liters:        liters,
		FuelType:      fuelType,
		PricePerLiter: pricePerLiter,
		TotalPrice:    ComputeTotal(liters, pricePerLiter),
	}
}

// ComputeTotal returns liters * pricePerLiter rounded to cents
func ComputeTotal(liters, pricePerLiter float64) float64 {
	return decimal.NewFromFloat(liters).
		Mul(decimal.NewFromFloat(pricePerLiter)).
		Round(2).
		InexactFloat64()
}

// Validate returns an error if the entry is not fit to be recorded
func (e *FuelEntry) Validate() error {
	if e.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrValidation)
	}
	if e.OdometerKm <= 0 {
		return fmt.Errorf("%w: odometer must be greater than zero", ErrValidation)
	}
	if e.Liters <= 0 {
		return fmt.Errorf("%w: liters must be greater than zero", ErrValidation)
	}
	if e.PricePerLiter <= 0 {
		return fmt.Errorf("%w: price per liter must be greater than zero", ErrValidation)
	}
	if !e.FuelType.IsValid() {
		return fmt.Errorf("%w: unknown fuel type %q", ErrValidation, e.FuelType)
	}
	return nil
}
