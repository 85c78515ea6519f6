package service

import (
	"strconv"
	"time"

	"github.com/andy/fuellog/internal/domain"
)

// fieldDiff describes one audited field of a fuel entry
type fieldDiff struct {
	name   string
	equal  func(a, b *domain.FuelEntry) bool
	format func(e *domain.FuelEntry) string
}

func floatField(name string, get func(e *domain.FuelEntry) float64) fieldDiff {
	return fieldDiff{
		name:   name,
		equal:  func(a, b *domain.FuelEntry) bool { return get(a) == get(b) },
		format: func(e *domain.FuelEntry) string { return strconv.FormatFloat(get(e), 'f', 2, 64) },
	}
}

func stringField(name string, get func(e *domain.FuelEntry) string) fieldDiff {
	return fieldDiff{
		name:   name,
		equal:  func(a, b *domain.FuelEntry) bool { return get(a) == get(b) },
		format: get,
	}
}

// entryFields lists every audited field in the order changes are recorded.
// ID and the timestamps are not audited.
var entryFields = []fieldDiff{
	{
		name:   "date",
		equal:  func(a, b *domain.FuelEntry) bool { return a.Date.UnixMilli() == b.Date.UnixMilli() },
		format: func(e *domain.FuelEntry) string { return strconv.FormatInt(e.Date.UnixMilli(), 10) },
	},
	floatField("odometerKm", func(e *domain.FuelEntry) float64 { return e.OdometerKm }),
	floatField("liters", func(e *domain.FuelEntry) float64 { return e.Liters }),
	stringField("fuelType", func(e *domain.FuelEntry) string { return string(e.FuelType) }),
	floatField("pricePerLiter", func(e *domain.FuelEntry) float64 { return e.PricePerLiter }),
	floatField("totalPrice", func(e *domain.FuelEntry) float64 { return e.TotalPrice }),
	stringField("notes", func(e *domain.FuelEntry) string { return e.Notes }),
}

// diffEntries returns one UPDATED history record per field that differs
func diffEntries(old, new *domain.FuelEntry, at time.Time) []*domain.FuelEntryHistory {
	var changes []*domain.FuelEntryHistory
	for _, f := range entryFields {
		if f.equal(old, new) {
			continue
		}
		changes = append(changes, domain.NewUpdatedHistory(new.ID, at, f.name, f.format(old), f.format(new)))
	}
	return changes
}
