package backup

import (
	"time"

	"github.com/andy/fuellog/internal/domain"
)

// FormatVersion is the newest envelope version this build reads and the one it writes
const FormatVersion = 1

// Envelope is the top-level backup document. Its records are kept apart from
// the storage rows so the database schema can change without breaking old files.
type Envelope struct {
	Version    int             `json:"version"`
	ExportDate int64           `json:"exportDate"`
	Entries    []EntryRecord   `json:"entries"`
	History    []HistoryRecord `json:"history"`
}

// EntryRecord is the exported form of a fuel entry
type EntryRecord struct {
	ID             int64   `json:"id"`
	Date           int64   `json:"date"`
	OdometerKm     float64 `json:"odometerKm"`
	Liters         float64 `json:"liters"`
	FuelType       string  `json:"fuelType"`
	PricePerLiter  float64 `json:"pricePerLiter"`
	TotalPrice     float64 `json:"totalPrice"`
	Notes          string  `json:"notes"`
	CreatedAt      int64   `json:"createdAt"`
	LastModifiedAt int64   `json:"lastModifiedAt"`
}

// HistoryRecord is the exported form of a history row
type HistoryRecord struct {
	ID         int64  `json:"id"`
	EntryID    int64  `json:"entryId"`
	ModifiedAt int64  `json:"modifiedAt"`
	Action     string `json:"action"`
	FieldName  string `json:"fieldName"`
	OldValue   string `json:"oldValue"`
	NewValue   string `json:"newValue"`
}

func millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

func newEntryRecord(e *domain.FuelEntry) EntryRecord {
	return EntryRecord{
		ID:             e.ID,
		Date:           millis(e.Date),
		OdometerKm:     e.OdometerKm,
		Liters:         e.Liters,
		FuelType:       string(e.FuelType),
		PricePerLiter:  e.PricePerLiter,
		TotalPrice:     e.TotalPrice,
		Notes:          e.Notes,
		CreatedAt:      millis(e.CreatedAt),
		LastModifiedAt: millis(e.LastModifiedAt),
	}
}

// toDomain converts the record back. Unknown fuel types become GASOLINE.
func (r EntryRecord) toDomain() *domain.FuelEntry {
	fuelType, _ := domain.ParseFuelType(r.FuelType)
	return &domain.FuelEntry{
		ID:             r.ID,
		Date:           fromMillis(r.Date),
		OdometerKm:     r.OdometerKm,
		Liters:         r.Liters,
		FuelType:       fuelType,
		PricePerLiter:  r.PricePerLiter,
		TotalPrice:     r.TotalPrice,
		Notes:          r.Notes,
		CreatedAt:      fromMillis(r.CreatedAt),
		LastModifiedAt: fromMillis(r.LastModifiedAt),
	}
}

func newHistoryRecord(h *domain.FuelEntryHistory) HistoryRecord {
	return HistoryRecord{
		ID:         h.ID,
		EntryID:    h.EntryID,
		ModifiedAt: millis(h.ModifiedAt),
		Action:     string(h.Action),
		FieldName:  h.FieldName,
		OldValue:   h.OldValue,
		NewValue:   h.NewValue,
	}
}

func (r HistoryRecord) toDomain() *domain.FuelEntryHistory {
	return &domain.FuelEntryHistory{
		ID:         r.ID,
		EntryID:    r.EntryID,
		ModifiedAt: fromMillis(r.ModifiedAt),
		Action:     domain.HistoryAction(r.Action),
		FieldName:  r.FieldName,
		OldValue:   r.OldValue,
		NewValue:   r.NewValue,
	}
}
