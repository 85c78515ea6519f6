package domain

import "time"

// HistoryAction tells whether a history record describes a creation or a field change
type HistoryAction string

const (
	ActionCreated HistoryAction = "CREATED"
	ActionUpdated HistoryAction = "UPDATED"
)

const (
	// FieldAll is the field name used by creation records
	FieldAll = "ALL"

	createdValue = "Entry created"
)

// FuelEntryHistory is an immutable audit record for an entry.
// EntryID is a plain reference: deleting the entry does not delete its history.
type FuelEntryHistory struct {
	ID         int64
	EntryID    int64
	ModifiedAt time.Time
	Action     HistoryAction
	FieldName  string
	OldValue   string
	NewValue   string
}

// NewCreatedHistory creates the record written when an entry is inserted
func NewCreatedHistory(entryID int64, at time.Time) *FuelEntryHistory {
	return &FuelEntryHistory{
		EntryID:    entryID,
		ModifiedAt: at,
		Action:     ActionCreated,
		FieldName:  FieldAll,
		OldValue:   "",
		NewValue:   createdValue,
	}
}

// NewUpdatedHistory creates a history record for a single field change
func NewUpdatedHistory(entryID int64, at time.Time, fieldName, oldValue, newValue string) *FuelEntryHistory {
	return &FuelEntryHistory{
		EntryID:    entryID,
		ModifiedAt: at,
		Action:     ActionUpdated,
		FieldName:  fieldName,
		OldValue:   oldValue,
		NewValue:   newValue,
	}
}
