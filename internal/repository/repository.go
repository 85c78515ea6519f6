package repository

import (
	"context"

	"github.com/andy/fuellog/internal/domain"
)

// FuelEntryRepository manages refueling entry persistence.
// Lookups that find nothing return a nil entry and a nil error.
type FuelEntryRepository interface {
	Create(ctx context.Context, entry *domain.FuelEntry) error // keeps entry.ID when non-zero
	CreateWithHistory(ctx context.Context, entry *domain.FuelEntry, record *domain.FuelEntryHistory) error
	Update(ctx context.Context, entry *domain.FuelEntry) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.FuelEntry, error)
	GetLast(ctx context.Context) (*domain.FuelEntry, error)
	GetRecent(ctx context.Context, limit int) ([]*domain.FuelEntry, error)
	List(ctx context.Context) ([]*domain.FuelEntry, error)
	DeleteAll(ctx context.Context) error

	WatchAll(ctx context.Context) <-chan Update[*domain.FuelEntry]
	WatchRecent(ctx context.Context, limit int) <-chan Update[*domain.FuelEntry]
}

// HistoryRepository manages the append-only entry audit trail.
// Records are never updated, only inserted or deleted in bulk.
type HistoryRepository interface {
	Create(ctx context.Context, record *domain.FuelEntryHistory) error
	CreateAll(ctx context.Context, records []*domain.FuelEntryHistory) error // all or nothing
	ListForEntry(ctx context.Context, entryID int64) ([]*domain.FuelEntryHistory, error)
	List(ctx context.Context) ([]*domain.FuelEntryHistory, error)
	DeleteForEntry(ctx context.Context, entryID int64) error
	DeleteAll(ctx context.Context) error

	WatchForEntry(ctx context.Context, entryID int64) <-chan Update[*domain.FuelEntryHistory]
}
