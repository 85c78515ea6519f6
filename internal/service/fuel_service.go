package service

import (
	"context"
	"fmt"
	"time"

	"github.com/andy/fuellog/internal/domain"
	"github.com/andy/fuellog/internal/repository"
	"github.com/sirupsen/logrus"
)

// FuelService coordinates the entry and history stores
type FuelService interface {
	// Insert stores a new entry together with its CREATED history record
	Insert(ctx context.Context, entry *domain.FuelEntry) (int64, error)

	// UpdateWithHistory saves entry and records one UPDATED row per changed field
	UpdateWithHistory(ctx context.Context, entry *domain.FuelEntry) ([]*domain.FuelEntryHistory, error)

	// Restore writes entry as given, keeping its ID, without recording history
	Restore(ctx context.Context, entry *domain.FuelEntry) error

	// RestoreHistory writes previously exported history records verbatim
	RestoreHistory(ctx context.Context, records []*domain.FuelEntryHistory) error

	// Delete removes an entry; its history is kept
	Delete(ctx context.Context, id int64) error

	// DeleteAll removes every entry
	DeleteAll(ctx context.Context) error

	// DeleteHistoryForEntry removes the audit trail of one entry
	DeleteHistoryForEntry(ctx context.Context, entryID int64) error

	// DeleteAllHistory removes every history record
	DeleteAllHistory(ctx context.Context) error

	// GetEntryByID returns the entry, or nil if it does not exist
	GetEntryByID(ctx context.Context, id int64) (*domain.FuelEntry, error)

	// GetLastEntry returns the entry with the latest date, or nil when empty
	GetLastEntry(ctx context.Context) (*domain.FuelEntry, error)

	// GetRecentEntries returns up to limit entries, newest first
	GetRecentEntries(ctx context.Context, limit int) ([]*domain.FuelEntry, error)

	// GetAllEntries returns every entry, newest first
	GetAllEntries(ctx context.Context) ([]*domain.FuelEntry, error)

	// GetHistoryForEntry returns the audit trail of one entry, newest first
	GetHistoryForEntry(ctx context.Context, entryID int64) ([]*domain.FuelEntryHistory, error)

	// GetAllHistory returns every history record in ID order
	GetAllHistory(ctx context.Context) ([]*domain.FuelEntryHistory, error)

	// WatchAllEntries streams the full entry list after every change
	WatchAllEntries(ctx context.Context) <-chan repository.Update[*domain.FuelEntry]

	// WatchRecentEntries streams the newest limit entries after every change
	WatchRecentEntries(ctx context.Context, limit int) <-chan repository.Update[*domain.FuelEntry]

	// WatchHistoryForEntry streams the audit trail of one entry after every change
	WatchHistoryForEntry(ctx context.Context, entryID int64) <-chan repository.Update[*domain.FuelEntryHistory]

	// CalculateConsumption returns km per liter between two adjacent entries
	CalculateConsumption(current, previous *domain.FuelEntry) (float64, bool)
}

type fuelService struct {
	entryRepo   repository.FuelEntryRepository
	historyRepo repository.HistoryRepository
	log         logrus.FieldLogger
	now         func() time.Time
}

// NewFuelService creates a new fuel service
func NewFuelService(
	entryRepo repository.FuelEntryRepository,
	historyRepo repository.HistoryRepository,
	log logrus.FieldLogger,
) FuelService {
	return &fuelService{
		entryRepo:   entryRepo,
		historyRepo: historyRepo,
		log:         log,
		now:         nowMillis,
	}
}

// nowMillis is the current time at the millisecond precision the store keeps
func nowMillis() time.Time {
	return time.UnixMilli(time.Now().UnixMilli())
}

func (s *fuelService) Insert(ctx context.Context, entry *domain.FuelEntry) (int64, error) {
	now := s.now()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	if entry.LastModifiedAt.IsZero() {
		entry.LastModifiedAt = now
	}

	created := domain.NewCreatedHistory(0, now)
	if err := s.entryRepo.CreateWithHistory(ctx, entry, created); err != nil {
		return 0, err
	}

	s.log.WithField("entry_id", entry.ID).Debug("fuel entry created")
	return entry.ID, nil
}

// UpdateWithHistory compares entry with the stored version and records every
// changed field before saving it. A missing entry is left alone and nothing is
// written; the returned slice is nil in that case.
func (s *fuelService) UpdateWithHistory(ctx context.Context, entry *domain.FuelEntry) ([]*domain.FuelEntryHistory, error) {
	old, err := s.entryRepo.GetByID(ctx, entry.ID)
	if err != nil {
		return nil, err
	}
	if old == nil {
		s.log.WithField("entry_id", entry.ID).Warn("update skipped: fuel entry does not exist")
		return nil, nil
	}

	now := s.now()
	changes := diffEntries(old, entry, now)

	if len(changes) > 0 {
		if err := s.historyRepo.CreateAll(ctx, changes); err != nil {
			return nil, fmt.Errorf("failed to record changes to entry %d: %w", entry.ID, err)
		}
	}

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = old.CreatedAt
	}
	entry.LastModifiedAt = now

	if err := s.entryRepo.Update(ctx, entry); err != nil {
		return changes, err
	}

	s.log.WithFields(logrus.Fields{
		"entry_id":       entry.ID,
		"changed_fields": len(changes),
	}).Debug("fuel entry updated")

	return changes, nil
}

func (s *fuelService) Restore(ctx context.Context, entry *domain.FuelEntry) error {
	return s.entryRepo.Create(ctx, entry)
}

func (s *fuelService) RestoreHistory(ctx context.Context, records []*domain.FuelEntryHistory) error {
	return s.historyRepo.CreateAll(ctx, records)
}

func (s *fuelService) Delete(ctx context.Context, id int64) error {
	return s.entryRepo.Delete(ctx, id)
}

func (s *fuelService) DeleteAll(ctx context.Context) error {
	return s.entryRepo.DeleteAll(ctx)
}

func (s *fuelService) DeleteHistoryForEntry(ctx context.Context, entryID int64) error {
	return s.historyRepo.DeleteForEntry(ctx, entryID)
}

func (s *fuelService) DeleteAllHistory(ctx context.Context) error {
	return s.historyRepo.DeleteAll(ctx)
}

func (s *fuelService) GetEntryByID(ctx context.Context, id int64) (*domain.FuelEntry, error) {
	return s.entryRepo.GetByID(ctx, id)
}

func (s *fuelService) GetLastEntry(ctx context.Context) (*domain.FuelEntry, error) {
	return s.entryRepo.GetLast(ctx)
}

func (s *fuelService) GetRecentEntries(ctx context.Context, limit int) ([]*domain.FuelEntry, error) {
	return s.entryRepo.GetRecent(ctx, limit)
}

func (s *fuelService) GetAllEntries(ctx context.Context) ([]*domain.FuelEntry, error) {
	return s.entryRepo.List(ctx)
}

func (s *fuelService) GetHistoryForEntry(ctx context.Context, entryID int64) ([]*domain.FuelEntryHistory, error) {
	return s.historyRepo.ListForEntry(ctx, entryID)
}

func (s *fuelService) GetAllHistory(ctx context.Context) ([]*domain.FuelEntryHistory, error) {
	return s.historyRepo.List(ctx)
}

func (s *fuelService) WatchAllEntries(ctx context.Context) <-chan repository.Update[*domain.FuelEntry] {
	return s.entryRepo.WatchAll(ctx)
}

func (s *fuelService) WatchRecentEntries(ctx context.Context, limit int) <-chan repository.Update[*domain.FuelEntry] {
	return s.entryRepo.WatchRecent(ctx, limit)
}

func (s *fuelService) WatchHistoryForEntry(ctx context.Context, entryID int64) <-chan repository.Update[*domain.FuelEntryHistory] {
	return s.historyRepo.WatchForEntry(ctx, entryID)
}

func (s *fuelService) CalculateConsumption(current, previous *domain.FuelEntry) (float64, bool) {
	return CalculateConsumption(current, previous)
}

// CalculateConsumption returns km per liter between two consecutive entries:
// the distance driven since previous divided by the liters bought at previous.
// It reports false when either entry is missing, the odometer did not advance
// or previous has no volume.
func CalculateConsumption(current, previous *domain.FuelEntry) (float64, bool) {
	if current == nil || previous == nil {
		return 0, false
	}
	distance := current.OdometerKm - previous.OdometerKm
	if distance <= 0 || previous.Liters <= 0 {
		return 0, false
	}
	return distance / previous.Liters, true
}
