package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andy/fuellog/internal/db"
	"github.com/andy/fuellog/internal/domain"
)

const entryColumns = `id, date, odometer_km, liters, fuel_type, price_per_liter, total_price,
		       notes, created_at, last_modified_at`

// EntryRepo is a SQLite implementation of FuelEntryRepository
type EntryRepo struct {
	db   *db.DB
	feed *feed
}

// NewEntryRepo creates a new EntryRepo
func NewEntryRepo(database *db.DB) *EntryRepo {
	return &EntryRepo{db: database, feed: newFeed()}
}

// Create inserts a new fuel entry. A zero ID lets SQLite assign one; a non-zero
// ID is written as given, replacing any row that already has it.
func (r *EntryRepo) Create(ctx context.Context, entry *domain.FuelEntry) error {
	if err := insertEntry(ctx, r.db, entry); err != nil {
		return err
	}

	r.feed.notify()
	return nil
}

// CreateWithHistory inserts entry and its creation record in one transaction.
// record.EntryID is set to the new entry's ID. Neither row is written if
// either insert fails.
//
// Only entry watchers are woken: AUTOINCREMENT never hands out an ID twice, so
// nobody can be watching the history of an entry that did not exist yet.
func (r *EntryRepo) CreateWithHistory(ctx context.Context, entry *domain.FuelEntry, record *domain.FuelEntryHistory) error {
	stored := *entry
	created := *record

	err := r.db.WithTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if err := insertEntry(ctx, tx, &stored); err != nil {
			return err
		}
		created.EntryID = stored.ID
		return insertHistory(ctx, tx, &created)
	})
	if err != nil {
		return err
	}

	entry.ID = stored.ID
	*record = created

	r.feed.notify()
	return nil
}

func insertEntry(ctx context.Context, q db.DBTX, entry *domain.FuelEntry) error {
	args := []any{
		toMillis(entry.Date),
		entry.OdometerKm,
		entry.Liters,
		string(entry.FuelType),
		entry.PricePerLiter,
		entry.TotalPrice,
		entry.Notes,
		toMillis(entry.CreatedAt),
		toMillis(entry.LastModifiedAt),
	}

	query := `
		INSERT INTO fuel_entries (
			date, odometer_km, liters, fuel_type, price_per_liter, total_price,
			notes, created_at, last_modified_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	if entry.ID != 0 {
		query = `
			INSERT OR REPLACE INTO fuel_entries (
				id, date, odometer_km, liters, fuel_type, price_per_liter, total_price,
				notes, created_at, last_modified_at
			)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		args = append([]any{entry.ID}, args...)
	}

	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to create fuel entry: %w", err)
	}

	if entry.ID == 0 {
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get fuel entry ID: %w", err)
		}
		entry.ID = id
	}

	return nil
}

// Update overwrites every field of an existing fuel entry
func (r *EntryRepo) Update(ctx context.Context, entry *domain.FuelEntry) error {
	query := `
		UPDATE fuel_entries
		SET date = ?, odometer_km = ?, liters = ?, fuel_type = ?, price_per_liter = ?,
		    total_price = ?, notes = ?, created_at = ?, last_modified_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		toMillis(entry.Date),
		entry.OdometerKm,
		entry.Liters,
		string(entry.FuelType),
		entry.PricePerLiter,
		entry.TotalPrice,
		entry.Notes,
		toMillis(entry.CreatedAt),
		toMillis(entry.LastModifiedAt),
		entry.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update fuel entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("fuel entry %d: %w", entry.ID, domain.ErrNotFound)
	}

	r.feed.notify()
	return nil
}

// Delete removes a fuel entry. Its history is left in place.
func (r *EntryRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM fuel_entries WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete fuel entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("fuel entry %d: %w", id, domain.ErrNotFound)
	}

	r.feed.notify()
	return nil
}

// GetByID retrieves a fuel entry by ID, or nil if there is none
func (r *EntryRepo) GetByID(ctx context.Context, id int64) (*domain.FuelEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM fuel_entries WHERE id = ?`

	entry, err := scanEntry(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get fuel entry: %w", err)
	}

	return entry, nil
}

// GetLast retrieves the most recent fuel entry by date, or nil if the table is empty
func (r *EntryRepo) GetLast(ctx context.Context) (*domain.FuelEntry, error) {
	entries, err := r.GetRecent(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return entries[0], nil
}

// GetRecent retrieves the limit most recent fuel entries, newest first
func (r *EntryRepo) GetRecent(ctx context.Context, limit int) ([]*domain.FuelEntry, error) {
	if limit <= 0 {
		return []*domain.FuelEntry{}, nil
	}
	query := `SELECT ` + entryColumns + ` FROM fuel_entries ORDER BY date DESC, id ASC LIMIT ?`
	return r.queryEntries(ctx, query, limit)
}

// List retrieves every fuel entry, newest first
func (r *EntryRepo) List(ctx context.Context) ([]*domain.FuelEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM fuel_entries ORDER BY date DESC, id ASC`
	return r.queryEntries(ctx, query)
}

// DeleteAll removes every fuel entry
func (r *EntryRepo) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM fuel_entries"); err != nil {
		return fmt.Errorf("failed to clear fuel entries: %w", err)
	}

	r.feed.notify()
	return nil
}

// WatchAll streams the full entry list, newest first, on every change
func (r *EntryRepo) WatchAll(ctx context.Context) <-chan Update[*domain.FuelEntry] {
	return watch(ctx, r.feed, r.List)
}

// WatchRecent streams the limit most recent entries on every change
func (r *EntryRepo) WatchRecent(ctx context.Context, limit int) <-chan Update[*domain.FuelEntry] {
	return watch(ctx, r.feed, func(ctx context.Context) ([]*domain.FuelEntry, error) {
		return r.GetRecent(ctx, limit)
	})
}

func (r *EntryRepo) queryEntries(ctx context.Context, query string, args ...any) ([]*domain.FuelEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list fuel entries: %w", err)
	}
	defer rows.Close()

	entries := make([]*domain.FuelEntry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fuel entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fuel entries: %w", err)
	}

	return entries, nil
}

// scanEntry reads one fuel_entries row selected with entryColumns
func scanEntry(row rowScanner) (*domain.FuelEntry, error) {
	entry := &domain.FuelEntry{}
	var date, createdAt, lastModifiedAt int64
	var fuelType string

	err := row.Scan(
		&entry.ID,
		&date,
		&entry.OdometerKm,
		&entry.Liters,
		&fuelType,
		&entry.PricePerLiter,
		&entry.TotalPrice,
		&entry.Notes,
		&createdAt,
		&lastModifiedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.Date = fromMillis(date)
	entry.FuelType, _ = domain.ParseFuelType(fuelType)
	entry.CreatedAt = fromMillis(createdAt)
	entry.LastModifiedAt = fromMillis(lastModifiedAt)

	return entry, nil
}
