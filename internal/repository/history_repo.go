package repository

import (
	"context"
	"fmt"

	"github.com/andy/fuellog/internal/db"
	"github.com/andy/fuellog/internal/domain"
)

const historyColumns = `id, entry_id, modified_at, action, field_name, old_value, new_value`

// HistoryRepo is a SQLite implementation of HistoryRepository
type HistoryRepo struct {
	db   *db.DB
	feed *feed
}

// NewHistoryRepo creates a new HistoryRepo
func NewHistoryRepo(database *db.DB) *HistoryRepo {
	return &HistoryRepo{db: database, feed: newFeed()}
}

// Create inserts a single history record
func (r *HistoryRepo) Create(ctx context.Context, record *domain.FuelEntryHistory) error {
	if err := insertHistory(ctx, r.db, record); err != nil {
		return err
	}

	r.feed.notify()
	return nil
}

// CreateAll inserts records in one transaction: either all are written or none
func (r *HistoryRepo) CreateAll(ctx context.Context, records []*domain.FuelEntryHistory) error {
	if len(records) == 0 {
		return nil
	}

	// IDs are assigned inside the transaction; only keep them once it commits
	ids := make([]int64, len(records))
	err := r.db.WithTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		for i, record := range records {
			clone := *record
			if err := insertHistory(ctx, tx, &clone); err != nil {
				return err
			}
			ids[i] = clone.ID
		}
		return nil
	})
	if err != nil {
		return err
	}

	for i, record := range records {
		record.ID = ids[i]
	}

	r.feed.notify()
	return nil
}

// ListForEntry retrieves the audit trail for an entry, newest first
func (r *HistoryRepo) ListForEntry(ctx context.Context, entryID int64) ([]*domain.FuelEntryHistory, error) {
	query := `
		SELECT ` + historyColumns + `
		FROM fuel_entry_history
		WHERE entry_id = ?
		ORDER BY modified_at DESC, id DESC
	`
	return r.queryHistory(ctx, query, entryID)
}

// List retrieves every history record in insertion order
func (r *HistoryRepo) List(ctx context.Context) ([]*domain.FuelEntryHistory, error) {
	query := `SELECT ` + historyColumns + ` FROM fuel_entry_history ORDER BY id`
	return r.queryHistory(ctx, query)
}

// DeleteForEntry removes every history record that references entryID
func (r *HistoryRepo) DeleteForEntry(ctx context.Context, entryID int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM fuel_entry_history WHERE entry_id = ?", entryID); err != nil {
		return fmt.Errorf("failed to delete entry history: %w", err)
	}

	r.feed.notify()
	return nil
}

// DeleteAll removes every history record
func (r *HistoryRepo) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM fuel_entry_history"); err != nil {
		return fmt.Errorf("failed to clear entry history: %w", err)
	}

	r.feed.notify()
	return nil
}

// WatchForEntry streams the audit trail for an entry on every history change
func (r *HistoryRepo) WatchForEntry(ctx context.Context, entryID int64) <-chan Update[*domain.FuelEntryHistory] {
	return watch(ctx, r.feed, func(ctx context.Context) ([]*domain.FuelEntryHistory, error) {
		return r.ListForEntry(ctx, entryID)
	})
}

func (r *HistoryRepo) queryHistory(ctx context.Context, query string, args ...any) ([]*domain.FuelEntryHistory, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get entry history: %w", err)
	}
	defer rows.Close()

	history := make([]*domain.FuelEntryHistory, 0)
	for rows.Next() {
		h := &domain.FuelEntryHistory{}
		var modifiedAt int64
		var action string

		err := rows.Scan(
			&h.ID,
			&h.EntryID,
			&modifiedAt,
			&action,
			&h.FieldName,
			&h.OldValue,
			&h.NewValue,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}

		h.ModifiedAt = fromMillis(modifiedAt)
		h.Action = domain.HistoryAction(action)
		history = append(history, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history: %w", err)
	}

	return history, nil
}

// insertHistory writes one record, keeping its ID when non-zero
func insertHistory(ctx context.Context, q db.DBTX, record *domain.FuelEntryHistory) error {
	args := []any{
		record.EntryID,
		toMillis(record.ModifiedAt),
		string(record.Action),
		record.FieldName,
		record.OldValue,
		record.NewValue,
	}

	query := `
		INSERT INTO fuel_entry_history (entry_id, modified_at, action, field_name, old_value, new_value)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	if record.ID != 0 {
		query = `
			INSERT INTO fuel_entry_history (id, entry_id, modified_at, action, field_name, old_value, new_value)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`
		args = append([]any{record.ID}, args...)
	}

	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to create history record: %w", err)
	}

	if record.ID == 0 {
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get history record ID: %w", err)
		}
		record.ID = id
	}

	return nil
}
