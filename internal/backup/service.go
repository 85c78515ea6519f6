package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/andy/fuellog/internal/domain"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ImportMode decides what happens to existing data on import
type ImportMode string

const (
	// ModeAppend adds the imported entries under fresh ids and skips their history
	ModeAppend ImportMode = "APPEND"
	// ModeReplace wipes both stores and restores entries and history with their ids
	ModeReplace ImportMode = "REPLACE"
)

// ParseImportMode accepts the mode name in any case
func ParseImportMode(s string) (ImportMode, error) {
	switch ImportMode(strings.ToUpper(strings.TrimSpace(s))) {
	case ModeAppend:
		return ModeAppend, nil
	case ModeReplace:
		return ModeReplace, nil
	}
	return "", fmt.Errorf("%w: unknown import mode %q", domain.ErrValidation, s)
}

// Store is the part of the fuel service a backup reads from and writes to
type Store interface {
	GetAllEntries(ctx context.Context) ([]*domain.FuelEntry, error)
	GetAllHistory(ctx context.Context) ([]*domain.FuelEntryHistory, error)
	Insert(ctx context.Context, entry *domain.FuelEntry) (int64, error)
	Restore(ctx context.Context, entry *domain.FuelEntry) error
	RestoreHistory(ctx context.Context, records []*domain.FuelEntryHistory) error
	DeleteAll(ctx context.Context) error
	DeleteAllHistory(ctx context.Context) error
}

// Service exports and imports the full contents of the entry and history stores
type Service struct {
	store Store
	log   logrus.FieldLogger
	now   func() time.Time
}

// NewService creates a new backup service
func NewService(store Store, log logrus.FieldLogger) *Service {
	return &Service{
		store: store,
		log:   log,
		now:   time.Now,
	}
}

// DefaultBackupPath names a backup file after the moment it was taken
func DefaultBackupPath(dir, prefix string, at time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.json", prefix, at.Format("20060102_150405")))
}

// ExportData takes a snapshot of both stores
func (s *Service) ExportData(ctx context.Context) (*Envelope, error) {
	entries, err := s.store.GetAllEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read entries: %w", err)
	}
	history, err := s.store.GetAllHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	env := &Envelope{
		Version:    FormatVersion,
		ExportDate: s.now().UnixMilli(),
		Entries:    make([]EntryRecord, 0, len(entries)),
		History:    make([]HistoryRecord, 0, len(history)),
	}
	for _, e := range entries {
		env.Entries = append(env.Entries, newEntryRecord(e))
	}
	for _, h := range history {
		env.History = append(env.History, newHistoryRecord(h))
	}
	return env, nil
}

// Export writes a pretty-printed snapshot to w and returns a summary message
func (s *Service) Export(ctx context.Context, w io.Writer) (string, error) {
	env, err := s.ExportData(ctx)
	if err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode backup: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return "", fmt.Errorf("%w: failed to write backup: %v", domain.ErrIO, err)
	}

	s.log.WithField("entries", len(env.Entries)).Info("data exported")
	return fmt.Sprintf("Data exported successfully: %d entries", len(env.Entries)), nil
}

// ExportToFile writes the snapshot next to path and renames it into place,
// so an interrupted export never leaves a truncated backup behind.
func (s *Service) ExportToFile(ctx context.Context, path string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", fmt.Errorf("%w: failed to create backup directory: %v", domain.ErrIO, err)
	}

	// one temp file per export; concurrent exports to the same path stay apart
	file, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("%w: failed to create backup file: %v", domain.ErrIO, err)
	}
	tempFile := file.Name()

	msg, err := s.Export(ctx, file)
	if err != nil {
		_ = file.Close()
		_ = os.Remove(tempFile)
		return "", err
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		_ = os.Remove(tempFile)
		return "", fmt.Errorf("%w: failed to sync backup file: %v", domain.ErrIO, err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tempFile)
		return "", fmt.Errorf("%w: failed to close backup file: %v", domain.ErrIO, err)
	}

	if err := os.Rename(tempFile, path); err != nil {
		_ = os.Remove(tempFile)
		return "", fmt.Errorf("%w: failed to save backup file: %v", domain.ErrIO, err)
	}

	s.log.WithField("path", path).Debug("backup file written")
	return msg, nil
}

// ImportData restores a backup document. The document is parsed and its
// version checked before anything is written. REPLACE deletes and then
// reinserts without a surrounding transaction, so a failure part way through
// can leave the stores empty; the error is returned in that case.
func (s *Service) ImportData(ctx context.Context, data []byte, mode ImportMode) (string, error) {
	log := s.log.WithFields(logrus.Fields{
		"import_id": uuid.NewString(),
		"mode":      mode,
	})

	if mode != ModeAppend && mode != ModeReplace {
		return "", fmt.Errorf("%w: unknown import mode %q", domain.ErrValidation, mode)
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.WithError(err).Warn("import rejected")
		return "", fmt.Errorf("%w: %v", domain.ErrParse, err)
	}
	if env.Version > FormatVersion {
		log.WithField("version", env.Version).Warn("import rejected")
		return "", fmt.Errorf("%w: version %d, this build reads up to %d",
			domain.ErrUnsupportedVersion, env.Version, FormatVersion)
	}

	if mode == ModeReplace {
		if err := s.store.DeleteAll(ctx); err != nil {
			return "", fmt.Errorf("failed to clear entries: %w", err)
		}
		if err := s.store.DeleteAllHistory(ctx); err != nil {
			return "", fmt.Errorf("failed to clear history: %w", err)
		}
	}

	for _, rec := range env.Entries {
		if _, ok := domain.ParseFuelType(rec.FuelType); !ok {
			log.WithFields(logrus.Fields{
				"entry_id":  rec.ID,
				"fuel_type": rec.FuelType,
			}).Debug("unknown fuel type imported as GASOLINE")
		}

		entry := rec.toDomain()
		switch mode {
		case ModeAppend:
			entry.ID = 0
			if _, err := s.store.Insert(ctx, entry); err != nil {
				return "", fmt.Errorf("failed to import entry %d: %w", rec.ID, err)
			}
		case ModeReplace:
			if err := s.store.Restore(ctx, entry); err != nil {
				return "", fmt.Errorf("failed to restore entry %d: %w", rec.ID, err)
			}
		}
	}

	if mode == ModeReplace && len(env.History) > 0 {
		records := make([]*domain.FuelEntryHistory, len(env.History))
		for i, rec := range env.History {
			records[i] = rec.toDomain()
		}
		if err := s.store.RestoreHistory(ctx, records); err != nil {
			return "", fmt.Errorf("failed to restore history: %w", err)
		}
	}

	log.WithFields(logrus.Fields{
		"entries": len(env.Entries),
		"history": len(env.History),
	}).Info("data imported")

	if mode == ModeAppend {
		return fmt.Sprintf("Imported %d entries (added to existing data)", len(env.Entries)), nil
	}
	return fmt.Sprintf("Imported %d entries (replaced all data)", len(env.Entries)), nil
}

// Import reads a backup document from r
func (s *Service) Import(ctx context.Context, r io.Reader, mode ImportMode) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read backup: %v", domain.ErrIO, err)
	}
	return s.ImportData(ctx, data, mode)
}

// ImportFromFile reads the backup document at path
func (s *Service) ImportFromFile(ctx context.Context, path string, mode ImportMode) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: backup file %s does not exist", domain.ErrIO, path)
		}
		return "", fmt.Errorf("%w: failed to open backup file: %v", domain.ErrIO, err)
	}
	defer file.Close()

	s.log.WithField("path", path).Debug("reading backup file")
	return s.Import(ctx, file, mode)
}
