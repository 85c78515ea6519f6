package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/andy/fuellog/internal/domain"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mock implementation of Store backed by maps
type mockStore struct {
	entries    map[int64]*domain.FuelEntry
	history    []*domain.FuelEntryHistory
	nextID     int64
	writes     int
	restoreErr error
}

func newMockStore() *mockStore {
	return &mockStore{entries: make(map[int64]*domain.FuelEntry), nextID: 1}
}

func (m *mockStore) GetAllEntries(ctx context.Context) ([]*domain.FuelEntry, error) {
	out := make([]*domain.FuelEntry, 0, len(m.entries))
	for _, e := range m.entries {
		c := *e
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockStore) GetAllHistory(ctx context.Context) ([]*domain.FuelEntryHistory, error) {
	out := make([]*domain.FuelEntryHistory, len(m.history))
	for i, h := range m.history {
		c := *h
		out[i] = &c
	}
	return out, nil
}

func (m *mockStore) Insert(ctx context.Context, entry *domain.FuelEntry) (int64, error) {
	m.writes++
	entry.ID = m.nextID
	m.nextID++
	c := *entry
	m.entries[c.ID] = &c
	m.history = append(m.history, domain.NewCreatedHistory(c.ID, time.UnixMilli(1767000000000)))
	return c.ID, nil
}

func (m *mockStore) Restore(ctx context.Context, entry *domain.FuelEntry) error {
	m.writes++
	if m.restoreErr != nil {
		return m.restoreErr
	}
	c := *entry
	m.entries[c.ID] = &c
	if c.ID >= m.nextID {
		m.nextID = c.ID + 1
	}
	return nil
}

func (m *mockStore) RestoreHistory(ctx context.Context, records []*domain.FuelEntryHistory) error {
	m.writes++
	for _, r := range records {
		c := *r
		m.history = append(m.history, &c)
	}
	return nil
}

func (m *mockStore) DeleteAll(ctx context.Context) error {
	m.writes++
	m.entries = make(map[int64]*domain.FuelEntry)
	return nil
}

func (m *mockStore) DeleteAllHistory(ctx context.Context) error {
	m.writes++
	m.history = nil
	return nil
}

func seededStore() *mockStore {
	m := newMockStore()
	m.entries[3] = &domain.FuelEntry{
		ID:             3,
		Date:           time.UnixMilli(1766000000000),
		OdometerKm:     10000,
		Liters:         40,
		FuelType:       domain.FuelTypeGasoline,
		PricePerLiter:  5.79,
		TotalPrice:     231.6,
		Notes:          "full tank",
		CreatedAt:      time.UnixMilli(1766000000100),
		LastModifiedAt: time.UnixMilli(1766000000200),
	}
	m.entries[7] = &domain.FuelEntry{
		ID:             7,
		Date:           time.UnixMilli(1766500000000),
		OdometerKm:     10420.5,
		Liters:         38.25,
		FuelType:       domain.FuelTypeEthanol,
		PricePerLiter:  3.99,
		TotalPrice:     152.62,
		CreatedAt:      time.UnixMilli(1766500000100),
		LastModifiedAt: time.UnixMilli(1766600000000),
	}
	m.history = []*domain.FuelEntryHistory{
		{ID: 1, EntryID: 3, ModifiedAt: time.UnixMilli(1766000000100), Action: domain.ActionCreated, FieldName: "ALL", NewValue: "Entry created"},
		{ID: 2, EntryID: 7, ModifiedAt: time.UnixMilli(1766500000100), Action: domain.ActionCreated, FieldName: "ALL", NewValue: "Entry created"},
		{ID: 5, EntryID: 7, ModifiedAt: time.UnixMilli(1766600000000), Action: domain.ActionUpdated, FieldName: "liters", OldValue: "38.00", NewValue: "38.25"},
	}
	m.nextID = 8
	return m
}

func newTestService(store Store) (*Service, *logtest.Hook) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	svc := NewService(store, logger)
	svc.now = func() time.Time { return time.UnixMilli(1767225600000) }
	return svc, hook
}

func exportBytes(t *testing.T, svc *Service) []byte {
	t.Helper()
	var buf bytes.Buffer
	msg, err := svc.Export(context.Background(), &buf)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(msg, "Data exported successfully: "))
	return buf.Bytes()
}

func TestExport_Document(t *testing.T) {
	src := seededStore()
	svc, _ := newTestService(src)

	var buf bytes.Buffer
	msg, err := svc.Export(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, "Data exported successfully: 2 entries", msg)
	assert.Contains(t, buf.String(), "\n  \"version\": 1", "pretty printed")

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.EqualValues(t, 1, doc["version"])
	assert.EqualValues(t, 1767225600000, doc["exportDate"])

	entries := doc["entries"].([]any)
	require.Len(t, entries, 2)
	first := entries[0].(map[string]any)
	for _, key := range []string{"id", "date", "odometerKm", "liters", "fuelType", "pricePerLiter", "totalPrice", "notes", "createdAt", "lastModifiedAt"} {
		assert.Contains(t, first, key)
	}
	assert.EqualValues(t, 1766000000000, first["date"])

	history := doc["history"].([]any)
	require.Len(t, history, 3)
	last := history[2].(map[string]any)
	for _, key := range []string{"id", "entryId", "modifiedAt", "action", "fieldName", "oldValue", "newValue"} {
		assert.Contains(t, last, key)
	}
}

func TestExport_EmptyStoreWritesEmptyArrays(t *testing.T) {
	svc, _ := newTestService(newMockStore())
	data := exportBytes(t, svc)
	assert.Contains(t, string(data), `"entries": []`)
	assert.Contains(t, string(data), `"history": []`)
}

func TestImport_ReplaceRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := seededStore()
	srcSvc, _ := newTestService(src)
	data := exportBytes(t, srcSvc)

	dst := newMockStore()
	_, _ = dst.Insert(ctx, &domain.FuelEntry{OdometerKm: 1, Liters: 1, FuelType: domain.FuelTypeGasoline})
	dstSvc, _ := newTestService(dst)

	msg, err := dstSvc.ImportData(ctx, data, ModeReplace)
	require.NoError(t, err)
	assert.Equal(t, "Imported 2 entries (replaced all data)", msg)

	wantEntries, _ := src.GetAllEntries(ctx)
	gotEntries, _ := dst.GetAllEntries(ctx)
	require.Len(t, gotEntries, len(wantEntries))
	for i := range wantEntries {
		assert.Equal(t, wantEntries[i].ID, gotEntries[i].ID)
		assertSameEntry(t, wantEntries[i], gotEntries[i])
	}

	wantHistory, _ := src.GetAllHistory(ctx)
	gotHistory, _ := dst.GetAllHistory(ctx)
	require.Len(t, gotHistory, len(wantHistory))
	for i := range wantHistory {
		assert.Equal(t, wantHistory[i].ID, gotHistory[i].ID)
		assert.Equal(t, wantHistory[i].EntryID, gotHistory[i].EntryID)
		assert.True(t, wantHistory[i].ModifiedAt.Equal(gotHistory[i].ModifiedAt))
		assert.Equal(t, wantHistory[i].Action, gotHistory[i].Action)
		assert.Equal(t, wantHistory[i].FieldName, gotHistory[i].FieldName)
		assert.Equal(t, wantHistory[i].OldValue, gotHistory[i].OldValue)
		assert.Equal(t, wantHistory[i].NewValue, gotHistory[i].NewValue)
	}
}

func TestImport_AppendAssignsFreshIDsAndSkipsHistory(t *testing.T) {
	ctx := context.Background()
	src := seededStore()
	srcSvc, _ := newTestService(src)
	data := exportBytes(t, srcSvc)

	dst := newMockStore()
	dst.nextID = 100
	dstSvc, _ := newTestService(dst)

	msg, err := dstSvc.ImportData(ctx, data, ModeAppend)
	require.NoError(t, err)
	assert.Equal(t, "Imported 2 entries (added to existing data)", msg)

	wantEntries, _ := src.GetAllEntries(ctx)
	gotEntries, _ := dst.GetAllEntries(ctx)
	require.Len(t, gotEntries, 2)
	for i := range wantEntries {
		assert.GreaterOrEqual(t, gotEntries[i].ID, int64(100))
		assertSameEntry(t, wantEntries[i], gotEntries[i])
	}

	// only the creation records written by Insert, nothing from the file
	history, _ := dst.GetAllHistory(ctx)
	require.Len(t, history, 2)
	for _, h := range history {
		assert.Equal(t, domain.ActionCreated, h.Action)
		assert.GreaterOrEqual(t, h.EntryID, int64(100))
	}
}

func TestImport_AppendKeepsExistingData(t *testing.T) {
	ctx := context.Background()
	data := exportBytes(t, mustService(seededStore()))

	dst := seededStore()
	dstSvc, _ := newTestService(dst)

	_, err := dstSvc.ImportData(ctx, data, ModeAppend)
	require.NoError(t, err)

	entries, _ := dst.GetAllEntries(ctx)
	assert.Len(t, entries, 4)
	assert.Contains(t, dst.entries, int64(3))
	assert.Contains(t, dst.entries, int64(7))
}

func TestImport_UnsupportedVersionMutatesNothing(t *testing.T) {
	ctx := context.Background()
	dst := seededStore()
	svc, _ := newTestService(dst)

	for _, mode := range []ImportMode{ModeAppend, ModeReplace} {
		_, err := svc.ImportData(ctx, []byte(`{"version":2,"exportDate":0,"entries":[],"history":[]}`), mode)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrUnsupportedVersion))
	}
	assert.Zero(t, dst.writes)
	assert.Len(t, dst.entries, 2)
}

func TestImport_VersionZeroAccepted(t *testing.T) {
	svc, _ := newTestService(newMockStore())
	msg, err := svc.ImportData(context.Background(), []byte(`{"version":0,"entries":[],"history":[]}`), ModeAppend)
	require.NoError(t, err)
	assert.Equal(t, "Imported 0 entries (added to existing data)", msg)
}

func TestImport_UnknownFuelTypeFallsBack(t *testing.T) {
	ctx := context.Background()
	dst := newMockStore()
	svc, _ := newTestService(dst)

	doc := `{"version":1,"exportDate":1,"entries":[
		{"id":9,"date":1766000000000,"odometerKm":500,"liters":20,"fuelType":"DIESEL",
		 "pricePerLiter":6,"totalPrice":120,"notes":"","createdAt":1,"lastModifiedAt":2}
	],"history":[]}`

	_, err := svc.ImportData(ctx, []byte(doc), ModeReplace)
	require.NoError(t, err)
	require.Contains(t, dst.entries, int64(9))
	assert.Equal(t, domain.FuelTypeGasoline, dst.entries[9].FuelType)
}

func TestImport_MalformedJSON(t *testing.T) {
	dst := seededStore()
	svc, hook := newTestService(dst)

	_, err := svc.ImportData(context.Background(), []byte(`{"version":1,"entries":[`), ModeReplace)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrParse))
	assert.Zero(t, dst.writes)

	require.NotNil(t, hook.LastEntry())
	assert.Contains(t, hook.LastEntry().Data, "import_id")
}

func TestImport_UnknownMode(t *testing.T) {
	svc, _ := newTestService(newMockStore())
	_, err := svc.ImportData(context.Background(), []byte(`{"version":1}`), ImportMode("MERGE"))
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestImport_StoreFailureIsReturned(t *testing.T) {
	data := exportBytes(t, mustService(seededStore()))

	dst := newMockStore()
	dst.restoreErr = errors.New("disk full")
	svc, _ := newTestService(dst)

	_, err := svc.ImportData(context.Background(), data, ModeReplace)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestParseImportMode(t *testing.T) {
	mode, err := ParseImportMode("replace")
	require.NoError(t, err)
	assert.Equal(t, ModeReplace, mode)

	mode, err = ParseImportMode(" Append ")
	require.NoError(t, err)
	assert.Equal(t, ModeAppend, mode)

	_, err = ParseImportMode("merge")
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestExportToFile_AtomicWrite(t *testing.T) {
	ctx := context.Background()
	svc := mustService(seededStore())
	path := filepath.Join(t.TempDir(), "nested", "backup.json")

	msg, err := svc.ExportToFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "Data exported successfully: 2 entries", msg)

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers, "temp file must be renamed away")

	dst := newMockStore()
	out := mustService(dst)
	_, err = out.ImportFromFile(ctx, path, ModeReplace)
	require.NoError(t, err)
	assert.Len(t, dst.entries, 2)
}

func TestExportToFile_ConcurrentExportsToSamePath(t *testing.T) {
	ctx := context.Background()
	svc := mustService(seededStore())
	path := filepath.Join(t.TempDir(), "backup.json")

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.ExportToFile(ctx, path)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var env Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Len(t, env.Entries, 2)

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestExportToFile_UnwritableDestination(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	_, err := mustService(seededStore()).ExportToFile(context.Background(), filepath.Join(blocker, "backup.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrIO))
}

func TestImportFromFile_MissingFile(t *testing.T) {
	dst := seededStore()
	_, err := mustService(dst).ImportFromFile(context.Background(), filepath.Join(t.TempDir(), "nope.json"), ModeReplace)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrIO))
	assert.Zero(t, dst.writes)
}

func TestDefaultBackupPath(t *testing.T) {
	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	assert.Equal(t, filepath.Join("/tmp/backups", "fuellog_backup_20260304_050607.json"),
		DefaultBackupPath("/tmp/backups", "fuellog_backup", at))
}

func mustService(store Store) *Service {
	svc, _ := newTestService(store)
	return svc
}

func assertSameEntry(t *testing.T, want, got *domain.FuelEntry) {
	t.Helper()
	assert.True(t, want.Date.Equal(got.Date))
	assert.Equal(t, want.OdometerKm, got.OdometerKm)
	assert.Equal(t, want.Liters, got.Liters)
	assert.Equal(t, want.FuelType, got.FuelType)
	assert.Equal(t, want.PricePerLiter, got.PricePerLiter)
	assert.Equal(t, want.TotalPrice, got.TotalPrice)
	assert.Equal(t, want.Notes, got.Notes)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
	assert.True(t, want.LastModifiedAt.Equal(got.LastModifiedAt))
}
