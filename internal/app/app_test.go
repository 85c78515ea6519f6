package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/andy/fuellog/internal/config"
	"github.com/andy/fuellog/internal/domain"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Database.Path = filepath.Join(dir, "data", "fuellog.db")
	cfg.Backup.Dir = filepath.Join(dir, "backups")
	return cfg
}

func TestNewWithKey_WiresServices(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	logger, _ := logtest.NewNullLogger()

	a, err := NewWithKey(ctx, cfg, logger, "app-test-key")
	require.NoError(t, err)
	defer a.Close()

	assert.DirExists(t, cfg.Backup.Dir)

	id, err := a.FuelService.Insert(ctx, domain.NewFuelEntry(time.Now(), 1200, 35, domain.FuelTypeGasoline, 5.49))
	require.NoError(t, err)

	summary, err := a.StatsService.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.EntryCount)

	env, err := a.BackupService.ExportData(ctx)
	require.NoError(t, err)
	require.Len(t, env.Entries, 1)
	assert.Equal(t, id, env.Entries[0].ID)
	assert.Len(t, env.History, 1)
}

func TestNewWithKey_ReopenWithWrongKeyFails(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	logger, _ := logtest.NewNullLogger()

	a, err := NewWithKey(ctx, cfg, logger, "right")
	require.NoError(t, err)
	require.NoError(t, a.Close())

	data, err := os.ReadFile(cfg.Database.Path)
	require.NoError(t, err)
	assert.False(t, bytes.HasPrefix(data, []byte("SQLite format 3")), "database file must be encrypted")

	_, err = NewWithKey(ctx, cfg, logger, "wrong")
	assert.Error(t, err)

	again, err := NewWithKey(ctx, cfg, logger, "right")
	require.NoError(t, err)
	require.NoError(t, again.Close())
}

func TestDefaultBackupPath(t *testing.T) {
	cfg := testConfig(t)
	a := &App{Config: cfg}

	path := a.DefaultBackupPath()
	assert.Equal(t, cfg.Backup.Dir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "fuellog_backup_"))
	assert.Equal(t, ".json", filepath.Ext(path))
}
